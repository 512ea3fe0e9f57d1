package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// maxEnvKeys bounds the GEMINI_API_KEY_<n> / OPENAI_API_KEY_<n> scan.
const maxEnvKeys = 32

type Config struct {
	Server struct {
		Port        int      `yaml:"port"`
		APIKeys     []string `yaml:"apiKeys"`
		CORSOrigins []string `yaml:"corsOrigins"`
		RateLimit   struct {
			RequestsPerSecond float64 `yaml:"requestsPerSecond"`
			Burst             int     `yaml:"burst"`
		} `yaml:"rateLimit"`
	} `yaml:"server"`

	AI struct {
		Provider    string        `yaml:"provider"`
		Model       string        `yaml:"model"`
		BaseURL     string        `yaml:"baseURL"`
		Temperature float32       `yaml:"temperature"`
		Timeout     time.Duration `yaml:"timeout"`
		Retries     int           `yaml:"retries"`
		Backoff     time.Duration `yaml:"backoff"`
		Keys        []string      `yaml:"keys"`
	} `yaml:"ai"`

	Cache struct {
		Match string `yaml:"match"`
	} `yaml:"cache"`

	Database struct {
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 8080
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Server.RateLimit.RequestsPerSecond = 5
	cfg.Server.RateLimit.Burst = 10
	cfg.AI.Provider = "gemini"
	cfg.AI.Temperature = 0.2
	cfg.AI.Timeout = 60 * time.Second
	cfg.AI.Backoff = 500 * time.Millisecond
	cfg.Cache.Match = "substring"
	cfg.Minio.BucketName = "pureplate"
	cfg.Log.Level = "info"
	return &cfg
}

// Load baca .env lalu config.yaml. Missing files are fine; defaults apply.
// Credentials from the environment are appended to ai.keys.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.normalize()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// normalize lower-cases the enum-like settings so later switches match them.
func (c *Config) normalize() {
	c.AI.Provider = strings.ToLower(strings.TrimSpace(c.AI.Provider))
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	c.Cache.Match = strings.ToLower(strings.TrimSpace(c.Cache.Match))
}

func (c *Config) applyEnv() {
	prefix := "GEMINI_API_KEY"
	if strings.EqualFold(c.AI.Provider, "openai") {
		prefix = "OPENAI_API_KEY"
	}
	c.AI.Keys = append(c.AI.Keys, envKeys(prefix)...)
	c.AI.Keys = compact(c.AI.Keys)

	if v := os.Getenv("PUREPLATE_DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("PUREPLATE_MINIO_SECRET_KEY"); v != "" {
		c.Minio.SecretKey = v
	}
}

// envKeys reads PREFIX and PREFIX_1..PREFIX_n. Unset or blank ones are skipped.
func envKeys(prefix string) []string {
	var keys []string
	if v := strings.TrimSpace(os.Getenv(prefix)); v != "" {
		keys = append(keys, v)
	}
	for i := 1; i <= maxEnvKeys; i++ {
		if v := strings.TrimSpace(os.Getenv(fmt.Sprintf("%s_%d", prefix, i))); v != "" {
			keys = append(keys, v)
		}
	}
	return keys
}

func compact(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Validate reports settings the service cannot run with. An empty key list
// is allowed: every analysis then degrades, but history stays browsable.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.AI.Provider) {
	case "gemini", "openai":
	default:
		errs = append(errs, fmt.Errorf("ai.provider: unsupported %q (supported: gemini, openai)", c.AI.Provider))
	}
	switch strings.ToLower(c.Database.Driver) {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q (supported: mysql, postgres)", c.Database.Driver))
	}
	switch strings.ToLower(c.Cache.Match) {
	case "", "substring", "token":
	default:
		errs = append(errs, fmt.Errorf("cache.match: unsupported %q (supported: substring, token)", c.Cache.Match))
	}
	if c.AI.Retries < 0 {
		errs = append(errs, fmt.Errorf("ai.retries: must not be negative"))
	}
	if c.AI.Temperature < 0 || c.AI.Temperature > 2 {
		errs = append(errs, fmt.Errorf("ai.temperature: %.2f out of range 0..2", c.AI.Temperature))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port: %d out of range", c.Server.Port))
	}
	return errors.Join(errs...)
}

// DatabaseEnabled is false when no driver is configured.
func (c *Config) DatabaseEnabled() bool { return c.Database.Driver != "" }

// MinioEnabled is false when no endpoint is configured.
func (c *Config) MinioEnabled() bool { return c.Minio.Endpoint != "" }

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds a lib/pq key=value connection string.
func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}
