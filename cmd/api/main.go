package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/pureplate/internal/application"
	"github.com/bryanwahyu/pureplate/internal/application/analysis"
	"github.com/bryanwahyu/pureplate/internal/config"
	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
	"github.com/bryanwahyu/pureplate/internal/infra/ai"
	"github.com/bryanwahyu/pureplate/internal/infra/ai/credentials"
	"github.com/bryanwahyu/pureplate/internal/infra/ai/prompt"
	mysqlp "github.com/bryanwahyu/pureplate/internal/infra/db/mysql"
	pgp "github.com/bryanwahyu/pureplate/internal/infra/db/postgres"
	"github.com/bryanwahyu/pureplate/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/pureplate/internal/infra/storage"
	"github.com/bryanwahyu/pureplate/internal/logging"
	"github.com/bryanwahyu/pureplate/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	checkers := map[string]middleware.HealthChecker{}

	// audit log (optional)
	var audit domain.AuditLog
	if cfg.DatabaseEnabled() {
		db, repo, err := openAudit(ctx, cfg)
		if err != nil {
			logger.Fatal("database connect error", zap.String("driver", cfg.Database.Driver), zap.Error(err))
		}
		defer db.Close()
		audit = repo
		checkers["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// snapshot archive (optional)
	var archive domain.Archive
	if cfg.MinioEnabled() {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			logger.Fatal("minio init error", zap.Error(err))
		}
		archive = store
		checkers["minio"] = store
	}

	reasoner, err := ai.NewReasoner(cfg.AI.Provider, ai.Options{
		Model:       cfg.AI.Model,
		BaseURL:     cfg.AI.BaseURL,
		Temperature: cfg.AI.Temperature,
		Timeout:     cfg.AI.Timeout,
	})
	if err != nil {
		logger.Fatal("reasoner init error", zap.Error(err))
	}
	matcher, err := analysis.MatcherFor(cfg.Cache.Match)
	if err != nil {
		logger.Fatal("cache matcher error", zap.Error(err))
	}

	pool := credentials.NewPool(cfg.AI.Keys)
	if pool.Size() == 0 {
		logger.Warn("no api keys configured; every analysis will return a placeholder")
	}

	metrics := middleware.NewMetrics()
	svc := &analysis.Service{
		Pool:     pool,
		Builder:  prompt.NewBuilder(),
		Reasoner: reasoner,
		History:  analysis.NewHistory(matcher),
		Clock:    application.SystemClock{},
		Audit:    audit,
		Archive:  archive,
		Metrics:  metrics,
		Logger:   logger.Named("analysis"),
		Retry:    analysis.RetryPolicy{Retries: cfg.AI.Retries, Backoff: cfg.AI.Backoff},
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Burst, cfg.Server.RateLimit.RequestsPerSecond)
	defer limiter.Close()

	handler := httpserver.NewRouter(svc, httpserver.Options{
		Logger:      logger.Named("http"),
		Metrics:     metrics,
		RateLimiter: limiter,
		APIKeys:     cfg.Server.APIKeys,
		CORSOrigins: cfg.Server.CORSOrigins,
		Checkers:    checkers,
		Credentials: pool.Size(),
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.AI.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("provider", cfg.AI.Provider),
			zap.Int("credentials", pool.Size()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

// openAudit connects the configured database and makes sure the audit table exists.
func openAudit(ctx context.Context, cfg *config.Config) (*sql.DB, domain.AuditLog, error) {
	switch strings.ToLower(cfg.Database.Driver) {
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := pgp.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return db, pgp.NewAuditRepository(db), nil
	default:
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := mysqlp.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return db, mysqlp.NewAuditRepository(db), nil
	}
}
