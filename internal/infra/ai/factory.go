package ai

import (
	"fmt"
	"strings"
	"time"

	domain "github.com/bryanwahyu/pureplate/internal/domain/analysis"
	"github.com/bryanwahyu/pureplate/internal/infra/ai/gemini"
	"github.com/bryanwahyu/pureplate/internal/infra/ai/openai"
)

// Provider represents the reasoning service type
type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
)

// Options for NewReasoner. Zero values fall back to each client's defaults.
type Options struct {
	Model       string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// NewReasoner creates a reasoning client for provider.
func NewReasoner(provider string, opts Options) (domain.Reasoner, error) {
	switch Provider(strings.ToLower(strings.TrimSpace(provider))) {
	case ProviderGemini, "":
		return gemini.NewClient(opts.Model, opts.BaseURL, opts.Temperature, opts.Timeout), nil
	case ProviderOpenAI:
		return openai.NewClient(opts.Model, opts.BaseURL, opts.Temperature, opts.Timeout), nil
	default:
		names := make([]string, 0, len(AvailableProviders()))
		for _, p := range AvailableProviders() {
			names = append(names, string(p))
		}
		return nil, fmt.Errorf("unsupported ai provider: %s (supported: %s)", provider, strings.Join(names, ", "))
	}
}

// AvailableProviders returns the providers NewReasoner understands.
func AvailableProviders() []Provider {
	return []Provider{ProviderGemini, ProviderOpenAI}
}
