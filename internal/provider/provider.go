// Package provider wraps the generative backend behind a single
// text-in/text-out operation. The pipeline treats the backend as an
// opaque collaborator: a Provider is constructed once at wiring time and
// injected, so tests substitute a deterministic stub without global
// state.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Provider is the generative backend client. Generate may fail on
// timeout, network, or malformed responses; callers convert those
// failures into user-safe messages and log the cause server-side.
type Provider interface {
	// Name returns the provider identifier.
	Name() string

	// Generate sends a prompt and returns the generated text. The
	// context bounds the call; expired contexts abort the request.
	Generate(ctx context.Context, prompt string) (string, error)
}

// BaseProvider carries the HTTP plumbing shared by concrete providers.
type BaseProvider struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

// NewBaseProvider creates the shared HTTP layer with a bounded client
// timeout.
func NewBaseProvider(baseURL, apiKey, model string, timeout time.Duration) *BaseProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BaseProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: timeout},
	}
}

// Config selects and configures a concrete provider.
type Config struct {
	Type    string // "ollama" or "openai"
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// New constructs a provider from config. An empty type selects the
// OpenAI-compatible client, which covers most hosted backends; any
// other unrecognized type is an error.
func New(cfg Config) (Provider, error) {
	switch cfg.Type {
	case "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Timeout), nil
	case "openai", "":
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.Type)
	}
}
