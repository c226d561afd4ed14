// Package llm talks to the language model services used to fill in cloze
// deletions and rephrase questions.
package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kpauljoseph/repeater/internal/enrich"
	"github.com/kpauljoseph/repeater/pkg/logger"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	MaxRetries = 3
	RetryDelay = 500 * time.Millisecond
)

var (
	ErrMissingAPIKey   = fmt.Errorf("%w: no API key configured", enrich.ErrProviderUnavailable)
	ErrUnknownProvider = errors.New("unknown LLM provider")
	ErrEmptyResponse   = errors.New("model returned an empty response")
)

// Client completes a single prompt.
type Client interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type Config struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
}

// NewClient builds the client for cfg.Provider.
func NewClient(ctx context.Context, cfg Config, log *logger.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, WithGeminiBaseURL(cfg.BaseURL), WithGeminiLogger(log))
	case ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, log), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
}
