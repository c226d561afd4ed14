package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kpauljoseph/repeater/internal/enrich"
	"github.com/kpauljoseph/repeater/pkg/logger"
)

type GeminiClient struct {
	client     *genai.Client
	model      string
	retryDelay time.Duration
	logger     *logger.Logger
}

type GeminiOption func(*geminiOptions)

type geminiOptions struct {
	baseURL string
	logger  *logger.Logger
}

// WithGeminiBaseURL points the client at another endpoint than the public
// Gemini API.
func WithGeminiBaseURL(url string) GeminiOption {
	return func(o *geminiOptions) {
		o.baseURL = url
	}
}

func WithGeminiLogger(l *logger.Logger) GeminiOption {
	return func(o *geminiOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

func NewGeminiClient(ctx context.Context, apiKey, model string, opts ...GeminiOption) (*GeminiClient, error) {
	options := geminiOptions{logger: logger.Nop()}
	for _, opt := range opts {
		opt(&options)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: options.baseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create genai client: %w", enrich.ErrProviderUnavailable, err)
	}
	return &GeminiClient{
		client:     client,
		model:      model,
		retryDelay: RetryDelay,
		logger:     options.logger,
	}, nil
}

// SetRetryDelay changes the pause between attempts.
func (c *GeminiClient) SetRetryDelay(d time.Duration) {
	c.retryDelay = d
}

func (c *GeminiClient) Complete(ctx context.Context, system, user string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
	}
	return withRetries(ctx, c.logger, c.retryDelay, func(ctx context.Context) (string, bool, error) {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(user), config)
		if err != nil {
			retry, err := classifyGeminiError(err)
			return "", retry, err
		}
		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return "", false, ErrEmptyResponse
		}
		return text, false, nil
	})
}

// classifyGeminiError reports whether another attempt could succeed.
// Errors that are not API responses come from the transport.
func classifyGeminiError(err error) (bool, error) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return true, fmt.Errorf("gemini request failed: %w", err)
	}
	switch {
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return false, fmt.Errorf("%w: gemini request failed: %w", enrich.ErrProviderUnavailable, err)
	case retryableStatus(apiErr.Code):
		return true, fmt.Errorf("gemini request failed: %w", err)
	}
	return false, fmt.Errorf("gemini request failed: %w", err)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
