package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/kpauljoseph/repeater/internal/enrich"
	"github.com/kpauljoseph/repeater/pkg/logger"
)

// attemptFunc performs one request. The boolean reports whether a later
// attempt could succeed.
type attemptFunc func(ctx context.Context) (string, bool, error)

// withRetries runs attempt up to MaxRetries times, pausing delay between
// tries. Running out of attempts means the provider is unavailable.
func withRetries(ctx context.Context, log *logger.Logger, delay time.Duration, attempt attemptFunc) (string, error) {
	var lastErr error
	for i := 0; i < MaxRetries; i++ {
		if i > 0 {
			log.Debug("Retrying completion (attempt %d/%d)...", i+1, MaxRetries)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
		}

		text, retry, err := attempt(ctx)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !retry {
			return "", err
		}
		lastErr = err
	}

	return "", fmt.Errorf("%w: after %d attempts: %w", enrich.ErrProviderUnavailable, MaxRetries, lastErr)
}
