package embedder

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig configures capped exponential backoff with full jitter for
// embedding HTTP calls. Retry policy is the provider's own concern: the
// indexing orchestrator above it never retries on its own.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryConfig is a conservative schedule for a local or
// self-hosted embedding endpoint.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    12 * time.Second,
	}
}

// withRetry runs fn up to cfg.MaxAttempts times, sleeping a random
// duration between attempts using full jitter: the sleep ceiling doubles
// after each failed attempt (capped at cfg.MaxDelay), and the actual
// sleep is drawn uniformly from [0, ceiling]. Full jitter avoids the
// thundering-herd effect a fixed exponential schedule produces when many
// callers retry against the same endpoint in lockstep.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	ceiling := cfg.BaseDelay
	if ceiling <= 0 {
		ceiling = time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		sleep := time.Duration(rand.Int63n(int64(ceiling) + 1))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}

		ceiling *= 2
		if ceiling > cfg.MaxDelay {
			ceiling = cfg.MaxDelay
		}
	}

	return fmt.Errorf("embedding call failed after %d attempts: %w", cfg.MaxAttempts, lastErr)
}
