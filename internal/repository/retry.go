package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Default connection retry policy.
const (
	DefaultConnectAttempts = 5
	DefaultConnectDelay    = 1500 * time.Millisecond
)

// OpenFunc opens a store once.
type OpenFunc func(ctx context.Context) (Store, error)

// LinearBackoff returns the wait before the next attempt: base * attempt.
// attempt is 1-indexed (the delay after the first failure is base).
func LinearBackoff(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(attempt)
}

// ConnectWithRetry calls open until it succeeds or maxAttempts is reached,
// sleeping LinearBackoff(base, attempt) between attempts.
func ConnectWithRetry(ctx context.Context, open OpenFunc, maxAttempts int, base time.Duration, logger *slog.Logger) (Store, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		store, err := open(ctx)
		if err == nil {
			return store, nil
		}
		lastErr = err

		if attempt == maxAttempts {
			break
		}

		delay := LinearBackoff(base, attempt)
		logger.Warn("database connection attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("retry_in", delay),
			slog.String("error", err.Error()),
		)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return nil, fmt.Errorf("connect after %d attempts: %w", maxAttempts, lastErr)
}
