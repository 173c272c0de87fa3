package connector

import (
	"context"
	"time"
)

// RetryIf runs fn once plus up to cfg.MaxRetries more times while it fails
// with an error retryable accepts, sleeping with exponential backoff in
// between. It stops early when ctx is done and returns the last error.
func RetryIf(ctx context.Context, cfg RetryConfig, retryable func(error) bool, fn func(context.Context) error) error {
	delay := cfg.BaseDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	factor := cfg.Backoff
	if factor < 1 {
		factor = 2
	}

	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries || !retryable(err) {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * factor)
		if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}
