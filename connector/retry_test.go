package connector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func always(error) bool { return true }

func TestRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := RetryIf(context.Background(), RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond}, always, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("refused")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	calls := 0
	boom := errors.New("refused")
	err := RetryIf(context.Background(), RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond}, always, func(context.Context) error {
		calls++
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 3, calls)
}

func TestRetry_ZeroRetriesRunsOnce(t *testing.T) {
	calls := 0
	_ = RetryIf(context.Background(), RetryConfig{}, always, func(context.Context) error {
		calls++
		return errors.New("refused")
	})
	assert.Equal(t, 1, calls)
}

func TestRetryIf_StopsOnPermanentError(t *testing.T) {
	permanent := errors.New("bad password")
	calls := 0
	err := RetryIf(context.Background(), RetryConfig{MaxRetries: 5, BaseDelay: time.Millisecond},
		func(err error) bool { return !errors.Is(err, permanent) },
		func(context.Context) error {
			calls++
			return permanent
		})

	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := RetryIf(ctx, RetryConfig{MaxRetries: 10, BaseDelay: time.Hour}, always, func(context.Context) error {
		calls++
		cancel()
		return errors.New("refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
