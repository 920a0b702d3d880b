package camunda

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-workers/internal/common/logger"
)

func TestIsRetryableZeebeError(t *testing.T) {
	tests := map[string]bool{
		"rpc error: code = Unavailable desc = connection refused": true,
		"context deadline exceeded":                               true,
		"dial tcp: i/o timeout":                                   true,
		"rpc error: code = PermissionDenied":                      false,
		"invalid gateway address":                                 false,
	}
	for msg, want := range tests {
		assert.Equal(t, want, isRetryableZeebeError(errors.New(msg)), msg)
	}
}

func fastRetry() *RetryConfig {
	return &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
}

func TestRetryWithBackoff_RecoversFromTransientFailure(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), fastRetry(), logger.NewTestLogger(t), "connect", func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_StopsOnPermanentFailure(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), fastRetry(), logger.NewTestLogger(t), "connect", func() error {
		calls++
		return errors.New("permission denied")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_GivesUp(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), fastRetry(), logger.NewTestLogger(t), "connect", func() error {
		calls++
		return errors.New("unavailable")
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 3 attempts")
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rc := &RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}
	err := retryWithBackoff(ctx, rc, logger.NewNoOpLogger(), "connect", func() error {
		return errors.New("connection refused")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
