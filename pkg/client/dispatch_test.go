package client

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryable_TransientErrnoIsRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, isRetryable(syscall.EBUSY))
}

func TestIsRetryable_PermanentErrnoIsNotRetryable(t *testing.T) {
	t.Parallel()
	assert.False(t, isRetryable(syscall.EIO))
	assert.False(t, isRetryable(syscall.ENOENT))
}

func TestIsRetryable_NonErrnoErrorIsRetryable(t *testing.T) {
	t.Parallel()
	assert.True(t, isRetryable(errors.New("dial tcp: connection refused")))
}

func TestWithRetry_StopsAfterFirstSuccess(t *testing.T) {
	t.Parallel()
	d := &Dispatcher{tries: 3, timeout: time.Second}

	calls := 0
	err := d.withRetry(context.Background(), 0, func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_RetriesTransientErrnoUntilSuccess(t *testing.T) {
	t.Parallel()
	d := &Dispatcher{tries: 3, timeout: time.Second}

	calls := 0
	err := d.withRetry(context.Background(), 0, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return syscall.EBUSY
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_GivesUpAfterExhaustingTries(t *testing.T) {
	t.Parallel()
	d := &Dispatcher{tries: 2, timeout: time.Second}

	calls := 0
	err := d.withRetry(context.Background(), 0, func(ctx context.Context) error {
		calls++
		return syscall.EBUSY
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithRetry_DoesNotRetryPermanentErrno(t *testing.T) {
	t.Parallel()
	d := &Dispatcher{tries: 5, timeout: time.Second}

	calls := 0
	err := d.withRetry(context.Background(), 0, func(ctx context.Context) error {
		calls++
		return syscall.ENOENT
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "a permanent errno should not be retried")
}

func TestWithRetry_AbortsOnContextCancellation(t *testing.T) {
	t.Parallel()
	d := &Dispatcher{tries: 5, timeout: time.Second}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	err := d.withRetry(ctx, 0, func(callCtx context.Context) error {
		calls++
		return syscall.EBUSY
	})
	require.Error(t, err)
	assert.LessOrEqual(t, calls, 5)
}
