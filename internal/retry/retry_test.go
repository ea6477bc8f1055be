package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoSucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, InitialInterval: time.Millisecond}, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("still down")
	calls := 0
	err := Do(context.Background(), Policy{MaxAttempts: 3, InitialInterval: time.Millisecond}, func() error {
		calls++
		return wantErr
	})

	require.ErrorIs(t, err, wantErr)
	require.Equal(t, 3, calls)
}

func TestDoStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 5, InitialInterval: time.Hour}, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestDoRejectsInvalidPolicy(t *testing.T) {
	err := Do(context.Background(), Policy{}, func() error { return nil })
	require.Error(t, err)
}

func TestDoCapsBackoffDelay(t *testing.T) {
	start := time.Now()
	_ = Do(context.Background(), Policy{
		MaxAttempts:     4,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}, func() error {
		return errors.New("transient")
	})

	// 1ms + 2ms + 2ms of waiting; anything near a second means the cap failed.
	require.Less(t, time.Since(start), 500*time.Millisecond)
}
