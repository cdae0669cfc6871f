package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Do(context.Background(), Policy{Attempts: 3, Delay: time.Millisecond}, "op", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_GivesUp(t *testing.T) {
	calls := 0
	sentinel := errors.New("down")
	err := Do(context.Background(), Policy{Attempts: 2, Delay: time.Millisecond, Backoff: true}, "op", func(ctx context.Context) error {
		calls++
		return sentinel
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
	assert.Equal(t, 2, calls)
}

func TestDo_SingleAttemptReturnsErrorUnchanged(t *testing.T) {
	sentinel := errors.New("down")
	err := Do(context.Background(), Policy{}, "op", func(ctx context.Context) error { return sentinel })
	assert.Equal(t, sentinel, err)
}

func TestDo_Permanent(t *testing.T) {
	calls := 0
	sentinel := errors.New("bad request")
	err := Do(context.Background(), Policy{Attempts: 5, Delay: time.Millisecond}, "op", func(ctx context.Context) error {
		calls++
		return Permanent(sentinel)
	})

	assert.Equal(t, sentinel, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	err := Do(ctx, Policy{Attempts: 3, Delay: time.Hour}, "op", func(ctx context.Context) error {
		cancel()
		return errors.New("transient")
	})

	assert.ErrorIs(t, err, context.Canceled)
}
