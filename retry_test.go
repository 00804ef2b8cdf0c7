package touringbot_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Brandonf2022/touringbot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSleep records requested delays without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleep) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return ctx.Err()
}

func TestRetryPolicy_Delays(t *testing.T) {
	t.Parallel()

	p := touringbot.RetryPolicy{MaxAttempts: 5, InitialBackoff: time.Second, Factor: 2}
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}, p.Delays())

	assert.Empty(t, touringbot.RetryPolicy{MaxAttempts: 1, InitialBackoff: time.Second}.Delays())
	assert.Equal(t, []time.Duration{time.Second, time.Second}, touringbot.RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Second}.Delays())
}

func TestRetry(t *testing.T) {
	t.Parallel()

	t.Run("succeeds on first attempt", func(t *testing.T) {
		t.Parallel()

		sleeper := &recordingSleep{}
		var attempts int
		err := touringbot.Retry(context.Background(), touringbot.RetryPolicy{
			MaxAttempts: 3, InitialBackoff: time.Second, Factor: 2, Sleep: sleeper.Sleep,
		}, func(context.Context) error {
			attempts++
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
		assert.Empty(t, sleeper.delays)
	})

	t.Run("doubles delay between retries", func(t *testing.T) {
		t.Parallel()

		sleeper := &recordingSleep{}
		var attempts int
		err := touringbot.Retry(context.Background(), touringbot.RetryPolicy{
			MaxAttempts: 5, InitialBackoff: 5 * time.Second, Factor: 2, Sleep: sleeper.Sleep,
		}, func(context.Context) error {
			attempts++
			if attempts < 4 {
				return touringbot.StatusError(429, "u")
			}
			return nil
		})

		require.NoError(t, err)
		assert.Equal(t, 4, attempts)
		assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 20 * time.Second}, sleeper.delays)
	})

	t.Run("returns last error after max attempts", func(t *testing.T) {
		t.Parallel()

		sleeper := &recordingSleep{}
		var attempts int
		err := touringbot.Retry(context.Background(), touringbot.RetryPolicy{
			MaxAttempts: 3, InitialBackoff: time.Millisecond, Factor: 2, Sleep: sleeper.Sleep,
		}, func(context.Context) error {
			attempts++
			return touringbot.Errorf(touringbot.ENETWORK, "attempt %d", attempts)
		})

		require.Error(t, err)
		assert.Equal(t, touringbot.ENETWORK, touringbot.ErrorCode(err))
		assert.Equal(t, "attempt 3", touringbot.ErrorMessage(err))
		assert.Equal(t, 3, attempts)
		assert.Len(t, sleeper.delays, 2, "no sleep after the last attempt")
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		t.Parallel()

		var attempts int
		err := touringbot.Retry(context.Background(), touringbot.RetryPolicy{
			MaxAttempts: 5, Retryable: touringbot.IsTransient, Sleep: (&recordingSleep{}).Sleep,
		}, func(context.Context) error {
			attempts++
			return touringbot.StatusError(404, "u")
		})

		assert.Equal(t, touringbot.EHTTPSTATUS, touringbot.ErrorCode(err))
		assert.Equal(t, 1, attempts)
	})

	t.Run("reports retries", func(t *testing.T) {
		t.Parallel()

		var seen []int
		_ = touringbot.Retry(context.Background(), touringbot.RetryPolicy{
			MaxAttempts: 3,
			Sleep:       (&recordingSleep{}).Sleep,
			OnRetry: func(attempt int, _ time.Duration, _ error) {
				seen = append(seen, attempt)
			},
		}, func(context.Context) error {
			return errors.New("transient")
		})

		assert.Equal(t, []int{1, 2}, seen)
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		var attempts int
		err := touringbot.Retry(ctx, touringbot.RetryPolicy{
			MaxAttempts: 5, InitialBackoff: time.Hour,
		}, func(context.Context) error {
			attempts++
			cancel()
			return errors.New("transient")
		})

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, attempts)
	})
}

func TestSleep(t *testing.T) {
	t.Parallel()

	t.Run("returns early when canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := touringbot.Sleep(ctx, time.Hour)

		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("zero duration returns immediately", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, touringbot.Sleep(context.Background(), 0))
	})
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	assert.True(t, touringbot.IsTransient(touringbot.StatusError(429, "u")))
	assert.True(t, touringbot.IsTransient(touringbot.Errorf(touringbot.ENETWORK, "reset")))
	assert.True(t, touringbot.IsTransient(touringbot.Errorf(touringbot.EBUSY, "locked")))
	assert.False(t, touringbot.IsTransient(touringbot.StatusError(500, "u")))
	assert.False(t, touringbot.IsTransient(errors.New("plain")))
	assert.False(t, touringbot.IsTransient(nil))
}
