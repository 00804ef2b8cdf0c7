package touringbot

import (
	"context"
	"time"
)

// SleepFunc waits for d or until ctx is done, whichever comes first.
type SleepFunc func(ctx context.Context, d time.Duration) error

// RetryPolicy controls bounded exponential backoff.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	// Values below 1 mean a single attempt.
	MaxAttempts int

	// InitialBackoff is the delay before the second attempt.
	InitialBackoff time.Duration

	// Factor multiplies the delay after every retry. Values below 1 keep
	// the delay constant.
	Factor float64

	// Retryable reports whether err is worth another attempt.
	// If nil, every error is retried.
	Retryable func(err error) bool

	// OnRetry, if set, is called before each backoff sleep.
	OnRetry func(attempt int, delay time.Duration, err error)

	// Sleep overrides the backoff wait. Tests use it to record delays.
	Sleep SleepFunc
}

// Delays returns the backoff schedule between attempts.
func (p RetryPolicy) Delays() []time.Duration {
	if p.MaxAttempts <= 1 {
		return nil
	}
	delays := make([]time.Duration, p.MaxAttempts-1)
	delay := p.InitialBackoff
	for i := range delays {
		delays[i] = delay
		if p.Factor > 1 {
			delay = time.Duration(float64(delay) * p.Factor)
		}
	}
	return delays
}

// Retry calls fn until it succeeds, returns a non-retryable error, or the
// attempts run out. The last error is returned unchanged so callers can
// inspect its code. Context cancellation during a backoff sleep returns
// ctx.Err().
func Retry(ctx context.Context, p RetryPolicy, fn func(ctx context.Context) error) error {
	sleep := p.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	delays := p.Delays()

	var lastErr error
	for attempt := 0; attempt <= len(delays); attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return lastErr
		}

		// Don't sleep after the last attempt
		if attempt == len(delays) {
			break
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt+1, delays[attempt], lastErr)
		}
		if err := sleep(ctx, delays[attempt]); err != nil {
			return err
		}
	}
	return lastErr
}

// Sleep waits for d, returning early with ctx.Err() if ctx is canceled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsTransient reports whether err is a rate-limit, network or store-busy
// condition that may clear on retry.
func IsTransient(err error) bool {
	switch ErrorCode(err) {
	case ERATELIMITED, ENETWORK, EBUSY:
		return true
	}
	return false
}
