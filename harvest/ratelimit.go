package harvest

import (
	"context"

	"github.com/Brandonf2022/touringbot"
	"golang.org/x/time/rate"
)

var _ touringbot.RateLimiter = (*Limiter)(nil)

// Limiter spaces requests at a fixed rate using a token bucket with a burst
// of 1. One Limiter is shared by every request of a harvest run, so the
// spacing holds across manifest and page fetches and across workers.
type Limiter struct {
	limiter *rate.Limiter
}

// NewLimiter creates a Limiter allowing rps requests per second.
// A non-positive rps disables limiting.
func NewLimiter(rps float64) *Limiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &Limiter{limiter: rate.NewLimiter(limit, 1)}
}

// Wait blocks until the next request may be issued.
// Returns an error if the context is canceled before the wait completes.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}
