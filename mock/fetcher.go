package mock

import (
	"context"

	"github.com/Brandonf2022/touringbot"
)

var _ touringbot.Fetcher = (*Fetcher)(nil)

// Fetcher is a mock implementation of touringbot.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) ([]byte, error)
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f.FetchFn(ctx, url)
}

var _ touringbot.RateLimiter = (*RateLimiter)(nil)

// RateLimiter is a mock implementation of touringbot.RateLimiter.
type RateLimiter struct {
	WaitFn func(ctx context.Context) error
}

func (l *RateLimiter) Wait(ctx context.Context) error {
	return l.WaitFn(ctx)
}
