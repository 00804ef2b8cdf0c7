package touringbot

import "context"

// Fetcher retrieves raw bytes from a URL.
type Fetcher interface {
	// Fetch returns the response body of a successful GET.
	// The context controls cancellation of waits and the request itself.
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// RateLimiter spaces out requests issued through one limiter instance.
type RateLimiter interface {
	// Wait blocks until the next request may be issued.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context) error
}
