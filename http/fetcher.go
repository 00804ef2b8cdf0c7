// Package http provides HTTP implementations of the archive-facing
// touringbot services: the rate-limited fetcher, the search client and the
// manifest resolver.
package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/Brandonf2022/touringbot"
)

// Retry defaults for Fetcher.
const (
	DefaultMaxRetries     = 5
	DefaultInitialBackoff = 5 * time.Second
	DefaultBackoffFactor  = 2.0
)

// DefaultAccept asks the archive for JSON manifests while still accepting
// the XML page documents.
const DefaultAccept = "application/json, application/xml;q=0.9, */*;q=0.8"

// Ensure Fetcher implements touringbot.Fetcher at compile time.
var _ touringbot.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves documents over HTTP. Every attempt, including retries,
// first waits on the shared rate limiter. 429 responses and transport
// failures are retried with exponential backoff; other non-200 responses
// fail immediately with EHTTPSTATUS.
type Fetcher struct {
	client    *http.Client
	limiter   touringbot.RateLimiter
	policy    touringbot.RetryPolicy
	userAgent string
	accept    string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client. Defaults to a client without a timeout.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout sets a per-request timeout on the default client.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.client = &http.Client{Timeout: d}
	}
}

// WithRateLimiter sets the limiter shared by every request of this fetcher.
func WithRateLimiter(l touringbot.RateLimiter) Option {
	return func(f *Fetcher) {
		f.limiter = l
	}
}

// WithRetry sets the attempt count and backoff schedule. Retryable is
// always overridden to retry only rate limits and network failures.
func WithRetry(p touringbot.RetryPolicy) Option {
	return func(f *Fetcher) {
		f.policy = p
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithAccept sets the Accept header.
func WithAccept(accept string) Option {
	return func(f *Fetcher) {
		f.accept = accept
	}
}

// NewFetcher creates a new Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client: &http.Client{},
		policy: touringbot.RetryPolicy{
			MaxAttempts:    DefaultMaxRetries,
			InitialBackoff: DefaultInitialBackoff,
			Factor:         DefaultBackoffFactor,
		},
		accept: DefaultAccept,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.policy.Retryable = isRetryable
	return f
}

// Fetch returns the body of url. Exhausted retries return the last
// ERATELIMITED or ENETWORK error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := touringbot.Retry(ctx, f.policy, func(ctx context.Context) error {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		b, err := f.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, touringbot.WrapError(touringbot.EINVALID, err, "invalid request URL %q", url)
	}
	if f.accept != "" {
		req.Header.Set("Accept", f.accept)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, networkError(ctx, err, url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, touringbot.StatusError(resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(ctx, err, url)
	}
	return body, nil
}

// networkError classifies a transport failure. Cancellation of the caller's
// context is passed through so it is never retried.
func networkError(ctx context.Context, err error, url string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return touringbot.WrapError(touringbot.ENETWORK, err, "GET %s", url)
}

func isRetryable(err error) bool {
	switch touringbot.ErrorCode(err) {
	case touringbot.ERATELIMITED, touringbot.ENETWORK:
		return true
	}
	return false
}
