package worker

import (
	"context"
	"fmt"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter paces requests per endpoint host. Every host gets its own token
// bucket with the same rate and burst.
type Limiter struct {
	limit rate.Limit
	burst int

	mu    sync.Mutex
	hosts map[string]*rate.Limiter
}

// NewLimiter creates a limiter allowing requestsPerSecond per host with the
// given burst. A rate of zero or less disables pacing; a burst below one is
// raised to one.
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	limit := rate.Inf
	if requestsPerSecond > 0 {
		limit = rate.Limit(requestsPerSecond)
	}
	return &Limiter{
		limit: limit,
		burst: max(burst, 1),
		hosts: map[string]*rate.Limiter{},
	}
}

// Wait blocks until endpoint's host may be called or ctx is done.
func (l *Limiter) Wait(ctx context.Context, endpoint string) error {
	bucket, err := l.bucket(endpoint)
	if err != nil {
		return err
	}
	return bucket.Wait(ctx)
}

// Allow takes a token for endpoint's host if one is available now.
func (l *Limiter) Allow(endpoint string) bool {
	bucket, err := l.bucket(endpoint)
	if err != nil {
		return false
	}
	return bucket.Allow()
}

func (l *Limiter) bucket(endpoint string) (*rate.Limiter, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("rate limiter endpoint %q: %w", endpoint, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.hosts[u.Host]
	if !ok {
		bucket = rate.NewLimiter(l.limit, l.burst)
		l.hosts[u.Host] = bucket
	}
	return bucket, nil
}
