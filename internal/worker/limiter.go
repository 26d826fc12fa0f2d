package worker

import (
	"context"
	"net/url"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter rate-limits URL fetches per host so batch ingestion does not
// hammer a single court-records site
type Limiter struct {
	mu           sync.RWMutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a per-host limiter
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// Wait blocks until the host of rawURL has rate-limit clearance
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	return l.hostLimiter(parsed.Host).Wait(ctx)
}

// Allow reports whether a request to the URL's host would be admitted
// right now
func (l *Limiter) Allow(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return l.hostLimiter(parsed.Host).Allow()
}

func (l *Limiter) hostLimiter(host string) *rate.Limiter {
	l.mu.RLock()
	limiter, ok := l.limiters[host]
	l.mu.RUnlock()
	if ok {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, ok := l.limiters[host]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[host] = limiter
	return limiter
}
