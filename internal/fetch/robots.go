package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsChecker checks robots.txt compliance, caching parsed rules per
// host for the lifetime of the checker
type RobotsChecker struct {
	mu         sync.RWMutex
	cache      map[string]*robotstxt.RobotsData
	httpClient *http.Client
	userAgent  string
}

// NewRobotsChecker creates a robots.txt checker
func NewRobotsChecker(userAgent string, timeout time.Duration) *RobotsChecker {
	return &RobotsChecker{
		cache:      make(map[string]*robotstxt.RobotsData),
		httpClient: &http.Client{Timeout: timeout},
		userAgent:  userAgent,
	}
}

// IsAllowed reports whether the URL may be fetched. Unreachable or
// unparsable robots.txt allows by default.
func (r *RobotsChecker) IsAllowed(ctx context.Context, rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	data, err := r.robotsData(ctx, parsed)
	if err != nil {
		return true
	}
	return data.TestAgent(parsed.Path, r.userAgent)
}

func (r *RobotsChecker) robotsData(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	r.mu.RLock()
	data, ok := r.cache[target.Host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, target.Host)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err = robotstxt.FromResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.cache[target.Host] = data
	r.mu.Unlock()
	return data, nil
}
