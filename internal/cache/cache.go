// Package cache memoizes read-side query results. Entries are derived
// data only; any mutation of the corpus flushes the whole cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/ksalter/deontica/internal/model"
)

// Cache wraps an in-memory TTL cache for case-status and search results.
// A disabled cache is a no-op on every method, so callers never branch.
type Cache struct {
	enabled bool
	c       *gocache.Cache
}

// New creates a cache. cleanupInterval governs expired-entry sweeps.
func New(enabled bool, ttl, cleanupInterval time.Duration) *Cache {
	if !enabled {
		return &Cache{}
	}
	return &Cache{
		enabled: true,
		c:       gocache.New(ttl, cleanupInterval),
	}
}

// GetCaseStatus returns a memoized case status
func (c *Cache) GetCaseStatus(caseID string) (model.CaseStatus, bool) {
	if !c.enabled {
		return model.CaseStatus{}, false
	}
	if v, ok := c.c.Get(statusKey(caseID)); ok {
		return v.(model.CaseStatus), true
	}
	return model.CaseStatus{}, false
}

// SetCaseStatus memoizes a case status with the default TTL
func (c *Cache) SetCaseStatus(status model.CaseStatus) {
	if !c.enabled {
		return
	}
	c.c.SetDefault(statusKey(status.CaseID), status)
}

// GetSearch returns memoized search hits for a query/limit pair
func (c *Cache) GetSearch(query string, limit int) ([]model.SearchHit, bool) {
	if !c.enabled {
		return nil, false
	}
	if v, ok := c.c.Get(searchKey(query, limit)); ok {
		return v.([]model.SearchHit), true
	}
	return nil, false
}

// SetSearch memoizes search hits with the default TTL
func (c *Cache) SetSearch(query string, limit int, hits []model.SearchHit) {
	if !c.enabled {
		return
	}
	c.c.SetDefault(searchKey(query, limit), hits)
}

// Flush discards every entry. Called after any corpus mutation.
func (c *Cache) Flush() {
	if !c.enabled {
		return
	}
	c.c.Flush()
}

func statusKey(caseID string) string {
	return key("status", caseID)
}

func searchKey(query string, limit int) string {
	return key("search", fmt.Sprintf("%d", limit), query)
}

// key builds a stable namespaced cache key
func key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "deontica:v1:" + parts[0] + ":" + hex.EncodeToString(hash[:])
}
