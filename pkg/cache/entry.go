package cache

import (
	"time"
)

const (
	// DefaultTTL is how long a lookup response stays cached when no TTL is configured.
	DefaultTTL = 24 * time.Hour
)

// CacheEntry represents a cached lookup API response.
type CacheEntry struct {
	// Data is the response body
	Data []byte `json:"data"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `json:"status_code"`

	// Expires is when the cache entry becomes stale
	Expires time.Time `json:"expires"`

	// CachedAt is when we cached this response
	CachedAt time.Time `json:"cached_at"`
}

// NewEntry creates an entry for a 200 response body that expires after ttl.
// A non-positive ttl falls back to DefaultTTL.
func NewEntry(body []byte, ttl time.Duration) *CacheEntry {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now()
	return &CacheEntry{
		Data:       body,
		StatusCode: 200,
		Expires:    now.Add(ttl),
		CachedAt:   now,
	}
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
