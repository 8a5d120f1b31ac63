package cache

import (
	"strings"
)

// CacheKey represents a unique identifier for a cached lookup response.
type CacheKey struct {
	// BaseURL is the lookup endpoint without query string
	// (e.g., "https://api.example.com/device").
	BaseURL string

	// Serial is the device serial number that was looked up.
	Serial string
}

// String generates a deterministic cache key string.
// Format: lookup:host/path:serial=<serial>
//
// Example:
//
//	lookup:api.example.com/device:serial=A1
func (k CacheKey) String() string {
	parts := []string{"lookup"}

	base := k.BaseURL
	if i := strings.Index(base, "://"); i >= 0 {
		base = base[i+3:]
	}
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	base = strings.Trim(base, "/")
	if base != "" {
		parts = append(parts, strings.ToLower(base))
	}

	parts = append(parts, "serial="+k.Serial)

	return strings.Join(parts, ":")
}
