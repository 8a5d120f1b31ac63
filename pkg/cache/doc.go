// Package cache provides an optional Redis-backed cache of lookup API responses.
//
// Only successful (200) response bodies are cached. A cached body is replayed
// through the same attribute parser as a live response, so a cache hit yields
// exactly the row a fresh request would have produced while skipping both the
// pacing delay and the network call.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager and bind it to one API base URL
//	manager := cache.NewManager(redisClient)
//	responses := cache.NewResponseCache(manager, "https://api.example.com/device", 24*time.Hour)
//
//	body, err := responses.Lookup(ctx, "A1")
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - fetch from the API, then:
//		_ = responses.Store(ctx, "A1", body)
//	}
//
// # Keys
//
// Keys are deterministic and scoped by base URL, so switching the API endpoint
// never replays responses from another service:
//
//	lookup:api.example.com/device:serial=A1
//
// # Metrics
//
//   - lookup_cache_hits_total - Cache hits
//   - lookup_cache_misses_total - Cache misses (including expired entries)
//   - lookup_cache_errors_total{operation} - Cache operation errors
//
// Cache errors never fail a lookup; callers treat them as a miss.
package cache
