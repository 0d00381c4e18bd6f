// Package store provides the versioned response cache used by the
// offline gateway.
//
// Responses are cached per generation: a generation is a named snapshot
// of cached responses tied to one deployed version of the application.
// Exactly one generation is current at any time; activating a new
// generation purges every other one (see pkg/lifecycle).
//
// The Store interface is backend-agnostic with the following features:
//
// - Named generations with enumeration and whole-generation deletion
// - Deterministic cache keys derived from request method + URL
// - Immutable entries; a re-fetch overwrites rather than mutates
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	// Create Redis-backed store
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//	s := store.NewRedis(redisClient)
//
//	// Derive a key from a request
//	key := store.KeyForRequest(req)
//
//	// Lookup in the current generation
//	entry, err := s.Match(ctx, "fieldgate-v1.0.0", key)
//	if err == store.ErrCacheMiss {
//		// not cached - go to the network
//	}
//
// # HTTP Response Caching
//
//	// Snapshot a live response (the body is restored for the caller)
//	entry, err := store.ResponseToEntry(resp)
//	if err != nil {
//		return err
//	}
//	if err := s.Put(ctx, generation, key, entry); err != nil {
//		// cache-write failures are non-fatal; log and move on
//	}
//
// # Metrics
//
// The store exports Prometheus metrics:
//
//   - fieldgate_cache_hits_total{backend} - Cache hits
//   - fieldgate_cache_misses_total - Cache misses
//   - fieldgate_cache_errors_total{operation} - Cache operation errors
//   - fieldgate_cache_generations_deleted_total - Purged generations
package store
