// Package cache provides a generic, thread-safe LRU cache with an optional
// eviction callback.
//
// garagedesk uses it for bounded bookkeeping that must never grow with the
// lifetime of a session: the push channel's redelivery window and the dev
// backend's per-user broadcasters (closed on eviction).
//
//	seen := cache.NewLRU[string, time.Time](512)
//	if prev, ok := seen.Peek(id); ok && !createdAt.After(prev) {
//	    return // redelivery
//	}
//	seen.Put(id, createdAt)
package cache
