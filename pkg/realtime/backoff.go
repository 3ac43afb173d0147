package realtime

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff computes reconnect delays. Safe for concurrent use.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
	// Jitter spreads each delay by ±Jitter (0..1). Zero gives exact delays.
	Jitter float64
}

// DefaultBackoff returns base 1s, cap 30s, no jitter.
func DefaultBackoff() Backoff {
	return Backoff{Base: time.Second, Cap: 30 * time.Second}
}

// Delay returns the wait before reconnect attempt n (1-indexed):
// min(Base * 2^(n-1), Cap), with optional jitter applied before capping.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	base := b.Base
	if base <= 0 {
		base = time.Second
	}
	limit := b.Cap
	if limit <= 0 {
		limit = 30 * time.Second
	}

	// avoid overflowing float64 -> Duration for large attempts
	exp := min(attempt-1, 62)
	interval := float64(base) * math.Pow(2, float64(exp))

	if b.Jitter > 0 {
		interval *= 1 + (rand.Float64()*2-1)*b.Jitter
	}
	if interval > float64(limit) {
		interval = float64(limit)
	}
	return time.Duration(interval)
}
