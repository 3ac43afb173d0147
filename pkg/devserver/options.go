package devserver

import (
	"log/slog"
	"time"
)

type config struct {
	logger         *slog.Logger
	storage        *Storage
	hubCapacity    int
	bufferSize     int
	originPatterns []string
	writeTimeout   time.Duration
}

// Option configures a Server.
type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithStorage serves an existing Storage, e.g. one pre-seeded by a test.
func WithStorage(s *Storage) Option {
	if s == nil {
		panic("WithStorage: nil storage")
	}
	return func(c *config) { c.storage = s }
}

// WithHubCapacity bounds how many users keep a push broadcaster at once.
func WithHubCapacity(n int) Option {
	if n <= 0 {
		panic("WithHubCapacity: capacity must be > 0")
	}
	return func(c *config) { c.hubCapacity = n }
}

// WithSubscriberBuffer sets the per-socket frame buffer. A socket whose
// buffer fills is closed and the client is expected to reconnect.
func WithSubscriberBuffer(n int) Option {
	if n <= 0 {
		panic("WithSubscriberBuffer: size must be > 0")
	}
	return func(c *config) { c.bufferSize = n }
}

// WithOriginPatterns allows cross-origin WebSocket upgrades from hosts
// matching the patterns.
func WithOriginPatterns(patterns ...string) Option {
	return func(c *config) { c.originPatterns = append(c.originPatterns, patterns...) }
}

// WithWriteTimeout bounds a single push frame write.
func WithWriteTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithWriteTimeout: duration must be > 0")
	}
	return func(c *config) { c.writeTimeout = d }
}
