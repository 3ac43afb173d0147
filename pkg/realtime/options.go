package realtime

import (
	"log/slog"
	"time"
)

type config struct {
	dialer       Dialer
	backoff      Backoff
	maxAttempts  int
	dialTimeout  time.Duration
	dedupWindow  int
	bufferSize   int
	logger       *slog.Logger
	stateHooks   []func(State)
	onPermission func()
	now          func() time.Time
}

// Option configures a Manager.
type Option func(*config)

// WithDialer replaces the default WebsocketDialer.
func WithDialer(d Dialer) Option {
	if d == nil {
		panic("WithDialer: nil dialer")
	}
	return func(c *config) { c.dialer = d }
}

// WithBackoff sets the reconnect delay base and cap.
func WithBackoff(base, limit time.Duration) Option {
	if base <= 0 || limit < base {
		panic("WithBackoff: need 0 < base <= cap")
	}
	return func(c *config) {
		c.backoff.Base = base
		c.backoff.Cap = limit
	}
}

// WithJitter spreads reconnect delays by ±factor.
func WithJitter(factor float64) Option {
	if factor < 0 || factor > 1 {
		panic("WithJitter: factor must be within [0, 1]")
	}
	return func(c *config) { c.backoff.Jitter = factor }
}

// WithMaxAttempts sets how many consecutive failed dials end in DISCONNECTED.
func WithMaxAttempts(n int) Option {
	if n <= 0 {
		panic("WithMaxAttempts: n must be > 0")
	}
	return func(c *config) { c.maxAttempts = n }
}

// WithDialTimeout bounds a single handshake.
func WithDialTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("WithDialTimeout: duration must be > 0")
	}
	return func(c *config) { c.dialTimeout = d }
}

// WithDedupWindow sets how many recently delivered records are remembered to
// drop exact redeliveries. Zero disables the window.
func WithDedupWindow(n int) Option {
	if n < 0 {
		panic("WithDedupWindow: n must be >= 0")
	}
	return func(c *config) { c.dedupWindow = n }
}

// WithBufferSize sets the capacity of the Messages channel.
func WithBufferSize(n int) Option {
	if n < 0 {
		panic("WithBufferSize: n must be >= 0")
	}
	return func(c *config) { c.bufferSize = n }
}

// WithLogger supplies an external slog.Logger instance.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStateHook registers a callback for every state change. Hooks run
// synchronously on the transition path and must not call Connect,
// Disconnect or Close.
func WithStateHook(h func(State)) Option {
	if h == nil {
		panic("WithStateHook: nil hook")
	}
	return func(c *config) { c.stateHooks = append(c.stateHooks, h) }
}

// WithPermissionRequest registers fn to run the first time a connection opens.
// It runs at most once per Manager.
func WithPermissionRequest(fn func()) Option {
	if fn == nil {
		panic("WithPermissionRequest: nil func")
	}
	return func(c *config) { c.onPermission = fn }
}

// WithClock overrides the receipt time used for payloads without a timestamp.
func WithClock(now func() time.Time) Option {
	if now == nil {
		panic("WithClock: nil func")
	}
	return func(c *config) { c.now = now }
}
