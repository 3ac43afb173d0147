package provider

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/garagedesk/pkg/realtime"
	"github.com/dmitrymomot/garagedesk/pkg/toast"
)

type config struct {
	logger            *slog.Logger
	realtimeOpts      []realtime.Option
	toastOpts         []toast.Option
	reconcileInterval time.Duration
}

// Option configures a Provider.
type Option func(*config)

// WithLogger supplies an external slog.Logger instance.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRealtimeOptions passes options through to the connection manager.
func WithRealtimeOptions(opts ...realtime.Option) Option {
	return func(c *config) { c.realtimeOpts = append(c.realtimeOpts, opts...) }
}

// WithToastOptions passes options through to the toast presenter.
func WithToastOptions(opts ...toast.Option) Option {
	return func(c *config) { c.toastOpts = append(c.toastOpts, opts...) }
}

// WithReconcileInterval sets how often the server unread count is compared
// with the derived one. Zero disables the check.
func WithReconcileInterval(d time.Duration) Option {
	if d < 0 {
		panic("WithReconcileInterval: duration must be >= 0")
	}
	return func(c *config) { c.reconcileInterval = d }
}
