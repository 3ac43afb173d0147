package toast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/garagedesk/pkg/logger"
	"github.com/dmitrymomot/garagedesk/pkg/notifications"
)

// DefaultDuration is how long a toast stays visible.
const DefaultDuration = 5 * time.Second

type Config struct {
	Duration time.Duration `env:"TOAST_DURATION" envDefault:"5s"` // Duration is how long a toast stays visible.
}

// Presenter displays one toast at a time. Safe for concurrent use.
type Presenter struct {
	duration time.Duration
	logger   *slog.Logger
	onChange func(current *notifications.Notification)

	mu      sync.Mutex
	current *notifications.Notification
	timer   *time.Timer
	// gen identifies the displayed toast so a stale timer never hides a newer one.
	gen    uint64
	closed bool
}

// Option configures a Presenter.
type Option func(*Presenter)

// WithDuration sets the auto-dismiss delay.
func WithDuration(d time.Duration) Option {
	if d <= 0 {
		panic("WithDuration: duration must be > 0")
	}
	return func(p *Presenter) { p.duration = d }
}

// WithChangeHook registers fn to run whenever the displayed toast changes.
// fn receives nil when the toast is hidden. It runs outside the presenter lock.
func WithChangeHook(fn func(current *notifications.Notification)) Option {
	return func(p *Presenter) { p.onChange = fn }
}

// WithLogger sets the logger for the Presenter.
func WithLogger(l *slog.Logger) Option {
	return func(p *Presenter) {
		if l != nil {
			p.logger = l
		}
	}
}

func New(opts ...Option) *Presenter {
	p := &Presenter{
		duration: DefaultDuration,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Options converts cfg into Presenter options. A zero Duration keeps the default.
func (cfg Config) Options() []Option {
	if cfg.Duration > 0 {
		return []Option{WithDuration(cfg.Duration)}
	}
	return nil
}

// NewFromConfig creates a Presenter from cfg; opts are applied after it.
func NewFromConfig(cfg Config, opts ...Option) *Presenter {
	return New(append(cfg.Options(), opts...)...)
}

// Show displays n, preempting the current toast.
func (p *Presenter) Show(n notifications.Notification) {
	n = n.Clone()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.stopTimerLocked()
	p.gen++
	gen := p.gen
	p.current = &n
	p.timer = time.AfterFunc(p.duration, func() { p.expire(gen) })
	p.mu.Unlock()

	p.logger.Debug("toast shown", logger.Component("toast"), logger.NotificationID(n.ID))
	p.notify(&n)
}

// Dismiss hides the current toast, if any.
func (p *Presenter) Dismiss() {
	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return
	}
	p.hideLocked()
	p.mu.Unlock()
	p.notify(nil)
}

// DismissID hides the current toast only if it shows id.
func (p *Presenter) DismissID(id string) {
	p.mu.Lock()
	if p.current == nil || p.current.ID != id {
		p.mu.Unlock()
		return
	}
	p.hideLocked()
	p.mu.Unlock()
	p.notify(nil)
}

// Current returns a copy of the displayed toast.
func (p *Presenter) Current() (notifications.Notification, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return notifications.Notification{}, false
	}
	return p.current.Clone(), true
}

// Close hides the current toast and stops accepting new ones.
func (p *Presenter) Close() {
	p.mu.Lock()
	p.closed = true
	had := p.current != nil
	p.hideLocked()
	p.mu.Unlock()
	if had {
		p.notify(nil)
	}
}

func (p *Presenter) expire(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || p.current == nil {
		p.mu.Unlock()
		return
	}
	id := p.current.ID
	p.current = nil
	p.timer = nil
	p.mu.Unlock()

	p.logger.Debug("toast expired", logger.Component("toast"), logger.NotificationID(id))
	p.notify(nil)
}

// Must be called with lock held.
func (p *Presenter) hideLocked() {
	p.stopTimerLocked()
	p.gen++
	p.current = nil
}

// Must be called with lock held.
func (p *Presenter) stopTimerLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Presenter) notify(current *notifications.Notification) {
	if p.onChange == nil {
		return
	}
	if current != nil {
		c := current.Clone()
		current = &c
	}
	p.onChange(current)
}
