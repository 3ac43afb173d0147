package provider

import (
	"time"

	"github.com/dmitrymomot/garagedesk/pkg/realtime"
	"github.com/dmitrymomot/garagedesk/pkg/toast"
)

type Config struct {
	Realtime          realtime.Config
	Toast             toast.Config
	ReconcileInterval time.Duration `env:"NOTIFY_RECONCILE_INTERVAL" envDefault:"1m"` // ReconcileInterval is how often the server unread count is checked; zero disables it.
}

// NewFromConfig creates a Provider from cfg; opts are applied after the
// config-derived options.
func NewFromConfig(cfg Config, newRemote RemoteFactory, opts ...Option) *Provider {
	configOpts := []Option{
		WithRealtimeOptions(cfg.Realtime.Options()...),
		WithToastOptions(cfg.Toast.Options()...),
		WithReconcileInterval(cfg.ReconcileInterval),
	}
	return New(newRemote, cfg.Realtime.BaseURL, append(configOpts, opts...)...)
}
