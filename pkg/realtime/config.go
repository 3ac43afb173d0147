package realtime

import "time"

type Config struct {
	BaseURL       string        `env:"NOTIFY_WS_BASE_URL" envDefault:"ws://localhost:8080"` // BaseURL is the push-channel origin, without the /notifications path.
	ReconnectBase time.Duration `env:"NOTIFY_RECONNECT_BASE" envDefault:"1s"`               // ReconnectBase is the delay before the first reconnect.
	ReconnectCap  time.Duration `env:"NOTIFY_RECONNECT_CAP" envDefault:"30s"`               // ReconnectCap bounds every reconnect delay.
	MaxAttempts   int           `env:"NOTIFY_RECONNECT_MAX_ATTEMPTS" envDefault:"5"`        // MaxAttempts is the number of consecutive failed dials before giving up.
	Jitter        float64       `env:"NOTIFY_RECONNECT_JITTER" envDefault:"0"`              // Jitter spreads reconnect delays by ±Jitter.
	DialTimeout   time.Duration `env:"NOTIFY_DIAL_TIMEOUT" envDefault:"10s"`                // DialTimeout bounds one handshake.
	DedupWindow   int           `env:"NOTIFY_DEDUP_WINDOW" envDefault:"256"`                // DedupWindow is the number of recent records remembered per session.
}

// Options converts cfg into Manager options. Only non-zero values are applied.
func (cfg Config) Options() []Option {
	opts := make([]Option, 0, 5)

	if cfg.ReconnectBase > 0 && cfg.ReconnectCap >= cfg.ReconnectBase {
		opts = append(opts, WithBackoff(cfg.ReconnectBase, cfg.ReconnectCap))
	}
	if cfg.MaxAttempts > 0 {
		opts = append(opts, WithMaxAttempts(cfg.MaxAttempts))
	}
	if cfg.Jitter > 0 && cfg.Jitter <= 1 {
		opts = append(opts, WithJitter(cfg.Jitter))
	}
	if cfg.DialTimeout > 0 {
		opts = append(opts, WithDialTimeout(cfg.DialTimeout))
	}
	if cfg.DedupWindow > 0 {
		opts = append(opts, WithDedupWindow(cfg.DedupWindow))
	}
	return opts
}

// NewFromConfig creates a Manager from cfg; opts are applied after the
// config-derived options.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	return New(cfg.BaseURL, append(cfg.Options(), opts...)...)
}
