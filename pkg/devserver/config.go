package devserver

import "time"

// Config is the environment-driven devserver configuration.
type Config struct {
	HubCapacity      int           `env:"DEVSERVER_HUB_CAPACITY" envDefault:"1024"`
	SubscriberBuffer int           `env:"DEVSERVER_SUBSCRIBER_BUFFER" envDefault:"32"`
	OriginPatterns   []string      `env:"DEVSERVER_ORIGIN_PATTERNS" envSeparator:","`
	WriteTimeout     time.Duration `env:"DEVSERVER_PUSH_WRITE_TIMEOUT" envDefault:"5s"`
}

// Options converts cfg into Server options. Zero values are skipped.
func (cfg Config) Options() []Option {
	var opts []Option
	if cfg.HubCapacity > 0 {
		opts = append(opts, WithHubCapacity(cfg.HubCapacity))
	}
	if cfg.SubscriberBuffer > 0 {
		opts = append(opts, WithSubscriberBuffer(cfg.SubscriberBuffer))
	}
	if len(cfg.OriginPatterns) > 0 {
		opts = append(opts, WithOriginPatterns(cfg.OriginPatterns...))
	}
	if cfg.WriteTimeout > 0 {
		opts = append(opts, WithWriteTimeout(cfg.WriteTimeout))
	}
	return opts
}

// NewFromConfig creates a Server from cfg. Explicit opts are applied last.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	return New(append(cfg.Options(), opts...)...)
}
