package apiclient

import "time"

type Config struct {
	BaseURL string        `env:"API_BASE_URL" envDefault:"http://localhost:8080"` // BaseURL is the REST origin.
	Token   string        `env:"API_TOKEN"`                                       // Token is sent as a bearer token when set.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"15s"`                    // Timeout bounds every request.
}

// NewFromConfig creates a Client from cfg; opts are applied after it.
func NewFromConfig(cfg Config, opts ...Option) *Client {
	configOpts := make([]Option, 0, 2)
	if cfg.Token != "" {
		configOpts = append(configOpts, WithToken(cfg.Token))
	}
	if cfg.Timeout > 0 {
		configOpts = append(configOpts, WithTimeout(cfg.Timeout))
	}
	return New(cfg.BaseURL, append(configOpts, opts...)...)
}
