package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/cognicore/intentbow/pkg/intentbow/internalerr"
)

// Fetch configures the cached fetcher. It is read from the environment.
type Fetch struct {
	BaseURL string        `env:"INTENTBOW_FETCH_BASE_URL" envDefault:"https://api.corona-zahlen.org"`
	Dir     string        `env:"INTENTBOW_FETCH_DIR" envDefault:"."`
	Timeout time.Duration `env:"INTENTBOW_FETCH_TIMEOUT" envDefault:"30s"`
}

// LoadFetch parses the fetcher configuration from the environment.
func LoadFetch() (*Fetch, error) {
	var cfg Fetch
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: INTENTBOW_FETCH_BASE_URL %q is not an http(s) URL",
			internalerr.ErrInvalidConfig, cfg.BaseURL)
	}
	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("%w: INTENTBOW_FETCH_TIMEOUT must not be negative", internalerr.ErrInvalidConfig)
	}
	return &cfg, nil
}
