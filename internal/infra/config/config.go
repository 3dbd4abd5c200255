// Package config loads runtime settings from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config covers both binaries; each reads the fields it needs.
type Config struct {
	// Endpoint is the API base URL the clients target.
	Endpoint string `env:"STOREFRONT_ENDPOINT" envDefault:"http://localhost:8082/api/v1"`
	// HTTPTimeout bounds every request the clients make.
	HTTPTimeout time.Duration `env:"STOREFRONT_HTTP_TIMEOUT" envDefault:"10s"`
	// DebounceDelay is how long search input must pause before dispatch.
	DebounceDelay time.Duration `env:"STOREFRONT_DEBOUNCE_DELAY" envDefault:"500ms"`

	// StubAddr is the stub backend's listen address.
	StubAddr string `env:"STUB_ADDR" envDefault:":8082"`
	// StubJWTSecret signs the stub backend's tokens.
	StubJWTSecret string `env:"STUB_JWT_SECRET" envDefault:"dev-secret"`
	// StubDBPath points the stub at a sqlite file; empty keeps it in memory.
	StubDBPath string `env:"STUB_DB_PATH"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
