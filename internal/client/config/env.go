package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is a DTO for environment-variable overlay. Unset variables leave
// the corresponding Config fields untouched.
type envConfig struct {
	APIBaseURL          string        `env:"SPENDTRACK_API_BASE_URL"`
	DatabaseDSN         string        `env:"SPENDTRACK_DATABASE_DSN"`
	RequestTimeout      time.Duration `env:"SPENDTRACK_REQUEST_TIMEOUT"`
	OnlineCheckInterval time.Duration `env:"SPENDTRACK_ONLINE_CHECK_INTERVAL"`
}

// parseEnv overlays Config with values from SPENDTRACK_* environment
// variables. Panics on malformed values, matching parseJson.
func parseEnv(cfg *Config) {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		panic(err)
	}

	if ec.APIBaseURL != "" {
		cfg.APIBaseURL = ec.APIBaseURL
	}
	if ec.DatabaseDSN != "" {
		cfg.DatabaseDSN = ec.DatabaseDSN
	}
	if ec.RequestTimeout != 0 {
		cfg.RequestTimeout = ec.RequestTimeout
	}
	if ec.OnlineCheckInterval != 0 {
		cfg.OnlineCheckInterval = ec.OnlineCheckInterval
	}
}
