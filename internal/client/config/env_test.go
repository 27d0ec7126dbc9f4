package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseEnv(t *testing.T) {
	t.Run("overlays set variables", func(t *testing.T) {
		t.Setenv("SPENDTRACK_API_BASE_URL", "http://env-host:5000/api")
		t.Setenv("SPENDTRACK_REQUEST_TIMEOUT", "25s")

		cfg := &Config{DatabaseDSN: "file:kept.db", OnlineCheckInterval: 3 * time.Second}
		parseEnv(cfg)

		assert.Equal(t, "http://env-host:5000/api", cfg.APIBaseURL)
		assert.Equal(t, 25*time.Second, cfg.RequestTimeout)
		assert.Equal(t, "file:kept.db", cfg.DatabaseDSN)
		assert.Equal(t, 3*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("unset variables leave config untouched", func(t *testing.T) {
		cfg := &Config{APIBaseURL: "http://defaults:1234/api"}
		parseEnv(cfg)

		assert.Equal(t, "http://defaults:1234/api", cfg.APIBaseURL)
	})
}
