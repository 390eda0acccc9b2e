package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"ENV", "PORT", "JWT_SECRET", "ALLOWED_ORIGINS", "FRONTEND_URL", "FRONTEND_URL_2",
		"SESSION_DURATION", "TICK_PERIOD", "CACHE_TTL", "BASE_MINING_RATE", "TOKEN_VALIDITY",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, time.Hour, cfg.SessionDuration)
	assert.Equal(t, 5*time.Second, cfg.TickPeriod)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL)
	assert.Equal(t, 0.3, cfg.BaseMiningRate)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "Production")
	t.Setenv("SESSION_DURATION", "30m")
	t.Setenv("TICK_PERIOD", "1s")
	t.Setenv("BASE_MINING_RATE", "0.5")
	t.Setenv("ALLOWED_ORIGINS", "https://game.example.com, https://staging.example.com")

	cfg := Load()
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 30*time.Minute, cfg.SessionDuration)
	assert.Equal(t, time.Second, cfg.TickPeriod)
	assert.Equal(t, 0.5, cfg.BaseMiningRate)
	assert.Equal(t, []string{"https://game.example.com", "https://staging.example.com"}, cfg.AllowedOrigins)
}

func TestLoadIgnoresInvalidTuning(t *testing.T) {
	t.Setenv("TICK_PERIOD", "not-a-duration")
	t.Setenv("BASE_MINING_RATE", "-1")

	cfg := Load()
	assert.Equal(t, 5*time.Second, cfg.TickPeriod)
	assert.Equal(t, 0.3, cfg.BaseMiningRate)
}
