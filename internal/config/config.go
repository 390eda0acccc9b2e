package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI       string
	PostgresURI    string
	RedisURI       string
	JWTSecret      string
	Port           string
	FrontendURL    string
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL
	Environment    string   // ENV: production, development, etc.

	// Mining engine tuning. Defaults match the reference economy:
	// one-hour sessions advanced every 5 seconds, 60s cache window.
	SessionDuration time.Duration
	TickPeriod      time.Duration
	CacheTTL        time.Duration
	// BaseMiningRate is the hourly NXO rate granted when a user has no
	// active card (the starter card rate). Never zero, so fresh accounts
	// always make forward progress.
	BaseMiningRate float64

	TokenValidity time.Duration
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	// CORS: allow multiple origins so the hosted frontend keeps working
	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}

	return &Config{
		MongoURI:        getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017/nexo")),
		PostgresURI:     getEnv("POSTGRES_URI", "postgres://localhost:5432/nexo?sslmode=disable"),
		RedisURI:        getEnv("REDIS_URI", "redis://localhost:6379/0"),
		JWTSecret:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Port:            getEnv("PORT", "3000"),
		FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:3000"),
		AllowedOrigins:  allowedOrigins,
		Environment:     env,
		SessionDuration: getEnvDuration("SESSION_DURATION", time.Hour),
		TickPeriod:      getEnvDuration("TICK_PERIOD", 5*time.Second),
		CacheTTL:        getEnvDuration("CACHE_TTL", 60*time.Second),
		BaseMiningRate:  getEnvFloat("BASE_MINING_RATE", 0.3),
		TokenValidity:   getEnvDuration("TOKEN_VALIDITY", 7*24*time.Hour),
	}
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultValue
}
