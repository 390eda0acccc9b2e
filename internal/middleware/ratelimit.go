package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/infofoot/nexo-backend/internal/database"
)

const (
	// RateLimitWindow is the sliding window for per-IP counting. The game
	// client polls /mining-data every few seconds, so the limit is generous.
	RateLimitWindow = 60 * time.Second
	// RateLimitMaxRequests is the maximum number of requests allowed in the window
	RateLimitMaxRequests = 120
	// RateLimitKeyPrefix is the Redis key prefix for rate limiting
	RateLimitKeyPrefix = "ratelimit:"
)

// ClientIP extracts the caller's IP, preferring proxy headers.
func ClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		if parts := strings.Split(forwarded, ","); len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// RateLimitMiddleware applies a per-IP request budget backed by Redis.
// Redis failures fail open.
func RateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()
		key := RateLimitKeyPrefix + ClientIP(r)

		count, err := database.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if count == 1 {
			database.RedisClient.Expire(ctx, key, RateLimitWindow)
		}

		if count > RateLimitMaxRequests {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"Rate limit exceeded. Please slow down."}`))
			return
		}

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(RateLimitMaxRequests))
		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(RateLimitMaxRequests)-count, 10))

		next.ServeHTTP(w, r)
	})
}
