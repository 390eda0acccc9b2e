package services

import (
	"context"
	"log"
	"time"

	"github.com/infofoot/nexo-backend/internal/auth"
	"github.com/infofoot/nexo-backend/internal/database"
)

const (
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

var (
	jwtSecret     []byte
	tokenValidity = 7 * 24 * time.Hour
)

// InitAuth configures the signing secret and token lifetime. Called once
// from main before the router starts.
func InitAuth(secret string, validity time.Duration) {
	jwtSecret = []byte(secret)
	if validity > 0 {
		tokenValidity = validity
	}
}

// CreateSession mints a bearer token for the user and registers it in
// Redis so it can be revoked on logout. Any previous session for the same
// user is invalidated first, so each login resets the expiry window.
func CreateSession(userID string) (string, error) {
	if err := InvalidateUserSessions(userID); err != nil {
		// The new session still supersedes the mapping below; a stale
		// session: key is the worst case, and it expires on its own.
		log.Printf("failed to invalidate previous session for %s: %v", userID, err)
	}

	token, err := auth.GenerateToken(userID, jwtSecret, tokenValidity)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	if err := database.RedisClient.Set(ctx, SessionKeyPrefix+token, userID, tokenValidity).Err(); err != nil {
		return "", err
	}
	if err := database.RedisClient.Set(ctx, UserSessionKeyPrefix+userID, token, tokenValidity).Err(); err != nil {
		return "", err
	}

	return token, nil
}

// ValidateSession checks signature, expiry, and the Redis revocation list,
// and returns the token's user id.
func ValidateSession(token string) (string, bool) {
	if token == "" {
		return "", false
	}

	userID, err := auth.GetUserIDFromToken(token, jwtSecret)
	if err != nil {
		return "", false
	}

	// A token signed by us is still rejected once logged out.
	stored, err := database.RedisClient.Get(context.Background(), SessionKeyPrefix+token).Result()
	if err != nil || stored != userID {
		return "", false
	}

	return userID, true
}

// InvalidateSession removes a session from Redis.
func InvalidateSession(token string) error {
	if token == "" {
		return nil
	}

	ctx := context.Background()
	userID, err := database.RedisClient.Get(ctx, SessionKeyPrefix+token).Result()
	if err == nil && userID != "" {
		database.RedisClient.Del(ctx, UserSessionKeyPrefix+userID)
	}

	return database.RedisClient.Del(ctx, SessionKeyPrefix+token).Err()
}

// InvalidateUserSessions invalidates the user's current session, if any.
func InvalidateUserSessions(userID string) error {
	ctx := context.Background()

	token, err := database.RedisClient.Get(ctx, UserSessionKeyPrefix+userID).Result()
	if err == nil && token != "" {
		database.RedisClient.Del(ctx, SessionKeyPrefix+token)
	}

	return database.RedisClient.Del(ctx, UserSessionKeyPrefix+userID).Err()
}
