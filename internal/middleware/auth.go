package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/infofoot/nexo-backend/internal/services"
)

type contextKey string

const userIDKey contextKey = "auth_user_id"

// ExtractBearerToken pulls the token out of an Authorization header.
func ExtractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"success":false,"message":%q}`, message)
}

// RequireOwner authenticates the bearer token and requires it to belong to
// the user named by the {userID} path parameter.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, ok := services.ValidateSession(token)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if chi.URLParam(r, "userID") != userID {
			writeAuthError(w, http.StatusForbidden, "token does not match requested user")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// RequireAdmin authenticates the bearer token and requires an admin account.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractBearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		userID, ok := services.ValidateSession(token)
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		if !services.IsAdmin(r.Context(), userID) {
			writeAuthError(w, http.StatusForbidden, "admin access required")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// AuthenticatedUserID returns the user id set by RequireOwner/RequireAdmin.
func AuthenticatedUserID(r *http.Request) string {
	if id, ok := r.Context().Value(userIDKey).(string); ok {
		return id
	}
	return ""
}
