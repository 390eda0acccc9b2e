package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/infofoot/nexo-backend/internal/middleware"
	"github.com/infofoot/nexo-backend/internal/models"
	"github.com/infofoot/nexo-backend/internal/repository"
	"github.com/infofoot/nexo-backend/internal/services"
	"github.com/infofoot/nexo-backend/pkg/utils"
)

// SessionCookieName carries the bearer token for browser clients that do
// not attach an Authorization header (check-auth/logout flows).
const SessionCookieName = "nxo_session"

type SignupRequest struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier"` // email or username
	Password   string `json:"password"`
}

// Signup registers an account and bootstraps its mining state: a starter
// card plus an idle mining record carrying the starter rate snapshot.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Username == "" || req.Email == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "Name, username, email and password are required")
		return
	}
	if err := utils.ValidateUsername(req.Username); err != nil {
		fail(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Password) < 8 {
		fail(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		fail(w, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Username:     utils.NormalizeUsername(req.Username),
		Email:        strings.ToLower(req.Email),
		PasswordHash: hashedPassword,
	}
	if err := users.Create(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			fail(w, http.StatusConflict, "An account with this email already exists")
		case errors.Is(err, repository.ErrDuplicateUsername):
			fail(w, http.StatusConflict, "Username is already taken")
		default:
			fail(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	// Every new account starts with one active starter card.
	starter := &models.Card{
		UserID:    user.ID.String(),
		Name:      "Starter",
		Puissance: cfg.BaseMiningRate,
		Bonus:     0,
		Active:    true,
		Energie:   100,
	}
	if err := cards.Insert(r.Context(), starter); err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	// Seed the idle mining record with the projected rate.
	if _, _, err := mining.ComputeRate(r.Context(), user.ID.String()); err != nil {
		log.Printf("signup: failed to seed mining record for %s: %v", user.ID, err)
	}

	token, err := services.CreateSession(user.ID.String())
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	setSessionCookie(w, token)

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Account created successfully",
		"token":   token,
		"user": map[string]interface{}{
			"id":       user.ID.String(),
			"name":     user.Name,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

// Login authenticates by email or username and returns the account email
// plus a bearer token.
func Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" || req.Password == "" {
		fail(w, http.StatusBadRequest, "Identifier and password are required")
		return
	}

	user, err := users.ByIdentifier(r.Context(), req.Identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail(w, http.StatusUnauthorized, "Invalid credentials")
		} else {
			fail(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	valid, err := utils.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !valid {
		fail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := services.CreateSession(user.ID.String())
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	setSessionCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"email":   user.Email,
		"token":   token,
	})
}

// Logout revokes the caller's session, if any.
func Logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := services.InvalidateSession(token); err != nil {
			log.Printf("logout: failed to invalidate session: %v", err)
		}
	}
	clearSessionCookie(w)

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// CheckAuth reports whether the caller holds a valid session.
func CheckAuth(w http.ResponseWriter, r *http.Request) {
	_, ok := services.ValidateSession(sessionToken(r))
	writeJSON(w, http.StatusOK, map[string]interface{}{"authenticated": ok})
}

// sessionToken reads the bearer header first, then the session cookie.
func sessionToken(r *http.Request) string {
	if token := middleware.ExtractBearerToken(r.Header.Get("Authorization")); token != "" {
		return token
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(cfg.TokenValidity),
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}
