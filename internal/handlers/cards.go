package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/infofoot/nexo-backend/internal/models"
)

// GetCards lists the user's active upgrade cards.
func GetCards(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	active, err := mining.ActiveCards(r.Context(), userID)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}
	if active == nil {
		active = []models.Card{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"activeCards": active,
	})
}
