package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/infofoot/nexo-backend/internal/repository"
	"github.com/infofoot/nexo-backend/internal/services"
)

// GetMiningData returns the cache-first mining state projection. The
// authoritative accrued amount only moves on sweep ticks; the client
// interpolates its own countdown from last-mining/next-mining.
func GetMiningData(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	data, err := mining.MiningData(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			fail(w, http.StatusNotFound, "No mining data for this user")
		} else {
			fail(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"miningData": data,
	})
}

// StartMining opens a new one-hour session for the authenticated user.
func StartMining(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	rec, err := mining.StartMining(r.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyActive) {
			fail(w, http.StatusBadRequest, "Mining session already in progress")
		} else {
			fail(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"last-mining": rec.LastMining,
		"next-mining": rec.NextMining,
	})
}

// CollectNxo moves the accrued NXO into the settled balance.
func CollectNxo(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	newBalance, err := mining.CollectNxo(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNothingToCollect):
			fail(w, http.StatusBadRequest, "No NXO to collect")
		case errors.Is(err, repository.ErrNotFound):
			fail(w, http.StatusNotFound, "User not found")
		default:
			fail(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":        true,
		"updatedNxoCoin": newBalance,
	})
}

// UpdateMiningStats recomputes the projected rate from the user's active
// cards and persists it into the idle mining record.
func UpdateMiningStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	puissance, bonus, err := mining.ComputeRate(r.Context(), userID)
	if err != nil {
		fail(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"puissance": puissance,
		"bonus":     bonus,
	})
}
