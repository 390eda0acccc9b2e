// Package handlers exposes the HTTP surface of the NXO mining backend.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/infofoot/nexo-backend/internal/config"
	"github.com/infofoot/nexo-backend/internal/repository"
	"github.com/infofoot/nexo-backend/internal/services"
)

var (
	cfg    *config.Config
	mining *services.MiningService
	users  repository.UserRepository
	cards  repository.CardRepository
)

// Init wires the handler package's collaborators. Called once from main.
func Init(c *config.Config, m *services.MiningService, u repository.UserRepository, cr repository.CardRepository) {
	cfg = c
	mining = m
	users = u
	cards = cr
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// fail writes the standard {success:false, message} envelope.
func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
