package handlers

import "net/http"

// Ping answers uptime probes; the hosted frontend also calls it to keep
// the free-tier dyno awake.
func Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Server is alive",
	})
}

// KeepAlive is the authenticated variant of Ping; the RequireAdmin
// middleware has already vetted the caller.
func KeepAlive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}
