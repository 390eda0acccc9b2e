package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/infofoot/nexo-backend/internal/handlers"
	"github.com/infofoot/nexo-backend/internal/middleware"
)

// SetupRoutes mounts the full HTTP surface. Paths are unprefixed to stay
// compatible with the V1 game client.
func SetupRoutes(r *chi.Mux) {
	// Auth
	r.Post("/signup", handlers.Signup)
	r.Post("/login", handlers.Login)
	r.Post("/logout", handlers.Logout)
	r.Get("/check-auth", handlers.CheckAuth)

	// Mining reads (cache-backed, no auth: ids are opaque and the data is
	// the same projection the ticker broadcasts)
	r.Get("/mining-data/{userID}", handlers.GetMiningData)
	r.Get("/cards/{userID}", handlers.GetCards)
	r.Post("/update-mining-stats/{userID}", handlers.UpdateMiningStats)

	// Mining writes: bearer token must match the path user
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireOwner)
		r.Post("/start-mining/{userID}", handlers.StartMining)
		r.Post("/collect-nxo/{userID}", handlers.CollectNxo)
	})

	// Admin
	r.With(middleware.RequireAdmin).Get("/keep-alive", handlers.KeepAlive)

	// Uptime
	r.Get("/ping", handlers.Ping)

	// WebSocket mining state feed
	r.Get("/ws/mining", handlers.MiningWebSocket)
}
