package main

import (
	"context"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/infofoot/nexo-backend/internal/config"
	"github.com/infofoot/nexo-backend/internal/database"
	"github.com/infofoot/nexo-backend/internal/handlers"
	"github.com/infofoot/nexo-backend/internal/middleware"
	"github.com/infofoot/nexo-backend/internal/repository"
	"github.com/infofoot/nexo-backend/internal/routes"
	"github.com/infofoot/nexo-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	if cfg.JWTSecret == "your-secret-key-change-in-production" && cfg.IsProduction() {
		log.Println("⚠️  WARNING: JWT_SECRET is the development default; set a real secret in production")
	}

	// Connect to PostgreSQL (accounts + settled balances)
	log.Printf("Connecting to PostgreSQL...")
	if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
		log.Fatal("Failed to connect to PostgreSQL:", err)
	}
	defer database.DisconnectPostgres()

	// Connect to Redis (cache, sessions, rate limiting, pub/sub)
	log.Printf("Connecting to Redis...")
	if err := database.ConnectRedis(cfg.RedisURI); err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer database.DisconnectRedis()

	// Connect to MongoDB (mining records, cards, active session index)
	log.Printf("Connecting to MongoDB...")
	if err := database.Connect(cfg.MongoURI); err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer database.Disconnect()

	if err := repository.EnsureMiningIndexes(context.Background(), database.DB); err != nil {
		log.Printf("⚠️  WARNING: failed to ensure MongoDB mining indexes: %v", err)
	} else {
		log.Println("✅ MongoDB mining indexes ensured")
	}

	// Wire the engine
	miningRepo := repository.NewMongoMiningRepository(database.DB)
	cardRepo := repository.NewMongoCardRepository(database.DB)
	userRepo := repository.NewPostgresUserRepository(database.PostgresDB)
	cache := services.NewRedisCache(database.RedisClient, cfg.CacheTTL)
	events := services.NewRedisEventPublisher()

	miningService := services.NewMiningService(
		miningRepo, cardRepo, userRepo, cache, events,
		cfg.SessionDuration, cfg.TickPeriod, cfg.BaseMiningRate,
	)

	services.InitAuth(cfg.JWTSecret, cfg.TokenValidity)
	services.InitAdmin(userRepo)
	handlers.Init(cfg, miningService, userRepo, cardRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Background accrual sweep: advances every active session each tick
	// and finalizes expired ones
	miningService.StartSweep(ctx)
	log.Printf("✅ Mining sweep started (every %s)", cfg.TickPeriod)

	// Redis subscriber feeding the websocket state feed
	services.StartRedisMiningSubscriber(ctx)

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimitMiddleware)

	// Health check (for deploy probes)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})

	routes.SetupRoutes(r)

	log.Printf("🚀 NXO mining backend running on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
