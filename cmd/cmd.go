package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lovance/backend/internal/cache"
	"github.com/lovance/backend/internal/config"
	"github.com/lovance/backend/internal/events"
	"github.com/lovance/backend/internal/handlers"
	"github.com/lovance/backend/internal/middleware"
	"github.com/lovance/backend/internal/repository"
	"github.com/lovance/backend/internal/services"
	"github.com/lovance/backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	if err := repository.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply schema")
	}
	log.Info().Msg("Database connection established")

	// Connect to the snapshot cache
	snapshots, err := cache.NewSnapshotStore(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to redis")
	}
	defer snapshots.Close()
	log.Info().Msg("Redis connection established")

	// Media storage
	media, err := storage.NewMediaStorage(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create media storage")
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	partnershipRepo := repository.NewPartnershipRepository(db)
	contentRepo := repository.NewContentRepository(db)
	deviceRepo := repository.NewDeviceRepository(db)

	// Event bus and realtime hub
	bus := events.NewBus(log.Logger)
	wsHub := services.NewWSHub()

	// Initialize services
	userService := services.NewUserService(userRepo, media, cfg.JWT.Secret)
	partnerService := services.NewPartnerService(partnershipRepo, userRepo, bus, wsHub)
	contentService := services.NewContentService(contentRepo, partnershipRepo, userRepo, media, bus)
	widgetService := services.NewWidgetService(contentRepo, partnershipRepo, userRepo, snapshots, wsHub, log.Logger)
	deviceService := services.NewDeviceService(deviceRepo)

	pushRelay, err := services.NewPushRelay(cfg.APNs, deviceRepo, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create push relay")
	}
	forwarder := services.NewWSForwarder(wsHub, log.Logger)

	// Event fan-out: realtime frames, widget projection, push delivery
	bus.Subscribe(forwarder, forwarder.EventTypes()...)
	bus.Subscribe(widgetService, widgetService.EventTypes()...)
	bus.Subscribe(pushRelay, pushRelay.EventTypes()...)

	// Daily device cleanup
	cleanupJob := services.NewDeviceCleanupJob(cfg.Cleanup, deviceRepo, log.Logger)
	cleanupJob.Start(context.Background())

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService, partnerService)
	partnerHandler := handlers.NewPartnerHandler(partnerService)
	contentHandler := handlers.NewContentHandler(contentService)
	widgetHandler := handlers.NewWidgetHandler(widgetService)
	deviceHandler := handlers.NewDeviceHandler(deviceService)
	healthHandler := handlers.NewHealthHandler(db, snapshots)
	wsHandler := handlers.NewWebSocketHandler(wsHub, userService, partnerService, contentService)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/users", userHandler.CreateUser)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(userService))

			r.Get("/users/me", userHandler.Me)
			r.Patch("/users/me", userHandler.UpdateMe)
			r.Post("/users/me/avatar", userHandler.Avatar)

			r.Post("/partner/connect", partnerHandler.Connect)
			r.Get("/partner", partnerHandler.Get)
			r.Delete("/partner", partnerHandler.Disconnect)

			r.Post("/media/uploads", contentHandler.CreateUpload)
			r.Post("/content", contentHandler.Create)
			r.Get("/content", contentHandler.List)
			r.Get("/content/latest", contentHandler.Latest)
			r.Post("/content/{content_id}/read", contentHandler.MarkRead)
			r.Delete("/content/{content_id}", contentHandler.Delete)

			r.Get("/memories", contentHandler.Memories)
			r.Get("/memories/months", contentHandler.MemoryMonths)

			r.Get("/widget", widgetHandler.Get)

			r.Put("/devices", deviceHandler.Register)
			r.Delete("/devices/{token}", deviceHandler.Delete)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleWebSocket)

	// Ops surface
	r.Get("/healthz", healthHandler.Healthz)
	r.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cleanupJob.Stop()
	wsHub.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
