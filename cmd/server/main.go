package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/daily-digest-api/internal/api"
	"github.com/daily-digest-api/internal/config"
	"github.com/daily-digest-api/internal/database"
	"github.com/daily-digest-api/internal/docstore"
	"github.com/daily-digest-api/internal/lease"
	"github.com/daily-digest-api/internal/service"
	"github.com/daily-digest-api/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New()
	log.Info().Msg("Starting Daily Digest API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		migrationsPath = "./migrations"
	}
	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize document store
	store := docstore.NewPostgres(db.DB, log)

	// Initialize publish lease; redis is optional, without it same-date
	// publishes are not serialized but still converge.
	var locker lease.Locker = lease.NopLocker{}
	if cfg.Redis.URL != "" {
		redisClient, err := database.NewRedis(cfg.Redis.URL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to redis")
		}
		defer redisClient.Close()
		locker = lease.NewRedisLocker(redisClient, cfg.Publish.LeaseTTL, log)
	} else {
		log.Warn().Msg("REDIS_URL not set, publish lease disabled")
	}

	// Load the static question catalog
	staticQuestions, err := config.LoadQuestions(cfg.Vote.QuestionsFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.Vote.QuestionsFile).Msg("Failed to load question catalog")
	}
	if len(staticQuestions) > 0 {
		log.Info().Int("count", len(staticQuestions)).Msg("Static question catalog loaded")
	}

	// Initialize services
	services := service.NewServices(store, locker, staticQuestions, cfg, log)

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
