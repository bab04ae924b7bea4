/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the fuel-station shift service.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Set up logging
  3. Initialize SQLite draft store and backend cache
  4. Create backend client and API handler
  5. Start the idle draft sweeper
  6. Configure HTTP router
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PORT)
  -db      SQLite database path (overrides DB_PATH)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the draft sweeper
  4. Close cache and database connections
  5. Exit

EXAMPLES:
  # Run against a local backend
  BACKEND_URL=http://localhost:8000 ./server

  # Run with in-memory database
  ./server -db=":memory:"

  # Share the backend cache between instances
  REDIS_URL=redis://localhost:6379/0 ./server

ENVIRONMENT:
  See config/config.go for the full list.

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/warp/fuel-station/api"
	"github.com/warp/fuel-station/backend"
	"github.com/warp/fuel-station/cache"
	"github.com/warp/fuel-station/config"
	"github.com/warp/fuel-station/logging"
	"github.com/warp/fuel-station/shift"
	"github.com/warp/fuel-station/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Flags
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	logger, logCloser := logging.Setup(logging.Options{
		Level:      cfg.LogLevel,
		Production: cfg.IsProduction(),
		File:       cfg.LogFile,
	})
	defer logCloser.Close()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", *dbPath).Msg("failed to initialize database")
	}
	defer store.Close()

	// Backend cache
	ctx := context.Background()
	var backendCache cache.Cache = cache.NewMemory()
	var redisCache *cache.Redis
	if cfg.RedisURL != "" {
		redisCache, err = cache.NewRedis(ctx, cfg.RedisURL, "fuel-station:")
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisCache.Close()
		backendCache = redisCache
	}

	client, err := backend.New(backend.Config{
		BaseURL:  cfg.BackendURL,
		Timeout:  cfg.BackendTimeout,
		Cache:    backendCache,
		CacheTTL: cfg.CacheTTL,
		Logger:   logger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create backend client")
	}

	// Initialize handler
	handler := api.NewHandler(client, store, store)
	handler.Options = shift.CloseOptions{StrictCollection: cfg.StrictCollection}
	handler.Checks["database"] = store
	if redisCache != nil {
		handler.Checks["redis"] = redisCache
	}

	sweeper := api.NewDraftSweeper(store, cfg.DraftTTL, logger)
	sweeper.Start()

	// Create router
	router := api.NewRouter(handler, api.RouterOptions{
		Logger:             logger,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // exports can be slow
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Int("port", *port).
			Str("env", cfg.Env).
			Str("backend", cfg.BackendURL).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	sweeper.Stop()

	log.Info().Msg("server stopped")
}
