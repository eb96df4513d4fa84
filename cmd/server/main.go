/*
main.go - Application entry point

PURPOSE:
  Starts the quota tracker API. Loads configuration, connects the data
  source, wraps it in the snapshot cache and serves the dashboard API.

STARTUP SEQUENCE:
  1. Parse command-line flags
  2. Load the YAML config (flags override it)
  3. Open the data source (sqlite, warehouse or memory)
  4. Wrap it in the TTL cache and build the tracker service
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config path (default: tracker.yaml, optional)
  -port    HTTP server port (overrides server.port)
  -db      SQLite database path (overrides source.sqlite_path)

ENVIRONMENT:
  QUOTA_TRACKER_WAREHOUSE_DSN  Warehouse connection string

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the data source
  4. Exit

SEE ALSO:
  - config/config.go: Configuration
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/quota-tracker/api"
	"github.com/warp/quota-tracker/config"
	"github.com/warp/quota-tracker/generic/store"
	"github.com/warp/quota-tracker/tracker"
)

func main() {
	// Flags
	configPath := flag.String("config", "tracker.yaml", "YAML config path")
	port := flag.Int("port", 0, "HTTP server port")
	dbPath := flag.String("db", "", "SQLite database path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Source.SQLitePath = *dbPath
	}
	log := cfg.Log.NewLogger(os.Stderr)

	ctx := context.Background()
	opened, err := cfg.Source.Open(ctx, log)
	if err != nil {
		log.Fatal().Err(err).Str("source", string(cfg.Source.Kind)).Msg("failed to open data source")
	}
	defer opened.Close()

	cache := store.NewCache(opened.Source, cfg.Cache.TTL.Duration, store.WithLogger(log))
	service := tracker.NewService(cache, cfg.Rules())
	handler := api.NewHandler(service, cache, opened.SQLite, log)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("source", string(cfg.Source.Kind)).
			Dur("cache_ttl", cfg.Cache.TTL.Duration).
			Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdown(server, log)
}

func shutdown(server *http.Server, log zerolog.Logger) {
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	log.Info().Msg("server stopped")
}
