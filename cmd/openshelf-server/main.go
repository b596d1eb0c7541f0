// Package main is the entry point for the Openshelf catalogue server.
// Openshelf is a library-catalogue manager served over a line-oriented
// TCP protocol.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openshelf/openshelf/internal/catalog"
	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/library"
	"github.com/openshelf/openshelf/internal/lock"
	"github.com/openshelf/openshelf/internal/metrics"
	"github.com/openshelf/openshelf/internal/persistence"
	"github.com/openshelf/openshelf/internal/server"
)

// Version information (set at build time)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	cfg := config.MustLoad(configPath)

	setupLogger(cfg.Logging)

	log.Info().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("git_commit", GitCommit).
		Msg("Starting Openshelf Server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Snapshot store and save lock
	store, err := persistence.NewStore(ctx, cfg.Persistence, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize snapshot store")
	}
	defer store.Close()

	locker := newLocker(ctx, cfg)
	pm := persistence.NewManager(store, locker, cfg.Persistence.LockTTL, log.Logger)

	// Catalogue and facade
	db := catalog.NewStore(cfg.Auth.AdminPassword)
	manager := library.NewManager(db, pm, cfg.Persistence.SaveRetries, log.Logger)

	if err := manager.LoadDatabase(ctx); err != nil {
		if errors.Is(err, persistence.ErrSnapshotNotFound) {
			log.Info().Msg("No snapshot found, seeding demo catalogue")
			manager.SeedDemoData()
		} else {
			log.Fatal().Err(err).Msg("Failed to load snapshot")
		}
	}

	// Background autosave
	var autosaver *library.Autosaver
	if cfg.Persistence.AutosaveEnabled {
		autosaver, err = library.NewAutosaver(manager, cfg.Persistence.AutosaveInterval, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to schedule autosave")
		}
		autosaver.Start()
	}

	// Metrics endpoint
	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, log.Logger)
		go metricsServer.Start()
	}

	// TCP server
	srv := server.New(cfg.Server.Addr(), manager, log.Logger)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server...")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("Server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	srv.Stop()
	if autosaver != nil {
		autosaver.Stop()
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	if err := manager.SaveDatabase(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Final snapshot save failed")
	} else {
		log.Info().Msg("Final snapshot saved")
	}

	log.Info().Msg("Shutdown complete")
}

// setupLogger configures the global zerolog logger from config.
func setupLogger(cfg config.LoggingConfig) {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = cfg.TimeFormat

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

// newLocker picks the save-lock implementation. Redis coordinates writers
// across processes sharing one snapshot location; the in-memory locker
// covers the single-process case.
func newLocker(ctx context.Context, cfg *config.Config) lock.Locker {
	if !cfg.Redis.Enabled {
		return lock.NewMemoryLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, falling back to in-memory save lock")
		return lock.NewMemoryLocker()
	}

	log.Info().Str("addr", cfg.Redis.Addr()).Msg("Using Redis save lock")
	return lock.NewRedisLocker(client)
}
