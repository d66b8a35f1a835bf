// Trendloom - Fashion Trend Aggregation and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trendloom

package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/tomtom215/trendloom/internal/config"
	"github.com/tomtom215/trendloom/internal/logging"
	"github.com/tomtom215/trendloom/internal/supervisor"
	"github.com/tomtom215/trendloom/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	logger := logging.Logger()

	logger.Info().
		Int("port", cfg.Server.Port).
		Int("sources", len(cfg.Sources)).
		Bool("feedback_in_memory", cfg.Feedback.InMemory).
		Msg("Starting Trendloom")

	store, err := openStore(&cfg.Feedback, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Feedback.Path).Msg("Failed to open feedback store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing feedback store")
		}
	}()

	a, err := buildApp(cfg, store, logger)
	if err != nil {
		// Fatal skips deferred calls; flush Badger first.
		if closeErr := store.Close(); closeErr != nil {
			logger.Error().Err(closeErr).Msg("Error closing feedback store")
		}
		logger.Fatal().Err(err).Msg("Failed to initialize components")
	}
	if a.registry.Len() == 0 {
		logger.Warn().Msg("No content sources configured, trend requests will return empty results")
	}

	tree, err := supervisor.NewSupervisorTree(slog.New(logging.NewSlogHandler()), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if err := addMaintenance(tree, cfg, a); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create maintenance services")
	}
	tree.AddAPIService(services.NewHTTPServerService(a.server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("addr", a.server.Addr).Msg("Starting supervisor tree")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logger.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logger.Info().Msg("Trendloom stopped")
}

// addMaintenance registers the cache janitor and, when archival is
// configured, the retention janitor.
func addMaintenance(tree *supervisor.SupervisorTree, cfg *config.Config, a *app) error {
	logger := logging.WithComponent("maintenance")

	cacheJanitor, err := services.NewCacheJanitor(a.cache, a.prefs, cfg.Cache.CleanupInterval, logger)
	if err != nil {
		return err
	}
	tree.AddMaintenanceService(cacheJanitor)

	if cfg.Feedback.ArchiveAfter <= 0 {
		return nil
	}
	retention, err := services.NewRetentionJanitor(a.ledger, cfg.Feedback.ArchiveAfter, cfg.Feedback.JanitorInterval, nil, logger)
	if err != nil {
		return err
	}
	tree.AddMaintenanceService(retention)
	return nil
}
