// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package main is the entry point for the RoomRadar server.
//
// RoomRadar serves personalized hotel room recommendations. Room features
// are generated from the MySQL catalog, indexed in an in-memory inverted
// index, and ranked against per-user preference profiles that adapt to
// click and booking behavior.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables, optional YAML file, defaults (Koanf v2)
//  2. Room catalog: MySQL connection wrapped in a circuit breaker
//  3. Embedded store: BadgerDB for features, profiles, and behavior history
//  4. Recommendation engine: feature generation, recall, ranking, result cache
//  5. Supervisor tree: background schedulers and the HTTP API under suture
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, a config.yaml file, then built-in
// defaults. Minimal production setup:
//
//	export MYSQL_DSN='user:pass@tcp(mysql:3306)/rooms?parseTime=true'
//	export STORE_PATH=/var/lib/roomradar
//	./roomradar
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger a graceful shutdown: the HTTP server stops
// accepting connections and drains in-flight requests, schedulers stop at
// the next tick, then the catalog and stores are closed.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/roomradar/roomradar/internal/api"
	"github.com/roomradar/roomradar/internal/cache"
	"github.com/roomradar/roomradar/internal/config"
	"github.com/roomradar/roomradar/internal/logging"
	"github.com/roomradar/roomradar/internal/profile"
	"github.com/roomradar/roomradar/internal/recommend"
	"github.com/roomradar/roomradar/internal/store"
	"github.com/roomradar/roomradar/internal/supervisor"
	"github.com/roomradar/roomradar/internal/supervisor/services"
)

// initialRefreshTimeout bounds the startup feature generation pass. The
// scheduler retries on its own interval, so startup does not block on a
// slow catalog.
const initialRefreshTimeout = 2 * time.Minute

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", listenAddr(cfg.Server)).
		Str("store_path", cfg.Store.Path).
		Bool("store_in_memory", cfg.Store.InMemory).
		Dur("cache_ttl", cfg.Engine.CacheTTL).
		Msg("Starting RoomRadar")

	// Room catalog: MySQL behind a circuit breaker so catalog outages
	// degrade recommendations instead of failing them.
	mysqlCatalog, err := store.NewMySQLCatalog(context.Background(), cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to room catalog")
	}
	defer func() {
		if err := mysqlCatalog.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing room catalog")
		}
	}()
	catalog := store.NewBreakerCatalog(mysqlCatalog)
	logging.Info().Msg("Room catalog connected")

	// Embedded store for features, profiles, and behavior history.
	badger, err := store.OpenBadger(cfg.Store)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open embedded store")
	}
	defer func() {
		if err := badger.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing embedded store")
		}
	}()

	resultCache := cache.New(cfg.Engine.CacheTTL)
	defer resultCache.Close()

	profiles := profile.NewService(badger.Profiles(), badger.Features())

	engine := recommend.NewEngine(recommend.Options{
		Catalog:      catalog,
		Features:     badger.Features(),
		Behaviors:    badger.Behaviors(),
		Profiles:     profiles,
		Cache:        resultCache,
		Config:       cfg.Engine,
		BreakerState: catalog.State,
	})

	// Initial feature generation and index build. A failure here is not
	// fatal: features persisted by a previous run are still in Badger, and
	// the scheduler retries on its interval.
	refreshCtx, cancelRefresh := context.WithTimeout(context.Background(), initialRefreshTimeout)
	if rooms, err := engine.RefreshAllFeatures(refreshCtx); err != nil {
		logging.Warn().Err(err).Msg("Initial feature refresh failed, serving from persisted features")
		if err := engine.RebuildIndex(context.Background()); err != nil {
			logging.Warn().Err(err).Msg("Index rebuild from persisted features failed")
		}
	} else {
		logging.Info().Int("rooms", rooms).Msg("Initial feature refresh complete")
	}
	cancelRefresh()

	router := api.NewRouter(engine, cfg.Security)
	server := &http.Server{
		Addr:              listenAddr(cfg.Server),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// sutureslog needs an slog.Logger; bridge it to zerolog.
	tree := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	tree.AddEngineService(services.NewIndexRebuildService(engine, cfg.Scheduler.IndexRebuildInterval))
	tree.AddEngineService(services.NewFeatureRefreshService(
		engine,
		cfg.Scheduler.FeatureRefreshInterval,
		cfg.Scheduler.FeatureRefreshLookback,
	))
	tree.AddAPIService(services.NewHTTPServerService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))

	logging.Info().Str("addr", server.Addr).Msg("RoomRadar ready")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree exited with error")
	}

	logging.Info().Msg("RoomRadar stopped")
}

func listenAddr(cfg config.ServerConfig) string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}
