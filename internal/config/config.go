// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package config defines the RoomRadar configuration and its layered loader.
// Configuration is resolved in order of precedence: environment variables,
// then an optional YAML file, then built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Store     StoreConfig     `koanf:"store"`
	Engine    EngineConfig    `koanf:"engine"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// DatabaseConfig holds MySQL room catalog settings.
type DatabaseConfig struct {
	// DSN is the go-sql-driver/mysql data source name.
	DSN             string        `koanf:"dsn"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

// StoreConfig holds settings for the embedded Badger store that persists
// room features, user profiles, and behavior history.
type StoreConfig struct {
	Path string `koanf:"path"`

	// InMemory runs Badger without disk persistence. Used in tests.
	InMemory bool `koanf:"in_memory"`
}

// EngineConfig holds recommendation engine tunables.
type EngineConfig struct {
	// DefaultLimit is the list size used when a request does not specify one.
	DefaultLimit int `koanf:"default_limit"`

	// MaxLimit caps the requested list size.
	MaxLimit int `koanf:"max_limit"`

	// CacheTTL is the lifetime of per-user recommendation lists.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// PopularCacheTTL is the lifetime of the popular-room list.
	PopularCacheTTL time.Duration `koanf:"popular_cache_ttl"`

	// LocationSeed seeds the deterministic location-convenience feature slot.
	// Zero means seed from the room id.
	LocationSeed int64 `koanf:"location_seed"`
}

// SchedulerConfig holds background service intervals.
type SchedulerConfig struct {
	// IndexRebuildInterval is how often the inverted index is rebuilt
	// from the feature store.
	IndexRebuildInterval time.Duration `koanf:"index_rebuild_interval"`

	// FeatureRefreshInterval is how often room features are regenerated
	// for rooms modified since the last run.
	FeatureRefreshInterval time.Duration `koanf:"feature_refresh_interval"`

	// FeatureRefreshLookback bounds which rooms count as recently modified.
	FeatureRefreshLookback time.Duration `koanf:"feature_refresh_lookback"`
}

// SecurityConfig holds API protection settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would break startup.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %s", c.Server.Timeout)
	}
	if c.Engine.DefaultLimit < 1 {
		return fmt.Errorf("engine.default_limit must be at least 1, got %d", c.Engine.DefaultLimit)
	}
	if c.Engine.MaxLimit < c.Engine.DefaultLimit {
		return fmt.Errorf("engine.max_limit %d below engine.default_limit %d",
			c.Engine.MaxLimit, c.Engine.DefaultLimit)
	}
	if c.Engine.CacheTTL <= 0 {
		return fmt.Errorf("engine.cache_ttl must be positive, got %s", c.Engine.CacheTTL)
	}
	if c.Scheduler.IndexRebuildInterval <= 0 {
		return fmt.Errorf("scheduler.index_rebuild_interval must be positive, got %s",
			c.Scheduler.IndexRebuildInterval)
	}
	if c.Scheduler.FeatureRefreshInterval <= 0 {
		return fmt.Errorf("scheduler.feature_refresh_interval must be positive, got %s",
			c.Scheduler.FeatureRefreshInterval)
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}
	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs < 1 {
			return fmt.Errorf("security.rate_limit_reqs must be at least 1, got %d",
				c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %s",
				c.Security.RateLimitWindow)
		}
	}
	return nil
}
