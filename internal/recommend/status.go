// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package recommend

import (
	"context"
	"time"

	"github.com/roomradar/roomradar/internal/recommend/index"
)

// Status is the engine's operational snapshot, served by the admin API.
type Status struct {
	Index    index.Status `json:"index"`
	Cache    CacheStatus  `json:"cache"`
	Features FeatureStats `json:"features"`

	// CatalogBreaker is the room catalog circuit state, "unknown" when the
	// catalog is not breaker-wrapped.
	CatalogBreaker string `json:"catalog_breaker"`

	Healthy bool `json:"healthy"`
}

// CacheStatus summarizes the result cache.
type CacheStatus struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Keys      int64   `json:"keys"`
	HitRate   float64 `json:"hit_rate"`
}

// FeatureStats reports feature coverage over the store and catalog.
type FeatureStats struct {
	IndexedRooms int `json:"indexed_rooms"`
	StoredRooms  int `json:"stored_rooms"`

	// CatalogRooms is the active room count, -1 when the catalog is
	// unreachable.
	CatalogRooms int `json:"catalog_rooms"`

	// Coverage is the share of active rooms with stored features, in [0,1].
	// Zero when the catalog count is unknown or empty.
	Coverage float64 `json:"coverage"`

	LastRefresh time.Time `json:"last_refresh"`
}

// Status reports the engine's current operational state. The engine is
// healthy when the index has been built and the catalog circuit is not open.
func (e *Engine) Status(ctx context.Context) Status {
	idxStatus := e.idx.Status()
	cacheStats := e.cache.GetStats()

	stored := 0
	if features, err := e.features.List(ctx); err == nil {
		stored = len(features)
	}

	catalogRooms := -1
	coverage := 0.0
	if rooms, err := e.catalog.ListActiveRooms(ctx); err == nil {
		catalogRooms = len(rooms)
		if catalogRooms > 0 {
			coverage = float64(stored) / float64(catalogRooms)
			if coverage > 1 {
				coverage = 1
			}
		}
	}

	e.mu.Lock()
	lastRefresh := e.lastRefresh
	e.mu.Unlock()

	breaker := "unknown"
	if e.breakerState != nil {
		breaker = e.breakerState()
	}

	return Status{
		Index: idxStatus,
		Cache: CacheStatus{
			Hits:      cacheStats.Hits,
			Misses:    cacheStats.Misses,
			Evictions: cacheStats.Evictions,
			Keys:      cacheStats.TotalKeys,
			HitRate:   e.cache.HitRate(),
		},
		Features: FeatureStats{
			IndexedRooms: idxStatus.Rooms,
			StoredRooms:  stored,
			CatalogRooms: catalogRooms,
			Coverage:     coverage,
			LastRefresh:  lastRefresh,
		},
		CatalogBreaker: breaker,
		Healthy:        idxStatus.Version > 0 && breaker != "open",
	}
}
