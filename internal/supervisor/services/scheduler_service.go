// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package services

import (
	"context"
	"time"

	"github.com/roomradar/roomradar/internal/logging"
)

// IndexRebuilder matches the engine's index rebuild entry point.
type IndexRebuilder interface {
	RebuildIndex(ctx context.Context) error
}

// FeatureRefresher matches the engine's incremental feature refresh.
type FeatureRefresher interface {
	RefreshModifiedSince(ctx context.Context, since time.Time) (int, error)
}

// IndexRebuildService periodically republishes the inverted index from the
// feature store so deleted rooms age out even without catalog changes.
type IndexRebuildService struct {
	rebuilder IndexRebuilder
	interval  time.Duration
	name      string
}

// NewIndexRebuildService creates the rebuild scheduler.
func NewIndexRebuildService(rebuilder IndexRebuilder, interval time.Duration) *IndexRebuildService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &IndexRebuildService{
		rebuilder: rebuilder,
		interval:  interval,
		name:      "index-rebuild",
	}
}

// Serve implements suture.Service. Rebuild failures are logged and retried
// on the next tick rather than crashing the service.
func (s *IndexRebuildService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(s.name)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.rebuilder.RebuildIndex(ctx); err != nil {
				logger.Error().Err(err).Msg("scheduled index rebuild failed")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *IndexRebuildService) String() string {
	return s.name
}

// FeatureRefreshService periodically regenerates features for rooms the
// catalog reports as recently modified.
type FeatureRefreshService struct {
	refresher FeatureRefresher
	interval  time.Duration
	lookback  time.Duration
	name      string
}

// NewFeatureRefreshService creates the refresh scheduler. The lookback
// bounds how far back a catalog change still counts as recent; it should
// be at least the interval so no window is missed between ticks.
func NewFeatureRefreshService(refresher FeatureRefresher, interval, lookback time.Duration) *FeatureRefreshService {
	if interval <= 0 {
		interval = time.Hour
	}
	if lookback < interval {
		lookback = 2 * interval
	}
	return &FeatureRefreshService{
		refresher: refresher,
		interval:  interval,
		lookback:  lookback,
		name:      "feature-refresh",
	}
}

// Serve implements suture.Service.
func (s *FeatureRefreshService) Serve(ctx context.Context) error {
	logger := logging.WithComponent(s.name)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rooms, err := s.refresher.RefreshModifiedSince(ctx, time.Now().Add(-s.lookback))
			if err != nil {
				logger.Error().Err(err).Msg("scheduled feature refresh failed")
				continue
			}
			if rooms > 0 {
				logger.Info().Int("rooms", rooms).Msg("scheduled feature refresh complete")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for suture's log messages.
func (s *FeatureRefreshService) String() string {
	return s.name
}
