// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package store defines the narrow collaborator interfaces the
// recommendation engine reads and writes through, plus their MySQL,
// BadgerDB, and in-memory implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/roomradar/roomradar/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// RoomCatalog reads rooms from the relational catalog. Catalog outages are
// dependency errors; callers route them to the popularity fallback.
type RoomCatalog interface {
	// GetRoom fetches one room by id. Returns ErrNotFound when absent.
	GetRoom(ctx context.Context, id string) (*models.Room, error)

	// ListActiveRooms fetches all bookable rooms.
	ListActiveRooms(ctx context.Context) ([]*models.Room, error)

	// ListModifiedSince fetches rooms whose catalog record changed
	// at or after the given time, regardless of status.
	ListModifiedSince(ctx context.Context, since time.Time) ([]*models.Room, error)
}

// FeatureStore persists derived room features.
type FeatureStore interface {
	// Get fetches features for one room. Returns ErrNotFound when absent.
	Get(ctx context.Context, roomID string) (*models.RoomFeatures, error)

	// GetBatch fetches features for a set of rooms. Missing rooms are
	// silently omitted from the result.
	GetBatch(ctx context.Context, roomIDs []string) (map[string]*models.RoomFeatures, error)

	// Upsert creates or overwrites features for a room.
	Upsert(ctx context.Context, f *models.RoomFeatures) error

	// Delete removes features for a room. No-op when absent.
	Delete(ctx context.Context, roomID string) error

	// List returns all stored features.
	List(ctx context.Context) ([]*models.RoomFeatures, error)

	// DeleteOrphaned removes features whose room id is not in keep.
	// Returns the number of entries removed.
	DeleteOrphaned(ctx context.Context, keep map[string]struct{}) (int, error)
}

// ProfileStore persists user preference profiles.
type ProfileStore interface {
	// Get fetches one profile. Returns ErrNotFound when absent.
	Get(ctx context.Context, userID int64) (*models.UserProfile, error)

	// Upsert creates or overwrites a profile.
	Upsert(ctx context.Context, p *models.UserProfile) error

	// ListActiveSince returns profiles updated at or after the given time.
	ListActiveSince(ctx context.Context, since time.Time) ([]*models.UserProfile, error)
}

// BehaviorStore appends and aggregates behavior history.
type BehaviorStore interface {
	// Append records one event. Events are immutable once written.
	Append(ctx context.Context, ev *models.BehaviorEvent) error

	// RecentByType returns up to limit events of the given type recorded
	// at or after since, newest first.
	RecentByType(ctx context.Context, t models.BehaviorType, since time.Time, limit int) ([]*models.BehaviorEvent, error)

	// PopularityCounts aggregates event counts per room since the given time.
	PopularityCounts(ctx context.Context, since time.Time) (map[string]int, error)
}
