// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/roomradar/roomradar/internal/models"
)

// MemoryCatalog is an in-memory RoomCatalog for tests and seeding.
type MemoryCatalog struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room

	// FailWith, when set, makes every call return this error.
	// Used to exercise fallback paths.
	FailWith error
}

// NewMemoryCatalog creates an empty in-memory catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{rooms: make(map[string]*models.Room)}
}

// Put adds or replaces a room.
func (c *MemoryCatalog) Put(room *models.Room) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rooms[room.ID] = room
}

func (c *MemoryCatalog) GetRoom(ctx context.Context, id string) (*models.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.FailWith != nil {
		return nil, c.FailWith
	}
	room, ok := c.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	return room, nil
}

func (c *MemoryCatalog) ListActiveRooms(ctx context.Context) ([]*models.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.FailWith != nil {
		return nil, c.FailWith
	}
	var out []*models.Room
	for _, room := range c.rooms {
		if room.IsActive() {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *MemoryCatalog) ListModifiedSince(ctx context.Context, since time.Time) ([]*models.Room, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.FailWith != nil {
		return nil, c.FailWith
	}
	var out []*models.Room
	for _, room := range c.rooms {
		if !room.UpdatedAt.Before(since) {
			out = append(out, room)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MemoryFeatureStore is an in-memory FeatureStore for tests.
type MemoryFeatureStore struct {
	mu       sync.RWMutex
	features map[string]*models.RoomFeatures
}

// NewMemoryFeatureStore creates an empty in-memory feature store.
func NewMemoryFeatureStore() *MemoryFeatureStore {
	return &MemoryFeatureStore{features: make(map[string]*models.RoomFeatures)}
}

func (s *MemoryFeatureStore) Get(ctx context.Context, roomID string) (*models.RoomFeatures, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.features[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *MemoryFeatureStore) GetBatch(ctx context.Context, roomIDs []string) (map[string]*models.RoomFeatures, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*models.RoomFeatures, len(roomIDs))
	for _, id := range roomIDs {
		if f, ok := s.features[id]; ok {
			out[id] = f
		}
	}
	return out, nil
}

func (s *MemoryFeatureStore) Upsert(ctx context.Context, f *models.RoomFeatures) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.features[f.RoomID] = f
	return nil
}

func (s *MemoryFeatureStore) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.features, roomID)
	return nil
}

func (s *MemoryFeatureStore) List(ctx context.Context) ([]*models.RoomFeatures, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.RoomFeatures, 0, len(s.features))
	for _, f := range s.features {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out, nil
}

func (s *MemoryFeatureStore) DeleteOrphaned(ctx context.Context, keep map[string]struct{}) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id := range s.features {
		if _, ok := keep[id]; !ok {
			delete(s.features, id)
			removed++
		}
	}
	return removed, nil
}

// MemoryProfileStore is an in-memory ProfileStore for tests.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[int64]*models.UserProfile
}

// NewMemoryProfileStore creates an empty in-memory profile store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[int64]*models.UserProfile)}
}

func (s *MemoryProfileStore) Get(ctx context.Context, userID int64) (*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *MemoryProfileStore) Upsert(ctx context.Context, p *models.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.UserID] = p.Clone()
	return nil
}

func (s *MemoryProfileStore) ListActiveSince(ctx context.Context, since time.Time) ([]*models.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserProfile
	for _, p := range s.profiles {
		if !p.UpdatedAt.Before(since) {
			out = append(out, p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// MemoryBehaviorStore is an in-memory BehaviorStore for tests.
type MemoryBehaviorStore struct {
	mu     sync.RWMutex
	events []*models.BehaviorEvent
}

// NewMemoryBehaviorStore creates an empty in-memory behavior store.
func NewMemoryBehaviorStore() *MemoryBehaviorStore {
	return &MemoryBehaviorStore{}
}

func (s *MemoryBehaviorStore) Append(ctx context.Context, ev *models.BehaviorEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *MemoryBehaviorStore) RecentByType(ctx context.Context, t models.BehaviorType, since time.Time, limit int) ([]*models.BehaviorEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.BehaviorEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		ev := s.events[i]
		if ev.Timestamp.Before(since) {
			continue
		}
		if ev.Type != t {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryBehaviorStore) PopularityCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int)
	for _, ev := range s.events {
		if ev.Timestamp.Before(since) || ev.RoomID == "" {
			continue
		}
		counts[ev.RoomID]++
	}
	return counts, nil
}

var (
	_ RoomCatalog   = (*MemoryCatalog)(nil)
	_ FeatureStore  = (*MemoryFeatureStore)(nil)
	_ ProfileStore  = (*MemoryProfileStore)(nil)
	_ BehaviorStore = (*MemoryBehaviorStore)(nil)
)
