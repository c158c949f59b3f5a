// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package profile

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/roomradar/roomradar/internal/models"
	"github.com/roomradar/roomradar/internal/store"
)

func newTestService() (*Service, *store.MemoryProfileStore, *store.MemoryFeatureStore) {
	profiles := store.NewMemoryProfileStore()
	features := store.NewMemoryFeatureStore()
	return NewService(profiles, features), profiles, features
}

func seedRoom(t *testing.T, features *store.MemoryFeatureStore, roomID string, tags []string, vector []float64) {
	t.Helper()
	if vector == nil {
		vector = models.ZeroVector()
	}
	err := features.Upsert(context.Background(), &models.RoomFeatures{
		RoomID:    roomID,
		Tags:      tags,
		Vector:    vector,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func TestGetOrCreatePersistsDefault(t *testing.T) {
	svc, profiles, _ := newTestService()
	ctx := context.Background()

	p, err := svc.GetOrCreate(ctx, 42)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if p.PriceLevelMin != models.DefaultPriceLevelMin || p.PriceLevelMax != models.DefaultPriceLevelMax {
		t.Errorf("price range = [%d, %d], want [%d, %d]",
			p.PriceLevelMin, p.PriceLevelMax, models.DefaultPriceLevelMin, models.DefaultPriceLevelMax)
	}
	if p.StarLevel != models.DefaultStarLevel {
		t.Errorf("StarLevel = %d, want %d", p.StarLevel, models.DefaultStarLevel)
	}
	if len(p.TagWeights) != 0 {
		t.Errorf("TagWeights = %v, want empty", p.TagWeights)
	}

	stored, err := profiles.Get(ctx, 42)
	if err != nil {
		t.Fatalf("Get() after GetOrCreate error = %v", err)
	}
	if stored.UserID != 42 {
		t.Errorf("stored UserID = %d, want 42", stored.UserID)
	}
}

func TestGetOrCreateReturnsExisting(t *testing.T) {
	svc, profiles, _ := newTestService()
	ctx := context.Background()

	existing := models.DefaultProfile(7)
	existing.TagWeights["wifi"] = 0.4
	if err := profiles.Upsert(ctx, existing); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	p, err := svc.GetOrCreate(ctx, 7)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if p.TagWeights["wifi"] != 0.4 {
		t.Errorf("TagWeights[wifi] = %v, want 0.4", p.TagWeights["wifi"])
	}
}

func TestHandleEventClickAppliesIncrementsAndDecay(t *testing.T) {
	svc, profiles, features := newTestService()
	ctx := context.Background()

	seedRoom(t, features, "r-1", []string{"豪华", "wifi", "price_level_3", "普通房间"}, nil)

	svc.HandleEvent(ctx, &models.BehaviorEvent{
		UserID: 1, RoomID: "r-1", Type: models.BehaviorClick, Timestamp: time.Now(),
	})

	p, err := profiles.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	tests := []struct {
		tag  string
		want float64
	}{
		{"豪华", 0.05 * 0.95},
		{"wifi", 0.05 * 0.95},
		{"price_level_3", 0.03 * 0.95},
		{"普通房间", 0.02 * 0.95},
	}
	for _, tt := range tests {
		if got := p.TagWeights[tt.tag]; math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("TagWeights[%s] = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestHandleEventSkipsStarTags(t *testing.T) {
	svc, profiles, features := newTestService()
	ctx := context.Background()

	seedRoom(t, features, "r-1", []string{"豪华", "star_5"}, nil)

	svc.HandleEvent(ctx, &models.BehaviorEvent{
		UserID: 1, RoomID: "r-1", Type: models.BehaviorClick, Timestamp: time.Now(),
	})

	p, err := profiles.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, ok := p.TagWeights["star_5"]; ok {
		t.Errorf("TagWeights[star_5] = %v, want absent", p.TagWeights["star_5"])
	}
	if got, want := p.TagWeights["豪华"], 0.05*0.95; math.Abs(got-want) > 1e-9 {
		t.Errorf("TagWeights[豪华] = %v, want %v", got, want)
	}
}

func TestHandleEventDecaysUnrelatedTags(t *testing.T) {
	svc, profiles, features := newTestService()
	ctx := context.Background()

	seedRoom(t, features, "r-1", []string{"商务"}, nil)

	existing := models.DefaultProfile(1)
	existing.TagWeights["海景"] = 0.8
	if err := profiles.Upsert(ctx, existing); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	svc.HandleEvent(ctx, &models.BehaviorEvent{
		UserID: 1, RoomID: "r-1", Type: models.BehaviorClick, Timestamp: time.Now(),
	})

	p, err := profiles.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got, want := p.TagWeights["海景"], 0.8*0.95; math.Abs(got-want) > 1e-9 {
		t.Errorf("TagWeights[海景] = %v, want %v", got, want)
	}
}

func TestHandleEventWeightCap(t *testing.T) {
	svc, profiles, features := newTestService()
	ctx := context.Background()

	seedRoom(t, features, "r-1", []string{"豪华"}, nil)

	existing := models.DefaultProfile(1)
	existing.TagWeights["豪华"] = 0.999
	if err := profiles.Upsert(ctx, existing); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	for i := 0; i < 50; i++ {
		svc.HandleEvent(ctx, &models.BehaviorEvent{
			UserID: 1, RoomID: "r-1", Type: models.BehaviorClick, Timestamp: time.Now(),
		})
	}

	p, err := profiles.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if p.TagWeights["豪华"] > 1.0 {
		t.Errorf("TagWeights[豪华] = %v, want <= 1.0", p.TagWeights["豪华"])
	}
}

func TestHandleEventBlendsVector(t *testing.T) {
	svc, profiles, features := newTestService()
	ctx := context.Background()

	vec := models.ZeroVector()
	vec[0] = 1.0
	seedRoom(t, features, "r-1", []string{"豪华"}, vec)

	svc.HandleEvent(ctx, &models.BehaviorEvent{
		UserID: 1, RoomID: "r-1", Type: models.BehaviorClick, Timestamp: time.Now(),
	})

	p, err := profiles.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := p.Vector[0]; math.Abs(got-0.1) > 1e-9 {
		t.Errorf("Vector[0] = %v, want 0.1", got)
	}
	for i := 1; i < models.VectorDim; i++ {
		if p.Vector[i] != 0 {
			t.Errorf("Vector[%d] = %v, want 0", i, p.Vector[i])
		}
	}
}

func TestHandleEventIgnoresViewAndSearch(t *testing.T) {
	svc, profiles, features := newTestService()
	ctx := context.Background()

	seedRoom(t, features, "r-1", []string{"豪华"}, nil)

	for _, typ := range []models.BehaviorType{models.BehaviorView, models.BehaviorSearch} {
		svc.HandleEvent(ctx, &models.BehaviorEvent{
			UserID: 1, RoomID: "r-1", Type: typ, Timestamp: time.Now(),
		})
	}

	if _, err := profiles.Get(ctx, 1); err == nil {
		t.Error("Get() error = nil, want ErrNotFound after non-click events")
	}
}

func TestHandleEventMissingRoomSkips(t *testing.T) {
	svc, profiles, _ := newTestService()
	ctx := context.Background()

	svc.HandleEvent(ctx, &models.BehaviorEvent{
		UserID: 1, RoomID: "missing", Type: models.BehaviorClick, Timestamp: time.Now(),
	})

	if _, err := profiles.Get(ctx, 1); err == nil {
		t.Error("Get() error = nil, want ErrNotFound after click on missing room")
	}
}

func TestHandleEventConcurrentClicksSameUser(t *testing.T) {
	svc, profiles, features := newTestService()
	ctx := context.Background()

	seedRoom(t, features, "r-1", []string{"豪华"}, nil)

	const clicks = 20
	var wg sync.WaitGroup
	for i := 0; i < clicks; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc.HandleEvent(ctx, &models.BehaviorEvent{
				UserID: 1, RoomID: "r-1", Type: models.BehaviorClick, Timestamp: time.Now(),
			})
		}()
	}
	wg.Wait()

	p, err := profiles.Get(ctx, 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	// Serialized updates: w_n = (w_{n-1} + 0.05) * 0.95.
	want := 0.0
	for i := 0; i < clicks; i++ {
		want = (want + 0.05) * 0.95
	}
	if got := p.TagWeights["豪华"]; math.Abs(got-want) > 1e-9 {
		t.Errorf("TagWeights[豪华] after %d concurrent clicks = %v, want %v", clicks, got, want)
	}
}
