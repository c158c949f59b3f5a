// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/roomradar/roomradar/internal/cache"
	"github.com/roomradar/roomradar/internal/config"
	"github.com/roomradar/roomradar/internal/models"
	"github.com/roomradar/roomradar/internal/profile"
	"github.com/roomradar/roomradar/internal/store"
)

func floatPtr(f float64) *float64 { return &f }

type testEnv struct {
	engine    *Engine
	catalog   *store.MemoryCatalog
	features  *store.MemoryFeatureStore
	profiles  *store.MemoryProfileStore
	behaviors *store.MemoryBehaviorStore
	cache     *cache.Cache
}

func testRooms() []*models.Room {
	now := time.Now()
	return []*models.Room{
		{ID: "r-1", Name: "豪华海景大床房", Price: floatPtr(650), StarText: "五星级",
			Equipment: []string{"wifi", "早餐", "浴缸"}, Status: models.RoomStatusActive, UpdatedAt: now},
		{ID: "r-2", Name: "标准双床房", Price: floatPtr(280), StarText: "三星级",
			Equipment: []string{"wifi"}, Status: models.RoomStatusActive, UpdatedAt: now},
		{ID: "r-3", Name: "商务大床房", Price: floatPtr(450), StarText: "四星级",
			Equipment: []string{"wifi", "早餐", "健身"}, Status: models.RoomStatusActive, UpdatedAt: now},
		{ID: "r-4", Name: "亲子套房", Price: floatPtr(880), StarText: "五星级",
			Equipment: []string{"游泳池", "早餐"}, Category: "亲子主题", Status: models.RoomStatusActive, UpdatedAt: now},
		{ID: "r-5", Name: "经济单人间", Price: floatPtr(150), StarText: "二星级",
			Status: models.RoomStatusActive, UpdatedAt: now},
		{ID: "r-6", Name: "咖啡主题房", StarText: "三星级",
			Status: models.RoomStatusActive, UpdatedAt: now},
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		catalog:   store.NewMemoryCatalog(),
		features:  store.NewMemoryFeatureStore(),
		profiles:  store.NewMemoryProfileStore(),
		behaviors: store.NewMemoryBehaviorStore(),
		cache:     cache.New(cache.RecommendationTTL),
	}
	t.Cleanup(env.cache.Close)

	for _, room := range testRooms() {
		env.catalog.Put(room)
	}

	env.engine = NewEngine(Options{
		Catalog:   env.catalog,
		Features:  env.features,
		Behaviors: env.behaviors,
		Profiles:  profile.NewService(env.profiles, env.features),
		Cache:     env.cache,
		Config: config.EngineConfig{
			DefaultLimit:    10,
			MaxLimit:        100,
			CacheTTL:        cache.RecommendationTTL,
			PopularCacheTTL: cache.PopularTTL,
			LocationSeed:    1,
		},
	})

	if _, err := env.engine.RefreshAllFeatures(context.Background()); err != nil {
		t.Fatalf("RefreshAllFeatures() error = %v", err)
	}
	return env
}

func resultIDs(results []models.RecommendationResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.RoomID
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRecommendColdUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.engine.Recommend(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rec.Source != SourcePersonalized {
		t.Errorf("Source = %q, want %q", rec.Source, SourcePersonalized)
	}

	// A default profile prefers price levels 2 through 4, which covers
	// r-2 (280), r-3 (450), and r-1 (650). Equal scores fall back to id order.
	want := []string{"r-1", "r-2", "r-3"}
	if got := resultIDs(rec.Results); !equalIDs(got, want) {
		t.Errorf("Recommend() ids = %v, want %v", got, want)
	}
	for _, r := range rec.Results {
		if r.Score <= 0.1 {
			t.Errorf("result %s score = %v, want above floor", r.RoomID, r.Score)
		}
		if r.Reason == "" {
			t.Errorf("result %s has empty reason", r.RoomID)
		}
	}

	// First request persists the default profile.
	if _, err := env.profiles.Get(ctx, 1); err != nil {
		t.Errorf("profile not persisted after cold request: %v", err)
	}
}

func TestRecommendServesCacheAndTruncates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.engine.Recommend(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if first.Source != SourcePersonalized {
		t.Fatalf("first Source = %q, want %q", first.Source, SourcePersonalized)
	}

	second, err := env.engine.Recommend(ctx, 1, 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if second.Source != SourceCache {
		t.Errorf("second Source = %q, want %q", second.Source, SourceCache)
	}
	if len(second.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2 after truncation", len(second.Results))
	}
}

func TestRecommendInvalidateUserCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.engine.Recommend(ctx, 1, 10); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	env.engine.InvalidateUserCache(1)

	rec, err := env.engine.Recommend(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rec.Source != SourcePersonalized {
		t.Errorf("Source after invalidation = %q, want %q", rec.Source, SourcePersonalized)
	}
}

func TestRecommendPopularFallbackWhenNoFeatures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Drop every feature so recall and ranking produce nothing.
	if _, err := env.features.DeleteOrphaned(ctx, map[string]struct{}{}); err != nil {
		t.Fatalf("DeleteOrphaned() error = %v", err)
	}
	if err := env.engine.RebuildIndex(ctx); err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}

	for _, roomID := range []string{"r-2", "r-2", "r-1"} {
		err := env.behaviors.Append(ctx, &models.BehaviorEvent{
			ID: roomID, UserID: 5, RoomID: roomID, Type: models.BehaviorView, Timestamp: time.Now(),
		})
		if err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	rec, err := env.engine.Recommend(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rec.Source != SourcePopular {
		t.Errorf("Source = %q, want %q", rec.Source, SourcePopular)
	}
	want := []string{"r-2", "r-1"}
	if got := resultIDs(rec.Results); !equalIDs(got, want) {
		t.Errorf("popular ids = %v, want %v", got, want)
	}
	for _, r := range rec.Results {
		if r.Score != 0.5 {
			t.Errorf("popular score = %v, want 0.5", r.Score)
		}
		if r.Reason != PopularReason {
			t.Errorf("popular reason = %q, want %q", r.Reason, PopularReason)
		}
	}
}

func TestRecommendPopularColdStartUsesCatalog(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// No behavior history at all; drop features so recall and ranking
	// produce nothing and the popular fallback is the only source left.
	if _, err := env.features.DeleteOrphaned(ctx, map[string]struct{}{}); err != nil {
		t.Fatalf("DeleteOrphaned() error = %v", err)
	}
	if err := env.engine.RebuildIndex(ctx); err != nil {
		t.Fatalf("RebuildIndex() error = %v", err)
	}

	rec, err := env.engine.Recommend(ctx, 1, 5)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if rec.Source != SourcePopular {
		t.Errorf("Source = %q, want %q", rec.Source, SourcePopular)
	}
	// Active catalog rooms in id order stand in for popularity.
	want := []string{"r-1", "r-2", "r-3", "r-4", "r-5"}
	if got := resultIDs(rec.Results); !equalIDs(got, want) {
		t.Errorf("cold start popular ids = %v, want %v", got, want)
	}
	for _, r := range rec.Results {
		if r.Score != 0.5 {
			t.Errorf("popular score = %v, want 0.5", r.Score)
		}
		if r.Reason != PopularReason {
			t.Errorf("popular reason = %q, want %q", r.Reason, PopularReason)
		}
	}
}

// failingBehaviors simulates a behavior store outage.
type failingBehaviors struct{}

var errBehaviorStoreDown = errors.New("behavior store down")

func (failingBehaviors) Append(ctx context.Context, ev *models.BehaviorEvent) error {
	return errBehaviorStoreDown
}

func (failingBehaviors) RecentByType(ctx context.Context, t models.BehaviorType, since time.Time, limit int) ([]*models.BehaviorEvent, error) {
	return nil, errBehaviorStoreDown
}

func (failingBehaviors) PopularityCounts(ctx context.Context, since time.Time) (map[string]int, error) {
	return nil, errBehaviorStoreDown
}

func TestRecommendBehaviorStoreOutageDegrades(t *testing.T) {
	catalog := store.NewMemoryCatalog()
	for _, room := range testRooms() {
		catalog.Put(room)
	}
	features := store.NewMemoryFeatureStore()
	resultCache := cache.New(cache.RecommendationTTL)
	t.Cleanup(resultCache.Close)

	eng := NewEngine(Options{
		Catalog:   catalog,
		Features:  features,
		Behaviors: failingBehaviors{},
		Profiles:  profile.NewService(store.NewMemoryProfileStore(), features),
		Cache:     resultCache,
		Config: config.EngineConfig{
			DefaultLimit:    10,
			MaxLimit:        100,
			CacheTTL:        cache.RecommendationTTL,
			PopularCacheTTL: cache.PopularTTL,
		},
	})
	ctx := context.Background()

	if ids := eng.PopularRoomIDs(ctx, 3); !equalIDs(ids, []string{"r-1", "r-2", "r-3"}) {
		t.Errorf("PopularRoomIDs() = %v, want catalog fallback [r-1 r-2 r-3]", ids)
	}

	rec, err := eng.Recommend(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v, want degraded non-error result", err)
	}
	if rec.Source != SourcePopular {
		t.Errorf("Source = %q, want %q", rec.Source, SourcePopular)
	}
	if len(rec.Results) != len(testRooms()) {
		t.Errorf("len(Results) = %d, want %d", len(rec.Results), len(testRooms()))
	}
}

func TestSearchRecommendByIntent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// "豪华海景300" parses to room type 豪华 and a level-2 price hint,
	// recalling the luxury room and the level-2 room.
	rec, err := env.engine.SearchRecommend(ctx, 1, "豪华海景300", 10)
	if err != nil {
		t.Fatalf("SearchRecommend() error = %v", err)
	}
	if rec.Source != SourcePersonalized {
		t.Errorf("Source = %q, want %q", rec.Source, SourcePersonalized)
	}
	want := []string{"r-1", "r-2"}
	if got := resultIDs(rec.Results); !equalIDs(got, want) {
		t.Errorf("SearchRecommend() ids = %v, want %v", got, want)
	}
}

func TestSearchRecommendKeywordFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.engine.SearchRecommend(ctx, 1, "咖啡", 10)
	if err != nil {
		t.Fatalf("SearchRecommend() error = %v", err)
	}
	if rec.Source != SourceKeyword {
		t.Fatalf("Source = %q, want %q", rec.Source, SourceKeyword)
	}
	if len(rec.Results) != 1 || rec.Results[0].RoomID != "r-6" {
		t.Fatalf("Results = %v, want single match r-6", resultIDs(rec.Results))
	}
	if rec.Results[0].Score != 0.6 {
		t.Errorf("keyword score = %v, want 0.6", rec.Results[0].Score)
	}
	if rec.Results[0].Reason != KeywordReason {
		t.Errorf("keyword reason = %q, want %q", rec.Results[0].Reason, KeywordReason)
	}
}

func TestSearchRecommendPopularFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.behaviors.Append(ctx, &models.BehaviorEvent{
		ID: "ev-1", UserID: 5, RoomID: "r-3", Type: models.BehaviorClick, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rec, err := env.engine.SearchRecommend(ctx, 1, "zzz不存在", 10)
	if err != nil {
		t.Fatalf("SearchRecommend() error = %v", err)
	}
	if rec.Source != SourcePopular {
		t.Errorf("Source = %q, want %q", rec.Source, SourcePopular)
	}
	if len(rec.Results) != 1 || rec.Results[0].RoomID != "r-3" {
		t.Errorf("Results = %v, want [r-3]", resultIDs(rec.Results))
	}
}

func TestRecordBehaviorValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		ev      *models.BehaviorEvent
		wantErr bool
	}{
		{"valid click", &models.BehaviorEvent{UserID: 1, RoomID: "r-1", Type: models.BehaviorClick}, false},
		{"search without room", &models.BehaviorEvent{UserID: 1, Type: models.BehaviorSearch, Keyword: "豪华"}, false},
		{"zero user", &models.BehaviorEvent{UserID: 0, RoomID: "r-1", Type: models.BehaviorClick}, true},
		{"click without room", &models.BehaviorEvent{UserID: 1, Type: models.BehaviorClick}, true},
		{"unknown type", &models.BehaviorEvent{UserID: 1, RoomID: "r-1", Type: "hover"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.engine.RecordBehavior(ctx, tt.ev)
			if (err != nil) != tt.wantErr {
				t.Errorf("RecordBehavior() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecordBehaviorClickUpdatesProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.engine.RecordBehavior(ctx, &models.BehaviorEvent{
		UserID: 9, RoomID: "r-1", Type: models.BehaviorClick,
	})
	if err != nil {
		t.Fatalf("RecordBehavior() error = %v", err)
	}

	// The profile write is asynchronous.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p, err := env.profiles.Get(ctx, 9)
		if err == nil && len(p.TagWeights) > 0 {
			if p.TagWeights["豪华"] <= 0 {
				t.Errorf("TagWeights[豪华] = %v, want positive", p.TagWeights["豪华"])
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("profile was not updated after click")
}

func TestRefreshAllFeaturesRemovesOrphans(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.features.Upsert(ctx, &models.RoomFeatures{
		RoomID: "ghost", Tags: []string{"豪华"}, Vector: models.ZeroVector(), UpdatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	if _, err := env.engine.RefreshAllFeatures(ctx); err != nil {
		t.Fatalf("RefreshAllFeatures() error = %v", err)
	}

	if _, err := env.features.Get(ctx, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(ghost) error = %v, want ErrNotFound", err)
	}
}

func TestRefreshRoomInactiveRemovesFeatures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.catalog.Put(&models.Room{
		ID: "r-2", Name: "标准双床房", Price: floatPtr(280), StarText: "三星级",
		Status: 0, UpdatedAt: time.Now(),
	})

	if err := env.engine.RefreshRoom(ctx, "r-2"); err != nil {
		t.Fatalf("RefreshRoom() error = %v", err)
	}

	if _, err := env.features.Get(ctx, "r-2"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("Get(r-2) error = %v, want ErrNotFound", err)
	}
	if rooms := env.engine.idx.RoomsForTag("标准"); len(rooms) != 0 {
		t.Errorf("index still recalls removed room: %v", rooms)
	}
}

func TestRefreshAllFeaturesCatalogFailure(t *testing.T) {
	env := newTestEnv(t)
	env.catalog.FailWith = errors.New("connection refused")

	if _, err := env.engine.RefreshAllFeatures(context.Background()); err == nil {
		t.Error("RefreshAllFeatures() error = nil, want catalog error")
	}
}

func TestPopularRoomIDsOrderingAndCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	events := []struct {
		roomID string
		n      int
	}{
		{"r-3", 3}, {"r-1", 2}, {"r-2", 2},
	}
	for _, ev := range events {
		for i := 0; i < ev.n; i++ {
			err := env.behaviors.Append(ctx, &models.BehaviorEvent{
				ID: ev.roomID, UserID: 5, RoomID: ev.roomID, Type: models.BehaviorView, Timestamp: time.Now(),
			})
			if err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}
	}

	// Count descending, then id ascending.
	want := []string{"r-3", "r-1", "r-2"}
	if ids := env.engine.PopularRoomIDs(ctx, 10); !equalIDs(ids, want) {
		t.Errorf("PopularRoomIDs() = %v, want %v", ids, want)
	}

	// New events do not show through the cached ordering.
	err := env.behaviors.Append(ctx, &models.BehaviorEvent{
		ID: "late", UserID: 5, RoomID: "r-5", Type: models.BehaviorView, Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if ids := env.engine.PopularRoomIDs(ctx, 10); !equalIDs(ids, want) {
		t.Errorf("PopularRoomIDs() after cache = %v, want %v", ids, want)
	}

	env.engine.InvalidatePopularCache()
	if ids := env.engine.PopularRoomIDs(ctx, 2); len(ids) != 2 {
		t.Errorf("len(ids) = %d, want 2", len(ids))
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t)

	status := env.engine.Status(context.Background())
	if status.Index.Rooms != 6 {
		t.Errorf("Index.Rooms = %d, want 6", status.Index.Rooms)
	}
	if status.Features.StoredRooms != 6 {
		t.Errorf("Features.StoredRooms = %d, want 6", status.Features.StoredRooms)
	}
	if status.Features.CatalogRooms != 6 {
		t.Errorf("Features.CatalogRooms = %d, want 6", status.Features.CatalogRooms)
	}
	if status.Features.Coverage != 1.0 {
		t.Errorf("Features.Coverage = %v, want 1.0", status.Features.Coverage)
	}
	if status.Index.Version == 0 {
		t.Error("Index.Version = 0, want rebuilt index")
	}
	if !status.Healthy {
		t.Error("Healthy = false, want true after refresh")
	}
	if status.CatalogBreaker != "unknown" {
		t.Errorf("CatalogBreaker = %q, want %q", status.CatalogBreaker, "unknown")
	}
	if status.Features.LastRefresh.IsZero() {
		t.Error("Features.LastRefresh is zero, want refresh timestamp")
	}
}

func TestRecommendLimitClamping(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.engine.Recommend(ctx, 1, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(rec.Results) > 10 {
		t.Errorf("len(Results) = %d, want at most default limit 10", len(rec.Results))
	}
}
