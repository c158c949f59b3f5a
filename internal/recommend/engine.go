// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package recommend assembles feature generation, inverted-index recall,
// ranking, caching, and the behavior feedback loop into the recommendation
// engine behind the API.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/roomradar/roomradar/internal/cache"
	"github.com/roomradar/roomradar/internal/config"
	"github.com/roomradar/roomradar/internal/logging"
	"github.com/roomradar/roomradar/internal/metrics"
	"github.com/roomradar/roomradar/internal/models"
	"github.com/roomradar/roomradar/internal/profile"
	"github.com/roomradar/roomradar/internal/recommend/feature"
	"github.com/roomradar/roomradar/internal/recommend/index"
	"github.com/roomradar/roomradar/internal/recommend/intent"
	"github.com/roomradar/roomradar/internal/recommend/rank"
	"github.com/roomradar/roomradar/internal/store"
)

// Sources label where a served list came from, for metrics and responses.
const (
	SourcePersonalized = "personalized"
	SourcePopular      = "popular"
	SourceKeyword      = "keyword"
	SourceCache        = "cache"
)

// Fallback reasons and scores. Fallback lists carry fixed scores rather
// than ranked ones so clients can tell them apart from personalized output.
const (
	PopularReason = "热门房间推荐"
	KeywordReason = "关键词匹配"

	popularScore = 0.5
	keywordScore = 0.6
)

// popularityWindow is how far back behavior events count toward popularity.
const popularityWindow = 30 * 24 * time.Hour

// profileUpdateTimeout bounds the async feedback write that follows a
// recorded behavior.
const profileUpdateTimeout = 10 * time.Second

// Engine is the recommendation facade. All public methods are safe for
// concurrent use.
type Engine struct {
	catalog   store.RoomCatalog
	features  store.FeatureStore
	behaviors store.BehaviorStore
	profiles  *profile.Service
	idx       *index.Index
	cache     cache.Cacher
	gen       *feature.Generator
	cfg       config.EngineConfig

	mu          sync.Mutex
	lastRefresh time.Time

	breakerState func() string
	logger       zerolog.Logger
}

// Options carries the engine's collaborators.
type Options struct {
	Catalog   store.RoomCatalog
	Features  store.FeatureStore
	Behaviors store.BehaviorStore
	Profiles  *profile.Service
	Cache     cache.Cacher
	Config    config.EngineConfig

	// BreakerState reports the room catalog circuit state for Status.
	// Optional.
	BreakerState func() string
}

// NewEngine creates an engine with an empty index. Call RefreshAllFeatures
// or RebuildIndex before serving recall-based recommendations.
func NewEngine(opts Options) *Engine {
	return &Engine{
		catalog:      opts.Catalog,
		features:     opts.Features,
		behaviors:    opts.Behaviors,
		profiles:     opts.Profiles,
		idx:          index.New(),
		cache:        opts.Cache,
		gen:          feature.NewGenerator(opts.Config.LocationSeed),
		cfg:          opts.Config,
		breakerState: opts.BreakerState,
		logger:       logging.WithComponent("engine"),
	}
}

// Recommendation is a served list plus where it came from.
type Recommendation struct {
	Results []models.RecommendationResult `json:"results"`
	Source  string                        `json:"source"`
}

// Recommend returns a personalized list for the user. Cached results are
// served first; a cold path recalls by profile, ranks, and caches twice
// the requested size. Dependency failures and empty results degrade to the
// popular list instead of erroring.
func (e *Engine) Recommend(ctx context.Context, userID int64, limit int) (*Recommendation, error) {
	start := time.Now()
	limit = e.clampLimit(limit)

	key := cache.RecommendationKey(userID)
	if v, ok := e.cache.Get(key); ok {
		if results, ok := v.([]models.RecommendationResult); ok && len(results) > 0 {
			metrics.CacheHits.WithLabelValues("recommendation").Inc()
			metrics.RecordRecommendation(SourceCache, len(results), time.Since(start))
			return &Recommendation{Results: truncate(results, limit), Source: SourceCache}, nil
		}
	}
	metrics.CacheMisses.WithLabelValues("recommendation").Inc()

	p, err := e.profiles.GetOrCreate(ctx, userID)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("profile load failed, serving popular")
		return e.servePopular(ctx, limit, start), nil
	}

	candidateIDs := e.idx.RecallByProfile(p, e.popularFunc(ctx))
	featuresByID, err := e.features.GetBatch(ctx, candidateIDs)
	if err != nil {
		e.logger.Warn().Err(err).Int64("user_id", userID).Msg("feature fetch failed, serving popular")
		return e.servePopular(ctx, limit, start), nil
	}

	results := rank.Rank(p, collect(featuresByID), limit*2)
	if len(results) == 0 {
		return e.servePopular(ctx, limit, start), nil
	}

	e.cache.SetWithTTL(key, results, e.cfg.CacheTTL)
	metrics.RecordRecommendation(SourcePersonalized, len(candidateIDs), time.Since(start))
	return &Recommendation{Results: truncate(results, limit), Source: SourcePersonalized}, nil
}

// SearchRecommend returns rooms matching a free-text query. The query is
// parsed into an intent (price hint, room type, facilities), recalled and
// ranked against the user's profile; empty results degrade first to a
// substring match on room names, then to the popular list.
func (e *Engine) SearchRecommend(ctx context.Context, userID int64, keyword string, limit int) (*Recommendation, error) {
	start := time.Now()
	limit = e.clampLimit(limit)

	parsed := intent.Parse(keyword)

	// A query with no recognizable price, room type, or facility has
	// nothing for the index; skip straight to the substring fallback.
	if !parsed.Empty() {
		p, err := e.profiles.GetOrCreate(ctx, userID)
		if err != nil {
			p = models.DefaultProfile(userID)
		}

		candidateIDs := e.idx.RecallByIntent(parsed.Facilities, parsed.RoomType, parsed.PriceHint, e.popularFunc(ctx))
		featuresByID, err := e.features.GetBatch(ctx, candidateIDs)
		if err != nil {
			e.logger.Warn().Err(err).Str("keyword", keyword).Msg("feature fetch failed, serving popular")
			return e.servePopular(ctx, limit, start), nil
		}

		results := rank.Rank(p, collect(featuresByID), limit)
		if len(results) > 0 {
			metrics.RecordRecommendation(SourcePersonalized, len(candidateIDs), time.Since(start))
			return &Recommendation{Results: results, Source: SourcePersonalized}, nil
		}
	}

	if results := e.keywordMatch(ctx, keyword, limit); len(results) > 0 {
		metrics.RecordRecommendation(SourceKeyword, len(results), time.Since(start))
		return &Recommendation{Results: results, Source: SourceKeyword}, nil
	}

	return e.servePopular(ctx, limit, start), nil
}

// RecordBehavior validates and appends one behavior event, then applies
// the profile feedback asynchronously. The caller gets an error only for
// invalid input or append failure, never for the feedback write.
func (e *Engine) RecordBehavior(ctx context.Context, ev *models.BehaviorEvent) error {
	if ev.UserID <= 0 {
		return fmt.Errorf("user id must be positive, got %d", ev.UserID)
	}
	if ev.RoomID == "" && ev.Type != models.BehaviorSearch {
		return errors.New("room id is required")
	}
	if !ev.Type.Valid() {
		return fmt.Errorf("unknown behavior type %q", ev.Type)
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	if err := e.behaviors.Append(ctx, ev); err != nil {
		return fmt.Errorf("append behavior: %w", err)
	}
	metrics.BehaviorsRecorded.WithLabelValues(string(ev.Type)).Inc()

	evCopy := *ev
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), profileUpdateTimeout)
		defer cancel()

		e.profiles.HandleEvent(ctx, &evCopy)

		// The profile may have moved, so the cached list is stale.
		if evCopy.Type == models.BehaviorClick || evCopy.Type == models.BehaviorBook {
			e.InvalidateUserCache(evCopy.UserID)
		}
	}()
	return nil
}

// InvalidateUserCache drops the user's cached recommendation list.
func (e *Engine) InvalidateUserCache(userID int64) {
	e.cache.Delete(cache.RecommendationKey(userID))
	metrics.CacheEvictions.WithLabelValues("recommendation").Inc()
}

// InvalidatePopularCache drops the cached popular-room list.
func (e *Engine) InvalidatePopularCache() {
	e.cache.Delete(cache.PopularKey)
	metrics.CacheEvictions.WithLabelValues("popular").Inc()
}

// RefreshAllFeatures regenerates features for every active room, removes
// features for rooms no longer in the catalog, and rebuilds the index.
func (e *Engine) RefreshAllFeatures(ctx context.Context) (int, error) {
	start := time.Now()

	rooms, err := e.catalog.ListActiveRooms(ctx)
	if err != nil {
		metrics.RecordFeatureRefresh(time.Since(start), 0, err)
		return 0, fmt.Errorf("list active rooms: %w", err)
	}

	keep := make(map[string]struct{}, len(rooms))
	for _, room := range rooms {
		if err := e.features.Upsert(ctx, e.gen.Generate(room)); err != nil {
			metrics.RecordFeatureRefresh(time.Since(start), 0, err)
			return 0, fmt.Errorf("upsert features for room %s: %w", room.ID, err)
		}
		keep[room.ID] = struct{}{}
	}

	removed, err := e.features.DeleteOrphaned(ctx, keep)
	if err != nil {
		metrics.RecordFeatureRefresh(time.Since(start), len(rooms), err)
		return len(rooms), fmt.Errorf("delete orphaned features: %w", err)
	}

	e.mu.Lock()
	e.lastRefresh = time.Now()
	e.mu.Unlock()

	if err := e.RebuildIndex(ctx); err != nil {
		return len(rooms), err
	}

	metrics.RecordFeatureRefresh(time.Since(start), len(rooms), nil)
	e.logger.Info().Int("rooms", len(rooms)).Int("removed", removed).
		Dur("took", time.Since(start)).Msg("feature refresh complete")
	return len(rooms), nil
}

// RefreshRoom regenerates features for one room. A room that is missing or
// no longer active has its features removed instead.
func (e *Engine) RefreshRoom(ctx context.Context, roomID string) error {
	room, err := e.catalog.GetRoom(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		if err := e.features.Delete(ctx, roomID); err != nil {
			return fmt.Errorf("delete features for room %s: %w", roomID, err)
		}
		return e.RebuildIndex(ctx)
	}
	if err != nil {
		return fmt.Errorf("get room %s: %w", roomID, err)
	}

	if !room.IsActive() {
		if err := e.features.Delete(ctx, roomID); err != nil {
			return fmt.Errorf("delete features for room %s: %w", roomID, err)
		}
	} else if err := e.features.Upsert(ctx, e.gen.Generate(room)); err != nil {
		return fmt.Errorf("upsert features for room %s: %w", roomID, err)
	}

	return e.RebuildIndex(ctx)
}

// RefreshModifiedSince regenerates features for rooms the catalog reports
// as changed at or after since. Rooms that went inactive are removed.
// Returns the number of rooms touched.
func (e *Engine) RefreshModifiedSince(ctx context.Context, since time.Time) (int, error) {
	start := time.Now()

	rooms, err := e.catalog.ListModifiedSince(ctx, since)
	if err != nil {
		metrics.RecordFeatureRefresh(time.Since(start), 0, err)
		return 0, fmt.Errorf("list modified rooms: %w", err)
	}
	if len(rooms) == 0 {
		return 0, nil
	}

	for _, room := range rooms {
		if !room.IsActive() {
			if err := e.features.Delete(ctx, room.ID); err != nil {
				return 0, fmt.Errorf("delete features for room %s: %w", room.ID, err)
			}
			continue
		}
		if err := e.features.Upsert(ctx, e.gen.Generate(room)); err != nil {
			return 0, fmt.Errorf("upsert features for room %s: %w", room.ID, err)
		}
	}

	e.mu.Lock()
	e.lastRefresh = time.Now()
	e.mu.Unlock()

	if err := e.RebuildIndex(ctx); err != nil {
		return len(rooms), err
	}
	metrics.RecordFeatureRefresh(time.Since(start), len(rooms), nil)
	return len(rooms), nil
}

// RebuildIndex publishes a fresh index snapshot built from the feature
// store. Recall keeps serving the previous snapshot until the swap.
func (e *Engine) RebuildIndex(ctx context.Context) error {
	start := time.Now()

	features, err := e.features.List(ctx)
	if err != nil {
		return fmt.Errorf("list features: %w", err)
	}

	e.idx.Build(features)
	status := e.idx.Status()
	metrics.RecordIndexRebuild(time.Since(start), status.Rooms, status.Version)

	e.logger.Info().Int("rooms", status.Rooms).Int("tags", status.Tags).
		Int64("version", status.Version).Msg("index rebuilt")
	return nil
}

// popularFunc adapts PopularRoomIDs to the index top-up callback.
func (e *Engine) popularFunc(ctx context.Context) index.PopularFunc {
	return func(n int) []string {
		return e.PopularRoomIDs(ctx, n)
	}
}

// PopularRoomIDs returns up to n room ids ordered by recent behavior
// volume, ties broken by id. The behavior-derived ordering is cached for
// an hour. With no usable behavior history, as on a fresh deployment or
// when the behavior store is down, the active catalog serves as the
// popularity source so the fallback chain never goes empty while active
// rooms exist.
func (e *Engine) PopularRoomIDs(ctx context.Context, n int) []string {
	if v, ok := e.cache.Get(cache.PopularKey); ok {
		if ids, ok := v.([]string); ok && len(ids) > 0 {
			metrics.CacheHits.WithLabelValues("popular").Inc()
			return truncateIDs(ids, n)
		}
	}
	metrics.CacheMisses.WithLabelValues("popular").Inc()

	if ids := e.popularByBehavior(ctx); len(ids) > 0 {
		e.cache.SetWithTTL(cache.PopularKey, ids, e.cfg.PopularCacheTTL)
		return truncateIDs(ids, n)
	}
	return truncateIDs(e.activeRoomIDs(ctx), n)
}

// popularByBehavior aggregates recent behavior counts into an ordering.
// A failing behavior store degrades to nil rather than erroring.
func (e *Engine) popularByBehavior(ctx context.Context) []string {
	counts, err := e.behaviors.PopularityCounts(ctx, time.Now().Add(-popularityWindow))
	if err != nil {
		e.logger.Warn().Err(err).Msg("popularity counts failed, falling back to catalog")
		return nil
	}

	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if counts[ids[i]] != counts[ids[j]] {
			return counts[ids[i]] > counts[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}

// activeRoomIDs lists active catalog rooms in id order.
func (e *Engine) activeRoomIDs(ctx context.Context) []string {
	rooms, err := e.catalog.ListActiveRooms(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("active room listing failed during popularity fallback")
		return nil
	}

	ids := make([]string, 0, len(rooms))
	for _, room := range rooms {
		ids = append(ids, room.ID)
	}
	sort.Strings(ids)
	return ids
}

// servePopular builds the popular fallback list. It never errors; with
// every popularity source down the list is empty but still well-formed.
func (e *Engine) servePopular(ctx context.Context, limit int, start time.Time) *Recommendation {
	ids := e.PopularRoomIDs(ctx, limit)

	results := make([]models.RecommendationResult, 0, len(ids))
	for _, id := range ids {
		results = append(results, models.RecommendationResult{
			RoomID: id,
			Score:  popularScore,
			Reason: PopularReason,
		})
	}
	metrics.RecordRecommendation(SourcePopular, len(results), time.Since(start))
	return &Recommendation{Results: results, Source: SourcePopular}
}

// keywordMatch does a case-insensitive substring scan over active room
// names. Matches carry a fixed score so they rank below personalized
// output but above the popular fallback.
func (e *Engine) keywordMatch(ctx context.Context, keyword string, limit int) []models.RecommendationResult {
	if strings.TrimSpace(keyword) == "" {
		return nil
	}

	rooms, err := e.catalog.ListActiveRooms(ctx)
	if err != nil {
		e.logger.Warn().Err(err).Msg("keyword scan failed")
		return nil
	}

	needle := strings.ToLower(keyword)
	results := make([]models.RecommendationResult, 0, limit)
	for _, room := range rooms {
		if !strings.Contains(strings.ToLower(room.Name), needle) {
			continue
		}
		results = append(results, models.RecommendationResult{
			RoomID: room.ID,
			Score:  keywordScore,
			Reason: KeywordReason,
		})
		if len(results) == limit {
			break
		}
	}
	return results
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}

func truncate(results []models.RecommendationResult, limit int) []models.RecommendationResult {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}

func truncateIDs(ids []string, n int) []string {
	if n > 0 && len(ids) > n {
		return ids[:n]
	}
	return ids
}

func collect(byID map[string]*models.RoomFeatures) []*models.RoomFeatures {
	out := make([]*models.RoomFeatures, 0, len(byID))
	for _, f := range byID {
		out = append(out, f)
	}
	return out
}
