// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/roomradar/roomradar/internal/logging"
	"github.com/roomradar/roomradar/internal/models"
	"github.com/roomradar/roomradar/internal/recommend"
	"github.com/roomradar/roomradar/internal/validation"
)

// Handler holds the HTTP handlers backed by the recommendation engine.
type Handler struct {
	engine *recommend.Engine
}

// NewHandler creates a handler set.
func NewHandler(engine *recommend.Engine) *Handler {
	return &Handler{engine: engine}
}

// BehaviorRequest is the payload for POST /behaviors.
type BehaviorRequest struct {
	UserID   int64  `json:"user_id" validate:"required,gt=0"`
	RoomID   string `json:"room_id"`
	Action   string `json:"action" validate:"required,oneof=click view search book"`
	Keyword  string `json:"keyword"`
	Position int    `json:"position" validate:"gte=0"`
}

// Recommend handles GET /api/v1/recommendations/user/{userID}.
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := parseUserID(rw, chi.URLParam(r, "userID"))
	if !ok {
		return
	}
	limit := parseLimit(r)

	rec, err := h.engine.Recommend(r.Context(), userID, limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Int64("user_id", userID).Msg("recommendation failed")
		rw.ServiceUnavailable("recommendations temporarily unavailable")
		return
	}
	rw.Success(rec)
}

// Search handles GET /api/v1/recommendations/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := parseUserID(rw, r.URL.Query().Get("user_id"))
	if !ok {
		return
	}
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		rw.BadRequest("keyword is required")
		return
	}
	limit := parseLimit(r)

	rec, err := h.engine.SearchRecommend(r.Context(), userID, keyword, limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("keyword", keyword).Msg("search recommendation failed")
		rw.ServiceUnavailable("recommendations temporarily unavailable")
		return
	}

	// The search itself is a behavior signal.
	ev := &models.BehaviorEvent{
		UserID:  userID,
		Type:    models.BehaviorSearch,
		Keyword: keyword,
	}
	if err := h.engine.RecordBehavior(r.Context(), ev); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("search behavior not recorded")
	}

	rw.Success(rec)
}

// RecordBehavior handles POST /api/v1/behaviors.
func (h *Handler) RecordBehavior(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req BehaviorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("invalid JSON payload")
		return
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ev := &models.BehaviorEvent{
		UserID:   req.UserID,
		RoomID:   req.RoomID,
		Type:     models.BehaviorType(req.Action),
		Keyword:  req.Keyword,
		Position: req.Position,
	}
	if err := h.engine.RecordBehavior(r.Context(), ev); err != nil {
		rw.BadRequest(err.Error())
		return
	}

	rw.Created(map[string]string{"id": ev.ID})
}

// EngineStatus handles GET /api/v1/recommendations/status.
func (h *Handler) EngineStatus(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.engine.Status(r.Context()))
}

// RefreshFeatures handles POST /api/v1/admin/features/refresh.
func (h *Handler) RefreshFeatures(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	rooms, err := h.engine.RefreshAllFeatures(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("feature refresh failed")
		rw.InternalError("feature refresh failed")
		return
	}
	rw.Success(map[string]int{"rooms": rooms})
}

// RefreshRoom handles POST /api/v1/admin/features/refresh/{roomID}.
func (h *Handler) RefreshRoom(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		rw.BadRequest("room id is required")
		return
	}

	if err := h.engine.RefreshRoom(r.Context(), roomID); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Str("room_id", roomID).Msg("room refresh failed")
		rw.InternalError("room refresh failed")
		return
	}
	rw.Success(map[string]string{"room_id": roomID})
}

// RebuildIndex handles POST /api/v1/admin/index/rebuild.
func (h *Handler) RebuildIndex(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.engine.RebuildIndex(r.Context()); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("index rebuild failed")
		rw.InternalError("index rebuild failed")
		return
	}
	rw.Success(h.engine.Status(r.Context()).Index)
}

// InvalidateUserCache handles DELETE /api/v1/admin/cache/users/{userID}.
func (h *Handler) InvalidateUserCache(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	userID, ok := parseUserID(rw, chi.URLParam(r, "userID"))
	if !ok {
		return
	}
	h.engine.InvalidateUserCache(userID)
	rw.Success(map[string]int64{"user_id": userID})
}

// InvalidatePopularCache handles DELETE /api/v1/admin/cache/popular.
func (h *Handler) InvalidatePopularCache(w http.ResponseWriter, r *http.Request) {
	h.engine.InvalidatePopularCache()
	NewResponseWriter(w, r).Success(map[string]bool{"invalidated": true})
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := h.engine.Status(r.Context())
	payload := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"healthy":   status.Healthy,
	}
	if !status.Healthy {
		payload["status"] = "degraded"
	}
	rw.Success(payload)
}

// HealthLive handles GET /api/v1/health/live.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "ok"})
}

// parseUserID parses a positive user id, writing a 400 on failure.
func parseUserID(rw *ResponseWriter, raw string) (int64, bool) {
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		rw.BadRequest("user id must be a positive integer")
		return 0, false
	}
	return userID, true
}

// parseLimit reads the optional limit query parameter. Zero lets the engine
// apply its default; the engine also caps oversized values.
func parseLimit(r *http.Request) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
