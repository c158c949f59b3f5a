// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package profile implements the online-learning feedback loop that adapts
// user preference profiles from observed behavior.
package profile

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/roomradar/roomradar/internal/logging"
	"github.com/roomradar/roomradar/internal/metrics"
	"github.com/roomradar/roomradar/internal/models"
	"github.com/roomradar/roomradar/internal/recommend/feature"
	"github.com/roomradar/roomradar/internal/store"
)

// Weight increments per tag kind on a click, applied before the uniform
// decay pass.
const (
	equipmentIncrement  = 0.05
	priceLevelIncrement = 0.03
	categoryIncrement   = 0.02

	// decayFactor is the multiplicative decay applied to every weight
	// after the increments, keeping old interests from dominating.
	decayFactor = 0.95

	// vectorBlend is how far the profile vector moves toward a clicked
	// room's vector.
	vectorBlend = 0.1
)

// lockShards bounds concurrent profile updates. Updates for the same user
// serialize on one shard; different users proceed independently.
const lockShards = 32

// Service is the single writer of user profile state.
type Service struct {
	profiles store.ProfileStore
	features store.FeatureStore
	locks    [lockShards]chan struct{}
	logger   zerolog.Logger
}

// NewService creates the feedback service.
func NewService(profiles store.ProfileStore, features store.FeatureStore) *Service {
	s := &Service{
		profiles: profiles,
		features: features,
		logger:   logging.WithComponent("profile"),
	}
	for i := range s.locks {
		s.locks[i] = make(chan struct{}, 1)
	}
	return s
}

// GetOrCreate returns the user's profile, persisting a default profile on
// first sight.
func (s *Service) GetOrCreate(ctx context.Context, userID int64) (*models.UserProfile, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	p = models.DefaultProfile(userID)
	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// HandleEvent applies feedback for one behavior event. Only clicks and
// bookings mutate the profile; a missing room or profile silently skips
// the update.
func (s *Service) HandleEvent(ctx context.Context, ev *models.BehaviorEvent) {
	switch ev.Type {
	case models.BehaviorClick, models.BehaviorBook:
	default:
		return
	}

	if err := s.applyRoomFeedback(ctx, ev.UserID, ev.RoomID); err != nil {
		s.logger.Warn().Err(err).
			Int64("user_id", ev.UserID).
			Str("room_id", ev.RoomID).
			Msg("profile update failed")
	}
}

// applyRoomFeedback performs the read-modify-write under the user's shard
// lock so concurrent events for one user never lose updates.
func (s *Service) applyRoomFeedback(ctx context.Context, userID int64, roomID string) error {
	f, err := s.features.Get(ctx, roomID)
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	lock := s.locks[shard(userID)]
	select {
	case lock <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { <-lock }()

	p, err := s.profiles.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		p = models.DefaultProfile(userID)
	} else if err != nil {
		return err
	}

	applyFeedback(p, f)
	p.UpdatedAt = time.Now()

	if err := s.profiles.Upsert(ctx, p); err != nil {
		return err
	}
	metrics.ProfileUpdates.Inc()
	return nil
}

// applyFeedback increments the clicked room's tag weights, decays every
// weight, and nudges the profile vector toward the room's vector.
func applyFeedback(p *models.UserProfile, f *models.RoomFeatures) {
	if p.TagWeights == nil {
		p.TagWeights = make(map[string]float64, len(f.Tags))
	}

	for _, tag := range f.Tags {
		// Star-level tags rank via recall, not preference weights, so a
		// click never adds them to the map.
		if feature.IsStarKey(tag) {
			continue
		}
		p.TagWeights[tag] += incrementFor(tag)
	}

	for tag, w := range p.TagWeights {
		w *= decayFactor
		if w > 1 {
			w = 1
		}
		p.TagWeights[tag] = w
	}

	if len(p.Vector) == len(f.Vector) {
		for i := range p.Vector {
			v := (1-vectorBlend)*p.Vector[i] + vectorBlend*f.Vector[i]
			if v > 1 {
				v = 1
			}
			p.Vector[i] = v
		}
	}
}

// incrementFor picks the increment by tag kind: synthetic price levels and
// categories move slower than concrete room traits.
func incrementFor(tag string) float64 {
	switch {
	case feature.IsPriceLevelKey(tag):
		return priceLevelIncrement
	case feature.IsCategoryKey(tag):
		return categoryIncrement
	default:
		return equipmentIncrement
	}
}

func shard(userID int64) int {
	if userID < 0 {
		userID = -userID
	}
	return int(userID % lockShards)
}
