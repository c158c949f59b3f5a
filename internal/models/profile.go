// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package models

import "time"

// Default preferences for users with no recorded behavior.
const (
	DefaultPriceLevelMin = 2
	DefaultPriceLevelMax = 4
	DefaultStarLevel     = 3
)

// UserProfile is a user's learned preference state. The feedback loop is
// its single writer; reads during recommendation see a consistent copy.
type UserProfile struct {
	UserID int64 `json:"user_id"`

	// TagWeights maps canonical tag keys to weights in [0,1].
	TagWeights map[string]float64 `json:"tag_weights"`

	// Preferred price level range, min <= max, levels in [1,5].
	PriceLevelMin int `json:"price_level_min"`
	PriceLevelMax int `json:"price_level_max"`

	// StarLevel preference in [1,5].
	StarLevel int `json:"star_level"`

	// Vector always has exactly VectorDim entries.
	Vector []float64 `json:"vector"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultProfile returns the profile created for a user on their first
// recommendation request: no tag weights, mid price range, three stars,
// zero vector.
func DefaultProfile(userID int64) *UserProfile {
	return &UserProfile{
		UserID:        userID,
		TagWeights:    make(map[string]float64),
		PriceLevelMin: DefaultPriceLevelMin,
		PriceLevelMax: DefaultPriceLevelMax,
		StarLevel:     DefaultStarLevel,
		Vector:        ZeroVector(),
		UpdatedAt:     time.Now(),
	}
}

// Clone returns a deep copy so callers can mutate without racing readers.
func (p *UserProfile) Clone() *UserProfile {
	cp := *p
	cp.TagWeights = make(map[string]float64, len(p.TagWeights))
	for k, v := range p.TagWeights {
		cp.TagWeights[k] = v
	}
	cp.Vector = make([]float64, len(p.Vector))
	copy(cp.Vector, p.Vector)
	return &cp
}
