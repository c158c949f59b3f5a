// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package models

import "time"

// VectorDim is the fixed length of every feature and profile vector.
const VectorDim = 10

// RoomFeatures is the derived representation of a room used for recall
// and ranking. Created and overwritten by the feature generator; deleted
// when the underlying room no longer exists.
type RoomFeatures struct {
	RoomID string `json:"room_id"`

	// Tags holds deduplicated canonical tag keys, explicit and synthetic.
	Tags []string `json:"tags"`

	// Vector always has exactly VectorDim entries, each in [0,1].
	// Unparseable input degrades to the zero vector, never nil.
	Vector []float64 `json:"vector"`

	// PriceLevel and StarLevel are in [1,5].
	PriceLevel int `json:"price_level"`
	StarLevel  int `json:"star_level"`

	// Mock geo coordinates, a placeholder for a real geo signal.
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`

	UpdatedAt time.Time `json:"updated_at"`
}

// ZeroVector returns a fresh all-zero vector of VectorDim entries.
func ZeroVector() []float64 {
	return make([]float64, VectorDim)
}
