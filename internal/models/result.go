// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package models

// RecommendationResult is one scored room in a served list.
type RecommendationResult struct {
	RoomID string `json:"room_id"`

	// Score is the blended ranking score, higher is better.
	Score float64 `json:"score"`

	// Similarity is the raw cosine similarity before blending.
	Similarity float64 `json:"similarity"`

	// Reason is a short human-readable explanation of the placement.
	Reason string `json:"reason"`
}
