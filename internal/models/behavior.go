// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package models

import "time"

// BehaviorType enumerates recorded user actions.
type BehaviorType string

const (
	BehaviorClick  BehaviorType = "click"
	BehaviorView   BehaviorType = "view"
	BehaviorSearch BehaviorType = "search"
	BehaviorBook   BehaviorType = "book"
)

// Valid reports whether t is a known behavior type.
func (t BehaviorType) Valid() bool {
	switch t {
	case BehaviorClick, BehaviorView, BehaviorSearch, BehaviorBook:
		return true
	}
	return false
}

// BehaviorEvent is one observed user action. Events are append-only
// history; they feed the feedback loop and popularity aggregates.
type BehaviorEvent struct {
	ID     string       `json:"id"`
	UserID int64        `json:"user_id"`
	RoomID string       `json:"room_id"`
	Type   BehaviorType `json:"type"`

	// Keyword is set for search events.
	Keyword string `json:"keyword,omitempty"`

	// Position is the click position in the presented list, when known.
	Position int `json:"position,omitempty"`

	// Score is the recommendation score shown at the time of the event.
	Score float64 `json:"score,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}
