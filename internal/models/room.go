// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package models defines the domain types shared between the room catalog,
// the feature pipeline, and the recommendation engine.
package models

import "time"

// Room statuses as stored in the catalog.
const (
	RoomStatusActive   = 1
	RoomStatusInactive = 0
)

// Room is a catalog room as read from MySQL.
type Room struct {
	// ID is the stable string identifier of the room.
	ID string `json:"id"`

	Name        string `json:"name"`
	Description string `json:"description"`

	// Price per night. Nil when the catalog has no price for the room.
	Price *float64 `json:"price,omitempty"`

	// StarText is the raw star rating as entered in the catalog,
	// e.g. "5星" or "四星级". Digits are extracted downstream.
	StarText string `json:"star_text"`

	// Equipment lists amenity names, e.g. wifi, 早餐, 停车.
	Equipment []string `json:"equipment"`

	// Category is the catalog room category. Anything outside the plain
	// category maps to the special-room tag downstream.
	Category string `json:"category"`

	Status    int       `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the room is bookable.
func (r *Room) IsActive() bool {
	return r.Status == RoomStatusActive
}
