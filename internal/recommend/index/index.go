// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package index maintains the in-memory inverted index (tag -> room-id set)
// used for sub-linear candidate recall. Rebuilds construct a fresh snapshot
// aside and publish it with an atomic pointer swap, so readers always see
// either the previous or the new index, never a partial one.
package index

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/roomradar/roomradar/internal/models"
	"github.com/roomradar/roomradar/internal/recommend/feature"
)

// Recall floors and fallback sizes. When recall yields fewer candidates
// than the floor, the candidate set is topped up from popular rooms.
const (
	ProfileRecallFloor   = 20
	ProfileFallbackCount = 50
	IntentRecallFloor    = 10
	IntentFallbackCount  = 30

	// profileWeightMinimum is the weight a tag needs before it recalls rooms.
	profileWeightMinimum = 0.3
)

// PopularFunc supplies up to n popular room ids for recall top-up.
// A nil PopularFunc disables the top-up.
type PopularFunc func(n int) []string

// Status describes the published snapshot.
type Status struct {
	Tags          int       `json:"tags"`
	Rooms         int       `json:"rooms"`
	PriceTagCount int       `json:"price_tag_count"`
	StarTagCount  int       `json:"star_tag_count"`
	Version       int64     `json:"version"`
	LastRebuild   time.Time `json:"last_rebuild"`
}

// snapshot is an immutable index generation.
type snapshot struct {
	tagToRooms map[string][]string
	rooms      int
	priceTags  int
	starTags   int
	version    int64
	builtAt    time.Time
}

// Index owns the published snapshot. Build is the only mutator; recall
// methods are safe for concurrent use.
type Index struct {
	current atomic.Pointer[snapshot]
	version atomic.Int64
}

// New creates an index with an empty published snapshot.
func New() *Index {
	idx := &Index{}
	idx.current.Store(&snapshot{
		tagToRooms: map[string][]string{},
		builtAt:    time.Now(),
	})
	return idx
}

// Build constructs a snapshot from all room features and publishes it.
// A rebuild is a full replace, so deletions never leave stale entries.
func (idx *Index) Build(features []*models.RoomFeatures) {
	byTag := make(map[string]map[string]struct{})
	for _, f := range features {
		for _, tag := range f.Tags {
			set, ok := byTag[tag]
			if !ok {
				set = make(map[string]struct{})
				byTag[tag] = set
			}
			set[f.RoomID] = struct{}{}
		}
	}

	tagToRooms := make(map[string][]string, len(byTag))
	priceTags, starTags := 0, 0
	for tag, set := range byTag {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		tagToRooms[tag] = ids

		if feature.IsPriceLevelKey(tag) {
			priceTags++
		}
		if isStarKey(tag) {
			starTags++
		}
	}

	idx.current.Store(&snapshot{
		tagToRooms: tagToRooms,
		rooms:      len(features),
		priceTags:  priceTags,
		starTags:   starTags,
		version:    idx.version.Add(1),
		builtAt:    time.Now(),
	})
}

// RecallByProfile unions the rooms behind the profile's significant tags
// (weight above 0.3) and every price level inside the preferred range.
// Results below the floor are topped up with popular rooms.
func (idx *Index) RecallByProfile(p *models.UserProfile, popular PopularFunc) []string {
	snap := idx.current.Load()
	set := make(map[string]struct{})

	for tag, weight := range p.TagWeights {
		if weight > profileWeightMinimum {
			addAll(set, snap.tagToRooms[tag])
		}
	}
	for level := p.PriceLevelMin; level <= p.PriceLevelMax; level++ {
		addAll(set, snap.tagToRooms[feature.PriceLevelKey(level)])
	}

	return topUp(set, ProfileRecallFloor, ProfileFallbackCount, popular)
}

// RecallByIntent unions facility tags, the room-type tag, and the price
// level derived from the intent's price hint. Results below the floor are
// topped up with popular rooms.
func (idx *Index) RecallByIntent(facilities []string, roomType string, priceHint int, popular PopularFunc) []string {
	snap := idx.current.Load()
	set := make(map[string]struct{})

	for _, tag := range facilities {
		addAll(set, snap.tagToRooms[tag])
	}
	if roomType != "" {
		addAll(set, snap.tagToRooms[roomType])
	}
	if priceHint > 0 {
		price := float64(priceHint)
		level := feature.ComputePriceLevel(&price)
		addAll(set, snap.tagToRooms[feature.PriceLevelKey(level)])
	}

	return topUp(set, IntentRecallFloor, IntentFallbackCount, popular)
}

// RoomsForTag returns the sorted ids behind a single tag. A missing tag
// yields nil.
func (idx *Index) RoomsForTag(tag string) []string {
	return idx.current.Load().tagToRooms[tag]
}

// Status reports the published snapshot's shape.
func (idx *Index) Status() Status {
	snap := idx.current.Load()
	return Status{
		Tags:          len(snap.tagToRooms),
		Rooms:         snap.rooms,
		PriceTagCount: snap.priceTags,
		StarTagCount:  snap.starTags,
		Version:       snap.version,
		LastRebuild:   snap.builtAt,
	}
}

func addAll(set map[string]struct{}, ids []string) {
	for _, id := range ids {
		set[id] = struct{}{}
	}
}

// topUp converts the set to a sorted slice, padding with popular rooms
// when below the floor.
func topUp(set map[string]struct{}, floor, fallbackCount int, popular PopularFunc) []string {
	if len(set) < floor && popular != nil {
		addAll(set, popular(fallbackCount))
	}

	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func isStarKey(tag string) bool {
	return len(tag) > 5 && tag[:5] == "star_"
}
