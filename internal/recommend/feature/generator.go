// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package feature

import (
	"hash/fnv"
	"math/rand"
	"strings"
	"time"
	"unicode"

	"github.com/roomradar/roomradar/internal/models"
)

// Price level bucket thresholds. Prices at or above the last threshold
// map to level 5; a missing price maps to DefaultPriceLevel.
var priceLevelThresholds = [4]float64{200, 400, 600, 800}

// Defaults applied when catalog fields are absent or unparseable.
const (
	DefaultPriceLevel = 3
	DefaultStarLevel  = 3
)

// Named slots of the 10-dimension feature vector.
const (
	SlotPrice = iota
	SlotStar
	SlotLuxury
	SlotBusiness
	SlotFamily
	SlotAmenity
	SlotLocation
	SlotRoomSize
	SlotModernity
	SlotUniqueness
)

// Generator derives RoomFeatures from catalog rooms. The only
// non-deterministic slots (location convenience and mock coordinates)
// draw from a per-room seeded source, so output is reproducible for a
// fixed seed.
type Generator struct {
	seed int64
}

// NewGenerator creates a generator. A zero seed keeps per-room
// determinism using only the room id.
func NewGenerator(seed int64) *Generator {
	return &Generator{seed: seed}
}

// Generate derives features for one room. It never fails; absent fields
// fall back to documented defaults.
func (g *Generator) Generate(room *models.Room) *models.RoomFeatures {
	tags := g.deriveTags(room)
	priceLevel := ComputePriceLevel(room.Price)
	starLevel := ParseStarLevel(room.StarText)

	keys := make([]string, 0, len(tags)+2)
	seen := make(map[string]struct{}, len(tags)+2)
	for _, t := range tags {
		key := t.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	for _, synthetic := range []string{PriceLevelKey(priceLevel), StarLevelKey(starLevel)} {
		if _, dup := seen[synthetic]; !dup {
			seen[synthetic] = struct{}{}
			keys = append(keys, synthetic)
		}
	}

	rng := g.roomRand(room.ID)
	lon := 113.8 + rng.Float64()*1.0
	lat := 22.4 + rng.Float64()*0.4

	return &models.RoomFeatures{
		RoomID:     room.ID,
		Tags:       keys,
		Vector:     g.buildVector(room, seen, starLevel, rng),
		PriceLevel: priceLevel,
		StarLevel:  starLevel,
		Longitude:  lon,
		Latitude:   lat,
		UpdatedAt:  time.Now(),
	}
}

// deriveTags matches the fixed vocabularies case-insensitively against
// name, description, and equipment, then adds the synthetic price-band
// and category tags.
func (g *Generator) deriveTags(room *models.Room) []Tag {
	haystack := strings.ToLower(room.Name + " " + room.Description + " " +
		strings.Join(room.Equipment, " "))

	var tags []Tag
	for _, word := range roomTypeVocab {
		if strings.Contains(haystack, strings.ToLower(word)) {
			tags = append(tags, Explicit(word))
		}
	}
	for _, word := range equipmentVocab {
		if strings.Contains(haystack, strings.ToLower(word)) {
			tags = append(tags, Explicit(word))
		}
	}

	if room.Price != nil {
		switch {
		case *room.Price < 200:
			tags = append(tags, Explicit(TagBandBudget))
		case *room.Price < 500:
			tags = append(tags, Explicit(TagBandMid))
		default:
			tags = append(tags, Explicit(TagBandPremium))
		}
	}

	if room.Category == "" || strings.Contains(room.Category, "普通") {
		tags = append(tags, Explicit(TagCategoryPlain))
	} else {
		tags = append(tags, Explicit(TagCategorySpecial))
	}

	return tags
}

// ComputePriceLevel buckets a price into levels 1-5.
func ComputePriceLevel(price *float64) int {
	if price == nil {
		return DefaultPriceLevel
	}
	for i, threshold := range priceLevelThresholds {
		if *price < threshold {
			return i + 1
		}
	}
	return 5
}

// ParseStarLevel extracts digits from the raw star text and clamps the
// result to [1,5]. Text without digits yields DefaultStarLevel.
func ParseStarLevel(text string) int {
	var digits strings.Builder
	for _, r := range text {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return DefaultStarLevel
	}

	n := 0
	for _, r := range digits.String() {
		n = n*10 + int(r-'0')
		if n > 5 {
			return 5
		}
	}
	if n < 1 {
		return 1
	}
	return n
}

// buildVector fills the 10 named slots, each clamped to [0,1].
func (g *Generator) buildVector(room *models.Room, tags map[string]struct{},
	starLevel int, rng *rand.Rand) []float64 {

	v := models.ZeroVector()

	if room.Price != nil {
		v[SlotPrice] = clamp01(*room.Price / 2000)
	} else {
		v[SlotPrice] = 0.5
	}
	v[SlotStar] = clamp01(float64(starLevel) / 5)

	has := func(tag string) float64 {
		if _, ok := tags[tag]; ok {
			return 1
		}
		return 0
	}

	v[SlotLuxury] = clamp01(0.6*has("豪华") + 0.3*has("套房") + 0.2*has("浴缸") + 0.2*has("海景"))
	v[SlotBusiness] = clamp01(0.7*has("商务") + 0.2*has("wifi") + 0.1*has("标准"))
	v[SlotFamily] = clamp01(0.7*has("亲子") + 0.2*has("游泳池") + 0.1*has("早餐"))

	amenities := 0
	for _, word := range equipmentVocab {
		if _, ok := tags[word]; ok {
			amenities++
		}
	}
	v[SlotAmenity] = clamp01(float64(amenities) / 10)

	// Placeholder for a real geo-scoring signal.
	v[SlotLocation] = 0.5 + rng.Float64()*0.5

	v[SlotRoomSize] = clamp01(0.3 + 0.4*has("套房") + 0.2*has("豪华") + 0.1*has("亲子"))
	v[SlotModernity] = clamp01(0.2 + 0.5*has("电竞") + 0.2*has("wifi") + 0.1*has("健身"))
	v[SlotUniqueness] = clamp01(0.4*has("海景") + 0.4*has("山景") + 0.3*has("电竞") +
		0.3*has(TagCategorySpecial))

	return v
}

// roomRand returns a deterministic source for the room's randomized slots.
func (g *Generator) roomRand(roomID string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(roomID))
	return rand.New(rand.NewSource(g.seed ^ int64(h.Sum64()))) //nolint:gosec // not crypto
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
