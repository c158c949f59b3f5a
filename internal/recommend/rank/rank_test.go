// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package rank

import (
	"math"
	"testing"

	"github.com/roomradar/roomradar/internal/models"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 0, 1}, []float64{1, 0, 1}, 1.0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0.0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1.0},
		{"zero left norm", []float64{0, 0, 0}, []float64{1, 1, 1}, 0.0},
		{"zero right norm", []float64{1, 1}, []float64{0, 0}, 0.0},
		{"both empty", nil, nil, 0.0},
		{"shared prefix only", []float64{1, 0, 0.5}, []float64{1, 0}, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Errorf("CosineSimilarity() = %v, not finite", got)
			}
		})
	}
}

func TestBusinessScore(t *testing.T) {
	profile := models.DefaultProfile(1) // star 3, range [2,4]

	tests := []struct {
		name     string
		features *models.RoomFeatures
		want     float64
	}{
		{"exact star in range", &models.RoomFeatures{StarLevel: 3, PriceLevel: 3}, 1.0},
		{"exact star out of range", &models.RoomFeatures{StarLevel: 3, PriceLevel: 5}, 1.0 - 0.0},
		{"two stars off in range", &models.RoomFeatures{StarLevel: 5, PriceLevel: 2}, 0.6 + 0.5},
		{"two stars off out of range", &models.RoomFeatures{StarLevel: 1, PriceLevel: 1}, 0.6},
		{"five stars off", &models.RoomFeatures{StarLevel: 5, PriceLevel: 5}, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BusinessScore(profile, tt.features)
			want := tt.want
			if want > 1 {
				want = 1
			}
			if math.Abs(got-want) > 1e-9 {
				t.Errorf("BusinessScore() = %v, want %v", got, want)
			}
		})
	}
}

func TestBusinessScoreCappedAtOne(t *testing.T) {
	profile := models.DefaultProfile(1)
	f := &models.RoomFeatures{StarLevel: 3, PriceLevel: 3}

	if got := BusinessScore(profile, f); got != 1.0 {
		t.Errorf("BusinessScore() = %v, want capped 1.0", got)
	}
}

func TestRankOrderingAndFloor(t *testing.T) {
	profile := models.DefaultProfile(1)
	profile.Vector = []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}

	candidates := []*models.RoomFeatures{
		{RoomID: "r-strong", StarLevel: 3, PriceLevel: 3,
			Vector: []float64{1, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		{RoomID: "r-weak", StarLevel: 1, PriceLevel: 5, // star delta 2, out of range
			Vector: []float64{0, 0, 0, 0, 0, 0, 0, 0, 0, 0}},
		nil,
	}

	got := Rank(profile, candidates, 10)
	if len(got) != 2 {
		t.Fatalf("Rank() len = %d, want 2", len(got))
	}
	if got[0].RoomID != "r-strong" {
		t.Errorf("Rank()[0] = %s, want r-strong", got[0].RoomID)
	}
	// 0.7*1.0 + 0.3*1.0 = 1.0
	if math.Abs(got[0].Score-1.0) > 1e-9 {
		t.Errorf("top score = %v, want 1.0", got[0].Score)
	}
	if got[0].Similarity != 1.0 {
		t.Errorf("top similarity = %v, want 1.0", got[0].Similarity)
	}
	// r-weak: 0.7*0 + 0.3*0.6 = 0.18 > floor, included.
	if math.Abs(got[1].Score-0.18) > 1e-9 {
		t.Errorf("weak score = %v, want 0.18", got[1].Score)
	}
}

func TestRankDropsScoresBelowFloor(t *testing.T) {
	profile := models.DefaultProfile(1)
	// Star delta 2 and price out of range: business 0.6*0.3 = 0.18.
	// Star delta 5 is impossible; use delta 4 out of range: 0.2*0.3 = 0.06.
	candidates := []*models.RoomFeatures{
		{RoomID: "r-in", StarLevel: 1, PriceLevel: 5, Vector: models.ZeroVector()},
	}
	profile.StarLevel = 5 // delta 4 -> business 0.2, blended 0.06 <= 0.1

	got := Rank(profile, candidates, 10)
	if len(got) != 0 {
		t.Errorf("Rank() = %v, want empty below floor", got)
	}
}

func TestRankTieBreakByRoomID(t *testing.T) {
	profile := models.DefaultProfile(1)

	// Identical features, different ids: equal scores.
	mk := func(id string) *models.RoomFeatures {
		return &models.RoomFeatures{RoomID: id, StarLevel: 3, PriceLevel: 3,
			Vector: models.ZeroVector()}
	}
	got := Rank(profile, []*models.RoomFeatures{mk("r-b"), mk("r-a"), mk("r-c")}, 10)

	if len(got) != 3 {
		t.Fatalf("Rank() len = %d, want 3", len(got))
	}
	for i, want := range []string{"r-a", "r-b", "r-c"} {
		if got[i].RoomID != want {
			t.Errorf("Rank()[%d] = %s, want %s", i, got[i].RoomID, want)
		}
	}
}

func TestRankTruncatesToLimit(t *testing.T) {
	profile := models.DefaultProfile(1)
	var candidates []*models.RoomFeatures
	for _, id := range []string{"r-1", "r-2", "r-3", "r-4", "r-5"} {
		candidates = append(candidates, &models.RoomFeatures{
			RoomID: id, StarLevel: 3, PriceLevel: 3, Vector: models.ZeroVector()})
	}

	got := Rank(profile, candidates, 2)
	if len(got) != 2 {
		t.Errorf("Rank() len = %d, want 2", len(got))
	}
}

func TestEndToEndPriceContainment(t *testing.T) {
	// Room with tags 豪华/wifi at price level 4; user prefers 豪华 and
	// range [3,5]. Even with zero similarity the business score must be
	// at least 0.5 from price containment.
	profile := models.DefaultProfile(7)
	profile.TagWeights["豪华"] = 0.6
	profile.PriceLevelMin = 3
	profile.PriceLevelMax = 5
	profile.Vector = models.ZeroVector()

	room := &models.RoomFeatures{
		RoomID:     "r-42",
		Tags:       []string{"豪华", "wifi", "price_level_4"},
		PriceLevel: 4,
		StarLevel:  3,
		Vector:     models.ZeroVector(),
	}

	if biz := BusinessScore(profile, room); biz < 0.5 {
		t.Errorf("BusinessScore() = %v, want >= 0.5", biz)
	}

	got := Rank(profile, []*models.RoomFeatures{room}, 10)
	if len(got) != 1 || got[0].RoomID != "r-42" {
		t.Fatalf("Rank() = %v, want r-42 included", got)
	}
}
