// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package rank scores recalled candidates by blending vector similarity
// with business rules and produces the final ordered list.
package rank

import (
	"math"
	"sort"

	"github.com/roomradar/roomradar/internal/models"
)

// Blend weights and the score floor below which candidates are dropped.
const (
	similarityWeight = 0.7
	businessWeight   = 0.3
	scoreFloor       = 0.1
)

// starProximityStep is the business-score penalty per star of distance
// from the user's preference.
const starProximityStep = 0.2

// priceContainmentBonus is added when the room's price level falls inside
// the user's preferred range.
const priceContainmentBonus = 0.5

// DefaultReason annotates results produced by the personalized path.
const DefaultReason = "根据您的偏好推荐"

// CosineSimilarity computes cosine similarity over the shared prefix of
// the two vectors. Either norm being zero yields 0.0; the result is
// always a finite number in [-1,1].
func CosineSimilarity(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// BusinessScore rates a room against profile preferences in [0,1]:
// star proximity plus a bonus when the room's price level is inside the
// preferred range.
func BusinessScore(p *models.UserProfile, f *models.RoomFeatures) float64 {
	starDelta := math.Abs(float64(p.StarLevel - f.StarLevel))
	score := math.Max(0, 1-starDelta*starProximityStep)

	if f.PriceLevel >= p.PriceLevelMin && f.PriceLevel <= p.PriceLevelMax {
		score += priceContainmentBonus
	}

	if score > 1 {
		return 1
	}
	return score
}

// Score blends similarity and business score for one candidate.
func Score(p *models.UserProfile, f *models.RoomFeatures) (blended, similarity float64) {
	similarity = CosineSimilarity(p.Vector, f.Vector)
	blended = similarityWeight*similarity + businessWeight*BusinessScore(p, f)
	return blended, similarity
}

// Rank scores every candidate, drops scores at or below the floor, orders
// by score descending with room id ascending as the tie-break, and
// truncates to limit. Candidates with nil features are skipped.
func Rank(p *models.UserProfile, candidates []*models.RoomFeatures, limit int) []models.RecommendationResult {
	results := make([]models.RecommendationResult, 0, len(candidates))

	for _, f := range candidates {
		if f == nil {
			continue
		}
		blended, similarity := Score(p, f)
		if blended <= scoreFloor {
			continue
		}
		results = append(results, models.RecommendationResult{
			RoomID:     f.RoomID,
			Score:      blended,
			Similarity: similarity,
			Reason:     DefaultReason,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].RoomID < results[j].RoomID
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results
}
