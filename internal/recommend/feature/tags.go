// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package feature derives tag sets and fixed-length feature vectors from
// catalog rooms. Generation is total: malformed input degrades to documented
// defaults and never errors.
package feature

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag is the sum of the three tag kinds attached to a room: an explicit
// vocabulary match, a synthetic price level, or a synthetic star level.
// All three normalize to canonical string keys shared by generation,
// indexing, and profile weights.
type Tag struct {
	kind  tagKind
	text  string
	level int
}

type tagKind int

const (
	tagExplicit tagKind = iota
	tagPriceLevel
	tagStarLevel
)

// Explicit returns a vocabulary tag.
func Explicit(text string) Tag {
	return Tag{kind: tagExplicit, text: text}
}

// PriceLevel returns a synthetic price-level tag.
func PriceLevel(level int) Tag {
	return Tag{kind: tagPriceLevel, level: level}
}

// StarLevel returns a synthetic star-level tag.
func StarLevel(level int) Tag {
	return Tag{kind: tagStarLevel, level: level}
}

// Key returns the canonical string key for the tag.
func (t Tag) Key() string {
	switch t.kind {
	case tagPriceLevel:
		return PriceLevelKey(t.level)
	case tagStarLevel:
		return StarLevelKey(t.level)
	default:
		return t.text
	}
}

// PriceLevelKey is the canonical key for a synthetic price-level tag.
func PriceLevelKey(level int) string {
	return "price_level_" + strconv.Itoa(level)
}

// StarLevelKey is the canonical key for a synthetic star-level tag.
func StarLevelKey(level int) string {
	return "star_" + strconv.Itoa(level)
}

// IsStarKey reports whether key is a synthetic star-level tag.
func IsStarKey(key string) bool {
	return strings.HasPrefix(key, "star_")
}

// IsPriceLevelKey reports whether key is a synthetic price-level tag.
func IsPriceLevelKey(key string) bool {
	return strings.HasPrefix(key, "price_level_")
}

// IsCategoryKey reports whether key is one of the synthetic category tags.
func IsCategoryKey(key string) bool {
	return key == TagCategoryPlain || key == TagCategorySpecial
}

// Room-type vocabulary matched against name and description.
var roomTypeVocab = []string{
	"豪华", "标准", "套房", "商务", "亲子", "海景", "山景", "电竞",
}

// Equipment vocabulary matched against name, description, and equipment.
var equipmentVocab = []string{
	"wifi", "早餐", "停车", "健身", "游泳池", "空调", "浴缸",
}

// Synthetic price-band tags.
const (
	TagBandBudget  = "经济型"
	TagBandMid     = "中档"
	TagBandPremium = "高档"
)

// Synthetic category tags.
const (
	TagCategoryPlain   = "普通房间"
	TagCategorySpecial = "特殊房间"
)

func (t Tag) String() string {
	switch t.kind {
	case tagPriceLevel:
		return fmt.Sprintf("price_level(%d)", t.level)
	case tagStarLevel:
		return fmt.Sprintf("star(%d)", t.level)
	default:
		return t.text
	}
}
