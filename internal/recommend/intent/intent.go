// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

// Package intent parses free-text search keywords into structured search
// intent. Parsing is pure and total: any input yields a valid Intent.
package intent

import (
	"strings"
	"unicode"
)

// facilityVocab is the fixed, ordered facility vocabulary. View words
// such as 海景 are room tags handled by index recall, not facilities.
var facilityVocab = []string{"wifi", "早餐", "健身", "游泳", "停车", "空调"}

// roomTypeVocab is the fixed, ordered room-type vocabulary. The first
// match wins.
var roomTypeVocab = []string{"标准", "豪华", "套房", "单人", "双人", "亲子", "商务", "电竞"}

// Intent is the structured form of a search keyword.
type Intent struct {
	// PriceHint is the first integer substring of the keyword, 0 when absent.
	PriceHint int `json:"price_hint"`

	// RoomType is the first room-type vocabulary match, empty when absent.
	RoomType string `json:"room_type"`

	// Facilities holds every facility vocabulary match, in vocabulary order.
	Facilities []string `json:"facilities"`
}

// Empty reports whether nothing was extracted from the query.
func (i Intent) Empty() bool {
	return i.PriceHint == 0 && i.RoomType == "" && len(i.Facilities) == 0
}

// Parse extracts the intent from a raw keyword.
func Parse(keyword string) Intent {
	lower := strings.ToLower(keyword)

	var it Intent
	it.PriceHint = firstInteger(keyword)

	for _, word := range roomTypeVocab {
		if strings.Contains(lower, strings.ToLower(word)) {
			it.RoomType = word
			break
		}
	}

	for _, word := range facilityVocab {
		if strings.Contains(lower, strings.ToLower(word)) {
			it.Facilities = append(it.Facilities, word)
		}
	}

	return it
}

// firstInteger returns the first maximal digit run as an integer, 0 when
// the keyword holds no digits. Oversized runs saturate instead of
// overflowing.
func firstInteger(s string) int {
	n := 0
	inRun := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			inRun = true
			if n > (1<<31-1)/10 {
				return 1<<31 - 1
			}
			n = n*10 + int(r-'0')
			continue
		}
		if inRun {
			break
		}
	}
	return n
}
