// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"sort"
	"strings"
	"unicode"
)

// =============================================================================
// FUZZY MATCHING
// =============================================================================

// fuzzyScore reports whether every rune of query appears in target in order,
// case-insensitively, and scores the match. Consecutive runes, word starts
// and a match at position zero score higher; longer targets score lower.
func fuzzyScore(query, target string) (int, bool) {
	q := []rune(strings.ToLower(query))
	t := []rune(strings.ToLower(target))
	if len(q) == 0 {
		return 0, true
	}
	if len(q) > len(t) {
		return 0, false
	}

	score, qi, last := 0, 0, -1
	for ti := 0; ti < len(t) && qi < len(q); ti++ {
		if t[ti] != q[qi] {
			continue
		}
		s := 1
		if last == ti-1 {
			s += 5
		}
		if ti == 0 {
			s += 10
		}
		if wordStart(t, ti) {
			s += 7
		}
		score += s
		last = ti
		qi++
	}
	if qi != len(q) {
		return 0, false
	}
	return score - len(t)/4, true
}

func wordStart(runes []rune, pos int) bool {
	if pos == 0 {
		return true
	}
	prev := runes[pos-1]
	return prev == ' ' || prev == '/' || prev == '-' || prev == '_' || prev == '.' ||
		(unicode.IsDigit(runes[pos]) && !unicode.IsDigit(prev))
}

// MatchModels returns the models whose id or name fuzzy-matches query, best
// first. Ties keep catalogue order.
func MatchModels(models []ModelInfo, query string) []ModelInfo {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	type scored struct {
		m     ModelInfo
		score int
	}
	var hits []scored
	for _, m := range models {
		best, ok := fuzzyScore(query, m.ID)
		if s, nameOK := fuzzyScore(query, m.Name); nameOK && m.Name != "" && (!ok || s > best) {
			best, ok = s, true
		}
		if ok {
			hits = append(hits, scored{m, best})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]ModelInfo, len(hits))
	for i, h := range hits {
		out[i] = h.m
	}
	return out
}
