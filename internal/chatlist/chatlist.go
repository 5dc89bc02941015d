// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chatlist projects conversations into list rows for display.
package chatlist

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/hueychat/internal/model"
	"github.com/jeranaias/hueychat/internal/util"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultPreviewMax = 25
	DefaultDateLayout = "2006-01-02"

	EmptyPreview = "Start a new conversation"
	UserPrefix   = "You: "
	JustNow      = "just now"
)

// Row is one projected list entry.
type Row struct {
	ID        string
	Title     string
	Preview   string
	TimeLabel string
	Active    bool
}

// Options tunes the projection.
type Options struct {
	PreviewMax int
	DateLayout string
}

// Project maps conversations (already ordered by the store) to rows.
func Project(convs []*model.Conversation, activeID string, now time.Time) []Row {
	return ProjectWith(convs, activeID, now, Options{})
}

// ProjectWith is Project with explicit bounds and date layout.
func ProjectWith(convs []*model.Conversation, activeID string, now time.Time, opts Options) []Row {
	if opts.PreviewMax <= 0 {
		opts.PreviewMax = DefaultPreviewMax
	}
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}

	rows := make([]Row, 0, len(convs))
	for _, c := range convs {
		row := Row{
			ID:        c.ID,
			Title:     util.SingleLine(c.Title),
			Preview:   EmptyPreview,
			TimeLabel: JustNow,
			Active:    c.ID == activeID,
		}
		if last := c.LastMessage(); last != nil {
			row.Preview = Preview(last, opts.PreviewMax)
			row.TimeLabel = TimeLabel(last.Timestamp, now, opts.DateLayout)
		}
		rows = append(rows, row)
	}
	return rows
}

// Preview shortens a message for the list, prefixing the user's own lines.
func Preview(msg *model.Message, max int) string {
	text := util.TruncateRunes(util.SingleLine(msg.Content), max)
	if msg.Role == model.RoleUser {
		return UserPrefix + text
	}
	return text
}

// TimeLabel renders a relative age: just now, N minutes ago, N hours ago,
// then the date in layout.
func TimeLabel(ts, now time.Time, layout string) string {
	diff := now.Sub(ts)
	mins := int(diff / time.Minute)
	hours := int(diff / time.Hour)

	switch {
	case mins < 1:
		return JustNow
	case mins < 60:
		return plural(mins, "minute") + " ago"
	case hours < 24:
		return plural(hours, "hour") + " ago"
	default:
		return ts.Local().Format(layout)
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// =============================================================================
// TABLE FORMAT
// =============================================================================

// Format renders rows as a fixed-width table, width columns wide. The active
// row is marked with "*". Wide (CJK) characters count double.
func Format(rows []Row, width int) string {
	if len(rows) == 0 {
		return "No conversations.\n"
	}
	if width < 40 {
		width = 40
	}

	const (
		idxW  = 4
		timeW = 14
	)
	titleW := (width - idxW - timeW - 4) / 2
	previewW := width - idxW - timeW - titleW - 4

	var sb strings.Builder
	for i, r := range rows {
		marker := " "
		if r.Active {
			marker = "*"
		}
		idx := runewidth.FillRight(fmt.Sprintf("%s%d", marker, i+1), idxW)
		title := runewidth.FillRight(runewidth.Truncate(r.Title, titleW, "…"), titleW)
		preview := runewidth.FillRight(runewidth.Truncate(r.Preview, previewW, "…"), previewW)
		label := runewidth.Truncate(r.TimeLabel, timeW, "…")
		sb.WriteString(idx + " " + title + " " + preview + " " + label)
		sb.WriteString("\n")
	}
	return sb.String()
}
