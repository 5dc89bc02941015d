// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/hueychat/internal/model"
)

func sampleConversation() *model.Conversation {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	conv := model.NewConversation("1740830400000", "be <brief>", created)
	conv.AddMessage(model.NewMessage(model.RoleUser, "What is 2 < 3?"), 20)
	conv.AddMessage(model.NewMessage(model.RoleAssistant, "Yes.\n\nIt is."), 20)
	conv.AddMessage(model.NewErrorMessage("request failed"), 20)
	return conv
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		name string
		ext  string
	}{
		{"md", ".md"},
		{"Markdown", ".md"},
		{"json", ".json"},
		{" HTML ", ".html"},
		{"htm", ".html"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ForFormat(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.ext, e.FileExtension())
		})
	}

	_, err := ForFormat("pdf")
	assert.Error(t, err)
}

func TestExporters_NilConversation(t *testing.T) {
	for _, e := range []Exporter{MarkdownExporter{}, JSONExporter{}, HTMLExporter{}} {
		_, err := e.Export(nil)
		assert.ErrorIs(t, err, ErrNilConversation, e.MimeType())
	}
}

func TestMarkdown(t *testing.T) {
	md := Markdown(sampleConversation())
	for _, want := range []string{
		"# What is 2 < 3?",
		"> be <brief>",
		"**You**",
		"**Assistant** _(error)_",
		"request failed",
	} {
		assert.Contains(t, md, want)
	}
}

func TestJSONExporter(t *testing.T) {
	data, err := JSONExporter{}.Export(sampleConversation())
	require.NoError(t, err)

	var back model.Conversation
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "1740830400000", back.ID)
	assert.Len(t, back.Messages, 3)
	assert.True(t, back.Messages[2].IsError)
}

func TestHTMLExporter_EscapesContent(t *testing.T) {
	data, err := HTMLExporter{}.Export(sampleConversation())
	require.NoError(t, err)
	page := string(data)

	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	assert.Contains(t, page, "What is 2 &lt; 3?")
	assert.NotContains(t, page, "be <brief>")
	assert.Contains(t, page, `class="message assistant error"`)
	assert.Contains(t, page, "<p>Yes.</p>\n<p>It is.</p>")
}

func TestFilename(t *testing.T) {
	conv := sampleConversation()
	assert.Equal(t, "What_is_2_-_3-_2025-03-01.json", Filename(conv, JSONExporter{}))

	conv.Title = "   "
	assert.Equal(t, "conversation_2025-03-01.md", Filename(conv, MarkdownExporter{}))
}

func TestSanitizeFilename_Truncates(t *testing.T) {
	got := sanitizeFilename(strings.Repeat("é", 80))
	assert.Equal(t, 50, len([]rune(got)))
}
