// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	if got := theme.ErrorNotice.Render("boom"); !strings.Contains(got, "boom") {
		t.Errorf("ErrorNotice dropped its text: %q", got)
	}
}

func TestTheme_Layout(t *testing.T) {
	theme := NewTheme()

	theme.SetSize(120, 40)
	if theme.Narrow() {
		t.Error("120 columns should not be narrow")
	}
	if got, want := theme.ChatWidth(), 120-ListPaneWidth-1; got != want {
		t.Errorf("ChatWidth() = %d, want %d", got, want)
	}

	theme.SetSize(50, 40)
	if !theme.Narrow() {
		t.Error("50 columns should be narrow")
	}
	if theme.ChatWidth() != 50 {
		t.Errorf("narrow ChatWidth() = %d, want 50", theme.ChatWidth())
	}
}

func TestRenderHelpers(t *testing.T) {
	tests := []struct {
		name   string
		got    string
		symbol string
	}{
		{"success", RenderSuccess("ok"), SymbolSuccess},
		{"error", RenderError("ok"), SymbolError},
		{"warning", RenderWarning("ok"), SymbolWarning},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.got, tt.symbol) || !strings.Contains(tt.got, "ok") {
			t.Errorf("%s: %q missing symbol or text", tt.name, tt.got)
		}
	}
}
