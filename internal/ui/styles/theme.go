// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Minimum widths for the two-pane layout.
const (
	ListPaneWidth  = 32
	MinChatWidth   = 40
	NarrowBreakpoint = ListPaneWidth + MinChatWidth
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// CONVERSATION LIST
	// ==========================================================================

	ListPane       lipgloss.Style
	ListItem       lipgloss.Style
	ListItemActive lipgloss.Style
	ListTitle      lipgloss.Style
	ListPreview    lipgloss.Style
	ListTime       lipgloss.Style

	// ==========================================================================
	// TRANSCRIPT
	// ==========================================================================

	ChatHeader     lipgloss.Style
	ChatPrompt     lipgloss.Style
	UserLabel      lipgloss.Style
	AssistantLabel lipgloss.Style
	ErrorNotice    lipgloss.Style
	Timestamp      lipgloss.Style

	// ==========================================================================
	// COMPOSER AND STATUS
	// ==========================================================================

	Composer       lipgloss.Style
	ComposerPrompt lipgloss.Style
	PromptMode     lipgloss.Style
	Spinner        lipgloss.Style
	StatusBar      lipgloss.Style
	StatusOK       lipgloss.Style
	StatusWarn     lipgloss.Style
	StatusError    lipgloss.Style
	ShortcutKey    lipgloss.Style
	ShortcutDesc   lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
func NewTheme() *Theme {
	colorProfile := termenv.ColorProfile()

	t := &Theme{
		IsDark:       termenv.HasDarkBackground(),
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// Conversation list
	t.ListPane = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay).
		BorderRight(true).
		Width(ListPaneWidth).
		Padding(0, 1)

	t.ListItem = lipgloss.NewStyle().
		PaddingLeft(1).
		MarginBottom(1)

	t.ListItemActive = t.ListItem.
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(Purple).
		Background(SelectionBg).
		PaddingLeft(0)

	t.ListTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(TextPrimary)

	t.ListPreview = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.ListTime = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Transcript
	t.ChatHeader = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(Overlay)

	t.ChatPrompt = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.UserLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cyan)

	t.AssistantLabel = lipgloss.NewStyle().
		Bold(true).
		Foreground(Purple)

	t.ErrorNotice = lipgloss.NewStyle().
		Foreground(Rose).
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Rose).
		PaddingLeft(1)

	t.Timestamp = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Composer and status
	t.Composer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.ComposerPrompt = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.PromptMode = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.Spinner = lipgloss.NewStyle().
		Foreground(Purple)

	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.StatusOK = lipgloss.NewStyle().Foreground(Emerald)
	t.StatusWarn = lipgloss.NewStyle().Foreground(Amber)
	t.StatusError = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Cyan).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)
}

// SetSize records the terminal dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}

// Narrow reports whether the list pane should be hidden.
func (t *Theme) Narrow() bool {
	return t.Width > 0 && t.Width < NarrowBreakpoint
}

// ChatWidth is the width left for the transcript and composer.
func (t *Theme) ChatWidth() int {
	if t.Narrow() {
		return t.Width
	}
	w := t.Width - ListPaneWidth - 1
	if w < MinChatWidth {
		w = MinChatWidth
	}
	return w
}
