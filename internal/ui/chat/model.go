// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/jeranaias/hueychat/internal/app"
	"github.com/jeranaias/hueychat/internal/chatlist"
	"github.com/jeranaias/hueychat/internal/config"
	"github.com/jeranaias/hueychat/internal/dispatch"
	"github.com/jeranaias/hueychat/internal/model"
	"github.com/jeranaias/hueychat/internal/ui/styles"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	composerCharLimit = 4000
	chatPlaceholder   = "Type a message... (Enter to send)"
	promptPlaceholder = "System prompt for this chat (empty for none, Esc to cancel)"

	// rows taken by header, composer and status line
	chromeHeight = 6
)

// inputMode selects what the composer edits.
type inputMode int

const (
	modeChat inputMode = iota
	modePrompt
)

// =============================================================================
// MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen: a conversation list,
// the active transcript and a composer.
type Model struct {
	app      *app.App
	pipeline *dispatch.Pipeline
	bridge   *Bridge
	log      *zap.Logger
	ctx      context.Context

	theme    *styles.Theme
	keys     KeyMap
	help     help.Model
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	wrapAt   int

	rows       []chatlist.Row
	loadedID   string
	transcript []*model.Message
	prompt     string

	mode     inputMode
	busy     bool
	showHelp bool
	notice   *NoticeMsg
	credits  string
	ready    bool

	now func() time.Time
}

// New creates the chat model over a, with its own pipeline.
func New(ctx context.Context, a *app.App) *Model {
	theme := styles.NewTheme()

	ti := textinput.New()
	ti.Placeholder = chatPlaceholder
	ti.Prompt = "> "
	ti.PromptStyle = theme.ComposerPrompt
	ti.CharLimit = composerCharLimit
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = theme.Spinner

	m := &Model{
		app:      a,
		bridge:   &Bridge{},
		log:      a.Logger.Named("tui"),
		ctx:      ctx,
		theme:    theme,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		input:    ti,
		viewport: viewport.New(60, 20),
		spinner:  sp,
		now:      time.Now,
	}
	m.pipeline = a.NewPipeline(app.Hooks{
		Surface:        m.bridge,
		Notifier:       m.bridge,
		RefreshList:    m.bridge.RefreshList,
		RefreshAccount: m.bridge.RefreshAccount,
	})
	if key, ok := a.Store.Recovered(); ok {
		m.notice = &NoticeMsg{
			Level:  NoticeWarning,
			Title:  "Chat history could not be read",
			Detail: "The old data was saved under " + key + ".",
		}
	}
	m.refreshList()
	m.loadConversation(a.Session.ConversationID())
	return m
}

// Bridge returns the pipeline's delivery bridge, for attaching a program.
func (m *Model) Bridge() *Bridge {
	return m.bridge
}

// Init starts the cursor blink and the first credit lookup.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetchCredits())
}

// =============================================================================
// RUN
// =============================================================================

// Run starts the TUI and blocks until the user quits. The config file is
// watched while it runs so a new selected model takes effect immediately.
func Run(ctx context.Context, a *app.App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(ctx, a)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.Bridge().Attach(p.Send)

	if a.ConfigPath != "" {
		go func() {
			err := config.Watch(ctx, a.ConfigPath,
				func(cfg *config.Config) { p.Send(ConfigChangedMsg{Config: cfg}) },
				func(err error) { a.Logger.Warn("config reload failed", zap.Error(err)) },
			)
			if err != nil {
				a.Logger.Debug("config watch not started", zap.Error(err))
			}
		}()
	}

	_, err := p.Run()
	return err
}
