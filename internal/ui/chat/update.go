// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/hueychat/internal/chatlist"
	"github.com/jeranaias/hueychat/internal/dispatch"
)

// Update handles every message delivered to the chat screen.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	// Pipeline surface
	case TranscriptMsg:
		if msg.Message != nil {
			m.transcript = append(m.transcript, msg.Message)
			m.renderTranscript()
		}
		return m, nil

	case BusyMsg:
		m.busy = msg.Busy
		if m.busy {
			m.input.Blur()
			return m, m.spinner.Tick
		}
		return m, nil

	case FocusMsg:
		return m, m.input.Focus()

	case RefreshListMsg:
		m.refreshList()
		return m, nil

	case RefreshAccountMsg:
		return m, m.fetchCredits()

	case NoticeMsg:
		m.notice = &msg
		return m, nil

	case SendDoneMsg:
		return m.handleSendDone(msg.Outcome)

	// Background results
	case CreditsMsg:
		if msg.Err != nil {
			m.log.Debug("credits unavailable", zap.Error(msg.Err))
			return m, nil
		}
		m.credits = msg.Credits.String()
		return m, nil

	case ConfigChangedMsg:
		m.applyConfig(msg)
		return m, nil

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.mode == modePrompt {
		return m.handlePromptKey(msg)
	}

	// Conversation changes wait for the in-flight send to settle.
	if m.busy || m.pipeline.Busy() {
		if key.Matches(msg, m.keys.Send, m.keys.NewChat, m.keys.DeleteChat, m.keys.NextChat, m.keys.PrevChat, m.keys.EditPrompt) {
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Send):
		return m.submit()

	case key.Matches(msg, m.keys.NewChat):
		id := m.app.Store.Create(m.app.Config.Chat.DefaultPrompt)
		m.switchTo(id)
		return m, nil

	case key.Matches(msg, m.keys.DeleteChat):
		m.deleteCurrent()
		return m, nil

	case key.Matches(msg, m.keys.NextChat):
		m.cycle(1)
		return m, nil

	case key.Matches(msg, m.keys.PrevChat):
		m.cycle(-1)
		return m, nil

	case key.Matches(msg, m.keys.EditPrompt):
		m.enterPromptMode()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.leavePromptMode()
		return m, nil

	case key.Matches(msg, m.keys.Send):
		prompt := strings.TrimSpace(m.input.Value())
		id := m.app.Session.ConversationID()
		if m.app.Store.UpdatePrompt(id, prompt) {
			m.prompt = prompt
			m.notice = &NoticeMsg{Level: NoticeInfo, Title: "Prompt saved"}
			m.refreshList()
			m.renderTranscript()
		} else {
			m.notice = &NoticeMsg{Level: NoticeError, Title: "Prompt not saved", Detail: "This chat no longer exists."}
		}
		m.leavePromptMode()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit hands the composer text to the pipeline in a background command.
// The screen goes busy at once so no key can move the session before the
// send starts, and the command works on its own copy of the session.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.notice = nil
	m.busy = true
	m.input.Blur()

	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	p := m.pipeline
	sess := dispatch.NewSession(m.app.Session.ConversationID(), m.app.Session.Model())
	return m, func() tea.Msg {
		return SendDoneMsg{Outcome: p.Send(ctx, sess, text)}
	}
}

func (m *Model) handleSendDone(out dispatch.Outcome) (tea.Model, tea.Cmd) {
	m.busy = false
	// A send can create the conversation it lands in.
	if out.ConversationID != "" && out.ConversationID != m.loadedID {
		m.loadConversation(out.ConversationID)
	}
	switch out.Status {
	case dispatch.Succeeded, dispatch.Failed:
		// The text is in the transcript now; otherwise it stays for a retry.
		m.input.Reset()
	}
	switch {
	case out.Status == dispatch.Failed && errors.Is(out.Err, dispatch.ErrRemote):
		m.notice = &NoticeMsg{Level: NoticeError, Title: "Send failed", Detail: dispatch.TextRetryLater}
	case out.Status == dispatch.Rejected && errors.Is(out.Err, dispatch.ErrBusy):
		m.notice = &NoticeMsg{Level: NoticeWarning, Title: "Still sending", Detail: "Wait for the reply first."}
	}
	m.refreshList()
	return m, m.input.Focus()
}

// =============================================================================
// CONVERSATIONS
// =============================================================================

func (m *Model) refreshList() {
	convs := m.app.Store.ListAll()
	m.rows = chatlist.ProjectWith(convs, m.app.Session.ConversationID(), m.now(), chatlist.Options{
		PreviewMax: m.app.Config.Chat.PreviewMax,
		DateLayout: m.app.Config.Chat.DateLayout,
	})
}

// loadConversation makes id the active conversation and reloads its history.
func (m *Model) loadConversation(id string) {
	conv, ok := m.app.Store.Get(id)
	if !ok {
		m.transcript = nil
		m.prompt = ""
		m.loadedID = ""
		m.renderTranscript()
		return
	}
	m.app.Session.SetConversationID(id)
	m.loadedID = id
	m.transcript = conv.Messages
	m.prompt = conv.SystemPrompt
	m.renderTranscript()
}

func (m *Model) switchTo(id string) {
	if id == "" {
		m.notice = &NoticeMsg{Level: NoticeError, Title: "Cannot create chat"}
		return
	}
	m.loadConversation(id)
	m.refreshList()
}

func (m *Model) deleteCurrent() {
	m.app.Store.Delete(m.app.Session.ConversationID())
	m.switchTo(m.app.Store.EnsureNonEmpty())
}

// cycle moves the selection by step through the list, wrapping around.
func (m *Model) cycle(step int) {
	if len(m.rows) < 2 {
		return
	}
	current := 0
	for i, r := range m.rows {
		if r.Active {
			current = i
			break
		}
	}
	next := (current + step + len(m.rows)) % len(m.rows)
	m.switchTo(m.rows[next].ID)
}

func (m *Model) enterPromptMode() {
	m.mode = modePrompt
	m.input.Reset()
	m.input.SetValue(m.prompt)
	m.input.Placeholder = promptPlaceholder
	m.input.PromptStyle = m.theme.PromptMode
	m.input.CursorEnd()
}

func (m *Model) leavePromptMode() {
	m.mode = modeChat
	m.input.Reset()
	m.input.Placeholder = chatPlaceholder
	m.input.PromptStyle = m.theme.ComposerPrompt
}

// =============================================================================
// BACKGROUND
// =============================================================================

func (m *Model) fetchCredits() tea.Cmd {
	if !m.app.Auth.IsAuthenticated() {
		return nil
	}
	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	client := m.app.API
	return func() tea.Msg {
		c, err := client.Credits(ctx)
		return CreditsMsg{Credits: c, Err: err}
	}
}

func (m *Model) applyConfig(msg ConfigChangedMsg) {
	if msg.Config == nil {
		return
	}
	next := strings.TrimSpace(msg.Config.Chat.SelectedModel)
	if next == "" || next == m.app.Session.Model() {
		return
	}
	m.app.Session.SetModel(next)
	m.notice = &NoticeMsg{Level: NoticeInfo, Title: "Model changed", Detail: next}
	m.log.Info("selected model reloaded", zap.String("model", next))
}

func (m *Model) resize(width, height int) {
	m.theme.SetSize(width, height)
	w := m.theme.ChatWidth()
	m.viewport.Width = w
	m.viewport.Height = max(height-chromeHeight, 3)
	m.input.Width = max(w-4, 10)
	m.help.Width = width
	m.ready = true
	m.renderTranscript()
}
