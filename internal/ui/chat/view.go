// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/hueychat/internal/chatlist"
	"github.com/jeranaias/hueychat/internal/model"
	"github.com/jeranaias/hueychat/internal/ui/styles"
)

// View renders the whole screen.
func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	chat := lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderComposer(),
		m.renderStatus(),
	)
	if m.theme.Narrow() {
		return chat
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, m.renderList(), chat)
}

// =============================================================================
// LIST PANE
// =============================================================================

func (m *Model) renderList() string {
	inner := styles.ListPaneWidth - 4
	var sb strings.Builder
	for _, r := range m.rows {
		sb.WriteString(m.renderRow(r, inner))
		sb.WriteString("\n")
	}
	return m.theme.ListPane.
		Height(max(m.theme.Height-2, 1)).
		Render(strings.TrimRight(sb.String(), "\n"))
}

func (m *Model) renderRow(r chatlist.Row, width int) string {
	title := m.theme.ListTitle.Render(runewidth.Truncate(r.Title, width, "…"))
	preview := m.theme.ListPreview.Render(runewidth.Truncate(r.Preview, width, "…"))
	ts := m.theme.ListTime.Render(r.TimeLabel)

	style := m.theme.ListItem
	if r.Active {
		style = m.theme.ListItemActive
	}
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, preview, ts))
}

// =============================================================================
// TRANSCRIPT
// =============================================================================

func (m *Model) renderHeader() string {
	title := model.DefaultTitle
	for _, r := range m.rows {
		if r.Active {
			title = r.Title
			break
		}
	}
	line := title
	if mdl := m.app.Session.Model(); mdl != "" {
		line += "  " + m.theme.Timestamp.Render("["+mdl+"]")
	}
	header := m.theme.ChatHeader.Width(m.viewport.Width).Render(line)
	if m.prompt == "" {
		return header + "\n" + m.theme.ChatPrompt.Render("no system prompt")
	}
	prompt := runewidth.Truncate(m.prompt, max(m.viewport.Width-10, 10), "…")
	return header + "\n" + m.theme.ChatPrompt.Render("prompt: "+prompt)
}

// renderTranscript rebuilds the viewport content and scrolls to the end.
func (m *Model) renderTranscript() {
	width := max(m.viewport.Width, 20)
	if len(m.transcript) == 0 {
		m.viewport.SetContent(m.theme.ChatPrompt.Render(chatlist.EmptyPreview))
		return
	}

	parts := make([]string, 0, len(m.transcript))
	for _, msg := range m.transcript {
		parts = append(parts, m.renderMessage(msg, width))
	}
	m.viewport.SetContent(strings.Join(parts, "\n\n"))
	m.viewport.GotoBottom()
}

func (m *Model) renderMessage(msg *model.Message, width int) string {
	label := m.theme.AssistantLabel.Render(msg.Role.DisplayName())
	if msg.IsUser() {
		label = m.theme.UserLabel.Render(msg.Role.DisplayName())
	}
	label += " " + m.theme.Timestamp.Render(msg.FormattedTime())

	var body string
	switch {
	case msg.IsError:
		body = m.theme.ErrorNotice.Width(width - 2).Render(msg.Content)
	case msg.IsUser():
		body = lipgloss.NewStyle().Width(width).Render(msg.Content)
	default:
		body = m.markdown(msg.Content, width)
	}
	return label + "\n" + body
}

// markdown renders assistant content, falling back to plain wrapped text.
func (m *Model) markdown(content string, width int) string {
	if m.renderer == nil || m.wrapAt != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.renderer = nil
			return lipgloss.NewStyle().Width(width).Render(content)
		}
		m.renderer, m.wrapAt = r, width
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return lipgloss.NewStyle().Width(width).Render(content)
	}
	return strings.Trim(out, "\n")
}

// =============================================================================
// COMPOSER AND STATUS
// =============================================================================

func (m *Model) renderComposer() string {
	if m.busy {
		return m.theme.Composer.Width(m.viewport.Width).
			Render(m.spinner.View() + " Sending...")
	}
	return m.theme.Composer.Width(m.viewport.Width).Render(m.input.View())
}

func (m *Model) renderStatus() string {
	var left string
	switch {
	case m.showHelp:
		left = m.help.View(m.keys)
	case m.notice != nil:
		left = m.renderNotice(*m.notice)
	default:
		left = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	right := m.accountLine()

	gap := m.viewport.Width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 || m.showHelp {
		return m.theme.StatusBar.Render(left + "\n" + right)
	}
	return m.theme.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}

func (m *Model) renderNotice(n NoticeMsg) string {
	text := n.Title
	if n.Detail != "" {
		text += ": " + n.Detail
	}
	switch n.Level {
	case NoticeError:
		return m.theme.StatusError.Render(styles.SymbolError + " " + text)
	case NoticeWarning:
		return m.theme.StatusWarn.Render(styles.SymbolWarning + " " + text)
	default:
		return m.theme.StatusOK.Render(styles.SymbolSuccess + " " + text)
	}
}

// accountLine shows who is logged in, credits and session expiry.
func (m *Model) accountLine() string {
	u := m.app.Auth.User()
	if !m.app.Auth.IsAuthenticated() || u == nil {
		return m.theme.StatusWarn.Render("not logged in")
	}
	parts := []string{m.theme.StatusOK.Render(styles.SymbolActive + " " + u.Username)}
	if m.credits != "" {
		parts = append(parts, "credits "+m.credits)
	}
	if exp, ok := m.app.Auth.TokenExpiry(); ok {
		parts = append(parts, "until "+exp.Local().Format("01-02 15:04"))
	}
	return strings.Join(parts, " · ")
}
