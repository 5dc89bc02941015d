// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/hueychat/internal/dispatch"
	"github.com/jeranaias/hueychat/internal/model"
)

// Bridge turns pipeline surface and notifier calls into Bubble Tea messages.
// The pipeline runs inside a tea.Cmd goroutine, so every call is delivered
// through the program rather than touching the model directly.
type Bridge struct {
	mu   sync.RWMutex
	send func(tea.Msg)
}

var (
	_ dispatch.Surface  = (*Bridge)(nil)
	_ dispatch.Notifier = (*Bridge)(nil)
)

// Attach sets the delivery function, normally (*tea.Program).Send.
// Messages sent before Attach are dropped.
func (b *Bridge) Attach(send func(tea.Msg)) {
	b.mu.Lock()
	b.send = send
	b.mu.Unlock()
}

func (b *Bridge) emit(msg tea.Msg) {
	b.mu.RLock()
	send := b.send
	b.mu.RUnlock()
	if send != nil {
		send(msg)
	}
}

func (b *Bridge) AppendTranscript(msg *model.Message) { b.emit(TranscriptMsg{Message: msg}) }
func (b *Bridge) SetBusy(busy bool)                  { b.emit(BusyMsg{Busy: busy}) }
func (b *Bridge) FocusComposer()                     { b.emit(FocusMsg{}) }
func (b *Bridge) RefreshList()                       { b.emit(RefreshListMsg{}) }
func (b *Bridge) RefreshAccount()                    { b.emit(RefreshAccountMsg{}) }

func (b *Bridge) AuthRequired() {
	b.emit(NoticeMsg{
		Level:  NoticeWarning,
		Title:  "Login required",
		Detail: "Run `hueychat login` to start chatting.",
	})
}

func (b *Bridge) SessionExpired() {
	b.emit(NoticeMsg{
		Level:  NoticeError,
		Title:  "Session expired",
		Detail: "Run `hueychat login` to sign in again.",
	})
}

func (b *Bridge) Warning(title, detail string) {
	b.emit(NoticeMsg{Level: NoticeWarning, Title: title, Detail: detail})
}

func (b *Bridge) Fatal(title, detail string) {
	b.emit(NoticeMsg{Level: NoticeError, Title: title, Detail: detail})
}
