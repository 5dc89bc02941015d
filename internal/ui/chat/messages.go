// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/hueychat/internal/api"
	"github.com/jeranaias/hueychat/internal/config"
	"github.com/jeranaias/hueychat/internal/dispatch"
	"github.com/jeranaias/hueychat/internal/model"
)

// =============================================================================
// PIPELINE MESSAGES
// =============================================================================

// TranscriptMsg carries a message the pipeline stored and wants shown.
type TranscriptMsg struct {
	Message *model.Message
}

// BusyMsg toggles the sending indicator.
type BusyMsg struct {
	Busy bool
}

// FocusMsg returns focus to the composer.
type FocusMsg struct{}

// RefreshListMsg asks for the conversation list to be re-projected.
type RefreshListMsg struct{}

// RefreshAccountMsg asks for the credit indicator to be re-read.
type RefreshAccountMsg struct{}

// SendDoneMsg reports the outcome of a send started from the composer.
type SendDoneMsg struct {
	Outcome dispatch.Outcome
}

// =============================================================================
// NOTICES
// =============================================================================

// NoticeLevel orders status line notices.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeWarning
	NoticeError
)

// NoticeMsg shows a notice in the status line.
type NoticeMsg struct {
	Level  NoticeLevel
	Title  string
	Detail string
}

// =============================================================================
// BACKGROUND RESULTS
// =============================================================================

// CreditsMsg delivers the account credit indicator.
type CreditsMsg struct {
	Credits api.Credits
	Err     error
}

// ConfigChangedMsg delivers a reloaded configuration file.
type ConfigChangedMsg struct {
	Config *config.Config
}
