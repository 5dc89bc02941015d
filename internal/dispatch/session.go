// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package dispatch

import "sync"

// Session is the UI controller's current conversation and model selection.
// The pipeline reads it and, when it has to create a conversation, updates
// the conversation id.
type Session struct {
	mu             sync.RWMutex
	conversationID string
	model          string
}

// NewSession creates a session pointing at conversationID.
func NewSession(conversationID, model string) *Session {
	return &Session{conversationID: conversationID, model: model}
}

// ConversationID returns the active conversation ("" when none).
func (s *Session) ConversationID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversationID
}

// SetConversationID switches the active conversation.
func (s *Session) SetConversationID(id string) {
	s.mu.Lock()
	s.conversationID = id
	s.mu.Unlock()
}

// Model returns the selected model id ("" for the server default).
func (s *Session) Model() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// SetModel selects a model.
func (s *Session) SetModel(model string) {
	s.mu.Lock()
	s.model = model
	s.mu.Unlock()
}
