// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/jeranaias/hueychat/internal/util"
)

// DefaultTitle is the placeholder title until the first user message arrives.
const DefaultTitle = "New chat"

// =============================================================================
// CONVERSATION TYPE
// =============================================================================

// Conversation holds a complete chat conversation with history and metadata.
type Conversation struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	SystemPrompt string     `json:"prompt"`
	Messages     []*Message `json:"messages"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NewConversation creates an empty conversation with the placeholder title.
func NewConversation(id, systemPrompt string, now time.Time) *Conversation {
	return &Conversation{
		ID:           id,
		Title:        DefaultTitle,
		SystemPrompt: systemPrompt,
		Messages:     make([]*Message, 0),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// AddMessage appends msg and advances UpdatedAt.
//
// The first message, when from the user, names the conversation: its content
// verbatim when it fits in titleMax runes, else the first titleMax runes plus
// "...". Display surfaces fold the title onto one line themselves.
func (c *Conversation) AddMessage(msg *Message, titleMax int) {
	if len(c.Messages) == 0 && msg.Role == RoleUser {
		switch {
		case strings.TrimSpace(msg.Content) == "":
			c.Title = DefaultTitle
		case util.RuneLen(msg.Content) <= titleMax:
			c.Title = msg.Content
		default:
			c.Title = util.TruncateRunes(msg.Content, titleMax)
		}
	}
	c.Messages = append(c.Messages, msg)
	if msg.Timestamp.After(c.UpdatedAt) {
		c.UpdatedAt = msg.Timestamp
	}
}

// LastMessage returns the most recent message, or nil if empty.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// MessageCount returns the number of messages in the conversation.
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// Clone returns a deep copy; callers may mutate it freely.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = make([]*Message, len(c.Messages))
	for i, m := range c.Messages {
		out.Messages[i] = m.Clone()
	}
	return &out
}

// UnmarshalJSON guarantees Messages is non-nil after decoding.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	type alias Conversation
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*c = Conversation(a)
	if c.Messages == nil {
		c.Messages = make([]*Message, 0)
	}
	if c.Title == "" {
		c.Title = DefaultTitle
	}
	return nil
}
