// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for hueychat.
package storage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/hueychat/internal/export"
	"github.com/jeranaias/hueychat/internal/localstore"
	"github.com/jeranaias/hueychat/internal/logging"
	"github.com/jeranaias/hueychat/internal/model"
)

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// Options configures a ConversationStore.
type Options struct {
	// DefaultPrompt seeds conversations the store creates on its own.
	DefaultPrompt string

	// TitleMax bounds titles derived from the first user message (runes).
	TitleMax int

	Logger *zap.Logger

	// Now is the clock; tests replace it.
	Now func() time.Time
}

// ConversationStore keeps every conversation in memory and writes the whole
// map through to the backend on each mutation.
type ConversationStore struct {
	mu      sync.Mutex
	backend localstore.Backend
	convs   map[string]*model.Conversation
	opts    Options
	log     *zap.Logger

	// recovered names the key holding a corrupt document set aside at load.
	recovered string
}

// NewConversationStore loads the persisted map from backend.
//
// A corrupt document is copied to a "<key>.corrupt-<unixms>" key and the
// store starts empty; if the copy cannot be written the load fails so the
// original bytes are never overwritten. A backend read failure is returned.
func NewConversationStore(backend localstore.Backend, opts Options) (*ConversationStore, error) {
	if opts.TitleMax <= 0 {
		opts.TitleMax = 20
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	s := &ConversationStore{
		backend: backend,
		convs:   make(map[string]*model.Conversation),
		opts:    opts,
		log:     logging.OrNop(opts.Logger).Named("storage"),
	}

	raw, ok, err := backend.Get(localstore.KeyConversations)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversations: %w", err)
	}
	if ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &s.convs); err != nil {
			key := CorruptKey(opts.Now())
			if setErr := backend.Set(key, raw); setErr != nil {
				return nil, fmt.Errorf("stored conversations are corrupt and could not be set aside: %w", setErr)
			}
			s.log.Warn("stored conversations are corrupt, starting empty",
				zap.String("saved_as", key), zap.Error(err))
			s.convs = make(map[string]*model.Conversation)
			s.recovered = key
		}
	}
	for id, c := range s.convs {
		if c == nil {
			delete(s.convs, id)
			continue
		}
		if c.ID == "" {
			c.ID = id
		}
	}
	s.log.Debug("conversations loaded", zap.Int("count", len(s.convs)))
	return s, nil
}

// CorruptKey is the key a corrupt conversations document is copied to.
func CorruptKey(at time.Time) string {
	return localstore.KeyConversations + ".corrupt-" + strconv.FormatInt(at.UnixMilli(), 10)
}

// Recovered returns the key of a corrupt document set aside at load, if any.
func (s *ConversationStore) Recovered() (string, bool) {
	return s.recovered, s.recovered != ""
}

// =============================================================================
// CREATE / READ
// =============================================================================

// Create adds an empty conversation and returns its id.
func (s *ConversationStore) Create(initialPrompt string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(initialPrompt)
}

func (s *ConversationStore) createLocked(prompt string) string {
	now := s.opts.Now()
	id := s.nextIDLocked(now)
	s.convs[id] = model.NewConversation(id, prompt, now)
	s.persistLocked("create")
	return id
}

// nextIDLocked returns the creation time in Unix milliseconds, moved forward
// past any id already in use.
func (s *ConversationStore) nextIDLocked(now time.Time) string {
	ms := now.UnixMilli()
	for {
		id := strconv.FormatInt(ms, 10)
		if _, taken := s.convs[id]; !taken {
			return id
		}
		ms++
	}
}

// Get returns a deep copy of the conversation.
func (s *ConversationStore) Get(id string) (*model.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

// Exists reports whether id names a conversation.
func (s *ConversationStore) Exists(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.convs[id]
	return ok
}

// Len returns the number of conversations.
func (s *ConversationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.convs)
}

// ListAll returns copies of every conversation, most recently updated first.
// Exact UpdatedAt ties come out in map order.
func (s *ConversationStore) ListAll() []*model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

func (s *ConversationStore) listLocked() []*model.Conversation {
	out := make([]*model.Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		out = append(out, c.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// EnsureNonEmpty returns the most recent conversation id, creating one with
// the default prompt when the store is empty.
func (s *ConversationStore) EnsureNonEmpty() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.convs) == 0 {
		return s.createLocked(s.opts.DefaultPrompt)
	}
	return s.listLocked()[0].ID
}

// =============================================================================
// MUTATIONS
// =============================================================================

// Append adds a message to conversation id and returns a copy of it.
// It returns nil, leaving the store untouched, when id is unknown.
func (s *ConversationStore) Append(id string, role model.Role, content string) *model.Message {
	msg := model.NewMessage(role, content)
	return s.appendMessage(id, msg)
}

// AppendError records a failure notice as an assistant message.
func (s *ConversationStore) AppendError(id, content string) *model.Message {
	return s.appendMessage(id, model.NewErrorMessage(content))
}

func (s *ConversationStore) appendMessage(id string, msg *model.Message) *model.Message {
	if !msg.Role.Valid() {
		s.log.Warn("refusing to store message with invalid role", zap.String("role", msg.Role.String()))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[id]
	if !ok {
		return nil
	}
	msg.Timestamp = s.opts.Now()
	c.AddMessage(msg, s.opts.TitleMax)
	c.UpdatedAt = msg.Timestamp
	s.persistLocked("append")
	return msg.Clone()
}

// UpdatePrompt replaces the system prompt and reports whether id existed.
func (s *ConversationStore) UpdatePrompt(id, prompt string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.convs[id]
	if !ok {
		return false
	}
	c.SystemPrompt = prompt
	c.UpdatedAt = s.opts.Now()
	s.persistLocked("update_prompt")
	return true
}

// Delete removes a conversation and its messages and reports whether it
// existed. Removing the last conversation creates a fresh default one.
func (s *ConversationStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.convs[id]; !ok {
		return false
	}
	delete(s.convs, id)
	if len(s.convs) == 0 {
		// createLocked persists both changes.
		s.createLocked(s.opts.DefaultPrompt)
		return true
	}
	s.persistLocked("delete")
	return true
}

// =============================================================================
// SEARCH / EXPORT
// =============================================================================

// Search returns conversations whose title or any message contains query
// (case-insensitive), most recent first. An empty query returns everything.
func (s *ConversationStore) Search(query string) []*model.Conversation {
	all := s.ListAll()
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return all
	}

	var results []*model.Conversation
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Title), query) {
			results = append(results, c)
			continue
		}
		for _, msg := range c.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, c)
				break
			}
		}
	}
	return results
}

// Export renders one conversation with e.
func (s *ConversationStore) Export(id string, e export.Exporter) ([]byte, error) {
	c, ok := s.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	return e.Export(c)
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// persistLocked writes the full map through to the backend. Failures are
// logged; the in-memory state stays authoritative.
func (s *ConversationStore) persistLocked(op string) {
	data, err := json.Marshal(s.convs)
	if err != nil {
		s.log.Error("failed to encode conversations", zap.String("op", op), zap.Error(err))
		return
	}
	if err := s.backend.Set(localstore.KeyConversations, data); err != nil {
		s.log.Error("failed to persist conversations", zap.String("op", op), zap.Error(err))
		return
	}
	s.log.Debug("conversations persisted", zap.String("op", op), zap.Int("count", len(s.convs)))
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
