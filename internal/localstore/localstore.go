// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package localstore is hueychat's per-user key/value state.
package localstore

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// KEYS
// =============================================================================

// Fixed keys under which client state is persisted.
const (
	KeyConversations = "hueychat_conversations"
	KeyUser          = "hueychat_user"
	KeyToken         = "hueychat_token"
	KeyRemember      = "hueychat_remember"
	KeySelectedModel = "hueychat_selected_model"
)

// Backend kinds accepted by Open.
const (
	KindFile   = "file"
	KindSQLite = "sqlite"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrInvalidKey     = errors.New("invalid key")
	ErrUnknownBackend = errors.New("unknown storage backend")
	ErrClosed         = errors.New("store is closed")
)

// =============================================================================
// BACKEND
// =============================================================================

// Backend is a string-keyed byte store.
//
// Get reports ok=false for an absent key; that is not an error.
// Delete of an absent key succeeds.
type Backend interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// Open returns the backend named by kind rooted at dir.
func Open(kind, dir string) (Backend, error) {
	switch strings.ToLower(kind) {
	case "", KindFile:
		return NewFileBackend(dir)
	case KindSQLite:
		return NewSQLiteBackend(dir)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
}

// validateKey rejects keys that cannot be used as file names.
func validateKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\:`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
