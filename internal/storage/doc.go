// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for hueychat.
//
// ConversationStore is the only owner of conversation and message data. The
// whole id -> conversation map is kept as one JSON document under the
// localstore key "hueychat_conversations" and rewritten on every mutation.
//
// # Key Types
//
//   - ConversationStore: Create, Get, ListAll, Append, UpdatePrompt, Delete
//   - Options: default prompt, title bound, logger, clock
//   - ConversationError: typed error for missing conversations
//
// # Usage
//
//	store, err := storage.NewConversationStore(backend, storage.Options{
//	    DefaultPrompt: cfg.Chat.DefaultPrompt,
//	    TitleMax:      cfg.Chat.TitleMax,
//	    Logger:        logger,
//	})
//	id := store.Create("Answer in French.")
//	store.Append(id, model.RoleUser, "hi")
//
// Lookups on unknown ids are not errors: Get reports false, Append returns
// nil and UpdatePrompt and Delete return false.
package storage
