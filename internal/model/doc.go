// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// # Key Types
//
//   - Conversation: id, title, optional system prompt and append-only messages
//   - Message: a user or assistant turn; IsError marks failure notices
//   - ModelInfo: one entry of the server's model catalogue
//   - Role: user or assistant (system exists only in outbound requests)
//
// # Usage
//
//	conv := model.NewConversation(id, "You are a helpful AI assistant.", time.Now())
//	conv.AddMessage(model.NewMessage(model.RoleUser, "hi"), 20)
//	fmt.Println(conv.Title) // "hi"
package model
