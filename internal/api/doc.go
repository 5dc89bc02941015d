// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides typed calls to the hueychat chat API.
//
// # Key Types
//
//   - Client: Send, Models, Credits over an auth.Provider
//   - SendRequest: {message:{content}, context:{customPrompt?}, model?}
//   - Credits: balance indicator (-1 means unlimited)
//
// # Usage
//
//	client := api.NewClient(provider, logger)
//	req := api.BuildSendRequest("hi", conv.SystemPrompt, selectedModel)
//	reply, err := client.Send(ctx, provider.Token(), req)
package api
