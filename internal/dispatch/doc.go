// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package dispatch runs a user message through the send pipeline.
//
// A send moves Idle -> Validating -> AwaitingChat -> Sending -> Succeeded or
// Failed -> Idle. The user's message is stored and shown before the remote
// call returns. A failed call never removes it; an assistant message marked
// IsError is stored in place of the reply. Only one send runs at a time.
//
// # Key Types
//
//   - Pipeline: Send(ctx, session, text) Outcome
//   - Session: the active conversation id and selected model
//   - Store, Identity, Remote, Surface, Notifier: injected collaborators
//
// # Usage
//
//	p := dispatch.New(store, provider, client, view, view, dispatch.Options{
//	    Timeout:       cfg.Timeout(),
//	    DefaultPrompt: cfg.Chat.DefaultPrompt,
//	    RefreshList:   view.RefreshList,
//	})
//	out := p.Send(ctx, sess, "hi")
//	if errors.Is(out.Err, dispatch.ErrSessionExpired) {
//	    // prompt for login
//	}
package dispatch
