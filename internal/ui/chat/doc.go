// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea chat screen for hueychat.

The screen has three parts: the conversation list on the left, the active
transcript (assistant replies rendered as markdown with glamour, failure
notices in rose) and a single-line composer with a status line below.

Sends run in a tea.Cmd. The dispatch pipeline drives the screen through a
Bridge, which turns its surface and notifier calls into messages delivered
by the running program, so the model is only ever touched by Update.

# Keys

	enter      send (or save the prompt in prompt mode)
	ctrl+n     new chat
	ctrl+d     delete the current chat
	ctrl+p     edit the current chat's system prompt
	tab        next chat (shift+tab: previous)
	pgup/pgdn  scroll the transcript
	ctrl+c     quit

# Usage

	if err := chat.Run(ctx, a); err != nil {
	    return err
	}
*/
package chat
