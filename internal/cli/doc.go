// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package cli implements the hueychat command line with cobra.

# Commands

	hueychat                 full-screen chat (line mode when not a terminal)
	hueychat chat            line-mode chat with history and slash commands
	hueychat send TEXT       send one message and print the reply
	hueychat login|logout|register|whoami
	hueychat models          list models, --select ID to pick one
	hueychat chats list|new|delete|prompt|export
	hueychat config show|path

Every command returns its error to cobra. Execute prints it and maps it to
an exit code with ExitCode.
*/
package cli
