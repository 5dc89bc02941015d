// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the hueychat TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. NewTheme probes the terminal with termenv.

# Color System

  - Purple: assistant messages and the active conversation
  - Cyan: user messages and key hints
  - Emerald: success and the logged-in indicator
  - Amber: warnings and prompt-edit mode
  - Rose: failure notices in the transcript

# Usage

	theme := styles.NewTheme()
	theme.SetSize(msg.Width, msg.Height)
	fmt.Println(theme.ErrorNotice.Render(text))
	fmt.Println(styles.RenderSuccess("Logged in"))
*/
package styles
