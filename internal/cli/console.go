// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/hueychat/internal/model"
)

// console is the line-mode surface for the pipeline. The user typed their own
// message, so only assistant messages and notices are printed.
type console struct {
	out      io.Writer
	renderer *glamour.TermRenderer
	quiet    bool
}

// newConsole prints to out; markdown is rendered when pretty is set.
func newConsole(out io.Writer, pretty bool) *console {
	c := &console{out: out}
	if pretty {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(GetTerminalWidth()-2),
		)
		if err == nil {
			c.renderer = r
		}
	}
	return c
}

func (c *console) AppendTranscript(msg *model.Message) {
	if msg.IsUser() {
		return
	}
	if msg.IsError {
		fmt.Fprintln(c.out, ErrorStyle.Render("! ")+msg.Content)
		return
	}
	fmt.Fprintln(c.out, c.render(msg.Content))
}

func (c *console) render(content string) string {
	if c.renderer == nil {
		return content
	}
	out, err := c.renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (c *console) SetBusy(busy bool) {
	if busy && !c.quiet {
		fmt.Fprintln(c.out, DimStyle.Render("..."))
	}
}

func (c *console) FocusComposer() {}

func (c *console) AuthRequired() {
	fmt.Fprintln(c.out, WarningStyle.Render("Please log in first: hueychat login"))
}

func (c *console) SessionExpired() {
	fmt.Fprintln(c.out, WarningStyle.Render("Session expired. Log in again: hueychat login"))
}

func (c *console) Warning(title, detail string) {
	fmt.Fprintln(c.out, WarningStyle.Render(title+": ")+detail)
}

func (c *console) Fatal(title, detail string) {
	fmt.Fprintln(c.out, ErrorStyle.Render(title+": ")+detail)
}
