// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/hueychat/internal/app"
	"github.com/jeranaias/hueychat/internal/chatlist"
	"github.com/jeranaias/hueychat/internal/config"
	"github.com/jeranaias/hueychat/internal/dispatch"
	"github.com/jeranaias/hueychat/internal/export"
	"github.com/jeranaias/hueychat/internal/util"
)

func newChatCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start a line-mode chat session",
		Long: `Start an interactive line-mode chat in the current conversation.

Interactive commands:
  /new [prompt]   start a new chat, optionally with a system prompt
  /list           list chats
  /switch N       switch to chat N from /list (or a chat id)
  /delete         delete the current chat
  /prompt [TEXT]  show or set the current chat's system prompt
  /model [ID]     show or set the model
  /history        show the current chat
  /quit           exit`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return runREPL(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout(), IsTTY() && IsStdoutTTY())
		},
	}
}

// =============================================================================
// INPUT
// =============================================================================

// lineReader yields one line of user input per call; io.EOF ends the session.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// linerReader provides history and line editing on a terminal.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{line: line, historyFile: filepath.Join(dir, "chat_history")}
	if f, err := os.Open(r.historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

func (r *linerReader) Close() error {
	if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
		_, _ = r.line.WriteHistory(f)
		f.Close()
	}
	return r.line.Close()
}

// scanReader reads plain lines, for pipes and tests.
type scanReader struct {
	sc *bufio.Scanner
}

func (r *scanReader) ReadLine(prompt string) (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *scanReader) Close() error { return nil }

// =============================================================================
// REPL
// =============================================================================

type repl struct {
	app      *app.App
	pipeline *dispatch.Pipeline
	out      io.Writer
	now      func() time.Time
}

// runREPL reads lines until /quit or end of input.
func runREPL(ctx context.Context, a *app.App, in io.Reader, out io.Writer, interactive bool) error {
	var reader lineReader = &scanReader{sc: bufio.NewScanner(in)}
	if interactive {
		reader = newLinerReader()
	}
	defer reader.Close()

	con := newConsole(out, interactive)
	r := &repl{
		app:      a,
		pipeline: a.NewPipeline(app.Hooks{Surface: con, Notifier: con}),
		out:      out,
		now:      time.Now,
	}

	if interactive {
		fmt.Fprintln(out, TitleStyle.Render("hueychat "+Version)+DimStyle.Render("  /help for commands, /quit to exit"))
		r.printCurrent()
	}

	for {
		line, err := reader.ReadLine(PromptStyle.Render("you> "))
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		quit, err := r.handle(ctx, line)
		if err != nil {
			fmt.Fprintln(out, ErrorStyle.Render("Error: ")+err.Error())
		}
		if quit {
			return nil
		}
	}
}

// handle runs one line: a slash command or a message to send.
func (r *repl) handle(ctx context.Context, line string) (quit bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}
	if !strings.HasPrefix(line, "/") {
		out := r.pipeline.Send(ctx, r.app.Session, line)
		if out.Status == dispatch.Rejected {
			return false, out.Err
		}
		return false, nil
	}

	name, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case "quit", "q", "exit":
		return true, nil

	case "help", "h":
		fmt.Fprintln(r.out, "/new [prompt]  /list  /switch N  /delete  /prompt [TEXT]  /model [ID]  /history  /quit")

	case "new":
		prompt := arg
		if prompt == "" {
			prompt = r.app.Config.Chat.DefaultPrompt
		}
		id := r.app.Store.Create(prompt)
		r.app.Session.SetConversationID(id)
		fmt.Fprintln(r.out, SuccessStyle.Render("New chat ")+id)

	case "list", "ls":
		fmt.Fprint(r.out, r.list())

	case "switch", "s":
		id, err := r.resolve(arg)
		if err != nil {
			return false, err
		}
		r.app.Session.SetConversationID(id)
		r.printCurrent()

	case "delete", "del":
		id := r.app.Session.ConversationID()
		if !r.app.Store.Delete(id) {
			return false, &NotFoundError{Resource: "chat", ID: id}
		}
		r.app.Session.SetConversationID(r.app.Store.EnsureNonEmpty())
		fmt.Fprintln(r.out, SuccessStyle.Render("Deleted ")+id)
		r.printCurrent()

	case "prompt":
		id := r.app.Session.ConversationID()
		if arg == "" {
			conv, ok := r.app.Store.Get(id)
			if !ok {
				return false, &NotFoundError{Resource: "chat", ID: id}
			}
			fmt.Fprintln(r.out, field("prompt", orNone(conv.SystemPrompt)))
			return false, nil
		}
		if !r.app.Store.UpdatePrompt(id, arg) {
			return false, &NotFoundError{Resource: "chat", ID: id}
		}
		fmt.Fprintln(r.out, SuccessStyle.Render("Prompt updated"))

	case "model":
		// An unreachable catalogue leaves ids unchecked.
		models := r.app.API.ModelsOrEmpty(ctx)
		if arg == "" {
			current := r.app.Session.Model()
			fmt.Fprintln(r.out, field("model", orNone(current)))
			for _, m := range models {
				marker := "  "
				if m.ID == current {
					marker = "* "
				}
				fmt.Fprintln(r.out, marker+m.String())
			}
			return false, nil
		}
		id := arg
		if len(models) > 0 {
			m, err := resolveModel(models, arg)
			if err != nil {
				return false, err
			}
			id = m.ID
		}
		if err := r.app.SelectModel(id); err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, SuccessStyle.Render("Model set to ")+id)

	case "history":
		conv, ok := r.app.Store.Get(r.app.Session.ConversationID())
		if !ok {
			return false, &NotFoundError{Resource: "chat", ID: r.app.Session.ConversationID()}
		}
		fmt.Fprint(r.out, export.Markdown(conv))

	default:
		return false, &UsageError{Reason: fmt.Sprintf("unknown command /%s (try /help)", name)}
	}
	return false, nil
}

func (r *repl) list() string {
	rows := chatlist.ProjectWith(r.app.Store.ListAll(), r.app.Session.ConversationID(), r.now(), chatlist.Options{
		PreviewMax: r.app.Config.Chat.PreviewMax,
		DateLayout: r.app.Config.Chat.DateLayout,
	})
	return chatlist.Format(rows, GetTerminalWidth())
}

// resolve accepts a 1-based list position or a chat id.
func (r *repl) resolve(arg string) (string, error) {
	if arg == "" {
		return "", &UsageError{Reason: "usage: /switch N"}
	}
	if r.app.Store.Exists(arg) {
		return arg, nil
	}
	n, err := strconv.Atoi(arg)
	convs := r.app.Store.ListAll()
	if err != nil || n < 1 || n > len(convs) {
		return "", &NotFoundError{Resource: "chat", ID: arg}
	}
	return convs[n-1].ID, nil
}

func (r *repl) printCurrent() {
	conv, ok := r.app.Store.Get(r.app.Session.ConversationID())
	if !ok {
		return
	}
	fmt.Fprintln(r.out, DimStyle.Render(fmt.Sprintf("chat %s: %s (%d messages)", conv.ID, util.SingleLine(conv.Title), conv.MessageCount())))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
