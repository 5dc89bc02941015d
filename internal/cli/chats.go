// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jeranaias/hueychat/internal/app"
	"github.com/jeranaias/hueychat/internal/chatlist"
	"github.com/jeranaias/hueychat/internal/dispatch"
	"github.com/jeranaias/hueychat/internal/export"
	"github.com/jeranaias/hueychat/internal/util"
)

// =============================================================================
// SEND
// =============================================================================

func newSendCmd(flags *globalFlags) *cobra.Command {
	var (
		chatID  string
		newChat bool
		prompt  string
		mdl     string
	)
	cmd := &cobra.Command{
		Use:   "send TEXT...",
		Short: "Send one message and print the reply",
		Example: `  hueychat send "What is a goroutine?"
  hueychat send --new --prompt "Answer in French" hello
  hueychat send --chat 1718000000000 "and then?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			switch {
			case newChat:
				p := prompt
				if !cmd.Flags().Changed("prompt") {
					p = a.Config.Chat.DefaultPrompt
				}
				a.Session.SetConversationID(a.Store.Create(p))
			case chatID != "":
				if !a.Store.Exists(chatID) {
					return &NotFoundError{Resource: "chat", ID: chatID}
				}
				a.Session.SetConversationID(chatID)
			}
			if mdl != "" {
				a.Session.SetModel(mdl)
			}

			con := newConsole(cmd.OutOrStdout(), IsStdoutTTY())
			con.quiet = true
			p := a.NewPipeline(app.Hooks{Surface: con, Notifier: con})
			out := p.Send(cmd.Context(), a.Session, strings.Join(args, " "))
			if out.Status != dispatch.Succeeded {
				return out.Err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&chatID, "chat", "", "chat id to continue (default: most recent)")
	cmd.Flags().BoolVar(&newChat, "new", false, "start a new chat")
	cmd.Flags().StringVar(&prompt, "prompt", "", "system prompt for --new")
	cmd.Flags().StringVarP(&mdl, "model", "m", "", "model for this message only")
	return cmd
}

// =============================================================================
// CHATS
// =============================================================================

func newChatsCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chats",
		Short: "Manage saved chats",
	}
	cmd.AddCommand(
		newChatsListCmd(flags),
		newChatsNewCmd(flags),
		newChatsDeleteCmd(flags),
		newChatsPromptCmd(flags),
		newChatsExportCmd(flags),
	)
	return cmd
}

func newChatsListCmd(flags *globalFlags) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List chats, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			convs := a.Store.ListAll()
			if search != "" {
				convs = a.Store.Search(search)
			}
			rows := chatlist.ProjectWith(convs, a.Session.ConversationID(), time.Now(), chatlist.Options{
				PreviewMax: a.Config.Chat.PreviewMax,
				DateLayout: a.Config.Chat.DateLayout,
			})
			out := cmd.OutOrStdout()
			fmt.Fprint(out, chatlist.Format(rows, GetTerminalWidth()))
			for i, r := range rows {
				fmt.Fprintln(out, DimStyle.Render(fmt.Sprintf("  %d = %s", i+1, r.ID)))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "only chats whose title or messages contain this text")
	return cmd
}

func newChatsNewCmd(flags *globalFlags) *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create an empty chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !cmd.Flags().Changed("prompt") {
				prompt = a.Config.Chat.DefaultPrompt
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Store.Create(prompt))
			return nil
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "", "system prompt (empty for none)")
	return cmd
}

func newChatsDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a chat and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Store.Delete(args[0]) {
				return &NotFoundError{Resource: "chat", ID: args[0]}
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Deleted ")+args[0])
			return nil
		},
	}
}

func newChatsPromptCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "prompt ID [TEXT...]",
		Short: "Show or set a chat's system prompt",
		Long:  "Show a chat's system prompt, or replace it with TEXT. Pass \"\" to clear it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			id := args[0]
			if len(args) == 1 {
				conv, ok := a.Store.Get(id)
				if !ok {
					return &NotFoundError{Resource: "chat", ID: id}
				}
				fmt.Fprintln(cmd.OutOrStdout(), conv.SystemPrompt)
				return nil
			}
			prompt := strings.TrimSpace(strings.Join(args[1:], " "))
			if !a.Store.UpdatePrompt(id, prompt) {
				return &NotFoundError{Resource: "chat", ID: id}
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Prompt updated"))
			return nil
		},
	}
}

func newChatsExportCmd(flags *globalFlags) *cobra.Command {
	var format, output string
	cmd := &cobra.Command{
		Use:   "export ID",
		Short: "Export a chat as markdown, JSON or HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			exp, err := export.ForFormat(format)
			if err != nil {
				return &UsageError{Reason: err.Error()}
			}
			data, err := a.Store.Export(args[0], exp)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if info, statErr := os.Stat(output); statErr == nil && info.IsDir() {
				conv, _ := a.Store.Get(args[0])
				output = filepath.Join(output, export.Filename(conv, exp))
			}
			if err := util.AtomicWriteFile(output, data, 0600); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr, SuccessStyle.Render("Exported to ")+output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "md", "md, json or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file or directory to write (default stdout)")
	return cmd
}
