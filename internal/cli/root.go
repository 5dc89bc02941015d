// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/hueychat/internal/app"
	"github.com/jeranaias/hueychat/internal/config"
	"github.com/jeranaias/hueychat/internal/ui/chat"
)

// Version information, set by main at build time.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	dataDir    string
	backend    string
	logLevel   string
	noAutoLog  bool
}

// NewRootCommand builds the command tree. With no subcommand it starts the
// TUI when stdin and stdout are terminals and the REPL otherwise.
func NewRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "hueychat",
		Short: "Chat with an AI assistant from the terminal",
		Long: `hueychat keeps any number of named conversations with a remote AI chat
service. History is stored locally in ~/.hueychat.

Run without arguments for the full-screen interface, or use the subcommands
below from scripts.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			if IsTTY() && IsStdoutTTY() {
				return chat.Run(cmd.Context(), a)
			}
			return runREPL(cmd.Context(), a, cmd.InOrStdin(), cmd.OutOrStdout(), false)
		},
	}
	root.SetVersionTemplate(fmt.Sprintf("hueychat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate))

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.hueychat/config.toml)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "local state directory")
	pf.StringVar(&flags.backend, "backend", "", "local store backend: file or sqlite")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flags.noAutoLog, "no-auto-login", false, "do not log in with remembered credentials")

	root.AddCommand(
		newChatCmd(flags),
		newSendCmd(flags),
		newLoginCmd(flags),
		newLogoutCmd(flags),
		newRegisterCmd(flags),
		newWhoamiCmd(flags),
		newModelsCmd(flags),
		newChatsCmd(flags),
		newConfigCmd(flags),
	)
	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	root := NewRootCommand()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error: ")+err.Error())
		return ExitCode(err)
	}
	return ExitSuccess
}

// loadConfig reads the config selected by the flags and applies flag overrides.
func (f *globalFlags) loadConfig() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path = f.configPath
		err  error
	)
	if path != "" {
		cfg, err = config.LoadFromPath(path)
	} else {
		path, _ = config.ConfigPath()
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, "", &ConfigError{Err: err}
	}

	if f.dataDir != "" {
		cfg.Storage.DataDir = f.dataDir
	}
	if f.backend != "" {
		cfg.Storage.Backend = strings.ToLower(f.backend)
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", &ConfigError{Err: err}
	}
	return cfg, path, nil
}

// open builds the App and performs the startup auto-login.
func (f *globalFlags) open(ctx context.Context) (*app.App, error) {
	cfg, path, err := f.loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, path, app.Options{UserAgent: "hueychat/" + Version})
	if err != nil {
		return nil, err
	}
	if key, ok := a.Store.Recovered(); ok {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Chat history could not be read; it was saved under "+key+" and a new history was started"))
	}
	if !f.noAutoLog {
		a.StartUp(ctx)
	}
	return a, nil
}
