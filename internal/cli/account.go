// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/hueychat/internal/api"
	"github.com/jeranaias/hueychat/internal/auth"
	"github.com/jeranaias/hueychat/internal/model"
)

// =============================================================================
// LOGIN / LOGOUT / REGISTER
// =============================================================================

func newLoginCmd(flags *globalFlags) *cobra.Command {
	var (
		password string
		remember bool
	)
	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in to the chat service",
		Long: `Log in and keep the session token locally.

With --remember the credentials are kept for automatic login at startup.
They are obfuscated, not encrypted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.noAutoLog = true
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			username := ""
			if len(args) == 1 {
				username = args[0]
			} else if username, err = p.Line("Username: "); err != nil {
				return err
			}
			if password == "" {
				if password, err = p.Password("Password: "); err != nil {
					return err
				}
			}

			u, err := a.Auth.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if remember {
				if err := a.Auth.Remember(username, password); err != nil {
					return err
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Logged in as ")+u.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().BoolVar(&remember, "remember", false, "remember credentials for automatic login")
	return cmd
}

func newLogoutCmd(flags *globalFlags) *cobra.Command {
	var forget bool
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "End the local session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.noAutoLog = true
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.Auth.Logout(forget)
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Logged out"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&forget, "forget", false, "also forget remembered credentials")
	return cmd
}

func newRegisterCmd(flags *globalFlags) *cobra.Command {
	var password, confirm string
	cmd := &cobra.Command{
		Use:   "register [username]",
		Short: "Create an account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.noAutoLog = true
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p := newPrompter(cmd.InOrStdin(), cmd.OutOrStdout())
			username := ""
			if len(args) == 1 {
				username = args[0]
			} else if username, err = p.Line("Username: "); err != nil {
				return err
			}
			if password == "" {
				if password, err = p.Password("Password: "); err != nil {
					return err
				}
			}
			if confirm == "" {
				if confirm, err = p.Password("Confirm password: "); err != nil {
					return err
				}
			}

			if err := a.Auth.Register(cmd.Context(), username, password, confirm); err != nil {
				return fmt.Errorf("registration failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), SuccessStyle.Render("Account created. ")+"Log in with: hueychat login "+username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation (prompted when omitted)")
	return cmd
}

// =============================================================================
// WHOAMI / MODELS
// =============================================================================

func newWhoamiCmd(flags *globalFlags) *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account and credits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Auth.IsAuthenticated() {
				return auth.ErrNotLoggedIn
			}
			u := a.Auth.User()
			if refresh {
				if u, err = a.Auth.Profile(cmd.Context()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, field("user", u.Username))
			if u.Email != "" {
				fmt.Fprintln(out, field("email", u.Email))
			}
			credits := api.Credits{}
			if u.Credits != nil {
				credits = api.Credits{Value: *u.Credits, Known: true}
			}
			fmt.Fprintln(out, field("credits", credits.String()))
			if exp, ok := a.Auth.TokenExpiry(); ok {
				fmt.Fprintln(out, field("session until", exp.Local().Format("2006-01-02 15:04")))
			}
			fmt.Fprintln(out, field("model", orNone(a.Session.Model())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the profile from the server")
	return cmd
}

func newModelsCmd(flags *globalFlags) *cobra.Command {
	var selectID string
	var clear bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List available models or select one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := flags.open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			out := cmd.OutOrStdout()

			if clear {
				if err := a.SelectModel(""); err != nil {
					return err
				}
				fmt.Fprintln(out, SuccessStyle.Render("Model cleared; the server default is used"))
				return nil
			}

			models, err := a.API.Models(cmd.Context())
			if err != nil {
				return err
			}
			model.SortModels(models)

			if selectID != "" {
				m, err := resolveModel(models, selectID)
				if err != nil {
					return err
				}
				if err := a.SelectModel(m.ID); err != nil {
					return err
				}
				fmt.Fprintln(out, SuccessStyle.Render("Model set to ")+m.String())
				return nil
			}

			if len(models) == 0 {
				fmt.Fprintln(out, "No models available.")
				return nil
			}
			current := a.Session.Model()
			for _, m := range models {
				marker := "  "
				if m.ID == current {
					marker = "* "
				}
				line := marker + m.String()
				if m.Description != "" {
					line += DimStyle.Render("  " + strings.TrimSpace(m.Description))
				}
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&selectID, "select", "", "select a model by id, name or a unique fuzzy match")
	cmd.Flags().BoolVar(&clear, "clear", false, "clear the selected model")
	return cmd
}

// resolveModel picks a model by id or name, else by a fuzzy query that
// matches exactly one entry.
func resolveModel(models []model.ModelInfo, query string) (model.ModelInfo, error) {
	if m, ok := model.FindModel(models, query); ok {
		return m, nil
	}
	matches := model.MatchModels(models, query)
	if len(matches) == 1 {
		return matches[0], nil
	}
	nf := &NotFoundError{Resource: "model", ID: query}
	for i := 0; i < len(matches) && i < 3; i++ {
		nf.Suggestions = append(nf.Suggestions, matches[i].ID)
	}
	return model.ModelInfo{}, nf
}
