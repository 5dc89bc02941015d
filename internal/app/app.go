// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app wires the hueychat components together. New opens the
// configured local store and builds the conversation store, the identity
// provider, the API client and the session; surfaces call NewPipeline with
// their own view hooks.
package app

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jeranaias/hueychat/internal/api"
	"github.com/jeranaias/hueychat/internal/auth"
	"github.com/jeranaias/hueychat/internal/config"
	"github.com/jeranaias/hueychat/internal/dispatch"
	"github.com/jeranaias/hueychat/internal/localstore"
	"github.com/jeranaias/hueychat/internal/logging"
	"github.com/jeranaias/hueychat/internal/storage"
)

// App holds every long-lived component of one hueychat process.
type App struct {
	Config     *config.Config
	ConfigPath string
	Logger     *zap.Logger

	Backend localstore.Backend
	Store   *storage.ConversationStore
	Auth    *auth.Provider
	API     *api.Client
	Session *dispatch.Session
}

// Options adjusts how New builds the App.
type Options struct {
	// Logger replaces the file logger built from the config (tests).
	Logger *zap.Logger
	// UserAgent is sent with every request.
	UserAgent string
}

// Load reads the configuration from its default location and builds the App.
func Load(opts Options) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	path, _ := config.ConfigPath()
	return New(cfg, path, opts)
}

// New builds the App from cfg. configPath may be empty.
func New(cfg *config.Config, configPath string, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		l, err := logging.New(cfg)
		if err != nil {
			return nil, err
		}
		logger = l
	}

	dir, err := cfg.DataDir()
	if err != nil {
		return nil, err
	}
	backend, err := localstore.Open(cfg.Storage.Backend, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open local store: %w", err)
	}

	store, err := storage.NewConversationStore(backend, storage.Options{
		DefaultPrompt: cfg.Chat.DefaultPrompt,
		TitleMax:      cfg.Chat.TitleMax,
		Logger:        logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	provider, err := auth.NewProvider(backend, auth.Options{
		BaseURL:     cfg.API.BaseURL,
		Timeout:     cfg.Timeout(),
		RatePerSec:  cfg.API.RatePerSec,
		Burst:       cfg.API.Burst,
		RememberFor: cfg.RememberFor(),
		UserAgent:   opts.UserAgent,
		Logger:      logger,
	})
	if err != nil {
		backend.Close()
		return nil, err
	}

	a := &App{
		Config:     cfg,
		ConfigPath: configPath,
		Logger:     logger,
		Backend:    backend,
		Store:      store,
		Auth:       provider,
		API:        api.NewClient(provider, logger),
	}
	a.Session = dispatch.NewSession(store.EnsureNonEmpty(), a.initialModel())

	logger.Info("started",
		zap.String("backend", cfg.Storage.Backend),
		zap.String("data_dir", dir),
		zap.Bool("authenticated", provider.IsAuthenticated()),
	)
	return a, nil
}

// initialModel prefers the configured model over the last one picked.
func (a *App) initialModel() string {
	if m := strings.TrimSpace(a.Config.Chat.SelectedModel); m != "" {
		return m
	}
	raw, ok, err := a.Backend.Get(localstore.KeySelectedModel)
	if err != nil {
		a.Logger.Warn("failed to read selected model", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return strings.TrimSpace(string(raw))
}

// SelectModel sets the model sent with every message and remembers it.
// An empty id clears the selection.
func (a *App) SelectModel(id string) error {
	id = strings.TrimSpace(id)
	a.Session.SetModel(id)
	if id == "" {
		return a.Backend.Delete(localstore.KeySelectedModel)
	}
	return a.Backend.Set(localstore.KeySelectedModel, []byte(id))
}

// Hooks are the view callbacks handed to a pipeline.
type Hooks struct {
	Surface        dispatch.Surface
	Notifier       dispatch.Notifier
	RefreshList    func()
	RefreshAccount func()
}

// NewPipeline builds a dispatch pipeline driving the given view.
func (a *App) NewPipeline(h Hooks) *dispatch.Pipeline {
	return dispatch.New(a.Store, a.Auth, a.API, h.Surface, h.Notifier, dispatch.Options{
		Timeout:        a.Config.Timeout(),
		DefaultPrompt:  a.Config.Chat.DefaultPrompt,
		RefreshList:    h.RefreshList,
		RefreshAccount: h.RefreshAccount,
		Logger:         a.Logger,
	})
}

// StartUp performs the startup auto-login when remembered credentials exist.
func (a *App) StartUp(ctx context.Context) {
	if a.Auth.IsAuthenticated() {
		return
	}
	a.Auth.AutoLogin(ctx)
}

// Close releases the local store and flushes the logger.
func (a *App) Close() error {
	err := a.Backend.Close()
	_ = a.Logger.Sync()
	return err
}
