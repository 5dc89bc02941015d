// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth manages the signed-in session and authenticated API requests.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/hueychat/internal/localstore"
	"github.com/jeranaias/hueychat/internal/logging"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrMissingFields indicates an empty username, password or confirmation.
	ErrMissingFields = errors.New("all fields are required")

	// ErrPasswordMismatch indicates password and confirmation differ.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrNotLoggedIn indicates an operation that needs a session.
	ErrNotLoggedIn = errors.New("not logged in")
)

// =============================================================================
// USER
// =============================================================================

// FlexibleID decodes a JSON string or number.
type FlexibleID string

// UnmarshalJSON accepts "42" and 42.
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	*id = FlexibleID(n.String())
	return nil
}

// User is the account snapshot kept with the session.
type User struct {
	ID       FlexibleID `json:"id,omitempty"`
	Username string     `json:"username"`
	Email    string     `json:"email,omitempty"`
	// Credits is nil when the server did not report a balance. -1 means unlimited.
	Credits *float64 `json:"credits,omitempty"`
}

// =============================================================================
// PROVIDER
// =============================================================================

// Options configures a Provider.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	RatePerSec  float64
	Burst       int
	RememberFor time.Duration
	UserAgent   string

	// HTTPClient overrides the default client (tests).
	HTTPClient *http.Client
	Logger     *zap.Logger
	Now        func() time.Time
}

// Provider holds the session (user + bearer token) and performs
// authenticated requests against the chat API.
type Provider struct {
	mu    sync.RWMutex
	user  *User
	token string

	store       localstore.Backend
	baseURL     string
	httpClient  *http.Client
	limiter     *rate.Limiter
	rememberFor time.Duration
	userAgent   string
	now         func() time.Time
	log         *zap.Logger
}

// NewProvider restores any saved session from store.
func NewProvider(store localstore.Backend, opts Options) (*Provider, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.RememberFor <= 0 {
		opts.RememberFor = 30 * 24 * time.Hour
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "hueychat"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
			Timeout: opts.Timeout,
		}
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	p := &Provider{
		store:       store,
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		httpClient:  client,
		limiter:     rate.NewLimiter(limit, burst),
		rememberFor: opts.RememberFor,
		userAgent:   opts.UserAgent,
		now:         opts.Now,
		log:         logging.OrNop(opts.Logger).Named("auth"),
	}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

// load reads the saved user and token. A corrupt user record is dropped.
func (p *Provider) load() error {
	raw, ok, err := p.store.Get(localstore.KeyToken)
	if err != nil {
		return fmt.Errorf("failed to load token: %w", err)
	}
	if ok {
		p.token = strings.TrimSpace(string(raw))
	}

	raw, ok, err = p.store.Get(localstore.KeyUser)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if ok && len(raw) > 0 {
		var u User
		if err := json.Unmarshal(raw, &u); err != nil {
			p.log.Warn("stored user record is corrupt, ignoring", zap.Error(err))
		} else {
			p.user = &u
		}
	}
	return nil
}

// IsAuthenticated reports whether both a user snapshot and a token exist.
func (p *Provider) IsAuthenticated() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.user != nil && p.token != ""
}

// Token returns the current bearer token ("" when logged out).
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// User returns a copy of the current user snapshot, or nil.
func (p *Provider) User() *User {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.user == nil {
		return nil
	}
	u := *p.user
	return &u
}

func (p *Provider) saveUser(u *User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := p.store.Set(localstore.KeyUser, data); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	p.mu.Lock()
	p.user = u
	p.mu.Unlock()
	return nil
}

func (p *Provider) saveToken(token string) error {
	if err := p.store.Set(localstore.KeyToken, []byte(token)); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	p.mu.Lock()
	p.token = token
	p.mu.Unlock()
	return nil
}

// =============================================================================
// ACCOUNT OPERATIONS
// =============================================================================

type loginData struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login signs in and stores the returned token and user.
func (p *Provider) Login(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingFields
	}

	resp, err := p.RequestWithToken(ctx, "", "/auth/login", RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"username": username, "password": password},
	})
	if err != nil {
		return nil, err
	}

	var data loginData
	if err := resp.Decode(&data); err != nil {
		return nil, err
	}
	if data.Token == "" {
		return nil, fmt.Errorf("%w: login returned no token", ErrInvalidResponse)
	}
	if data.User == nil {
		data.User = &User{Username: username}
	}

	if err := p.saveToken(data.Token); err != nil {
		return nil, err
	}
	if err := p.saveUser(data.User); err != nil {
		return nil, err
	}
	p.log.Info("logged in", zap.String("username", data.User.Username))
	return p.User(), nil
}

// Register creates an account. It does not sign in.
func (p *Provider) Register(ctx context.Context, username, password, confirm string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || confirm == "" {
		return ErrMissingFields
	}
	if password != confirm {
		return ErrPasswordMismatch
	}

	_, err := p.RequestWithToken(ctx, "", "/auth/register", RequestOptions{
		Method: http.MethodPost,
		Body: map[string]string{
			"username":        username,
			"password":        password,
			"confirmPassword": confirm,
		},
	})
	if err != nil {
		return err
	}
	p.log.Info("registered", zap.String("username", username))
	return nil
}

// Profile fetches the current account, including credits.
func (p *Provider) Profile(ctx context.Context) (*User, error) {
	if !p.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	resp, err := p.Request(ctx, "/users/profile", RequestOptions{})
	if err != nil {
		return nil, err
	}
	var u User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateProfile sends fields to the server and stores the returned user.
func (p *Provider) UpdateProfile(ctx context.Context, fields map[string]any) (*User, error) {
	if !p.IsAuthenticated() {
		return nil, ErrNotLoggedIn
	}
	resp, err := p.Request(ctx, "/users/profile", RequestOptions{
		Method: http.MethodPut,
		Body:   fields,
	})
	if err != nil {
		return nil, err
	}
	var u User
	if err := resp.Decode(&u); err != nil {
		return nil, err
	}
	if err := p.saveUser(&u); err != nil {
		return nil, err
	}
	return p.User(), nil
}

// Logout clears the session. It is safe to call when logged out and does not
// affect requests already holding a captured token.
func (p *Provider) Logout(clearRemembered bool) {
	p.mu.Lock()
	p.user = nil
	p.token = ""
	p.mu.Unlock()

	for _, key := range []string{localstore.KeyUser, localstore.KeyToken} {
		if err := p.store.Delete(key); err != nil {
			p.log.Warn("failed to clear session record", zap.String("key", key), zap.Error(err))
		}
	}
	if clearRemembered {
		p.ForgetRemembered()
	}
	p.log.Debug("logged out", zap.Bool("clear_remembered", clearRemembered))
}

// AutoLogin signs in with remembered credentials, if any. On failure the
// remembered credentials are cleared and the session stays logged out.
func (p *Provider) AutoLogin(ctx context.Context) bool {
	creds, ok := p.Remembered()
	if !ok {
		return false
	}
	if _, err := p.Login(ctx, creds.Username, creds.Password); err != nil {
		p.log.Debug("auto login failed", zap.Error(err))
		p.ForgetRemembered()
		return false
	}
	return true
}
