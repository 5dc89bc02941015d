// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/hueychat/internal/localstore"
)

func newTestProvider(t *testing.T, handler http.Handler) (*Provider, localstore.Backend) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	backend, err := localstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)

	p, err := NewProvider(backend, Options{
		BaseURL: srv.URL + "/api/v1",
		Logger:  zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	return p, backend
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func loginHandler(token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"message": "invalid credentials"}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"token": token,
				"user":  map[string]any{"id": 7, "username": body["username"], "credits": 12.5},
			},
		})
	}
}

// =============================================================================
// REQUEST
// =============================================================================

func TestRequest_AttachesBearer(t *testing.T) {
	var gotAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", loginHandler("tok-123"))
	mux.HandleFunc("/api/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"pong": "yes"}})
	})
	p, _ := newTestProvider(t, mux)

	_, err := p.Request(context.Background(), "/ping", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "", gotAuth, "no header when logged out")

	_, err = p.Login(context.Background(), "huey", "secret")
	require.NoError(t, err)

	resp, err := p.Request(context.Background(), "ping", RequestOptions{})
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)

	var data map[string]string
	require.NoError(t, resp.Decode(&data))
	assert.Equal(t, "yes", data["pong"])
}

func TestRequest_ErrorMessageFromBody(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": map[string]string{"message": "model not available"}})
	}))

	_, err := p.Request(context.Background(), "/chat/send", RequestOptions{Method: http.MethodPost, Body: map[string]string{}})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "model not available", reqErr.Message)
}

func TestRequest_ErrorMessageFallback(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))

	_, err := p.Request(context.Background(), "/chat/models", RequestOptions{})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "request failed: status 502", reqErr.Message)
}

func TestRequest_Unauthorized(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": map[string]string{"message": "token expired"}})
	}))

	_, err := p.RequestWithToken(context.Background(), "stale", "/users/profile", RequestOptions{})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.True(t, reqErr.Unauthorized())
}

func TestRequest_NetworkError(t *testing.T) {
	backend, err := localstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p, err := NewProvider(backend, Options{BaseURL: url, Timeout: time.Second})
	require.NoError(t, err)

	_, err = p.Request(context.Background(), "/chat/models", RequestOptions{})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, 0, reqErr.StatusCode)
}

func TestRequest_InvalidJSON(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))

	_, err := p.Request(context.Background(), "/chat/models", RequestOptions{})
	assert.True(t, errors.Is(err, ErrInvalidResponse))
}

// =============================================================================
// LOGIN / REGISTER / LOGOUT
// =============================================================================

func TestLogin_PersistsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", loginHandler("tok-abc"))
	p, backend := newTestProvider(t, mux)

	user, err := p.Login(context.Background(), "huey", "secret")
	require.NoError(t, err)
	assert.Equal(t, "huey", user.Username)
	assert.Equal(t, FlexibleID("7"), user.ID)
	require.NotNil(t, user.Credits)
	assert.Equal(t, 12.5, *user.Credits)
	assert.True(t, p.IsAuthenticated())

	restored, err := NewProvider(backend, Options{BaseURL: "http://unused"})
	require.NoError(t, err)
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, "tok-abc", restored.Token())
}

func TestLogin_BadPassword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", loginHandler("tok"))
	p, _ := newTestProvider(t, mux)

	_, err := p.Login(context.Background(), "huey", "wrong")
	require.Error(t, err)
	assert.False(t, p.IsAuthenticated())
	assert.Contains(t, err.Error(), "invalid credentials")
}

func TestLogin_MissingFields(t *testing.T) {
	p, _ := newTestProvider(t, http.NotFoundHandler())
	_, err := p.Login(context.Background(), " ", "x")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestRegister_Validation(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "pw", body["confirmPassword"])
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]string{"username": body["username"]}})
	}))

	assert.ErrorIs(t, p.Register(context.Background(), "", "pw", "pw"), ErrMissingFields)
	assert.ErrorIs(t, p.Register(context.Background(), "huey", "pw", "other"), ErrPasswordMismatch)
	assert.Equal(t, int32(0), calls.Load(), "validation failures must not reach the server")

	require.NoError(t, p.Register(context.Background(), "huey", "pw", "pw"))
	assert.Equal(t, int32(1), calls.Load())
	assert.False(t, p.IsAuthenticated(), "register does not sign in")
}

func TestLogout_Idempotent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", loginHandler("tok"))
	p, backend := newTestProvider(t, mux)

	_, err := p.Login(context.Background(), "huey", "secret")
	require.NoError(t, err)
	require.NoError(t, p.Remember("huey", "secret"))

	p.Logout(false)
	p.Logout(false)
	assert.False(t, p.IsAuthenticated())
	assert.Equal(t, "", p.Token())

	_, ok, err := backend.Get(localstore.KeyToken)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok = p.Remembered()
	assert.True(t, ok, "remembered credentials kept when not asked to clear")

	p.Logout(true)
	_, ok = p.Remembered()
	assert.False(t, ok)
}

func TestProfile(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", loginHandler("tok"))
	mux.HandleFunc("/api/v1/users/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			var body map[string]any
			_ = json.NewDecoder(r.Body).Decode(&body)
			writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"username": "huey", "email": body["email"]}})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"username": "huey", "credits": -1}})
	})
	p, _ := newTestProvider(t, mux)

	_, err := p.Profile(context.Background())
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	_, err = p.Login(context.Background(), "huey", "secret")
	require.NoError(t, err)

	u, err := p.Profile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, u.Credits)
	assert.Equal(t, -1.0, *u.Credits)

	u, err = p.UpdateProfile(context.Background(), map[string]any{"email": "huey@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "huey@example.com", u.Email)
	assert.Equal(t, "huey@example.com", p.User().Email)
}

// =============================================================================
// REMEMBERED CREDENTIALS
// =============================================================================

func TestRemembered_Expiry(t *testing.T) {
	backend, err := localstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := NewProvider(backend, Options{BaseURL: "http://unused", Now: func() time.Time { return now }})
	require.NoError(t, err)

	require.NoError(t, p.Remember("huey", "pässwörd"))
	creds, ok := p.Remembered()
	require.True(t, ok)
	assert.Equal(t, Credentials{Username: "huey", Password: "pässwörd"}, creds)

	raw, _, err := backend.Get(localstore.KeyRemember)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "pässwörd", "stored password is obfuscated")

	now = now.Add(31 * 24 * time.Hour)
	_, ok = p.Remembered()
	assert.False(t, ok, "credentials expire after 30 days")
}

func TestRemembered_FlagRequired(t *testing.T) {
	p, backend := newTestProvider(t, http.NotFoundHandler())
	rec := `{"u":"aHVleQ==","p":"c2VjcmV0","remember":false,"expires_at":"2999-01-01T00:00:00Z"}`
	require.NoError(t, backend.Set(localstore.KeyRemember, []byte(rec)))

	_, ok := p.Remembered()
	assert.False(t, ok)
}

func TestAutoLogin(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/login", loginHandler("tok"))
	p, _ := newTestProvider(t, mux)

	assert.False(t, p.AutoLogin(context.Background()), "nothing remembered")

	require.NoError(t, p.Remember("huey", "secret"))
	assert.True(t, p.AutoLogin(context.Background()))
	assert.True(t, p.IsAuthenticated())

	p.Logout(false)
	require.NoError(t, p.Remember("huey", "stale"))
	assert.False(t, p.AutoLogin(context.Background()))
	assert.False(t, p.IsAuthenticated())
	_, ok := p.Remembered()
	assert.False(t, ok, "failed auto login clears remembered credentials")
}

// =============================================================================
// TOKEN EXPIRY
// =============================================================================

func TestExpiryOf(t *testing.T) {
	exp := time.Now().Add(2 * time.Hour).Truncate(time.Second)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "7",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("server-secret"))
	require.NoError(t, err)

	got, ok := ExpiryOf(token)
	require.True(t, ok)
	assert.Equal(t, exp.Unix(), got.Unix())

	_, ok = ExpiryOf("opaque-session-token")
	assert.False(t, ok)
	_, ok = ExpiryOf("")
	assert.False(t, ok)
}
