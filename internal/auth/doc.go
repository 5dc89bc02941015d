// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth manages the signed-in session and authenticated API requests.
//
// The session is a user snapshot plus a bearer token, both kept in the
// localstore so they survive restarts. Every call to the chat API goes
// through Provider.Request (or RequestWithToken when the caller captured the
// token earlier), which attaches the Authorization header, throttles with a
// token bucket and maps non-2xx responses to *RequestError.
//
// # Key Types
//
//   - Provider: session state, Login/Register/Profile/Logout, requests
//   - RequestError: HTTP status plus the server's error.message
//   - Credentials: remembered username/password for AutoLogin
//
// # Usage
//
//	p, err := auth.NewProvider(backend, auth.Options{BaseURL: cfg.API.BaseURL})
//	if _, err := p.Login(ctx, "huey", "secret"); err != nil {
//	    var reqErr *auth.RequestError
//	    if errors.As(err, &reqErr) && reqErr.Unauthorized() {
//	        // bad credentials
//	    }
//	}
package auth
