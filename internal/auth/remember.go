// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/hueychat/internal/localstore"
)

// Credentials are a remembered username and password.
type Credentials struct {
	Username string
	Password string
}

// rememberRecord is the stored form. Base64 only obfuscates the values; it
// is not encryption.
type rememberRecord struct {
	User      string    `json:"u"`
	Password  string    `json:"p"`
	Remember  bool      `json:"remember"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Remember stores credentials for AutoLogin, valid for the configured period.
func (p *Provider) Remember(username, password string) error {
	rec := rememberRecord{
		User:      base64.StdEncoding.EncodeToString([]byte(username)),
		Password:  base64.StdEncoding.EncodeToString([]byte(password)),
		Remember:  true,
		ExpiresAt: p.now().Add(p.rememberFor),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode remembered credentials: %w", err)
	}
	if err := p.store.Set(localstore.KeyRemember, data); err != nil {
		return fmt.Errorf("failed to save remembered credentials: %w", err)
	}
	return nil
}

// Remembered returns stored credentials that are flagged, unexpired and
// decodable.
func (p *Provider) Remembered() (Credentials, bool) {
	raw, ok, err := p.store.Get(localstore.KeyRemember)
	if err != nil || !ok {
		return Credentials{}, false
	}

	var rec rememberRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		p.log.Debug("remembered credentials unreadable", zap.Error(err))
		return Credentials{}, false
	}
	if !rec.Remember || rec.User == "" || rec.Password == "" {
		return Credentials{}, false
	}
	if !p.now().Before(rec.ExpiresAt) {
		return Credentials{}, false
	}

	user, err := base64.StdEncoding.DecodeString(rec.User)
	if err != nil {
		return Credentials{}, false
	}
	pass, err := base64.StdEncoding.DecodeString(rec.Password)
	if err != nil {
		return Credentials{}, false
	}
	return Credentials{Username: string(user), Password: string(pass)}, true
}

// ForgetRemembered deletes any remembered credentials.
func (p *Provider) ForgetRemembered() {
	if err := p.store.Delete(localstore.KeyRemember); err != nil {
		p.log.Warn("failed to clear remembered credentials", zap.Error(err))
	}
}
