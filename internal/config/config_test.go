// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "https://chat.yinxh.fun/api/v1", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, 20, cfg.Chat.TitleMax)
	assert.Equal(t, 25, cfg.Chat.PreviewMax)
	assert.Equal(t, DefaultSystemPrompt, cfg.Chat.DefaultPrompt)
	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, 30*24*time.Hour, cfg.RememberFor())
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromPath_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "http://localhost:8080/api/v1/"

[chat]
selected_model = "deepseek-chat"
default_prompt = ""

[storage]
backend = "sqlite"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/api/v1", cfg.API.BaseURL, "trailing slash trimmed")
	assert.Equal(t, "deepseek-chat", cfg.Chat.SelectedModel)
	assert.Equal(t, "", cfg.Chat.DefaultPrompt, "explicit empty prompt is kept")
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 30, cfg.API.TimeoutSecs, "missing values filled from defaults")
	assert.Equal(t, 20, cfg.Chat.TitleMax)
}

func TestLoadFromPath_FixesPermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[chat]\n"), 0644))

	_, err := LoadFromPath(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %o, want 0600", info.Mode().Perm())
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[storage]
backend = "redis"

[log]
level = "loud"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	_, err := LoadFromPath(path)
	require.Error(t, err)

	var verrs ValidateErrors
	require.True(t, errors.As(err, &verrs))
	assert.Len(t, verrs, 2)
}

func TestValidate_BaseURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://chat.example.com/api/v1", false},
		{"http://127.0.0.1:8080", false},
		{"ftp://example.com", true},
		{"not a url", true},
		{"", true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.API.BaseURL = tt.url
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("HUEYCHAT_API_URL", "http://localhost:9000/api/")
	t.Setenv("HUEYCHAT_MODEL", "gpt-4o")
	t.Setenv("HUEYCHAT_STORAGE", "SQLITE")
	t.Setenv("HUEYCHAT_TIMEOUT", "45")
	t.Setenv("HUEYCHAT_DATA_DIR", "/tmp/hueychat-test")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	assert.Equal(t, "http://localhost:9000/api", cfg.API.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.Chat.SelectedModel)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 45, cfg.API.TimeoutSecs)

	dir, err := cfg.DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/hueychat-test", dir)
}

func TestSaveTOML_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Default()
	cfg.Chat.SelectedModel = "claude-3-haiku"

	require.NoError(t, SaveTOML(cfg, path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-3-haiku", loaded.Chat.SelectedModel)
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, SaveTOML(Default(), path))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan *Config, 1)
	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = Watch(ctx, path, func(c *Config) {
			select {
			case changed <- c:
			default:
			}
		}, nil)
	}()
	<-ready
	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	cfg := Default()
	cfg.Chat.SelectedModel = "watched-model"
	require.NoError(t, SaveTOML(cfg, path))

	select {
	case c := <-changed:
		assert.Equal(t, "watched-model", c.Chat.SelectedModel)
	case <-ctx.Done():
		t.Fatal("config change was not observed")
	}
}
