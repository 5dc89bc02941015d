// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jeranaias/hueychat/internal/export"
	"github.com/jeranaias/hueychat/internal/localstore"
	"github.com/jeranaias/hueychat/internal/model"
)

// fakeClock advances one second on every reading.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newTestStore(t *testing.T) (*ConversationStore, localstore.Backend) {
	t.Helper()
	backend, err := localstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	store, err := NewConversationStore(backend, Options{
		DefaultPrompt: "You are a helpful AI assistant.",
		TitleMax:      20,
		Logger:        zaptest.NewLogger(t),
		Now:           newFakeClock().Now,
	})
	require.NoError(t, err)
	return store, backend
}

func rawConversations(t *testing.T, b localstore.Backend) []byte {
	t.Helper()
	raw, _, err := b.Get(localstore.KeyConversations)
	require.NoError(t, err)
	return raw
}

// =============================================================================
// CREATE / GET
// =============================================================================

func TestCreate_EmptyConversation(t *testing.T) {
	store, _ := newTestStore(t)

	id := store.Create("be brief")
	conv, ok := store.Get(id)
	if !ok {
		t.Fatal("Get after Create reported missing")
	}
	if conv.Messages == nil || len(conv.Messages) != 0 {
		t.Errorf("Messages = %v, want []", conv.Messages)
	}
	if conv.SystemPrompt != "be brief" {
		t.Errorf("SystemPrompt = %q, want %q", conv.SystemPrompt, "be brief")
	}
	if conv.Title != model.DefaultTitle {
		t.Errorf("Title = %q, want placeholder", conv.Title)
	}
}

func TestCreate_UniqueIDsWithinOneMillisecond(t *testing.T) {
	backend, err := localstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	fixed := time.UnixMilli(1700000000000)
	store, err := NewConversationStore(backend, Options{Now: func() time.Time { return fixed }})
	require.NoError(t, err)

	a := store.Create("")
	b := store.Create("")
	c := store.Create("")

	if a != "1700000000000" || b != "1700000000001" || c != "1700000000002" {
		t.Errorf("ids = %s, %s, %s; want consecutive milliseconds", a, b, c)
	}
}

func TestGet_Missing(t *testing.T) {
	store, _ := newTestStore(t)
	if _, ok := store.Get("nope"); ok {
		t.Error("Get on unknown id reported found")
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create("")
	store.Append(id, model.RoleUser, "hi")

	conv, _ := store.Get(id)
	conv.Messages[0].Content = "tampered"
	conv.Title = "tampered"

	again, _ := store.Get(id)
	if again.Messages[0].Content != "hi" || again.Title != "hi" {
		t.Error("mutating a Get result changed the store")
	}
}

// =============================================================================
// APPEND
// =============================================================================

func TestAppend_MissingIDLeavesBytesUnchanged(t *testing.T) {
	store, backend := newTestStore(t)
	store.Create("")
	before := rawConversations(t, backend)

	if msg := store.Append("missing", model.RoleUser, "hi"); msg != nil {
		t.Errorf("Append on missing id = %+v, want nil", msg)
	}
	if !bytes.Equal(before, rawConversations(t, backend)) {
		t.Error("Append on missing id changed persisted state")
	}
}

func TestAppend_TitleFromFirstUserMessage(t *testing.T) {
	store, _ := newTestStore(t)

	short := store.Create("")
	store.Append(short, model.RoleUser, "hi")
	store.Append(short, model.RoleUser, "a later message")

	long := store.Create("")
	store.Append(long, model.RoleUser, "Hello world this is long")

	if c, _ := store.Get(short); c.Title != "hi" {
		t.Errorf("short title = %q, want %q", c.Title, "hi")
	}
	if c, _ := store.Get(long); c.Title != "Hello world this is ..." {
		t.Errorf("long title = %q, want %q", c.Title, "Hello world this is ...")
	}
}

func TestAppend_AdvancesUpdatedAtAndOrder(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create("")
	before, _ := store.Get(id)

	store.Append(id, model.RoleUser, "one")
	store.Append(id, model.RoleAssistant, "two")

	after, _ := store.Get(id)
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("UpdatedAt did not advance on append")
	}
	if len(after.Messages) != 2 || after.Messages[0].Content != "one" || after.Messages[1].Content != "two" {
		t.Errorf("messages out of order: %+v", after.Messages)
	}
}

func TestAppendError_Persisted(t *testing.T) {
	store, backend := newTestStore(t)
	id := store.Create("")
	store.Append(id, model.RoleUser, "hi")
	store.AppendError(id, "Sorry, something went wrong. Please try again later.")

	reloaded, err := NewConversationStore(backend, Options{})
	require.NoError(t, err)
	conv, ok := reloaded.Get(id)
	require.True(t, ok)
	require.Len(t, conv.Messages, 2)
	if !conv.Messages[1].IsError || conv.Messages[1].Role != model.RoleAssistant {
		t.Errorf("error message = %+v, want assistant with IsError", conv.Messages[1])
	}
}

func TestAppend_InvalidRole(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create("")
	if msg := store.Append(id, model.RoleSystem, "x"); msg != nil {
		t.Error("system role should not be stored")
	}
}

// =============================================================================
// LIST / DELETE / PROMPT
// =============================================================================

func TestListAll_SortedByUpdatedAtDesc(t *testing.T) {
	store, _ := newTestStore(t)
	a := store.Create("")
	b := store.Create("")
	c := store.Create("")
	store.Append(a, model.RoleUser, "bump a")

	list := store.ListAll()
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].ID != a || list[1].ID != c || list[2].ID != b {
		t.Errorf("order = %s,%s,%s; want %s,%s,%s", list[0].ID, list[1].ID, list[2].ID, a, c, b)
	}
	for i := 1; i < len(list); i++ {
		if list[i].UpdatedAt.After(list[i-1].UpdatedAt) {
			t.Errorf("list not sorted at %d", i)
		}
	}
}

func TestDelete_LastConversationRecreatesDefault(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create("custom")

	if !store.Delete(id) {
		t.Fatal("Delete of existing id returned false")
	}
	list := store.ListAll()
	if len(list) < 1 {
		t.Fatal("store empty after deleting the last conversation")
	}
	if list[0].ID == id {
		t.Error("deleted conversation is still present")
	}
	if list[0].SystemPrompt != "You are a helpful AI assistant." {
		t.Errorf("replacement prompt = %q, want default", list[0].SystemPrompt)
	}
}

func TestDelete_Missing(t *testing.T) {
	store, _ := newTestStore(t)
	store.Create("")
	if store.Delete("missing") {
		t.Error("Delete of unknown id returned true")
	}
	if store.Len() != 1 {
		t.Errorf("Len = %d, want 1", store.Len())
	}
}

func TestUpdatePrompt(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create("old")
	before, _ := store.Get(id)

	if !store.UpdatePrompt(id, "new") {
		t.Fatal("UpdatePrompt on existing id returned false")
	}
	if store.UpdatePrompt("missing", "new") {
		t.Error("UpdatePrompt on unknown id returned true")
	}

	after, _ := store.Get(id)
	if after.SystemPrompt != "new" {
		t.Errorf("SystemPrompt = %q, want %q", after.SystemPrompt, "new")
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Error("UpdatedAt did not advance on prompt update")
	}
}

func TestEnsureNonEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	first := store.EnsureNonEmpty()
	if store.Len() != 1 {
		t.Fatalf("Len = %d, want 1", store.Len())
	}
	if again := store.EnsureNonEmpty(); again != first {
		t.Errorf("EnsureNonEmpty = %q, want existing %q", again, first)
	}
}

// =============================================================================
// PERSISTENCE
// =============================================================================

func TestPersistence_ReloadFromBackend(t *testing.T) {
	for _, kind := range []string{localstore.KindFile, localstore.KindSQLite} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()
			backend, err := localstore.Open(kind, dir)
			require.NoError(t, err)

			store, err := NewConversationStore(backend, Options{})
			require.NoError(t, err)
			id := store.Create("prompt")
			store.Append(id, model.RoleUser, "hello")
			require.NoError(t, backend.Close())

			backend2, err := localstore.Open(kind, dir)
			require.NoError(t, err)
			defer backend2.Close()
			reloaded, err := NewConversationStore(backend2, Options{})
			require.NoError(t, err)

			conv, ok := reloaded.Get(id)
			require.True(t, ok)
			require.Len(t, conv.Messages, 1)
			if conv.Messages[0].Content != "hello" || conv.SystemPrompt != "prompt" {
				t.Errorf("reloaded conversation = %+v", conv)
			}
		})
	}
}

func TestPersistence_CorruptDocumentIsSetAside(t *testing.T) {
	backend, err := localstore.NewFileBackend(t.TempDir())
	require.NoError(t, err)
	corrupt := []byte(`{"1740830400000":{"id":"1740830400000","title":"precious","messages":[]`)
	require.NoError(t, backend.Set(localstore.KeyConversations, corrupt))

	clock := newFakeClock()
	loadedAt := clock.now.Add(time.Second)
	store, err := NewConversationStore(backend, Options{Logger: zaptest.NewLogger(t), Now: clock.Now})
	require.NoError(t, err)
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0 for corrupt document", store.Len())
	}

	key, ok := store.Recovered()
	require.True(t, ok)
	require.Equal(t, CorruptKey(loadedAt), key)

	// Startup seeds a conversation, which rewrites the main key.
	store.EnsureNonEmpty()
	require.NotEqual(t, corrupt, rawConversations(t, backend))

	saved, found, err := backend.Get(key)
	require.NoError(t, err)
	require.True(t, found)
	if !bytes.Equal(saved, corrupt) {
		t.Errorf("set-aside document = %q, want original bytes", saved)
	}
}

func TestPersistence_CleanLoadRecoversNothing(t *testing.T) {
	store, _ := newTestStore(t)
	if _, ok := store.Recovered(); ok {
		t.Error("Recovered() = true for a fresh store")
	}
}

func TestConcurrentAppend(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create("")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Append(id, model.RoleUser, "msg")
		}()
	}
	wg.Wait()

	conv, _ := store.Get(id)
	if len(conv.Messages) != 20 {
		t.Errorf("messages = %d, want 20", len(conv.Messages))
	}
}

// =============================================================================
// SEARCH / EXPORT
// =============================================================================

func TestSearch(t *testing.T) {
	store, _ := newTestStore(t)
	a := store.Create("")
	store.Append(a, model.RoleUser, "Golang channels")
	b := store.Create("")
	store.Append(b, model.RoleUser, "cooking")
	store.Append(b, model.RoleAssistant, "Try a GOLANG-themed cake")
	store.Create("")

	results := store.Search("golang")
	if len(results) != 2 {
		t.Fatalf("Search returned %d results, want 2", len(results))
	}
	if len(store.Search("")) != 3 {
		t.Error("empty query should return every conversation")
	}
}

func TestExport(t *testing.T) {
	store, _ := newTestStore(t)
	id := store.Create("be nice")
	store.Append(id, model.RoleUser, "hi")
	store.AppendError(id, "request failed")

	data, err := store.Export(id, export.MarkdownExporter{})
	require.NoError(t, err)
	md := string(data)
	for _, want := range []string{"# hi", "> be nice", "**You**", "**Assistant** _(error)_", "request failed"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q:\n%s", want, md)
		}
	}

	if _, err := store.Export("missing", export.JSONExporter{}); !errors.Is(err, ErrConversationNotFound) {
		t.Errorf("Export(missing) error = %v, want ErrConversationNotFound", err)
	}
}
