// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package localstore provides the per-user key/value state hueychat keeps on
// disk: conversations, the signed-in user, the bearer token, remembered
// credentials and the selected model.
//
// # Key Types
//
//   - Backend: Get/Set/Delete/Close over string keys and byte values
//   - FileBackend: one JSON file per key, written atomically
//   - SQLiteBackend: a single kv table in hueychat.db
//
// # Usage
//
//	store, err := localstore.Open(cfg.Storage.Backend, dataDir)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	raw, ok, err := store.Get(localstore.KeyToken)
package localstore
