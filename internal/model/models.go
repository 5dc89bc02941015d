// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes one entry of the server's model catalogue.
type ModelInfo struct {
	// ID is the model identifier sent with chat requests.
	ID string `json:"id"`

	// Name is the human-readable display name.
	Name string `json:"name,omitempty"`

	// Provider identifies who serves the model, when the server says.
	Provider string `json:"provider,omitempty"`

	// Description is a brief explanation of the model's strengths.
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare model id string.
func (m *ModelInfo) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*m = ModelInfo{ID: id}
		return nil
	}

	type alias ModelInfo
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return fmt.Errorf("invalid model entry: %w", err)
	}
	*m = ModelInfo(a)
	if m.ID == "" {
		m.ID = m.Name
	}
	return nil
}

// DisplayName returns Name, falling back to ID.
func (m ModelInfo) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.ID
}

// String renders "name (id)" for listings.
func (m ModelInfo) String() string {
	if m.Name == "" || m.Name == m.ID {
		return m.ID
	}
	return fmt.Sprintf("%s (%s)", m.Name, m.ID)
}

// =============================================================================
// CATALOGUE HELPERS
// =============================================================================

// FindModel looks a model up by id or display name (case-insensitive).
func FindModel(models []ModelInfo, nameOrID string) (ModelInfo, bool) {
	needle := strings.ToLower(strings.TrimSpace(nameOrID))
	if needle == "" {
		return ModelInfo{}, false
	}
	for _, m := range models {
		if strings.ToLower(m.ID) == needle || strings.ToLower(m.Name) == needle {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// SortModels orders models by provider then id, in place.
func SortModels(models []ModelInfo) {
	sort.SliceStable(models, func(i, j int) bool {
		if models[i].Provider != models[j].Provider {
			return models[i].Provider < models[j].Provider
		}
		return models[i].ID < models[j].ID
	})
}
