// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/hueychat/internal/auth"
	"github.com/jeranaias/hueychat/internal/dispatch"
	"github.com/jeranaias/hueychat/internal/storage"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitConfigError  = 3
	ExitAuthError    = 4
	ExitNetworkError = 5
	ExitNotFound     = 7
	ExitTimeout      = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ConfigError wraps a configuration load or validation failure.
type ConfigError struct {
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// UsageError reports bad arguments.
type UsageError struct {
	Reason string
}

func (e *UsageError) Error() string { return e.Reason }

// NotFoundError reports a missing conversation or model.
type NotFoundError struct {
	Resource string
	ID       string

	// Suggestions are close matches offered as "did you mean".
	Suggestions []string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(e.Suggestions, ", ") + "?)"
	}
	return msg
}

// ExitCode maps an error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var (
		cfgErr   *ConfigError
		usageErr *UsageError
		nfErr    *NotFoundError
		reqErr   *auth.RequestError
	)
	switch {
	case errors.As(err, &cfgErr):
		return ExitConfigError
	case errors.As(err, &usageErr),
		errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrPasswordMismatch),
		errors.Is(err, dispatch.ErrValidation):
		return ExitUsageError
	case errors.As(err, &nfErr), errors.Is(err, storage.ErrConversationNotFound):
		return ExitNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ExitTimeout
	case errors.Is(err, auth.ErrNotLoggedIn),
		errors.Is(err, dispatch.ErrAuthRequired),
		errors.Is(err, dispatch.ErrSessionExpired):
		return ExitAuthError
	case errors.As(err, &reqErr):
		if reqErr.Unauthorized() {
			return ExitAuthError
		}
		if reqErr.StatusCode == 0 {
			return ExitNetworkError
		}
	}
	return ExitGeneralError
}
