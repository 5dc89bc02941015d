// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export renders conversations to shareable documents.
//
// Three formats are supported: Markdown, JSON and a standalone HTML page.
// Exporters are stateless and safe for concurrent use.
package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jeranaias/hueychat/internal/model"
)

// =============================================================================
// EXPORT INTERFACE
// =============================================================================

// Exporter renders a conversation into one document format.
type Exporter interface {
	Export(conv *model.Conversation) ([]byte, error)
	FileExtension() string
	MimeType() string
}

// ErrNilConversation is returned when Export is called without a conversation.
var ErrNilConversation = errors.New("conversation is nil")

// Formats lists the names accepted by ForFormat.
var Formats = []string{"md", "json", "html"}

// ForFormat returns the exporter registered under name. Matching is
// case-insensitive and accepts the long names "markdown" and "htm".
func ForFormat(name string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "md", "markdown":
		return MarkdownExporter{}, nil
	case "json":
		return JSONExporter{}, nil
	case "html", "htm":
		return HTMLExporter{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want one of %s)", name, strings.Join(Formats, ", "))
	}
}

// Filename suggests a file name for conv in the exporter's format, derived
// from the title and creation date.
func Filename(conv *model.Conversation, e Exporter) string {
	date := conv.CreatedAt.Format("2006-01-02")
	return fmt.Sprintf("%s_%s%s", sanitizeFilename(conv.Title), date, e.FileExtension())
}

// sanitizeFilename replaces characters that are invalid in file names on
// common platforms and caps the result at 50 runes.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	var sb strings.Builder
	for _, r := range runes {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			sb.WriteRune('-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			sb.WriteRune('_')
		case r < 32 || r == 127:
			sb.WriteRune('-')
		default:
			sb.WriteRune(r)
		}
	}
	if sb.Len() == 0 {
		return "conversation"
	}
	return sb.String()
}
