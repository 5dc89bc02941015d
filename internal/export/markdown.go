// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"strings"
	"time"

	"github.com/jeranaias/hueychat/internal/model"
	"github.com/jeranaias/hueychat/internal/util"
)

// MarkdownExporter renders a transcript with role labels and timestamps.
type MarkdownExporter struct{}

func (MarkdownExporter) FileExtension() string { return ".md" }
func (MarkdownExporter) MimeType() string      { return "text/markdown" }

func (MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}
	return []byte(Markdown(conv)), nil
}

// Markdown renders conv as Markdown. Error notices are flagged next to the
// role label.
func Markdown(conv *model.Conversation) string {
	var sb strings.Builder
	sb.WriteString("# " + util.SingleLine(conv.Title) + "\n\n")
	sb.WriteString("Created: " + conv.CreatedAt.Format(time.RFC3339) + "\n\n")
	if prompt := strings.TrimSpace(conv.SystemPrompt); prompt != "" {
		sb.WriteString("> " + prompt + "\n\n")
	}
	sb.WriteString("---\n\n")

	for _, msg := range conv.Messages {
		label := "**" + msg.Role.DisplayName() + "**"
		if msg.IsError {
			label += " _(error)_"
		}
		sb.WriteString(label + " (" + msg.Timestamp.Format("2006-01-02 15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n---\n\n")
	}
	return sb.String()
}
