// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/jeranaias/hueychat/internal/model"
)

// HTMLExporter produces a self-contained page with embedded CSS that adapts
// to the reader's light or dark preference.
type HTMLExporter struct{}

func (HTMLExporter) FileExtension() string { return ".html" }
func (HTMLExporter) MimeType() string      { return "text/html" }

func (HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, ErrNilConversation
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("<meta charset=\"UTF-8\">\n")
	sb.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString("<meta name=\"generator\" content=\"hueychat\">\n")
	fmt.Fprintf(&sb, "<title>%s</title>\n", html.EscapeString(conv.Title))
	sb.WriteString("<style>\n" + pageCSS + "</style>\n</head>\n<body>\n<main>\n")

	fmt.Fprintf(&sb, "<header><h1>%s</h1><p class=\"meta\">Created %s</p></header>\n",
		html.EscapeString(conv.Title), conv.CreatedAt.Format(time.RFC1123))
	if prompt := strings.TrimSpace(conv.SystemPrompt); prompt != "" {
		fmt.Fprintf(&sb, "<blockquote class=\"prompt\">%s</blockquote>\n", paragraphs(prompt))
	}

	for _, msg := range conv.Messages {
		class := string(msg.Role)
		if msg.IsError {
			class += " error"
		}
		fmt.Fprintf(&sb, "<section class=\"message %s\">\n", class)
		fmt.Fprintf(&sb, "<div class=\"label\">%s <time datetime=\"%s\">%s</time></div>\n",
			html.EscapeString(msg.Role.DisplayName()),
			msg.Timestamp.Format(time.RFC3339),
			msg.Timestamp.Format("2006-01-02 15:04"))
		fmt.Fprintf(&sb, "<div class=\"content\">%s</div>\n</section>\n", paragraphs(msg.Content))
	}

	sb.WriteString("</main>\n</body>\n</html>\n")
	return []byte(sb.String()), nil
}

// paragraphs escapes s and keeps its line structure.
func paragraphs(s string) string {
	escaped := html.EscapeString(s)
	blocks := strings.Split(escaped, "\n\n")
	for i, b := range blocks {
		blocks[i] = "<p>" + strings.ReplaceAll(b, "\n", "<br>") + "</p>"
	}
	return strings.Join(blocks, "\n")
}

const pageCSS = `:root { --bg: #fafafa; --fg: #1f2937; --muted: #6b7280; --user: #ecfeff; --bot: #f5f3ff; --err: #fff1f2; --accent: #7c3aed; }
@media (prefers-color-scheme: dark) {
  :root { --bg: #111827; --fg: #e5e7eb; --muted: #9ca3af; --user: #0e3a44; --bot: #2e1065; --err: #4c0519; --accent: #a78bfa; }
}
body { margin: 0; background: var(--bg); color: var(--fg); font: 16px/1.55 system-ui, sans-serif; }
main { max-width: 780px; margin: 0 auto; padding: 2rem 1rem; }
h1 { margin: 0; color: var(--accent); }
.meta, time { color: var(--muted); font-size: 0.85rem; }
.prompt { border-left: 3px solid var(--accent); margin: 1rem 0; padding: 0 1rem; color: var(--muted); }
.message { border-radius: 8px; padding: 0.75rem 1rem; margin: 1rem 0; }
.message.user { background: var(--user); }
.message.assistant { background: var(--bot); }
.message.error { background: var(--err); border-left: 3px solid #e11d48; }
.label { font-weight: 600; margin-bottom: 0.25rem; }
.content p { margin: 0.5rem 0; white-space: pre-wrap; }
`
