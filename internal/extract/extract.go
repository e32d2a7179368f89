// Package extract pulls searchable plain text out of messages.
package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/neilberkman/ccsearch/internal/models"
)

// Text returns the human-readable text of a message. Block content contributes
// only its text blocks; tool invocations, tool results and thinking are not
// search text. System messages carry their text as string content.
func Text(msg models.Message) string {
	switch msg.Content.Shape() {
	case models.ShapeString:
		return msg.Content.String()
	case models.ShapeBlocks:
		var parts []string
		for _, b := range msg.Content.Blocks() {
			if tb, ok := b.(models.TextBlock); ok && tb.Text != "" {
				parts = append(parts, tb.Text)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return ""
	}
}

// Preview returns roughly maxLen runes of text centered on the first
// occurrence of needle, which must already be lowercase. Whitespace is
// collapsed so the result fits on one line.
func Preview(text, needle string, maxLen int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if maxLen <= 0 || utf8.RuneCountInString(flat) <= maxLen {
		return flat
	}

	runes := []rune(flat)
	start := 0
	if needle != "" {
		if idx := strings.Index(strings.ToLower(flat), needle); idx >= 0 {
			// idx is a byte offset into the lowercased string; map it back
			// through the original for non-ASCII text.
			center := utf8.RuneCountInString(strings.ToLower(flat)[:idx])
			start = center - maxLen/3
		}
	}
	if start < 0 {
		start = 0
	}
	end := start + maxLen
	if end > len(runes) {
		end = len(runes)
		start = max(0, end-maxLen)
	}

	out := string(runes[start:end])
	if start > 0 {
		out = "..." + out
	}
	if end < len(runes) {
		out += "..."
	}
	return out
}

// Truncate shortens s to maxLen runes, appending "..." when it was cut.
func Truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return string([]rune(s)[:maxLen]) + "..."
}
