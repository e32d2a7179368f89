package rendering

import (
	"strings"
	"testing"
)

func TestMarkdownPlain(t *testing.T) {
	m := NewMarkdown(0, true)
	if !m.Plain() {
		t.Fatal("expected plain renderer")
	}
	if got := m.Render("  **bold** text \n"); got != "**bold** text" {
		t.Errorf("Render() = %q", got)
	}
}

func TestMarkdownStyled(t *testing.T) {
	disableHyperlinks(t)

	m := NewMarkdown(60, false)
	if m.Plain() {
		t.Skip("glamour renderer unavailable")
	}
	got := m.Render("# Heading\n\nsome `code` here")
	if !strings.Contains(got, "Heading") || !strings.Contains(got, "code") {
		t.Errorf("Render() lost content: %q", got)
	}
	if strings.Contains(got, "# Heading") && strings.Contains(got, "`code`") {
		t.Errorf("Render() did not format markdown: %q", got)
	}
}

func TestFormatPlainText(t *testing.T) {
	got := formatPlainText("intro  \n```go\nx := 1\n```\noutro")
	if !strings.HasPrefix(got, "intro\n") {
		t.Errorf("formatPlainText() = %q", got)
	}
	if strings.Contains(got, "```") {
		t.Errorf("fence markers should be dropped: %q", got)
	}
	if !strings.Contains(got, "x := 1") || !strings.HasSuffix(got, "outro") {
		t.Errorf("formatPlainText() lost content: %q", got)
	}
}
