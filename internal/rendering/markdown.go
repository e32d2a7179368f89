package rendering

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Markdown renders message text for the terminal. A nil glamour renderer
// means plain output: text is passed through with only URL linking.
type Markdown struct {
	term  *glamour.TermRenderer
	width int
}

// NewMarkdown creates a renderer wrapping at width columns. When plain is
// set, or glamour cannot be initialised, text is returned unstyled.
func NewMarkdown(width int, plain bool) *Markdown {
	if width <= 0 {
		width = DefaultWidth
	}
	m := &Markdown{width: width}
	if plain {
		return m
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width-4),
	)
	if err == nil {
		m.term = r
	}
	return m
}

// Plain reports whether styling is disabled.
func (m *Markdown) Plain() bool { return m.term == nil }

// Render formats text as markdown, falling back to plain text on error.
func (m *Markdown) Render(text string) string {
	if m.term == nil {
		return strings.TrimSpace(text)
	}
	out, err := m.term.Render(text)
	if err != nil {
		return formatPlainText(text)
	}
	return strings.TrimSpace(AutoLinkText(out))
}

var codeBlockStyle = lipgloss.NewStyle().
	Background(lipgloss.Color("#2D2D2D")).
	Foreground(lipgloss.Color("#E6E6E6")).
	Padding(0, 1)

// formatPlainText is the fallback when glamour fails on a message: fenced
// code keeps a background, everything else is left as written.
func formatPlainText(text string) string {
	var out strings.Builder
	inCode := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \t")
		if strings.HasPrefix(line, "```") {
			inCode = !inCode
			continue
		}
		if inCode {
			out.WriteString(codeBlockStyle.Render(line))
		} else {
			out.WriteString(line)
		}
		out.WriteString("\n")
	}
	return strings.TrimSpace(out.String())
}
