package rendering

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/neilberkman/ccsearch/internal/models"
)

const (
	toolInputLimit  = 120
	toolResultLimit = 200
	timeLayout      = "2006-01-02 15:04:05"
)

var (
	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00D4AA"))
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	systemStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA500"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F5F"))
	titleStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	markStyle      = lipgloss.NewStyle().
			Background(lipgloss.Color("#FFD700")).
			Foreground(lipgloss.Color("#000000")).
			Bold(true)
)

// Options controls how conversations are printed
type Options struct {
	Width        int
	Plain        bool
	ShowTools    bool
	ShowThinking bool
	Location     *time.Location
}

// Renderer prints conversations and search hits
type Renderer struct {
	md   *Markdown
	opts Options
}

func NewRenderer(opts Options) *Renderer {
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Renderer{md: NewMarkdown(opts.Width, opts.Plain), opts: opts}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if r.opts.Plain {
		return text
	}
	return s.Render(text)
}

// Title formats the heading of a conversation.
func (r *Renderer) Title(rec *models.ConversationRecord) string {
	title := rec.Summary.Text
	if title == "" {
		title = rec.ID
	}
	meta := fmt.Sprintf("%s · %d messages · updated %s",
		rec.ID, rec.MessageCount, rec.LastUpdated.In(r.opts.Location).Format(timeLayout))
	return r.style(titleStyle, title) + "\n" + r.style(dimStyle, meta)
}

// Conversation renders a full record, message by message.
func (r *Renderer) Conversation(rec *models.ConversationRecord) string {
	var b strings.Builder
	b.WriteString(r.Title(rec))
	b.WriteString("\n")

	sep := strings.Repeat("─", max(r.opts.Width-4, 10))
	for _, msg := range rec.Messages {
		body := r.Message(msg)
		if body == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(r.style(dimStyle, sep))
		b.WriteString("\n")
		b.WriteString(body)
		b.WriteString("\n")
	}
	return b.String()
}

// Message renders one message with a role header. It returns "" when nothing
// in the message is visible under the current options.
func (r *Renderer) Message(msg models.Message) string {
	var parts []string
	switch msg.Content.Shape() {
	case models.ShapeString:
		if strings.TrimSpace(msg.Content.String()) != "" {
			parts = append(parts, r.md.Render(msg.Content.String()))
		}
	case models.ShapeBlocks:
		for _, blk := range msg.Content.Blocks() {
			if s := r.block(blk); s != "" {
				parts = append(parts, s)
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return r.header(msg) + "\n\n" + strings.Join(parts, "\n\n")
}

func (r *Renderer) header(msg models.Message) string {
	role := strings.ToUpper(string(msg.Role))
	switch msg.Role {
	case models.RoleUser:
		role = r.style(userStyle, role)
	case models.RoleAssistant:
		role = r.style(assistantStyle, role)
	default:
		role = r.style(systemStyle, role)
	}

	var meta []string
	if !msg.Timestamp.IsZero() {
		meta = append(meta, msg.Timestamp.In(r.opts.Location).Format(timeLayout))
	}
	if msg.Model != "" {
		meta = append(meta, msg.Model)
	}
	if msg.IsSidechain {
		meta = append(meta, "sidechain")
	}
	if len(meta) == 0 {
		return role
	}
	return role + " " + r.style(dimStyle, strings.Join(meta, " · "))
}

func (r *Renderer) block(blk models.Block) string {
	switch b := blk.(type) {
	case models.TextBlock:
		if strings.TrimSpace(b.Text) == "" {
			return ""
		}
		return r.md.Render(b.Text)
	case models.ThinkingBlock:
		if !r.opts.ShowThinking || b.Thinking == "" {
			return ""
		}
		return r.style(dimStyle, "thinking: "+strings.TrimSpace(b.Thinking))
	case models.ToolUseBlock:
		if !r.opts.ShowTools {
			return ""
		}
		return r.style(dimStyle, fmt.Sprintf("→ %s %s", b.Name, compactJSON(b.Input, toolInputLimit)))
	case models.ToolResultBlock:
		if !r.opts.ShowTools {
			return ""
		}
		line := "← " + truncate(oneLine(b.Text), toolResultLimit)
		if b.IsError {
			return r.style(errorStyle, line+" (error)")
		}
		return r.style(dimStyle, line)
	case models.UnknownBlock:
		if !r.opts.ShowTools {
			return ""
		}
		return r.style(dimStyle, "["+b.Type+" block]")
	}
	return ""
}

// Highlight marks every case-insensitive occurrence of the given terms.
func (r *Renderer) Highlight(text string, terms []string) string {
	if r.opts.Plain || len(terms) == 0 {
		return text
	}
	lower := strings.ToLower(text)
	// ToLower can change byte lengths for some scripts; leave such text
	// unmarked rather than split a rune.
	if len(lower) != len(text) {
		return text
	}
	marked := make([]bool, len(text))
	for _, t := range terms {
		t = strings.ToLower(t)
		if t == "" {
			continue
		}
		for i := 0; ; {
			j := strings.Index(lower[i:], t)
			if j < 0 {
				break
			}
			for k := i + j; k < i+j+len(t); k++ {
				marked[k] = true
			}
			i += j + len(t)
		}
	}

	var b strings.Builder
	for i := 0; i < len(text); {
		j := i
		for j < len(text) && marked[j] == marked[i] {
			j++
		}
		if marked[i] {
			b.WriteString(markStyle.Render(text[i:j]))
		} else {
			b.WriteString(text[i:j])
		}
		i = j
	}
	return b.String()
}

func compactJSON(raw json.RawMessage, limit int) string {
	if len(raw) == 0 {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return truncate(oneLine(string(raw)), limit)
	}
	return truncate(buf.String(), limit)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
