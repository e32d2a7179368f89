package rendering

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/neilberkman/ccsearch/internal/models"
)

func plainRenderer(showTools, showThinking bool) *Renderer {
	return NewRenderer(Options{
		Width:        60,
		Plain:        true,
		ShowTools:    showTools,
		ShowThinking: showThinking,
		Location:     time.UTC,
	})
}

func assistantTurn() models.Message {
	return models.Message{
		UUID:      "a1",
		Role:      models.RoleAssistant,
		Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Model:     "claude-sonnet",
		Content: models.BlockContent([]models.Block{
			models.ThinkingBlock{Thinking: "consider the cache"},
			models.TextBlock{Text: "Reading the file now."},
			models.ToolUseBlock{ID: "t1", Name: "Read", Input: json.RawMessage(`{ "path": "main.go" }`)},
			models.ToolResultBlock{ToolUseID: "t1", Text: "no such\nfile", IsError: true},
			models.UnknownBlock{Type: "image"},
		}),
	}
}

func TestMessageHidesToolsByDefault(t *testing.T) {
	out := plainRenderer(false, false).Message(assistantTurn())

	assert.True(t, strings.HasPrefix(out, "ASSISTANT 2024-03-01 09:30:00 · claude-sonnet"))
	assert.Contains(t, out, "Reading the file now.")
	assert.NotContains(t, out, "Read {")
	assert.NotContains(t, out, "thinking:")
	assert.NotContains(t, out, "[image block]")
}

func TestMessageShowsToolsAndThinking(t *testing.T) {
	out := plainRenderer(true, true).Message(assistantTurn())

	assert.Contains(t, out, "thinking: consider the cache")
	assert.Contains(t, out, `→ Read {"path":"main.go"}`)
	assert.Contains(t, out, "← no such file (error)")
	assert.Contains(t, out, "[image block]")
}

func TestMessageWithNothingVisible(t *testing.T) {
	msg := models.Message{
		Role: models.RoleUser,
		Content: models.BlockContent([]models.Block{
			models.ToolResultBlock{ToolUseID: "t1", Text: "ok"},
		}),
	}
	assert.Empty(t, plainRenderer(false, false).Message(msg))
	assert.Empty(t, plainRenderer(false, false).Message(models.Message{Role: models.RoleUser}))
}

func TestMessageSidechainMarker(t *testing.T) {
	msg := models.Message{
		Role:        models.RoleUser,
		IsSidechain: true,
		Content:     models.StringContent("sub task"),
	}
	out := plainRenderer(false, false).Message(msg)
	assert.Equal(t, "USER sidechain\n\nsub task", out)
}

func TestConversation(t *testing.T) {
	rec := &models.ConversationRecord{
		ID:           "conv-1",
		Summary:      models.Summary{Text: "Fix the cache"},
		MessageCount: 2,
		LastUpdated:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Messages: []models.Message{
			{Role: models.RoleUser, Content: models.StringContent("why is it slow?")},
			assistantTurn(),
		},
	}

	out := plainRenderer(false, false).Conversation(rec)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "Fix the cache", lines[0])
	assert.Equal(t, "conv-1 · 2 messages · updated 2024-03-01 10:00:00", lines[1])
	assert.Equal(t, 2, strings.Count(out, strings.Repeat("─", 56)))
	assert.Less(t, strings.Index(out, "why is it slow?"), strings.Index(out, "Reading the file now."))
}

func TestTitleFallsBackToID(t *testing.T) {
	rec := &models.ConversationRecord{ID: "conv-9"}
	out := plainRenderer(false, false).Title(rec)
	assert.True(t, strings.HasPrefix(out, "conv-9\n"))
}

func TestHighlight(t *testing.T) {
	text := "Cache misses in the cache layer"

	assert.Equal(t, text, plainRenderer(false, false).Highlight(text, []string{"cache"}))

	styled := NewRenderer(Options{Width: 60}).Highlight(text, []string{"cache", ""})
	assert.Contains(t, styled, "Cache")
	assert.Contains(t, styled, " misses in the ")
	assert.Contains(t, styled, " layer")

	assert.Equal(t, text, NewRenderer(Options{}).Highlight(text, nil))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab...", truncate("abcd", 2))
	assert.Equal(t, "héé...", truncate("hééllo", 3))
}
