package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neilberkman/ccsearch/internal/models"
)

func TestBuild(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := &models.ConversationRecord{
		ID: "a",
		Messages: []models.Message{
			{UUID: "a1", Role: models.RoleUser, Timestamp: ts, Content: models.StringContent("Hello World")},
			{UUID: "a2", Role: models.RoleAssistant, Content: models.BlockContent([]models.Block{
				models.ToolUseBlock{Name: "Bash"},
			})},
			{UUID: "a3", Role: models.RoleAssistant, Content: models.BlockContent([]models.Block{
				models.ThinkingBlock{Thinking: "hidden"},
				models.TextBlock{Text: "Visible"},
			})},
		},
	}
	b := &models.ConversationRecord{
		ID:       "b",
		Messages: []models.Message{{UUID: "b1", Role: models.RoleSystem, Content: models.StringContent("SYSTEM note")}},
	}

	idx := Build([]*models.ConversationRecord{a, nil, b})

	require.Equal(t, 3, idx.Len())
	entries := idx.Entries()
	assert.Equal(t, models.IndexEntry{ConversationID: "a", MessageID: "a1", Text: "Hello World", Lower: "hello world", Timestamp: ts}, entries[0])
	assert.Equal(t, "a3", entries[1].MessageID)
	assert.Equal(t, "visible", entries[1].Lower)
	assert.Equal(t, "b1", entries[2].MessageID)
	assert.Equal(t, "system note", entries[2].Lower)

	rec, ok := idx.Conversation("b")
	require.True(t, ok)
	assert.Same(t, b, rec)
	_, ok = idx.Conversation("missing")
	assert.False(t, ok)
	assert.Len(t, idx.Conversations(), 2)
}

func TestBuildSkipsNilRecords(t *testing.T) {
	idx := Build([]*models.ConversationRecord{nil, {
		ID:       "c1",
		Messages: []models.Message{{UUID: "m1", Content: models.StringContent("hello")}},
	}, nil})

	assert.Equal(t, 1, idx.Len())
	_, ok := idx.Conversation("c1")
	assert.True(t, ok)
}

func TestBuildEmpty(t *testing.T) {
	idx := Build(nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Entries())
	assert.Empty(t, idx.Conversations())
}
