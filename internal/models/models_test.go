package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestContentShapes(t *testing.T) {
	var empty Content
	if empty.Shape() != ShapeEmpty {
		t.Errorf("zero Content shape = %v, want ShapeEmpty", empty.Shape())
	}

	s := StringContent("hello")
	if s.Shape() != ShapeString || s.String() != "hello" || s.Blocks() != nil {
		t.Errorf("StringContent produced unexpected value: %+v", s)
	}

	b := BlockContent([]Block{TextBlock{Text: "a"}, ToolUseBlock{Name: "Read"}})
	if b.Shape() != ShapeBlocks || b.String() != "" || len(b.Blocks()) != 2 {
		t.Errorf("BlockContent produced unexpected value: %+v", b)
	}
}

func TestContentMarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		content  Content
		expected string
	}{
		{
			name:     "empty",
			content:  Content{},
			expected: `""`,
		},
		{
			name:     "string",
			content:  StringContent("hi"),
			expected: `"hi"`,
		},
		{
			name: "blocks",
			content: BlockContent([]Block{
				TextBlock{Text: "x"},
				ToolResultBlock{ToolUseID: "t1", Text: "boom", IsError: true},
				UnknownBlock{Type: "image"},
			}),
			expected: `[{"type":"text","text":"x"},{"type":"tool_result","text":"boom","tool_use_id":"t1","is_error":true},{"type":"unknown","original_type":"image"}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.content)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("Marshal() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestHeaderDropsMessages(t *testing.T) {
	rec := &ConversationRecord{
		ID:           "abc",
		Messages:     []Message{{UUID: "m1"}},
		MessageCount: 1,
		LastUpdated:  time.Now(),
	}

	h := rec.Header()
	if h.Messages != nil {
		t.Error("Header() should drop messages")
	}
	if h.MessageCount != 1 || h.ID != "abc" {
		t.Errorf("Header() lost fields: %+v", h)
	}
	if len(rec.Messages) != 1 {
		t.Error("Header() must not modify the original record")
	}
}

func TestUsageTotal(t *testing.T) {
	var nilUsage *Usage
	if nilUsage.Total() != 0 {
		t.Error("nil usage should total 0")
	}
	u := &Usage{InputTokens: 1, OutputTokens: 2, CacheCreationInputTokens: 3, CacheReadInputTokens: 4}
	if u.Total() != 10 {
		t.Errorf("Total() = %d, want 10", u.Total())
	}
}
