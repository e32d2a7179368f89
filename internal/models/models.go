package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested project or conversation does not exist.
var ErrNotFound = errors.New("not found")

// Role identifies who produced a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Project is a directory of conversation logs
type Project struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Path              string    `json:"path"`
	ConversationCount int       `json:"conversation_count"`
	LastModified      time.Time `json:"last_modified"`
}

// Summary is the human-readable title of a conversation
type Summary struct {
	Text        string    `json:"text"`
	Timestamp   time.Time `json:"timestamp"`
	Synthesized bool      `json:"synthesized"`
}

// ConversationRecord is one parsed log file
type ConversationRecord struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	Summary        Summary   `json:"summary"`
	Messages       []Message `json:"messages,omitempty"`
	MessageCount   int       `json:"message_count"`
	LastUpdated    time.Time `json:"last_updated"`
	MalformedLines int       `json:"malformed_lines,omitempty"`
}

// Header returns a copy of the record without its messages, for listings.
func (c *ConversationRecord) Header() *ConversationRecord {
	h := *c
	h.Messages = nil
	return &h
}

// Usage holds token counts reported on assistant turns
type Usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// Total returns the sum of all token counters.
func (u *Usage) Total() int64 {
	if u == nil {
		return 0
	}
	return u.InputTokens + u.OutputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
}

// Message is a single turn in a conversation
type Message struct {
	UUID        string    `json:"uuid"`
	ParentUUID  string    `json:"parent_uuid,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	Role        Role      `json:"role"`
	IsSidechain bool      `json:"is_sidechain"`
	Content     Content   `json:"content"`
	Model       string    `json:"model,omitempty"`
	Usage       *Usage    `json:"usage,omitempty"`
}

// IndexEntry is one unit of searchable text
type IndexEntry struct {
	ConversationID string
	MessageID      string
	Text           string
	Lower          string
	Timestamp      time.Time
}

// SearchResult groups the matching messages of one conversation
type SearchResult struct {
	ConversationID     string              `json:"conversation_id"`
	ProjectID          string              `json:"project_id"`
	Conversation       *ConversationRecord `json:"conversation,omitempty"`
	MatchingMessageIDs []string            `json:"matching_message_ids"`
	MatchCount         int                 `json:"match_count"`
	Preview            string              `json:"preview,omitempty"`
	LastUpdated        time.Time           `json:"last_updated"`
}
