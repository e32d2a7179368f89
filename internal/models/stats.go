package models

import "time"

// TokenTotals accumulates token usage. Estimated is the derived total used for
// display: exact usage where the log reports it, a text-length estimate elsewhere.
type TokenTotals struct {
	Input         int64 `json:"input"`
	Output        int64 `json:"output"`
	CacheCreation int64 `json:"cache_creation"`
	CacheRead     int64 `json:"cache_read"`
	Estimated     int64 `json:"estimated"`
}

// Counters are shared by project and conversation statistics
type Counters struct {
	TotalMessages  int            `json:"total_messages"`
	MessagesByRole map[Role]int   `json:"messages_by_role"`
	ToolUsage      map[string]int `json:"tool_usage"`
	ThinkingBlocks int            `json:"thinking_blocks"`
	HourlyActivity [24]int        `json:"hourly_activity"`
	DailyActivity  map[string]int `json:"daily_activity"`
	Tokens         TokenTotals    `json:"tokens"`
	ErrorCount     int            `json:"error_count"`
	MalformedLines int            `json:"malformed_lines"`
	FirstActivity  time.Time      `json:"first_activity"`
	LastActivity   time.Time      `json:"last_activity"`
}

// ConversationLength identifies the conversation with the most messages
type ConversationLength struct {
	ConversationID string `json:"conversation_id"`
	MessageCount   int    `json:"message_count"`
}

// DayActivity identifies the busiest calendar day
type DayActivity struct {
	Date     string `json:"date"`
	Messages int    `json:"messages"`
}

// ProjectStats aggregates every conversation in a project
type ProjectStats struct {
	Counters
	ProjectID           string             `json:"project_id"`
	TotalConversations  int                `json:"total_conversations"`
	LongestConversation ConversationLength `json:"longest_conversation"`
	MostActiveDay       DayActivity        `json:"most_active_day"`
	ComputedAt          time.Time          `json:"computed_at"`
}

// ConversationStats aggregates a single conversation
type ConversationStats struct {
	Counters
	ConversationID string         `json:"conversation_id"`
	ProjectID      string         `json:"project_id"`
	Duration       time.Duration  `json:"duration"`
	Models         map[string]int `json:"models"`
	MostActiveDay  DayActivity    `json:"most_active_day"`
}
