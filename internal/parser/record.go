package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/neilberkman/ccsearch/internal/models"
)

// RecordType is the discriminator carried by every log line
type RecordType string

const (
	RecordSummary        RecordType = "summary"
	RecordUser           RecordType = "user"
	RecordAssistant      RecordType = "assistant"
	RecordSystem         RecordType = "system"
	RecordSidechainStart RecordType = "sidechain-start"
	RecordSidechainEnd   RecordType = "sidechain-end"
)

// IsMessage reports whether records of this type become conversation messages.
func (t RecordType) IsMessage() bool {
	return t == RecordUser || t == RecordAssistant || t == RecordSystem
}

// Record is one decoded log line. Content is decoded into its closed sum type
// here so nothing downstream needs to inspect raw JSON shapes.
type Record struct {
	Type        RecordType
	UUID        string
	ParentUUID  string
	Timestamp   time.Time
	IsSidechain bool
	Summary     string
	Role        models.Role
	Content     models.Content
	Model       string
	Usage       *models.Usage
}

// rawRecord mirrors the on-disk JSON of a log line.
type rawRecord struct {
	Type        string          `json:"type"`
	UUID        string          `json:"uuid"`
	ParentUUID  *string         `json:"parentUuid"`
	Timestamp   string          `json:"timestamp"`
	IsSidechain bool            `json:"isSidechain"`
	Summary     string          `json:"summary"`
	Content     json.RawMessage `json:"content"`
	Message     *rawMessage     `json:"message"`
}

type rawMessage struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
	Model   string          `json:"model"`
	Usage   *models.Usage   `json:"usage"`
}

type rawBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text"`
	Thinking  string          `json:"thinking"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Input     json.RawMessage `json:"input"`
	ToolUseID string          `json:"tool_use_id"`
	Content   json.RawMessage `json:"content"`
	IsError   bool            `json:"is_error"`
}

var errMissingType = errors.New("record has no type")

// DecodeLine decodes a single log line. A line that is not a JSON object, has
// no type, or carries content of an unsupported shape is an error; an
// unparsable timestamp is not.
func DecodeLine(line []byte) (Record, error) {
	var raw rawRecord
	if err := json.Unmarshal(line, &raw); err != nil {
		return Record{}, fmt.Errorf("invalid JSON: %w", err)
	}
	if raw.Type == "" {
		return Record{}, errMissingType
	}

	rec := Record{
		Type:        RecordType(raw.Type),
		UUID:        raw.UUID,
		Timestamp:   ParseTime(raw.Timestamp),
		IsSidechain: raw.IsSidechain,
		Summary:     raw.Summary,
	}
	if raw.ParentUUID != nil {
		rec.ParentUUID = *raw.ParentUUID
	}

	switch rec.Type {
	case RecordUser, RecordAssistant:
		rec.Role = models.Role(rec.Type)
		if raw.Message != nil {
			content, err := decodeContent(raw.Message.Content)
			if err != nil {
				return Record{}, err
			}
			rec.Content = content
			if rec.Type == RecordAssistant {
				rec.Model = raw.Message.Model
				rec.Usage = raw.Message.Usage
			}
		}
	case RecordSystem:
		rec.Role = models.RoleSystem
		body := raw.Content
		if len(body) == 0 && raw.Message != nil {
			body = raw.Message.Content
		}
		content, err := decodeContent(body)
		if err != nil {
			return Record{}, err
		}
		rec.Content = content
	}

	return rec, nil
}

// decodeContent turns a string-or-array content field into models.Content.
func decodeContent(raw json.RawMessage) (models.Content, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return models.Content{}, nil
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return models.Content{}, fmt.Errorf("invalid string content: %w", err)
		}
		return models.StringContent(s), nil
	case '[':
		var rawBlocks []rawBlock
		if err := json.Unmarshal(raw, &rawBlocks); err != nil {
			return models.Content{}, fmt.Errorf("invalid content blocks: %w", err)
		}
		blocks := make([]models.Block, 0, len(rawBlocks))
		for _, rb := range rawBlocks {
			blocks = append(blocks, decodeBlock(rb))
		}
		return models.BlockContent(blocks), nil
	default:
		return models.Content{}, fmt.Errorf("unsupported content shape starting with %q", trimmed[0])
	}
}

func decodeBlock(rb rawBlock) models.Block {
	switch models.BlockKind(rb.Type) {
	case models.BlockText:
		return models.TextBlock{Text: rb.Text}
	case models.BlockThinking:
		return models.ThinkingBlock{Thinking: rb.Thinking}
	case models.BlockToolUse:
		return models.ToolUseBlock{ID: rb.ID, Name: rb.Name, Input: rb.Input}
	case models.BlockToolResult:
		return models.ToolResultBlock{
			ToolUseID: rb.ToolUseID,
			Text:      toolResultText(rb.Content),
			IsError:   rb.IsError,
		}
	default:
		return models.UnknownBlock{Type: rb.Type}
	}
}

// toolResultText flattens a tool result body, which is either a string or a
// list of text blocks.
func toolResultText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []rawBlock
	if err := json.Unmarshal(raw, &parts); err != nil {
		return ""
	}
	var texts []string
	for _, p := range parts {
		if p.Type == string(models.BlockText) && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// ParseTime parses the log's ISO 8601 timestamps, returning the zero time for
// anything it cannot read.
func ParseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
