package models

import (
	"encoding/json"
)

// BlockKind names the kind of a content block
type BlockKind string

const (
	BlockText       BlockKind = "text"
	BlockThinking   BlockKind = "thinking"
	BlockToolUse    BlockKind = "tool_use"
	BlockToolResult BlockKind = "tool_result"
	BlockUnknown    BlockKind = "unknown"
)

// Block is one typed element of a block-sequence message. The set of
// implementations is closed: TextBlock, ThinkingBlock, ToolUseBlock,
// ToolResultBlock and UnknownBlock.
type Block interface {
	Kind() BlockKind
	isBlock()
}

type TextBlock struct {
	Text string
}

type ThinkingBlock struct {
	Thinking string
}

type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

type ToolResultBlock struct {
	ToolUseID string
	Text      string
	IsError   bool
}

// UnknownBlock stands in for block types this package does not understand.
type UnknownBlock struct {
	Type string
}

func (TextBlock) Kind() BlockKind       { return BlockText }
func (ThinkingBlock) Kind() BlockKind   { return BlockThinking }
func (ToolUseBlock) Kind() BlockKind    { return BlockToolUse }
func (ToolResultBlock) Kind() BlockKind { return BlockToolResult }
func (UnknownBlock) Kind() BlockKind    { return BlockUnknown }

func (TextBlock) isBlock()       {}
func (ThinkingBlock) isBlock()   {}
func (ToolUseBlock) isBlock()    {}
func (ToolResultBlock) isBlock() {}
func (UnknownBlock) isBlock()    {}

// ContentShape reports which shape a Content value holds
type ContentShape int

const (
	ShapeEmpty ContentShape = iota
	ShapeString
	ShapeBlocks
)

// Content is either a plain string or an ordered sequence of blocks, never both.
type Content struct {
	shape  ContentShape
	text   string
	blocks []Block
}

// StringContent wraps plain text.
func StringContent(s string) Content {
	return Content{shape: ShapeString, text: s}
}

// BlockContent wraps an ordered block sequence.
func BlockContent(blocks []Block) Content {
	return Content{shape: ShapeBlocks, blocks: blocks}
}

func (c Content) Shape() ContentShape { return c.shape }

// String returns the plain text when the shape is ShapeString.
func (c Content) String() string { return c.text }

// Blocks returns the block sequence when the shape is ShapeBlocks.
func (c Content) Blocks() []Block { return c.blocks }

type blockJSON struct {
	Type      BlockKind       `json:"type"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	Original  string          `json:"original_type,omitempty"`
}

// MarshalJSON renders string content as a JSON string and block content as an
// array of tagged objects.
func (c Content) MarshalJSON() ([]byte, error) {
	switch c.shape {
	case ShapeString:
		return json.Marshal(c.text)
	case ShapeBlocks:
		out := make([]blockJSON, 0, len(c.blocks))
		for _, b := range c.blocks {
			switch v := b.(type) {
			case TextBlock:
				out = append(out, blockJSON{Type: BlockText, Text: v.Text})
			case ThinkingBlock:
				out = append(out, blockJSON{Type: BlockThinking, Thinking: v.Thinking})
			case ToolUseBlock:
				out = append(out, blockJSON{Type: BlockToolUse, ID: v.ID, Name: v.Name, Input: v.Input})
			case ToolResultBlock:
				out = append(out, blockJSON{Type: BlockToolResult, ToolUseID: v.ToolUseID, Text: v.Text, IsError: v.IsError})
			case UnknownBlock:
				out = append(out, blockJSON{Type: BlockUnknown, Original: v.Type})
			}
		}
		return json.Marshal(out)
	default:
		return []byte(`""`), nil
	}
}
