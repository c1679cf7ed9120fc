// Package session reconstructs a parsed transcript into typed conversation
// turns and persists per-session engine state.
package session

import (
	"encoding/json"
	"time"

	"github.com/replayhq/cli/cmd/replay/cli/transcript"
)

// BlockKind classifies a content block within a turn.
type BlockKind string

const (
	// BlockText is assistant prose.
	BlockText BlockKind = "text"
	// BlockThinking is assistant reasoning content.
	BlockThinking BlockKind = "thinking"
	// BlockToolUse is a tool invocation with its matched result.
	BlockToolUse BlockKind = "tool_use"
	// BlockSubAgent groups the activity of a spawned sub-agent.
	BlockSubAgent BlockKind = "sub_agent"
)

// ToolUse is a tool invocation paired with its result.
// HasResult is false when the log ends before the result arrives.
type ToolUse struct {
	ID        string
	Name      string
	Input     transcript.ToolInput
	RawInput  json.RawMessage
	Result    string
	HasResult bool
	IsError   bool
}

// SubAgent holds the activity a Task tool spawned on a sidechain.
type SubAgent struct {
	Type   string
	Prompt string
	Blocks []Block
}

// Block is one ordered content block of a turn.
// Exactly one of Text, ToolUse, or SubAgent is meaningful per Kind.
type Block struct {
	Kind     BlockKind
	Text     string
	ToolUse  *ToolUse
	SubAgent *SubAgent
}

// Turn is one user prompt and everything the agent did in response.
type Turn struct {
	// Index is the position in the live timeline, 0-based.
	Index int

	// UserText is the prompt that started the turn.
	UserText string

	// Blocks are the agent's response blocks in emission order.
	Blocks []Block

	// StartUUID and EndUUID bound the turn's lines in the log.
	StartUUID string
	EndUUID   string

	// StartedAt is the timestamp of the turn's user line.
	StartedAt time.Time

	// Model is the model that produced the turn's assistant lines.
	Model string

	// Usage aggregates token counts across the turn's assistant lines.
	Usage transcript.Usage

	// IsCompaction marks a compaction-summary turn. Its UserText holds
	// the summary text and it carries no actions. The summary occupies
	// its own timeline index rather than annotating the turn that
	// begins after it.
	IsCompaction bool

	// PreCompaction marks turns that precede a compaction marker. They
	// remain parsed and undoable but are displayed as compacted history.
	PreCompaction bool
}

// ToolUses returns the turn's tool invocations in order, including those
// inside sub-agent blocks (sub-agent actions attribute to the parent turn).
func (t *Turn) ToolUses() []*ToolUse {
	var uses []*ToolUse
	var walk func(blocks []Block)
	walk = func(blocks []Block) {
		for i := range blocks {
			switch blocks[i].Kind {
			case BlockToolUse:
				uses = append(uses, blocks[i].ToolUse)
			case BlockSubAgent:
				walk(blocks[i].SubAgent.Blocks)
			case BlockText, BlockThinking:
			}
		}
	}
	walk(t.Blocks)
	return uses
}

// Summary returns a short single-line description of the turn for pickers
// and listings.
func (t *Turn) Summary(maxLen int) string {
	text := t.UserText
	if t.IsCompaction {
		text = "[compaction] " + text
	}
	// Collapse to a single line
	out := make([]rune, 0, maxLen)
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
		if len(out) >= maxLen {
			return string(out[:maxLen-3]) + "..."
		}
	}
	return string(out)
}

// Stats aggregates counts across a parsed session.
type Stats struct {
	Turns               int `json:"turns"`
	ToolCalls           int `json:"tool_calls"`
	InputTokens         int `json:"input_tokens"`
	OutputTokens        int `json:"output_tokens"`
	CacheReadTokens     int `json:"cache_read_tokens"`
	CacheCreationTokens int `json:"cache_creation_tokens"`
	Warnings            int `json:"warnings"`
}

// Session is the fully parsed form of one agent session.
type Session struct {
	SessionID string
	Turns     []Turn
	Warnings  []transcript.ParseWarning

	doc *transcript.Document
}

// Document returns the underlying parsed transcript, used for pre-write
// snapshot lookups during action extraction.
func (s *Session) Document() *transcript.Document {
	return s.doc
}

// Stats computes aggregate counts for the session.
func (s *Session) Stats() Stats {
	st := Stats{
		Turns:    len(s.Turns),
		Warnings: len(s.Warnings),
	}
	for i := range s.Turns {
		st.ToolCalls += len(s.Turns[i].ToolUses())
		st.InputTokens += s.Turns[i].Usage.InputTokens
		st.OutputTokens += s.Turns[i].Usage.OutputTokens
		st.CacheReadTokens += s.Turns[i].Usage.CacheReadInputTokens
		st.CacheCreationTokens += s.Turns[i].Usage.CacheCreationInputTokens
	}
	return st
}
