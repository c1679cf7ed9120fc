package session

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/replayhq/cli/cmd/replay/cli/transcript"
)

// ParseFile parses a session log file into a Session.
func ParseFile(path, sessionID string) (*Session, error) {
	doc, err := transcript.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc, sessionID), nil
}

// FromDocument assembles turns from a parsed transcript.
//
// A turn starts at each user line carrying real prompt text. User lines that
// only carry tool results merge into the previous turn: their results are
// matched to pending tool_use blocks by tool_use_id. Sidechain lines group
// under the Task tool_use that spawned them and attribute to the parent turn.
func FromDocument(doc *transcript.Document, sessionID string) *Session {
	b := &builder{
		doc:      doc,
		toolUses: make(map[string]*transcript.ContentBlock),
		pending:  make(map[string]*ToolUse),
	}

	for i := range doc.Lines {
		line := doc.Lines[i]
		switch line.Type {
		case transcript.TypeUser:
			b.userLine(line)
		case transcript.TypeAssistant:
			b.assistantLine(line)
		case transcript.TypeSummary:
			b.summaryLine(line)
		case transcript.TypeSystem, transcript.TypeProgress, transcript.TypeFileHistorySnapshot:
			// No turn content; snapshots are indexed by the transcript parser.
		}
	}
	b.flush()

	// Flag turns preceding the last compaction marker
	lastCompaction := -1
	for i := range b.turns {
		if b.turns[i].IsCompaction {
			lastCompaction = i
		}
	}
	for i := 0; i < lastCompaction; i++ {
		b.turns[i].PreCompaction = true
	}

	return &Session{
		SessionID: sessionID,
		Turns:     b.turns,
		Warnings:  doc.Warnings,
		doc:       doc,
	}
}

type builder struct {
	doc   *transcript.Document
	turns []Turn

	current *Turn

	// toolUses tracks raw tool_use blocks seen so far, by id.
	toolUses map[string]*transcript.ContentBlock

	// pending tracks ToolUse blocks awaiting a result, by tool_use_id.
	pending map[string]*ToolUse

	// openTask is the most recent Task tool_use without a result, used to
	// attach sidechain activity to its spawning block.
	openTask *ToolUse

	// sidechainAgent is the SubAgent currently receiving sidechain blocks.
	sidechainAgent *SubAgent
}

func (b *builder) userLine(line transcript.Line) {
	if line.IsSidechain {
		// Sidechain user lines are sub-agent internals; only their tool
		// results matter for pending sidechain tool uses.
		b.matchResults(line)
		return
	}

	if line.IsCompactSummary {
		b.flush()
		b.turns = append(b.turns, Turn{
			Index:        len(b.turns),
			UserText:     transcript.ExtractUserText(line.Message),
			StartUUID:    line.UUID,
			EndUUID:      line.UUID,
			StartedAt:    parseTimestamp(line.Timestamp),
			IsCompaction: true,
		})
		return
	}

	if transcript.IsUserPrompt(line) {
		b.flush()
		b.current = &Turn{
			Index:     len(b.turns),
			UserText:  transcript.ExtractUserText(line.Message),
			StartUUID: line.UUID,
			EndUUID:   line.UUID,
			StartedAt: parseTimestamp(line.Timestamp),
		}
		return
	}

	// Tool-result-only user line: merge into the current turn.
	b.matchResults(line)
	if b.current != nil && line.UUID != "" {
		b.current.EndUUID = line.UUID
	}
}

func (b *builder) matchResults(line transcript.Line) {
	results := transcript.ToolResults(line.Message)
	if len(results) == 0 {
		return
	}
	for id, block := range results {
		use, ok := b.pending[id]
		if !ok {
			continue
		}
		use.Result = resultText(block)
		use.HasResult = true
		use.IsError = block.IsError
		delete(b.pending, id)
		if b.openTask == use {
			b.openTask = nil
			b.sidechainAgent = nil
		}
	}
}

func (b *builder) assistantLine(line transcript.Line) {
	var msg transcript.AssistantMessage
	if err := json.Unmarshal(line.Message, &msg); err != nil {
		return
	}

	if line.IsSidechain {
		b.sidechainBlocks(msg)
		return
	}

	if b.current == nil {
		// Assistant output before any prompt (resumed logs); start an
		// anonymous turn so the content is not lost.
		b.current = &Turn{
			Index:     len(b.turns),
			StartUUID: line.UUID,
			StartedAt: parseTimestamp(line.Timestamp),
		}
	}

	if b.current.Model == "" {
		b.current.Model = msg.Model
	}
	if msg.Usage != nil {
		b.current.Usage.InputTokens += msg.Usage.InputTokens
		b.current.Usage.OutputTokens += msg.Usage.OutputTokens
		b.current.Usage.CacheCreationInputTokens += msg.Usage.CacheCreationInputTokens
		b.current.Usage.CacheReadInputTokens += msg.Usage.CacheReadInputTokens
	}
	if line.UUID != "" {
		b.current.EndUUID = line.UUID
	}

	for _, cb := range msg.Content {
		b.appendBlock(&b.current.Blocks, cb)
	}
}

// sidechainBlocks routes sidechain assistant content into the sub-agent
// bucket of the spawning Task tool_use.
func (b *builder) sidechainBlocks(msg transcript.AssistantMessage) {
	if b.sidechainAgent == nil {
		agent := &SubAgent{}
		if b.openTask != nil {
			agent.Type = b.openTask.Input.SubagentType
			agent.Prompt = b.openTask.Input.Prompt
		}
		b.sidechainAgent = agent

		if b.current == nil {
			b.current = &Turn{Index: len(b.turns)}
		}
		b.current.Blocks = append(b.current.Blocks, Block{Kind: BlockSubAgent, SubAgent: agent})
	}
	for _, cb := range msg.Content {
		b.appendBlock(&b.sidechainAgent.Blocks, cb)
	}
}

func (b *builder) appendBlock(blocks *[]Block, cb transcript.ContentBlock) {
	switch cb.Type {
	case transcript.ContentTypeText:
		if cb.Text == "" {
			return
		}
		coalesce(blocks, BlockText, cb.Text)
	case transcript.ContentTypeThinking:
		if cb.Thinking == "" {
			return
		}
		coalesce(blocks, BlockThinking, cb.Thinking)
	case transcript.ContentTypeToolUse:
		use := &ToolUse{
			ID:       cb.ID,
			Name:     cb.Name,
			RawInput: cb.Input,
		}
		// Best-effort input decoding; raw input is kept either way.
		_ = json.Unmarshal(cb.Input, &use.Input) //nolint:errcheck // unknown tool inputs stay raw
		*blocks = append(*blocks, Block{Kind: BlockToolUse, ToolUse: use})
		if cb.ID != "" {
			b.pending[cb.ID] = use
		}
		if use.Name == "Task" {
			b.openTask = use
			b.sidechainAgent = nil
		}
	}
}

// coalesce merges consecutive same-kind text blocks.
func coalesce(blocks *[]Block, kind BlockKind, text string) {
	if n := len(*blocks); n > 0 && (*blocks)[n-1].Kind == kind {
		(*blocks)[n-1].Text += "\n\n" + text
		return
	}
	*blocks = append(*blocks, Block{Kind: kind, Text: text})
}

func (b *builder) summaryLine(line transcript.Line) {
	if line.Summary == "" {
		return
	}
	b.flush()
	b.turns = append(b.turns, Turn{
		Index:        len(b.turns),
		UserText:     line.Summary,
		StartUUID:    line.UUID,
		EndUUID:      line.LeafUUID,
		IsCompaction: true,
	})
}

func (b *builder) flush() {
	if b.current == nil {
		return
	}
	b.turns = append(b.turns, *b.current)
	b.current = nil
	b.openTask = nil
	b.sidechainAgent = nil
}

// resultText renders a tool_result content payload as plain text.
// Content is either a JSON string or an array of text blocks.
func resultText(block transcript.ContentBlock) string {
	if len(block.Content) == 0 {
		return ""
	}

	var str string
	if err := json.Unmarshal(block.Content, &str); err == nil {
		return str
	}

	var blocks []transcript.ContentBlock
	if err := json.Unmarshal(block.Content, &blocks); err == nil {
		var texts []string
		for _, cb := range blocks {
			if cb.Type == transcript.ContentTypeText && cb.Text != "" {
				texts = append(texts, cb.Text)
			}
		}
		return strings.Join(texts, "\n")
	}

	return ""
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
