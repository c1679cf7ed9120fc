// Package transcript parses the append-only JSONL event log an AI coding
// agent writes for a session. Parsing is resilient: malformed lines are
// skipped and reported as warnings, never fatal.
package transcript

import "encoding/json"

// Line type constants matching the "type" field of JSONL lines.
const (
	TypeUser                = "user"
	TypeAssistant           = "assistant"
	TypeProgress            = "progress"
	TypeSystem              = "system"
	TypeSummary             = "summary"
	TypeFileHistorySnapshot = "file-history-snapshot"
)

// Content block type constants within messages.
const (
	ContentTypeText       = "text"
	ContentTypeThinking   = "thinking"
	ContentTypeToolUse    = "tool_use"
	ContentTypeToolResult = "tool_result"
)

// Line represents a single line in the session JSONL log.
// Message and ToolUseResult are kept raw; their shape depends on Type.
type Line struct {
	Type             string          `json:"type"`
	UUID             string          `json:"uuid,omitempty"`
	ParentUUID       string          `json:"parentUuid,omitempty"`
	SessionID        string          `json:"sessionId,omitempty"`
	Timestamp        string          `json:"timestamp,omitempty"`
	IsSidechain      bool            `json:"isSidechain,omitempty"`
	IsMeta           bool            `json:"isMeta,omitempty"`
	IsCompactSummary bool            `json:"isCompactSummary,omitempty"`
	CWD              string          `json:"cwd,omitempty"`
	Version          string          `json:"version,omitempty"`
	Message          json.RawMessage `json:"message,omitempty"`
	ToolUseResult    json.RawMessage `json:"toolUseResult,omitempty"`

	// Summary lines carry the compaction summary text and the UUID of the
	// last line the summary covers.
	Summary  string `json:"summary,omitempty"`
	LeafUUID string `json:"leafUuid,omitempty"`

	// File-history-snapshot lines capture file contents before a write.
	MessageID string           `json:"messageId,omitempty"`
	Snapshot  *HistorySnapshot `json:"snapshot,omitempty"`
}

// HistorySnapshot records per-file backups taken before a mutating tool ran.
type HistorySnapshot struct {
	TrackedFileBackups map[string]FileBackup `json:"trackedFileBackups,omitempty"`
}

// FileBackup holds the pre-mutation content of a single file.
// Exists is false when the file did not exist before the mutation.
type FileBackup struct {
	Content string `json:"content"`
	Exists  bool   `json:"exists"`
}

// UserMessage represents the message payload of a "user" line.
// Content is either a plain string or an array of content blocks.
type UserMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// AssistantMessage represents the message payload of an "assistant" line.
type AssistantMessage struct {
	Role    string         `json:"role"`
	Model   string         `json:"model,omitempty"`
	Content []ContentBlock `json:"content"`
	Usage   *Usage         `json:"usage,omitempty"`
}

// ContentBlock is a single block within an assistant (or tool-result user)
// message. Fields are populated according to Type.
type ContentBlock struct {
	Type string `json:"type"`

	// text / thinking
	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   json.RawMessage `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// Usage carries token accounting for an assistant message.
type Usage struct {
	InputTokens              int `json:"input_tokens"`
	OutputTokens             int `json:"output_tokens"`
	CacheCreationInputTokens int `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int `json:"cache_read_input_tokens,omitempty"`
}

// EditSpec is a single old/new replacement within a MultiEdit input.
type EditSpec struct {
	OldString  string `json:"old_string"`
	NewString  string `json:"new_string"`
	ReplaceAll bool   `json:"replace_all,omitempty"`
}

// ToolInput is the superset of tool input fields the CLI cares about.
// Unknown fields are ignored by json.Unmarshal.
type ToolInput struct {
	FilePath     string `json:"file_path,omitempty"`
	NotebookPath string `json:"notebook_path,omitempty"`

	// Edit
	OldString  string `json:"old_string,omitempty"`
	NewString  string `json:"new_string,omitempty"`
	ReplaceAll bool   `json:"replace_all,omitempty"`

	// MultiEdit
	Edits []EditSpec `json:"edits,omitempty"`

	// Write
	Content string `json:"content,omitempty"`

	// Bash
	Command     string `json:"command,omitempty"`
	Description string `json:"description,omitempty"`

	// Task (sub-agent spawn)
	Prompt       string `json:"prompt,omitempty"`
	SubagentType string `json:"subagent_type,omitempty"`
}
