package transcript

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseWarning records a line that could not be used during parsing.
// Warnings are non-fatal: the rest of the log is still parsed.
type ParseWarning struct {
	LineNumber int    `json:"line_number"`
	Reason     string `json:"reason"`
}

func (w ParseWarning) String() string {
	return fmt.Sprintf("line %d: %s", w.LineNumber, w.Reason)
}

// Document is the parsed form of a session log: the usable lines in file
// order plus warnings for everything that was skipped.
type Document struct {
	Lines    []Line
	Warnings []ParseWarning

	// snapshots indexes file-history-snapshot lines by messageId for
	// pre-write content lookup.
	snapshots map[string]*HistorySnapshot
}

// SnapshotForMessage returns the file-history snapshot recorded for the
// given message ID, or nil if none exists.
func (d *Document) SnapshotForMessage(messageID string) *HistorySnapshot {
	return d.snapshots[messageID]
}

// BackupForPath looks up the pre-mutation backup of a file. The snapshot
// recorded for preferredMessageID is consulted first; when it has no entry
// for the path, snapshot lines at or before the preferred one are scanned
// in file order and the latest backup wins. Each snapshot captures the
// file just before its own mutation, so the latest earlier one is the
// state this mutation saw; snapshots after it already include its write.
func (d *Document) BackupForPath(preferredMessageID, path string) (FileBackup, bool) {
	if snap := d.snapshots[preferredMessageID]; snap != nil {
		if backup, ok := snap.TrackedFileBackups[path]; ok {
			return backup, true
		}
	}
	var latest FileBackup
	var found bool
	for _, line := range d.Lines {
		if line.Type != TypeFileHistorySnapshot || line.Snapshot == nil {
			continue
		}
		if backup, ok := line.Snapshot.TrackedFileBackups[path]; ok {
			latest = backup
			found = true
		}
		if line.MessageID == preferredMessageID {
			break
		}
	}
	return latest, found
}

// ParseFile opens and parses a session log file.
func ParseFile(path string) (*Document, error) {
	file, err := os.Open(path) //nolint:gosec // path is a controlled transcript file path
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer func() { _ = file.Close() }()

	return Parse(file)
}

// ParseBytes parses session log content from a byte slice.
func ParseBytes(content []byte) (*Document, error) {
	return Parse(bytes.NewReader(content))
}

// Parse reads a JSONL session log.
// Uses bufio.Reader to handle arbitrarily long lines.
// Malformed lines are skipped and recorded as warnings; only a read error
// on the underlying source is fatal.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{
		snapshots: make(map[string]*HistorySnapshot),
	}
	reader := bufio.NewReader(r)

	lineNumber := 0
	for {
		lineBytes, err := reader.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read transcript: %w", err)
		}

		// Handle empty line or EOF without content
		if len(lineBytes) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}
		lineNumber++

		if len(bytes.TrimSpace(lineBytes)) == 0 {
			if err == io.EOF {
				break
			}
			continue
		}

		var line Line
		if jsonErr := json.Unmarshal(lineBytes, &line); jsonErr != nil {
			doc.Warnings = append(doc.Warnings, ParseWarning{
				LineNumber: lineNumber,
				Reason:     "malformed JSON: " + jsonErr.Error(),
			})
		} else if !knownLineType(line.Type) {
			doc.Warnings = append(doc.Warnings, ParseWarning{
				LineNumber: lineNumber,
				Reason:     fmt.Sprintf("unknown line type %q", line.Type),
			})
		} else {
			if line.Type == TypeFileHistorySnapshot && line.MessageID != "" && line.Snapshot != nil {
				doc.snapshots[line.MessageID] = line.Snapshot
			}
			doc.Lines = append(doc.Lines, line)
		}

		if err == io.EOF {
			break
		}
	}

	return doc, nil
}

func knownLineType(t string) bool {
	switch t {
	case TypeUser, TypeAssistant, TypeProgress, TypeSystem, TypeSummary, TypeFileHistorySnapshot:
		return true
	default:
		return false
	}
}

// ExtractUserText extracts user text from a raw user message payload.
// Handles both string and array content formats; tool_result-only content
// yields an empty string.
func ExtractUserText(message json.RawMessage) string {
	var msg UserMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return ""
	}

	// Handle string content
	if str, ok := msg.Content.(string); ok {
		return str
	}

	// Handle array content (only if it contains text blocks)
	if arr, ok := msg.Content.([]interface{}); ok {
		var texts []string
		for _, item := range arr {
			if m, ok := item.(map[string]interface{}); ok {
				if m["type"] == ContentTypeText {
					if text, ok := m["text"].(string); ok {
						texts = append(texts, text)
					}
				}
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n\n")
		}
	}

	return ""
}

// ToolResults extracts the tool_result blocks from a user line's message,
// keyed by tool_use_id. Returns nil when the message has no tool results.
func ToolResults(message json.RawMessage) map[string]ContentBlock {
	var msg struct {
		Content []ContentBlock `json:"content"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		return nil
	}

	var results map[string]ContentBlock
	for _, block := range msg.Content {
		if block.Type != ContentTypeToolResult || block.ToolUseID == "" {
			continue
		}
		if results == nil {
			results = make(map[string]ContentBlock)
		}
		results[block.ToolUseID] = block
	}
	return results
}

// IsUserPrompt reports whether a user line carries real user text rather
// than only tool results or injected meta content.
func IsUserPrompt(line Line) bool {
	if line.Type != TypeUser || line.IsMeta {
		return false
	}
	return ExtractUserText(line.Message) != ""
}
