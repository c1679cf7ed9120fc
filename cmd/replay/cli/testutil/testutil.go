// Package testutil provides shared helpers for package tests: scratch git
// repositories and JSONL transcript builders.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/config"
)

// InitRepo initializes a git repository in the given directory with test user config.
func InitRepo(t *testing.T, repoDir string) {
	t.Helper()

	repo, err := git.PlainInit(repoDir, false)
	if err != nil {
		t.Fatalf("failed to init git repo: %v", err)
	}

	// Configure git user for commits
	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("failed to get repo config: %v", err)
	}
	cfg.User.Name = "Test User"
	cfg.User.Email = "test@example.com"

	// Disable GPG signing for test commits
	if cfg.Raw == nil {
		cfg.Raw = config.New()
	}
	cfg.Raw.Section("commit").SetOption("gpgsign", "false")

	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("failed to set repo config: %v", err)
	}
}

// WriteFile creates a file with the given content in the repo directory.
// It creates parent directories as needed.
func WriteFile(t *testing.T, repoDir, path, content string) {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)

	// Create parent directories
	dir := filepath.Dir(fullPath)
	//nolint:gosec // test code, permissions are intentionally standard
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("failed to create directory %s: %v", dir, err)
	}

	//nolint:gosec // test code, permissions are intentionally standard
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// ReadFile reads a file from the repo directory.
func ReadFile(t *testing.T, repoDir, path string) string {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	//nolint:gosec // test code, path is from test setup
	data, err := os.ReadFile(fullPath)
	if err != nil {
		t.Fatalf("failed to read file %s: %v", path, err)
	}
	return string(data)
}

// TryReadFile reads a file from the repo directory, returning empty string if not found.
func TryReadFile(t *testing.T, repoDir, path string) string {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	//nolint:gosec // test code, path is from test setup
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return ""
	}
	return string(data)
}

// FileExists checks if a file exists in the repo directory.
func FileExists(repoDir, path string) bool {
	fullPath := filepath.Join(repoDir, path)
	_, err := os.Stat(fullPath)
	return err == nil
}

// TranscriptBuilder assembles a JSONL transcript for tests, line by line.
// UUIDs and timestamps are generated deterministically.
type TranscriptBuilder struct {
	lines []string
	seq   int
}

// NewTranscript returns an empty transcript builder.
func NewTranscript() *TranscriptBuilder {
	return &TranscriptBuilder{}
}

func (b *TranscriptBuilder) nextUUID() string {
	b.seq++
	return fmt.Sprintf("uuid-%04d", b.seq)
}

func (b *TranscriptBuilder) timestamp() string {
	return fmt.Sprintf("2026-01-02T10:%02d:00.000Z", b.seq%60)
}

// RawLine appends a verbatim line (used for malformed-input tests).
func (b *TranscriptBuilder) RawLine(line string) *TranscriptBuilder {
	b.lines = append(b.lines, line)
	return b
}

// User appends a user prompt line.
func (b *TranscriptBuilder) User(text string) *TranscriptBuilder {
	line := map[string]any{
		"type":      "user",
		"uuid":      b.nextUUID(),
		"timestamp": b.timestamp(),
		"message": map[string]any{
			"role":    "user",
			"content": text,
		},
	}
	return b.appendJSON(line)
}

// AssistantText appends an assistant line with a single text block.
func (b *TranscriptBuilder) AssistantText(text string) *TranscriptBuilder {
	return b.assistant([]map[string]any{
		{"type": "text", "text": text},
	}, false)
}

// ToolUse appends an assistant line invoking a tool.
func (b *TranscriptBuilder) ToolUse(id, name string, input map[string]any) *TranscriptBuilder {
	return b.assistant([]map[string]any{
		{"type": "tool_use", "id": id, "name": name, "input": input},
	}, false)
}

// SidechainToolUse appends a sidechain assistant line invoking a tool,
// attributed to a sub-agent.
func (b *TranscriptBuilder) SidechainToolUse(id, name string, input map[string]any) *TranscriptBuilder {
	return b.assistant([]map[string]any{
		{"type": "tool_use", "id": id, "name": name, "input": input},
	}, true)
}

func (b *TranscriptBuilder) assistant(content []map[string]any, sidechain bool) *TranscriptBuilder {
	line := map[string]any{
		"type":      "assistant",
		"uuid":      b.nextUUID(),
		"timestamp": b.timestamp(),
		"message": map[string]any{
			"role":    "assistant",
			"model":   "test-model",
			"content": content,
		},
	}
	if sidechain {
		line["isSidechain"] = true
	}
	return b.appendJSON(line)
}

// ToolResult appends a user line carrying a tool result.
func (b *TranscriptBuilder) ToolResult(toolUseID, result string) *TranscriptBuilder {
	line := map[string]any{
		"type":      "user",
		"uuid":      b.nextUUID(),
		"timestamp": b.timestamp(),
		"message": map[string]any{
			"role": "user",
			"content": []map[string]any{
				{"type": "tool_result", "tool_use_id": toolUseID, "content": result},
			},
		},
	}
	return b.appendJSON(line)
}

// ToolError appends a user line carrying an errored tool result.
func (b *TranscriptBuilder) ToolError(toolUseID, result string) *TranscriptBuilder {
	line := map[string]any{
		"type":      "user",
		"uuid":      b.nextUUID(),
		"timestamp": b.timestamp(),
		"message": map[string]any{
			"role": "user",
			"content": []map[string]any{
				{"type": "tool_result", "tool_use_id": toolUseID, "content": result, "is_error": true},
			},
		},
	}
	return b.appendJSON(line)
}

// Compaction appends a compaction-summary user line.
func (b *TranscriptBuilder) Compaction(summary string) *TranscriptBuilder {
	line := map[string]any{
		"type":             "user",
		"uuid":             b.nextUUID(),
		"timestamp":        b.timestamp(),
		"isCompactSummary": true,
		"message": map[string]any{
			"role":    "user",
			"content": summary,
		},
	}
	return b.appendJSON(line)
}

// Snapshot appends a file-history-snapshot line recording pre-write backups.
// backups maps file paths to their content; a nil entry marks a file that
// did not exist.
func (b *TranscriptBuilder) Snapshot(messageID string, backups map[string]*string) *TranscriptBuilder {
	files := map[string]any{}
	for path, content := range backups {
		if content == nil {
			files[path] = map[string]any{"exists": false}
		} else {
			files[path] = map[string]any{"content": *content, "exists": true}
		}
	}
	line := map[string]any{
		"type":      "file-history-snapshot",
		"uuid":      b.nextUUID(),
		"messageId": messageID,
		"snapshot": map[string]any{
			"trackedFileBackups": files,
		},
	}
	return b.appendJSON(line)
}

func (b *TranscriptBuilder) appendJSON(line map[string]any) *TranscriptBuilder {
	data, err := json.Marshal(line)
	if err != nil {
		panic(err)
	}
	b.lines = append(b.lines, string(data))
	return b
}

// String returns the transcript as JSONL.
func (b *TranscriptBuilder) String() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// WriteTo writes the transcript to a file under dir and returns its path.
func (b *TranscriptBuilder) WriteTo(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	//nolint:gosec // test code, permissions are intentionally standard
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatalf("failed to write transcript: %v", err)
	}
	return path
}
