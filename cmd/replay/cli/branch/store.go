package branch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/replayhq/cli/cmd/replay/cli/jsonutil"
	"github.com/replayhq/cli/cmd/replay/cli/paths"
	"github.com/replayhq/cli/cmd/replay/cli/validation"
)

// Store persists branch trees under .replay/sessions/<session-id>/branches.json.
type Store struct {
	// baseDir is the directory holding per-session subdirectories
	baseDir string
}

// NewStore creates a branch store rooted at the repository's
// .replay/sessions directory.
func NewStore() (*Store, error) {
	base, err := paths.AbsPath(paths.SessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sessions directory: %w", err)
	}
	return &Store{baseDir: base}, nil
}

// NewStoreWithDir creates a branch store with a custom base directory.
// This is useful for testing.
func NewStoreWithDir(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Load loads the branch tree for a session.
// Returns (nil, nil) when no tree has been saved yet.
func (s *Store) Load(sessionID string) (*Tree, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	treeFile := s.treeFilePath(sessionID)

	data, err := os.ReadFile(treeFile) //nolint:gosec // treeFile is derived from a validated sessionID
	if os.IsNotExist(err) {
		return nil, nil //nolint:nilnil // nil,nil indicates no saved tree (expected case)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read branch tree: %w", err)
	}

	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to unmarshal branch tree: %w", err)
	}
	return &tree, nil
}

// Save saves the branch tree atomically.
func (s *Store) Save(tree *Tree) error {
	if err := validation.ValidateSessionID(tree.SessionID); err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	dir := filepath.Join(s.baseDir, tree.SessionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := jsonutil.MarshalIndentWithNewline(tree, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal branch tree: %w", err)
	}

	treeFile := s.treeFilePath(tree.SessionID)

	// Atomic write: write to temp file, then rename
	tmpFile := treeFile + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write branch tree: %w", err)
	}
	if err := os.Rename(tmpFile, treeFile); err != nil {
		return fmt.Errorf("failed to rename branch tree file: %w", err)
	}
	return nil
}

// treeFilePath returns the path to a session's branch tree file.
func (s *Store) treeFilePath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID, paths.BranchesFileName)
}
