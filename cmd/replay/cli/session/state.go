package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/replayhq/cli/cmd/replay/cli/jsonutil"
	"github.com/replayhq/cli/cmd/replay/cli/paths"
	"github.com/replayhq/cli/cmd/replay/cli/validation"
)

// State records where the engine left a session's timeline.
// This is stored in .replay/sessions/<session-id>/state.json
type State struct {
	// SessionID is the unique session identifier
	SessionID string `json:"session_id"`

	// TranscriptPath is the path to the session's JSONL log
	TranscriptPath string `json:"transcript_path,omitempty"`

	// LiveTurnCount is the number of turns currently on the live timeline
	LiveTurnCount int `json:"live_turn_count"`

	// ActiveBranchID is the branch holding the most recently undone turns,
	// the default target for redo. Empty when nothing is undone.
	ActiveBranchID string `json:"active_branch_id,omitempty"`

	// LastOperation is the most recent engine operation ("undo", "redo", "switch")
	LastOperation string `json:"last_operation,omitempty"`

	// UpdatedAt is when the state was last written
	UpdatedAt time.Time `json:"updated_at"`
}

// StateStore persists session state files under the repository's
// .replay/sessions directory.
type StateStore struct {
	// baseDir is the directory holding per-session subdirectories
	baseDir string
}

// NewStateStore creates a state store rooted at the repository's
// .replay/sessions directory.
func NewStateStore() (*StateStore, error) {
	base, err := paths.AbsPath(paths.SessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sessions directory: %w", err)
	}
	return &StateStore{baseDir: base}, nil
}

// NewStateStoreWithDir creates a state store with a custom base directory.
// This is useful for testing.
func NewStateStoreWithDir(baseDir string) *StateStore {
	return &StateStore{baseDir: baseDir}
}

// Load loads the session state for the given session ID.
// Returns (nil, nil) when the state file doesn't exist (not an error condition).
func (s *StateStore) Load(ctx context.Context, sessionID string) (*State, error) {
	_ = ctx // Reserved for future use

	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	stateFile := s.stateFilePath(sessionID)

	data, err := os.ReadFile(stateFile) //nolint:gosec // stateFile is derived from a validated sessionID
	if os.IsNotExist(err) {
		return nil, nil //nolint:nilnil // nil,nil indicates state not found (expected case)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session state: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session state: %w", err)
	}
	return &state, nil
}

// Save saves the session state atomically.
func (s *StateStore) Save(ctx context.Context, state *State) error {
	_ = ctx // Reserved for future use

	if err := validation.ValidateSessionID(state.SessionID); err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	state.UpdatedAt = time.Now()

	dir := filepath.Join(s.baseDir, state.SessionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create session state directory: %w", err)
	}

	data, err := jsonutil.MarshalIndentWithNewline(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}

	stateFile := s.stateFilePath(state.SessionID)

	// Atomic write: write to temp file, then rename
	tmpFile := stateFile + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	if err := os.Rename(tmpFile, stateFile); err != nil {
		return fmt.Errorf("failed to rename session state file: %w", err)
	}
	return nil
}

// Clear removes the session state file for the given session ID.
func (s *StateStore) Clear(ctx context.Context, sessionID string) error {
	_ = ctx // Reserved for future use

	if err := validation.ValidateSessionID(sessionID); err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	stateFile := s.stateFilePath(sessionID)

	if err := os.Remove(stateFile); err != nil {
		if os.IsNotExist(err) {
			return nil // Already gone, not an error
		}
		return fmt.Errorf("failed to remove session state file: %w", err)
	}
	return nil
}

// List returns all saved session states.
func (s *StateStore) List(ctx context.Context) ([]*State, error) {
	entries, err := os.ReadDir(s.baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	var states []*State
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		state, err := s.Load(ctx, entry.Name())
		if err != nil {
			continue // Skip corrupted state files
		}
		if state == nil {
			continue
		}
		states = append(states, state)
	}
	return states, nil
}

// stateFilePath returns the path to a session's state file.
func (s *StateStore) stateFilePath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID, paths.StateFileName)
}
