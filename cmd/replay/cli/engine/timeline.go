package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/replayhq/cli/cmd/replay/cli/branch"
	"github.com/replayhq/cli/cmd/replay/cli/jsonutil"
	"github.com/replayhq/cli/cmd/replay/cli/paths"
	"github.com/replayhq/cli/cmd/replay/cli/validation"
)

// Timeline is the engine's view of what is currently live.
//
// The transcript itself is append-only and never modified; the live
// timeline is its first BaseTurnCount turns followed by any turns spliced
// back by redo. Spliced turns exist nowhere else once restored from a
// branch, so the timeline is persisted alongside the branch tree.
type Timeline struct {
	SessionID     string                `json:"session_id"`
	BaseTurnCount int                   `json:"base_turn_count"`
	Splice        []branch.ArchivedTurn `json:"splice,omitempty"`
}

// TimelineStore persists timelines under
// .replay/sessions/<session-id>/timeline.json.
type TimelineStore struct {
	baseDir string
}

// NewTimelineStore creates a timeline store rooted at the repository's
// .replay/sessions directory.
func NewTimelineStore() (*TimelineStore, error) {
	base, err := paths.AbsPath(paths.SessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sessions directory: %w", err)
	}
	return &TimelineStore{baseDir: base}, nil
}

// NewTimelineStoreWithDir creates a timeline store with a custom base
// directory. This is useful for testing.
func NewTimelineStoreWithDir(baseDir string) *TimelineStore {
	return &TimelineStore{baseDir: baseDir}
}

// Load loads the timeline for a session.
// Returns (nil, nil) when no timeline has been saved yet.
func (s *TimelineStore) Load(sessionID string) (*Timeline, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	file := s.filePath(sessionID)

	data, err := os.ReadFile(file) //nolint:gosec // file is derived from a validated sessionID
	if os.IsNotExist(err) {
		return nil, nil //nolint:nilnil // nil,nil indicates no saved timeline (expected case)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read timeline: %w", err)
	}

	var tl Timeline
	if err := json.Unmarshal(data, &tl); err != nil {
		return nil, fmt.Errorf("failed to unmarshal timeline: %w", err)
	}
	return &tl, nil
}

// Save saves the timeline atomically.
func (s *TimelineStore) Save(tl *Timeline) error {
	if err := validation.ValidateSessionID(tl.SessionID); err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	dir := filepath.Join(s.baseDir, tl.SessionID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := jsonutil.MarshalIndentWithNewline(tl, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal timeline: %w", err)
	}

	file := s.filePath(tl.SessionID)

	tmpFile := file + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write timeline: %w", err)
	}
	if err := os.Rename(tmpFile, file); err != nil {
		return fmt.Errorf("failed to rename timeline file: %w", err)
	}
	return nil
}

func (s *TimelineStore) filePath(sessionID string) string {
	return filepath.Join(s.baseDir, sessionID, paths.TimelineFileName)
}
