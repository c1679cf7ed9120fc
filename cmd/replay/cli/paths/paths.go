// Package paths defines the on-disk layout of the .replay directory and
// helpers for resolving paths relative to the repository root.
package paths

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"

	"github.com/replayhq/cli/cmd/replay/cli/validation"
)

// Directory constants
const (
	ReplayDir          = ".replay"
	SessionsDir        = ".replay/sessions"
	LogsDir            = ".replay/logs"
	CurrentSessionFile = ".replay/current_session"
)

// Per-session file names
const (
	StateFileName    = "state.json"
	BranchesFileName = "branches.json"
	TimelineFileName = "timeline.json"
)

// repoRootCache caches the repository root to avoid repeated discovery.
// The cache is keyed by the current working directory to handle directory changes.
var (
	repoRootMu       sync.RWMutex
	repoRootCache    string
	repoRootCacheDir string
)

// RepoRoot returns the git repository root directory. Discovery walks up
// from the current directory, so it works from any subdirectory.
// The result is cached per working directory.
// Returns an error if not inside a git repository.
func RepoRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}

	repoRootMu.RLock()
	if repoRootCache != "" && repoRootCacheDir == cwd {
		cached := repoRootCache
		repoRootMu.RUnlock()
		return cached, nil
	}
	repoRootMu.RUnlock()

	repo, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", fmt.Errorf("failed to find git repository root: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to resolve repository worktree: %w", err)
	}
	root := wt.Filesystem.Root()

	repoRootMu.Lock()
	repoRootCache = root
	repoRootCacheDir = cwd
	repoRootMu.Unlock()

	return root, nil
}

// ClearRepoRootCache clears the cached repository root.
// This is primarily useful for testing when changing directories.
func ClearRepoRootCache() {
	repoRootMu.Lock()
	repoRootCache = ""
	repoRootCacheDir = ""
	repoRootMu.Unlock()
}

// RepoRootOr returns the git repository root directory, or the fallback
// if not inside a git repository.
func RepoRootOr(fallback string) string {
	root, err := RepoRoot()
	if err != nil {
		return fallback
	}
	return root
}

// AbsPath returns the absolute path for a relative path within the repository.
// If the path is already absolute, it is returned as-is.
func AbsPath(relPath string) (string, error) {
	if filepath.IsAbs(relPath) {
		return relPath, nil
	}

	root, err := RepoRoot()
	if err != nil {
		return "", err
	}

	return filepath.Join(root, relPath), nil
}

// IsInfrastructurePath returns true if the path is part of CLI infrastructure
// (i.e., inside the .replay directory).
func IsInfrastructurePath(path string) bool {
	return strings.HasPrefix(path, ReplayDir+"/") || path == ReplayDir
}

// ToRelativePath converts an absolute path to relative.
// Returns empty string if the path is outside the working directory.
func ToRelativePath(absPath, cwd string) string {
	if !filepath.IsAbs(absPath) {
		return absPath
	}
	relPath, err := filepath.Rel(cwd, absPath)
	if err != nil || strings.HasPrefix(relPath, "..") {
		return ""
	}
	return relPath
}

// GenerateID generates a unique 12-character hex identifier.
// Uses crypto/rand for secure random generation.
// Returns 12 hex characters (6 bytes = ~281 trillion unique values).
func GenerateID() string {
	b := make([]byte, 6)
	//nolint:errcheck,gosec // crypto/rand.Read is documented to always succeed on supported platforms
	rand.Read(b)
	return hex.EncodeToString(b)
}

// SessionDir returns the path (relative to the repo root) of a session's
// state directory.
func SessionDir(sessionID string) (string, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return "", err
	}
	return SessionsDir + "/" + sessionID, nil
}

// ExtractSessionIDFromTranscriptPath attempts to extract a session ID from a
// transcript path like ~/.claude/projects/<project>/<id>.jsonl.
// If the path doesn't match the expected format, returns the filename stem.
func ExtractSessionIDFromTranscriptPath(transcriptPath string) string {
	base := filepath.Base(filepath.ToSlash(transcriptPath))
	return strings.TrimSuffix(base, ".jsonl")
}

// ReadCurrentSession reads the current session ID from .replay/current_session.
// Returns an empty string (not error) if the file doesn't exist.
// Works correctly from any subdirectory within the repository.
func ReadCurrentSession() (string, error) {
	sessionFile, err := AbsPath(CurrentSessionFile)
	if err != nil {
		sessionFile = CurrentSessionFile
	}
	data, err := os.ReadFile(sessionFile) //nolint:gosec // path is from AbsPath or constant
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read current session file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// WriteCurrentSession writes the session ID to .replay/current_session.
// Creates the .replay directory if it doesn't exist.
func WriteCurrentSession(sessionID string) error {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return err
	}
	replayDirAbs, err := AbsPath(ReplayDir)
	if err != nil {
		replayDirAbs = ReplayDir
	}
	sessionFileAbs, err := AbsPath(CurrentSessionFile)
	if err != nil {
		sessionFileAbs = CurrentSessionFile
	}

	if err := os.MkdirAll(replayDirAbs, 0o750); err != nil {
		return fmt.Errorf("failed to create .replay directory: %w", err)
	}

	if err := os.WriteFile(sessionFileAbs, []byte(sessionID), 0o600); err != nil {
		return fmt.Errorf("failed to write current session file: %w", err)
	}

	return nil
}
