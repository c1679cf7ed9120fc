package paths_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/replayhq/cli/cmd/replay/cli/paths"
	"github.com/replayhq/cli/cmd/replay/cli/testutil"
)

// chdirRepo creates a scratch git repository, changes into it, and clears
// the root cache so discovery runs against the new directory.
func chdirRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.InitRepo(t, dir)
	t.Chdir(dir)
	paths.ClearRepoRootCache()
	t.Cleanup(paths.ClearRepoRootCache)

	// TempDir may sit behind symlinks (e.g. /tmp on macOS); resolve so the
	// discovered root compares equal.
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		t.Fatalf("resolving temp dir: %v", err)
	}
	return resolved
}

func TestRepoRoot_FromSubdirectory(t *testing.T) {
	root := chdirRepo(t)

	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Chdir(sub)
	paths.ClearRepoRootCache()

	got, err := paths.RepoRoot()
	if err != nil {
		t.Fatalf("RepoRoot: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(got)
	if err != nil {
		t.Fatalf("resolving root: %v", err)
	}
	if resolved != root {
		t.Errorf("RepoRoot = %q, want %q", resolved, root)
	}
}

func TestRepoRoot_OutsideRepository(t *testing.T) {
	t.Chdir(t.TempDir())
	paths.ClearRepoRootCache()
	t.Cleanup(paths.ClearRepoRootCache)

	if _, err := paths.RepoRoot(); err == nil {
		t.Error("expected error outside a git repository")
	}
	if got := paths.RepoRootOr("/fallback"); got != "/fallback" {
		t.Errorf("RepoRootOr = %q, want /fallback", got)
	}
}

func TestAbsPath(t *testing.T) {
	root := chdirRepo(t)

	got, err := paths.AbsPath(paths.SessionsDir)
	if err != nil {
		t.Fatalf("AbsPath: %v", err)
	}
	resolved, err := filepath.EvalSymlinks(filepath.Dir(filepath.Dir(got)))
	if err != nil {
		t.Fatalf("resolving: %v", err)
	}
	if resolved != root {
		t.Errorf("AbsPath root = %q, want %q", resolved, root)
	}

	abs := "/already/absolute"
	if got, err := paths.AbsPath(abs); err != nil || got != abs {
		t.Errorf("AbsPath(%q) = %q, %v", abs, got, err)
	}
}

func TestIsInfrastructurePath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{".replay", true},
		{".replay/sessions/x/state.json", true},
		{".replays/file", false},
		{"src/main.go", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := paths.IsInfrastructurePath(tt.path); got != tt.want {
			t.Errorf("IsInfrastructurePath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestToRelativePath(t *testing.T) {
	cwd := "/home/user/project"
	tests := []struct {
		name string
		abs  string
		want string
	}{
		{"inside cwd", "/home/user/project/src/main.go", "src/main.go"},
		{"is cwd", "/home/user/project", "."},
		{"outside cwd", "/etc/passwd", ""},
		{"already relative", "src/main.go", "src/main.go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := paths.ToRelativePath(tt.abs, cwd); got != tt.want {
				t.Errorf("ToRelativePath(%q) = %q, want %q", tt.abs, got, tt.want)
			}
		})
	}
}

func TestGenerateID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := paths.GenerateID()
		if len(id) != 12 {
			t.Fatalf("GenerateID length = %d, want 12", len(id))
		}
		for _, c := range id {
			if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
				t.Fatalf("GenerateID produced non-hex character %q in %q", c, id)
			}
		}
		if seen[id] {
			t.Fatalf("GenerateID repeated %q", id)
		}
		seen[id] = true
	}
}

func TestSessionDir(t *testing.T) {
	got, err := paths.SessionDir("2026-01-02-abc")
	if err != nil {
		t.Fatalf("SessionDir: %v", err)
	}
	if got != ".replay/sessions/2026-01-02-abc" {
		t.Errorf("SessionDir = %q", got)
	}

	if _, err := paths.SessionDir("../escape"); err == nil {
		t.Error("expected validation error for traversal")
	}
}

func TestExtractSessionIDFromTranscriptPath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/home/u/.claude/projects/-root-x/abc-123.jsonl", "abc-123"},
		{"session.jsonl", "session"},
		{"/path/no-extension", "no-extension"},
	}
	for _, tt := range tests {
		if got := paths.ExtractSessionIDFromTranscriptPath(tt.path); got != tt.want {
			t.Errorf("ExtractSessionIDFromTranscriptPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestCurrentSessionRoundtrip(t *testing.T) {
	chdirRepo(t)

	// Nothing written yet: empty, not an error.
	got, err := paths.ReadCurrentSession()
	if err != nil {
		t.Fatalf("ReadCurrentSession: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty session, got %q", got)
	}

	if err := paths.WriteCurrentSession("2026-01-02-abc"); err != nil {
		t.Fatalf("WriteCurrentSession: %v", err)
	}
	got, err = paths.ReadCurrentSession()
	if err != nil {
		t.Fatalf("ReadCurrentSession: %v", err)
	}
	if got != "2026-01-02-abc" {
		t.Errorf("ReadCurrentSession = %q", got)
	}

	if err := paths.WriteCurrentSession("../escape"); err == nil {
		t.Error("expected validation error for traversal in session ID")
	}
}
