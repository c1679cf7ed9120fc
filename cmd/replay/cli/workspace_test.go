package cli

import (
	"testing"

	"github.com/replayhq/cli/cmd/replay/cli/branch"
	"github.com/replayhq/cli/cmd/replay/cli/engine"
	"github.com/replayhq/cli/cmd/replay/cli/session"
	"github.com/replayhq/cli/cmd/replay/cli/settings"
	"github.com/replayhq/cli/cmd/replay/cli/testutil"
	"github.com/replayhq/cli/cmd/replay/cli/transcript"
)

const testSessionID = "2026-01-02-cli-test"

// testWorkspace builds a workspace over an in-memory transcript with
// scratch stores, bypassing loadWorkspace's settings and path discovery.
func testWorkspace(t *testing.T, b *testutil.TranscriptBuilder) *workspace {
	t.Helper()
	sessions := t.TempDir()

	doc, err := transcript.ParseBytes([]byte(b.String()))
	if err != nil {
		t.Fatalf("parse transcript: %v", err)
	}
	sess := session.FromDocument(doc, testSessionID)

	store := branch.NewStoreWithDir(sessions)
	mgr, err := branch.NewManager(store, testSessionID)
	if err != nil {
		t.Fatalf("branch manager: %v", err)
	}
	states := session.NewStateStoreWithDir(sessions)
	timelines := engine.NewTimelineStoreWithDir(sessions)

	eng, err := engine.New(sess, mgr, states, timelines, t.TempDir())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	return &workspace{
		Settings: &settings.Settings{Enabled: true, ContextLines: settings.DefaultContextLines},
		Session:  sess,
		Engine:   eng,
		Branches: mgr,
		States:   states,
	}
}

// editTranscript models a session that creates a file and then edits it.
func editTranscript() *testutil.TranscriptBuilder {
	return testutil.NewTranscript().
		User("create the file").
		ToolUse("w1", "Write", map[string]any{"file_path": "a.txt", "content": "one\n"}).
		ToolResult("w1", "ok").
		User("change it").
		ToolUse("e1", "Edit", map[string]any{"file_path": "a.txt", "old_string": "one", "new_string": "two"}).
		ToolResult("e1", "ok")
}
