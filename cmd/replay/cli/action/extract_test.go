package action

import (
	"testing"

	"github.com/replayhq/cli/cmd/replay/cli/session"
	"github.com/replayhq/cli/cmd/replay/cli/testutil"
	"github.com/replayhq/cli/cmd/replay/cli/transcript"
)

func buildSession(t *testing.T, b *testutil.TranscriptBuilder) (*session.Session, *transcript.Document) {
	t.Helper()
	doc, err := transcript.ParseBytes([]byte(b.String()))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return session.FromDocument(doc, "2026-01-02-test-session"), doc
}

func TestFromTurn_Edit(t *testing.T) {
	sess, doc := buildSession(t, testutil.NewTranscript().
		User("change the greeting").
		ToolUse("e1", "Edit", map[string]any{
			"file_path":  "main.go",
			"old_string": "hello",
			"new_string": "goodbye",
		}).
		ToolResult("e1", "ok"))

	actions, deletions := FromTurn(&sess.Turns[0], doc)
	if len(actions) != 1 || len(deletions) != 0 {
		t.Fatalf("got %d actions, %d deletions", len(actions), len(deletions))
	}
	a := actions[0]
	if a.Kind != KindEdit || a.FilePath != "main.go" || a.OldString != "hello" || a.NewString != "goodbye" {
		t.Errorf("unexpected action: %+v", a)
	}
	if a.TurnIndex != 0 || a.ToolUseID != "e1" || a.SubAgent {
		t.Errorf("provenance wrong: %+v", a)
	}
}

func TestFromTurn_MultiEdit(t *testing.T) {
	sess, doc := buildSession(t, testutil.NewTranscript().
		User("rename both").
		ToolUse("m1", "MultiEdit", map[string]any{
			"file_path": "main.go",
			"edits": []map[string]any{
				{"old_string": "a", "new_string": "b"},
				{"old_string": "c", "new_string": "d", "replace_all": true},
			},
		}).
		ToolResult("m1", "ok"))

	actions, _ := FromTurn(&sess.Turns[0], doc)
	if len(actions) != 2 {
		t.Fatalf("expected one action per edit, got %d", len(actions))
	}
	if actions[0].OldString != "a" || actions[1].OldString != "c" {
		t.Errorf("edits out of order: %+v", actions)
	}
	if actions[0].ReplaceAll || !actions[1].ReplaceAll {
		t.Errorf("replace_all not carried: %+v", actions)
	}
	if actions[0].FilePath != "main.go" || actions[1].FilePath != "main.go" {
		t.Errorf("file path not shared across edits: %+v", actions)
	}
}

func TestFromTurn_WriteWithSnapshot(t *testing.T) {
	prior := "old content\n"
	// uuid-0001 is the user prompt line that starts the turn; the snapshot
	// records the pre-write state under that message ID.
	sess, doc := buildSession(t, testutil.NewTranscript().
		User("rewrite it").
		Snapshot("uuid-0001", map[string]*string{"notes.txt": &prior}).
		ToolUse("w1", "Write", map[string]any{
			"file_path": "notes.txt",
			"content":   "new content\n",
		}).
		ToolResult("w1", "ok"))

	actions, _ := FromTurn(&sess.Turns[0], doc)
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	a := actions[0]
	if a.Kind != KindWrite || a.Content != "new content\n" {
		t.Errorf("unexpected action: %+v", a)
	}
	if a.PriorContent != prior || !a.FileExisted {
		t.Errorf("pre-write state not captured: %+v", a)
	}

	inv := a.Invert()
	if inv.Content != prior || inv.PriorContent != "new content\n" || inv.RemoveFile {
		t.Errorf("inverse of overwrite wrong: %+v", inv)
	}
}

func TestFromTurn_WriteCreation(t *testing.T) {
	// No snapshot: the write created the file, so its inverse deletes it.
	sess, doc := buildSession(t, testutil.NewTranscript().
		User("make a new file").
		ToolUse("w1", "Write", map[string]any{
			"file_path": "fresh.txt",
			"content":   "hi\n",
		}).
		ToolResult("w1", "ok"))

	actions, _ := FromTurn(&sess.Turns[0], doc)
	a := actions[0]
	if a.FileExisted {
		t.Errorf("creation reported pre-existing file: %+v", a)
	}

	inv := a.Invert()
	if !inv.RemoveFile || inv.Content != "" {
		t.Errorf("inverse of creation should remove the file: %+v", inv)
	}
	if inv.Describe() != "delete fresh.txt" {
		t.Errorf("Describe() = %q", inv.Describe())
	}

	// Inverting the inverse restores the creation.
	restore := inv.Invert()
	if restore.RemoveFile || restore.Content != "hi\n" {
		t.Errorf("double inverse lost content: %+v", restore)
	}
}

func TestFromTurn_ErroredAndDanglingSkipped(t *testing.T) {
	sess, doc := buildSession(t, testutil.NewTranscript().
		User("try some edits").
		ToolUse("e1", "Edit", map[string]any{
			"file_path":  "a.go",
			"old_string": "x",
			"new_string": "y",
		}).
		ToolError("e1", "string not found").
		ToolUse("e2", "Edit", map[string]any{
			"file_path":  "b.go",
			"old_string": "x",
			"new_string": "y",
		}))

	actions, _ := FromTurn(&sess.Turns[0], doc)
	if len(actions) != 0 {
		t.Errorf("errored and dangling tool uses must not produce actions: %+v", actions)
	}
}

func TestFromTurn_SubAgentActionsFlagged(t *testing.T) {
	sess, doc := buildSession(t, testutil.NewTranscript().
		User("delegate").
		ToolUse("task1", "Task", map[string]any{
			"prompt":        "edit it",
			"subagent_type": "general-purpose",
		}).
		SidechainToolUse("s1", "Edit", map[string]any{
			"file_path":  "sub.go",
			"old_string": "p",
			"new_string": "q",
		}).
		ToolResult("s1", "ok").
		ToolResult("task1", "done"))

	actions, _ := FromTurn(&sess.Turns[0], doc)
	if len(actions) != 1 {
		t.Fatalf("expected 1 action from sub-agent, got %d", len(actions))
	}
	if !actions[0].SubAgent {
		t.Error("sub-agent action not flagged")
	}
	if actions[0].TurnIndex != 0 {
		t.Errorf("sub-agent action attributed to wrong turn: %d", actions[0].TurnIndex)
	}
}

func TestFromTurn_BashDeletionsDeduped(t *testing.T) {
	sess, doc := buildSession(t, testutil.NewTranscript().
		User("clean up").
		ToolUse("b1", "Bash", map[string]any{"command": "rm out.log"}).
		ToolResult("b1", "").
		ToolUse("b2", "Bash", map[string]any{"command": "rm out.log stale.txt"}).
		ToolResult("b2", ""))

	_, deletions := FromTurn(&sess.Turns[0], doc)
	if len(deletions) != 2 {
		t.Fatalf("expected deduped deletions, got %+v", deletions)
	}
	if deletions[0].Path != "out.log" || deletions[1].Path != "stale.txt" {
		t.Errorf("unexpected deletions: %+v", deletions)
	}
	for _, d := range deletions {
		if d.TurnIndex != 0 {
			t.Errorf("deletion missing turn index: %+v", d)
		}
	}
}

func TestInvert_EditSwap(t *testing.T) {
	a := Action{Kind: KindEdit, FilePath: "f.go", OldString: "x", NewString: "y", ReplaceAll: true}
	inv := a.Invert()
	if inv.OldString != "y" || inv.NewString != "x" {
		t.Errorf("edit inverse did not swap strings: %+v", inv)
	}
	if !inv.ReplaceAll {
		t.Error("edit inverse dropped replace_all")
	}
	if back := inv.Invert(); back != a {
		t.Errorf("double inverse changed action: %+v", back)
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name   string
		action Action
		want   string
	}{
		{"edit", Action{Kind: KindEdit, FilePath: "a.go"}, "edit a.go"},
		{"overwrite", Action{Kind: KindWrite, FilePath: "a.go", FileExisted: true}, "write a.go"},
		{"create", Action{Kind: KindWrite, FilePath: "a.go"}, "create a.go"},
		{"remove", Action{Kind: KindWrite, FilePath: "a.go", RemoveFile: true}, "delete a.go"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.action.Describe(); got != tt.want {
				t.Errorf("Describe() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromTurns(t *testing.T) {
	sess, doc := buildSession(t, testutil.NewTranscript().
		User("first").
		ToolUse("e1", "Edit", map[string]any{"file_path": "a.go", "old_string": "x", "new_string": "y"}).
		ToolResult("e1", "ok").
		User("second").
		ToolUse("b1", "Bash", map[string]any{"command": "rm -rf tmp/"}).
		ToolResult("b1", ""))

	actions, deletions := FromTurns(sess.Turns, doc)
	if len(actions) != 2 || len(deletions) != 2 {
		t.Fatalf("expected per-turn slices of length 2, got %d/%d", len(actions), len(deletions))
	}
	if len(actions[0]) != 1 || len(actions[1]) != 0 {
		t.Errorf("turn actions wrong: %+v", actions)
	}
	if len(deletions[1]) != 1 || !deletions[1][0].Recursive || deletions[1][0].TurnIndex != 1 {
		t.Errorf("turn deletions wrong: %+v", deletions)
	}
}
