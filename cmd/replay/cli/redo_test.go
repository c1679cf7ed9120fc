package cli

import (
	"context"
	"strings"
	"testing"

	"github.com/replayhq/cli/cmd/replay/cli/branch"
	"github.com/replayhq/cli/cmd/replay/cli/session"
)

func archiveTestBranch(t *testing.T, ws *workspace, name string) *branch.Branch {
	t.Helper()
	turns := []branch.ArchivedTurn{{Turn: session.Turn{Index: 1, UserText: name}}}
	b, err := ws.Branches.Archive(turns, 1, name)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	return b
}

func TestResolveRedoBranch_ExplicitFlag(t *testing.T) {
	ws := testWorkspace(t, editTranscript())

	id, err := resolveRedoBranch(context.Background(), ws, "abcdef123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "abcdef123456" {
		t.Errorf("id = %q, want the explicit flag value", id)
	}
}

func TestResolveRedoBranch_NoBranches(t *testing.T) {
	ws := testWorkspace(t, editTranscript())

	if _, err := resolveRedoBranch(context.Background(), ws, ""); err == nil {
		t.Error("expected error when nothing is archived")
	}
}

func TestResolveRedoBranch_SoleBranch(t *testing.T) {
	ws := testWorkspace(t, editTranscript())
	b := archiveTestBranch(t, ws, "change it")

	id, err := resolveRedoBranch(context.Background(), ws, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != b.ID {
		t.Errorf("id = %q, want the sole branch %q", id, b.ID)
	}
}

func TestResolveRedoBranch_ActiveBranchPreferred(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t, editTranscript())
	archiveTestBranch(t, ws, "first attempt")
	b2 := archiveTestBranch(t, ws, "second attempt")

	err := ws.States.Save(ctx, &session.State{SessionID: testSessionID, ActiveBranchID: b2.ID})
	if err != nil {
		t.Fatalf("save state: %v", err)
	}

	id, err := resolveRedoBranch(ctx, ws, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != b2.ID {
		t.Errorf("id = %q, want the active branch %q", id, b2.ID)
	}
}

func TestResolveRedoBranch_StaleActiveFallsThrough(t *testing.T) {
	ctx := context.Background()
	ws := testWorkspace(t, editTranscript())
	b := archiveTestBranch(t, ws, "change it")

	// An active branch ID that no longer exists in the tree is ignored.
	err := ws.States.Save(ctx, &session.State{SessionID: testSessionID, ActiveBranchID: "deadbeef0000"})
	if err != nil {
		t.Fatalf("save state: %v", err)
	}

	id, err := resolveRedoBranch(ctx, ws, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != b.ID {
		t.Errorf("id = %q, want fallback to the sole branch %q", id, b.ID)
	}
}

func TestResolveRedoBranch_MultipleNonInteractive(t *testing.T) {
	ws := testWorkspace(t, editTranscript())
	archiveTestBranch(t, ws, "first attempt")
	archiveTestBranch(t, ws, "second attempt")

	// Stdin is not a terminal under go test, so the picker cannot run.
	_, err := resolveRedoBranch(context.Background(), ws, "")
	if err == nil {
		t.Fatal("expected error with multiple branches and no TTY")
	}
	if !strings.Contains(err.Error(), "--branch") {
		t.Errorf("error should point at --branch: %v", err)
	}
}
