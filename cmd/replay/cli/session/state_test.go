package session

import (
	"context"
	"testing"
)

func TestStateStore_Roundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewStateStoreWithDir(t.TempDir())

	state := &State{
		SessionID:      "2026-01-02-abc",
		TranscriptPath: "/tmp/session.jsonl",
		LiveTurnCount:  4,
		ActiveBranchID: "a1b2c3d4e5f6",
		LastOperation:  "undo",
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if state.UpdatedAt.IsZero() {
		t.Error("Save should stamp UpdatedAt")
	}

	got, err := store.Load(ctx, "2026-01-02-abc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil {
		t.Fatal("expected saved state")
	}
	if got.LiveTurnCount != 4 || got.ActiveBranchID != "a1b2c3d4e5f6" || got.TranscriptPath != "/tmp/session.jsonl" {
		t.Errorf("unexpected state: %+v", got)
	}
}

func TestStateStore_LoadMissingReturnsNil(t *testing.T) {
	store := NewStateStoreWithDir(t.TempDir())
	got, err := store.Load(context.Background(), "2026-01-02-missing")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unsaved session, got %+v", got)
	}
}

func TestStateStore_Clear(t *testing.T) {
	ctx := context.Background()
	store := NewStateStoreWithDir(t.TempDir())

	if err := store.Save(ctx, &State{SessionID: "2026-01-02-abc"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := store.Clear(ctx, "2026-01-02-abc"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err := store.Load(ctx, "2026-01-02-abc")
	if err != nil || got != nil {
		t.Errorf("state should be gone after Clear: %+v, %v", got, err)
	}

	// Clearing again is not an error.
	if err := store.Clear(ctx, "2026-01-02-abc"); err != nil {
		t.Errorf("Clear on missing state: %v", err)
	}
}

func TestStateStore_List(t *testing.T) {
	ctx := context.Background()
	store := NewStateStoreWithDir(t.TempDir())

	for _, id := range []string{"2026-01-02-a", "2026-01-02-b"} {
		if err := store.Save(ctx, &State{SessionID: id}); err != nil {
			t.Fatalf("Save %s: %v", id, err)
		}
	}

	states, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(states) != 2 {
		t.Errorf("List returned %d states, want 2", len(states))
	}
}

func TestStateStore_RejectsInvalidSessionID(t *testing.T) {
	ctx := context.Background()
	store := NewStateStoreWithDir(t.TempDir())

	if err := store.Save(ctx, &State{SessionID: "../escape"}); err == nil {
		t.Error("expected validation error for traversal in session ID")
	}
	if _, err := store.Load(ctx, "a/b"); err == nil {
		t.Error("expected validation error for separator in session ID")
	}
}
