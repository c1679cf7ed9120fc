package cli

import (
	"testing"

	"github.com/replayhq/cli/cmd/replay/cli/testutil"
)

func TestResolveUndoCount_EmptyTimeline(t *testing.T) {
	ws := testWorkspace(t, testutil.NewTranscript())
	if _, err := resolveUndoCount(ws, nil, 0, false); err == nil {
		t.Error("expected error for an empty live timeline")
	}
}

func TestResolveUndoCount(t *testing.T) {
	ws := testWorkspace(t, editTranscript()) // 2 live turns

	tests := []struct {
		name    string
		args    []string
		toTurn  int
		toSet   bool
		want    int
		wantErr bool
	}{
		{name: "explicit count", args: []string{"2"}, want: 2},
		// Stdin is not a terminal under go test, so the picker is skipped.
		{name: "default single turn", want: 1},
		{name: "to first turn", toTurn: 0, toSet: true, want: 2},
		{name: "to last turn", toTurn: 1, toSet: true, want: 1},
		{name: "to out of range", toTurn: 2, toSet: true, wantErr: true},
		{name: "to negative", toTurn: -1, toSet: true, wantErr: true},
		{name: "non-numeric count", args: []string{"abc"}, wantErr: true},
		{name: "zero count", args: []string{"0"}, wantErr: true},
		{name: "negative count", args: []string{"-1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveUndoCount(ws, tt.args, tt.toTurn, tt.toSet)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("want error, got count %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("count = %d, want %d", got, tt.want)
			}
		})
	}
}
