package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/replayhq/cli/cmd/replay/cli/action"
	"github.com/replayhq/cli/cmd/replay/cli/diff"
	"github.com/replayhq/cli/cmd/replay/cli/engine"
)

func TestPrintPlanPreview(t *testing.T) {
	plan := &engine.Plan{
		Kind:      engine.KindUndo,
		TurnCount: 2,
		Files: []engine.FileSummary{
			{Path: "a.txt", Stats: diff.Stats{Added: 1, Removed: 1}},
			{Path: "b.txt", Stats: diff.Stats{Added: 3}, Created: true},
			{Path: "c.txt", Stats: diff.Stats{Removed: 2}, Deleted: true},
		},
		LostDeletions: []action.Deletion{{Path: "junk.txt", Recursive: true}},
	}

	var buf bytes.Buffer
	printPlanPreview(&buf, plan)
	out := buf.String()

	for _, want := range []string{
		"Undo 2 turn(s):",
		"modify a.txt (+1/-1)",
		"create b.txt (+3)",
		"delete c.txt (-2)",
		"junk.txt (recursive)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("preview missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPlanDiff_EditHunkWithInlineMarkers(t *testing.T) {
	plan := &engine.Plan{
		Kind: engine.KindUndo,
		Steps: []action.Action{{
			Kind:      action.KindEdit,
			FilePath:  "a.txt",
			OldString: "the quick brown fox\n",
			NewString: "the quick red fox\n",
		}},
	}

	var buf bytes.Buffer
	printPlanDiff(&buf, plan, 3)
	out := buf.String()

	for _, want := range []string{
		"edit a.txt",
		"@@ -1,1 +1,1 @@",
		"- the quick brown fox",
		"+ the quick red fox",
		"[-brown-]",
		"{+red+}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPlanDiff_WriteShowsContext(t *testing.T) {
	plan := &engine.Plan{
		Kind: engine.KindRedo,
		Steps: []action.Action{{
			Kind:         action.KindWrite,
			FilePath:     "a.txt",
			PriorContent: "a\nb\nc\n",
			Content:      "a\nb\nc\nd\n",
			FileExisted:  true,
		}},
	}

	var buf bytes.Buffer
	printPlanDiff(&buf, plan, 1)
	out := buf.String()

	for _, want := range []string{
		"write a.txt",
		"@@ -3,1 +3,2 @@",
		"  c",
		"+ d",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "~") {
		t.Errorf("pure insertion should not get an inline-marker line:\n%s", out)
	}
	// Lines outside the configured context stay hidden.
	if strings.Contains(out, "  a\n") {
		t.Errorf("line beyond context radius leaked into output:\n%s", out)
	}
}

func TestPrintPlanDiff_DeleteShowsRemovals(t *testing.T) {
	plan := &engine.Plan{
		Kind: engine.KindUndo,
		Steps: []action.Action{{
			Kind:         action.KindWrite,
			FilePath:     "gone.txt",
			RemoveFile:   true,
			PriorContent: "x\n",
		}},
	}

	var buf bytes.Buffer
	printPlanDiff(&buf, plan, 3)
	out := buf.String()

	if !strings.Contains(out, "delete gone.txt") || !strings.Contains(out, "- x") {
		t.Errorf("deletion diff wrong:\n%s", out)
	}
}

func TestPrintPlanDiff_SkipsNoOpSteps(t *testing.T) {
	plan := &engine.Plan{
		Kind: engine.KindUndo,
		Steps: []action.Action{{
			Kind:      action.KindEdit,
			FilePath:  "a.txt",
			OldString: "same\n",
			NewString: "same\n",
		}},
	}

	var buf bytes.Buffer
	printPlanDiff(&buf, plan, 3)
	if buf.Len() != 0 {
		t.Errorf("no-op step should print nothing, got:\n%s", buf.String())
	}
}

func TestPrintApplyReport(t *testing.T) {
	failed := action.Action{Kind: action.KindWrite, FilePath: "b.txt", FileExisted: true}
	fsErr := &engine.FilesystemError{
		Path: "b.txt",
		Op:   "write",
		Err:  errors.New("disk full"),
		Report: &engine.ApplyReport{
			Applied:   []action.Action{{Kind: action.KindEdit, FilePath: "a.txt"}},
			Failed:    &failed,
			Remaining: []action.Action{{Kind: action.KindEdit, FilePath: "c.txt"}},
		},
	}

	var buf bytes.Buffer
	printApplyReport(&buf, fsErr)
	out := buf.String()

	for _, want := range []string{
		"Filesystem error during write of b.txt: disk full",
		"1 action(s) were applied before the failure",
		"applied: edit a.txt",
		"FAILED:  write b.txt",
		"skipped: edit c.txt",
		"Nothing was rolled back",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestPrintApplyReport_NoReport(t *testing.T) {
	fsErr := &engine.FilesystemError{Path: "a.txt", Op: "read", Err: errors.New("permission denied")}

	var buf bytes.Buffer
	printApplyReport(&buf, fsErr)
	out := buf.String()

	if !strings.Contains(out, "permission denied") {
		t.Errorf("error line missing:\n%s", out)
	}
	if strings.Contains(out, "applied") {
		t.Errorf("reportless error should print only the failure line:\n%s", out)
	}
}
