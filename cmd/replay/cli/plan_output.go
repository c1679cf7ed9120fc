package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/replayhq/cli/cmd/replay/cli/action"
	"github.com/replayhq/cli/cmd/replay/cli/diff"
	"github.com/replayhq/cli/cmd/replay/cli/engine"
	"github.com/replayhq/cli/cmd/replay/cli/jsonutil"
)

// printPlanPreview shows what a plan will do to the working tree.
func printPlanPreview(w io.Writer, plan *engine.Plan) {
	switch plan.Kind {
	case engine.KindUndo:
		fmt.Fprintf(w, "Undo %d turn(s):\n", plan.TurnCount)
	case engine.KindRedo:
		fmt.Fprintf(w, "Redo %d turn(s) from branch %s:\n", plan.RedoCount, plan.BranchID)
	case engine.KindSwitch:
		fmt.Fprintf(w, "Switch to branch %s (undo %d turn(s), redo %d):\n", plan.BranchID, plan.TurnCount, plan.RedoCount)
	}

	if len(plan.Files) == 0 {
		fmt.Fprintln(w, "  no file changes")
	}
	for _, f := range plan.Files {
		switch {
		case f.Created:
			fmt.Fprintf(w, "  create %s (+%d)\n", f.Path, f.Stats.Added)
		case f.Deleted:
			fmt.Fprintf(w, "  delete %s (-%d)\n", f.Path, f.Stats.Removed)
		default:
			fmt.Fprintf(w, "  modify %s (+%d/-%d)\n", f.Path, f.Stats.Added, f.Stats.Removed)
		}
	}

	if len(plan.LostDeletions) > 0 {
		fmt.Fprintln(w, "\nWarning: these files were deleted by shell commands during the")
		fmt.Fprintln(w, "session and their content is not in the log. They will NOT be restored:")
		for _, d := range plan.LostDeletions {
			suffix := ""
			if d.Recursive {
				suffix = " (recursive)"
			}
			fmt.Fprintf(w, "  - %s%s\n", d.Path, suffix)
		}
	}
}

// printPlanDiff renders each step's content change as hunks with the
// configured amount of context. Steps that change nothing print nothing.
func printPlanDiff(w io.Writer, plan *engine.Plan, contextLines int) {
	for i := range plan.Steps {
		step := &plan.Steps[i]
		var oldText, newText string
		switch {
		case step.RemoveFile:
			oldText = step.PriorContent
		case step.Kind == action.KindWrite:
			oldText, newText = step.PriorContent, step.Content
		default:
			oldText, newText = step.OldString, step.NewString
		}

		hunks := diff.HunksContext(oldText, newText, contextLines)
		if len(hunks) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", step.Describe())
		for _, h := range hunks {
			printHunk(w, h)
		}
	}
}

// printHunk prints one hunk with -/+ line markers. A single-line
// replacement gets an extra ~ line marking what changed within the line.
func printHunk(w io.Writer, h diff.Hunk) {
	fmt.Fprintf(w, "  @@ -%d,%d +%d,%d @@\n", h.OldStart+1, h.OldLines, h.NewStart+1, h.NewLines)

	removed, added := 0, 0
	for _, op := range h.Ops {
		prefix := " "
		switch op.Kind {
		case diff.OpAdd:
			prefix = "+"
			added++
		case diff.OpRemove:
			prefix = "-"
			removed++
		case diff.OpEqual:
		}
		fmt.Fprintf(w, "  %s %s\n", prefix, sanitizeForTerminal(op.Line))
	}

	if removed != 1 || added != 1 {
		return
	}
	spans := diff.Refine(h)
	if spans == nil {
		return
	}
	fmt.Fprint(w, "  ~ ")
	for _, s := range spans {
		switch s.Kind {
		case diff.OpRemove:
			fmt.Fprintf(w, "[-%s-]", sanitizeForTerminal(s.Text))
		case diff.OpAdd:
			fmt.Fprintf(w, "{+%s+}", sanitizeForTerminal(s.Text))
		case diff.OpEqual:
			fmt.Fprint(w, sanitizeForTerminal(s.Text))
		}
	}
	fmt.Fprintln(w)
}

// confirmPlan asks the user to confirm a pending plan. Returns false when
// the user declined (the plan is cancelled).
func confirmPlan(ws *workspace, title string, yes bool) (bool, error) {
	if yes || !ws.Settings.ShouldConfirm() {
		return true, nil
	}
	if !isInteractive() {
		_ = ws.Engine.Cancel()
		return false, errors.New("confirmation required; re-run with --yes in non-interactive use")
	}

	var confirm bool
	form := NewAccessibleForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description("Files in your working tree will be rewritten.").
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		_ = ws.Engine.Cancel()
		return false, fmt.Errorf("confirmation cancelled: %w", err)
	}
	if !confirm {
		_ = ws.Engine.Cancel()
	}
	return confirm, nil
}

// applyPlan confirms the engine's pending plan and reports the outcome.
// Conflict and filesystem errors print a detailed explanation and return a
// SilentError so main doesn't print them twice.
func applyPlan(ctx context.Context, w io.Writer, ws *workspace, asJSON bool) error {
	result, err := ws.Engine.Confirm(ctx)
	if err != nil {
		var conflict *engine.ConflictError
		if errors.As(err, &conflict) {
			fmt.Fprintf(w, "Conflict: %s: %s\n", conflict.Path, conflict.Reason)
			fmt.Fprintln(w, "Nothing was changed. Resolve the conflict and try again.")
			return NewSilentError(err)
		}
		var fsErr *engine.FilesystemError
		if errors.As(err, &fsErr) {
			printApplyReport(w, fsErr)
			return NewSilentError(err)
		}
		return err
	}

	if asJSON {
		data, merr := jsonutil.MarshalIndentWithNewline(result, "", "  ")
		if merr != nil {
			return fmt.Errorf("marshaling result: %w", merr)
		}
		_, werr := w.Write(data)
		return werr
	}

	switch result.Kind {
	case engine.KindUndo:
		fmt.Fprintf(w, "Undone. %d action(s) reverted; live timeline now has %d turn(s).\n", result.ActionsApplied, result.LiveTurnCount)
		if result.BranchID != "" {
			fmt.Fprintf(w, "The undone turns were archived as branch %s (redo with 'replay redo').\n", result.BranchID)
		}
	case engine.KindRedo:
		fmt.Fprintf(w, "Redone. %d action(s) re-applied; live timeline now has %d turn(s).\n", result.ActionsApplied, result.LiveTurnCount)
	case engine.KindSwitch:
		fmt.Fprintf(w, "Switched to branch %s. Live timeline now has %d turn(s).\n", result.BranchID, result.LiveTurnCount)
	}
	return nil
}

// printApplyReport explains a partial application. The engine never rolls
// back, so the user needs to see exactly where it stopped.
func printApplyReport(w io.Writer, fsErr *engine.FilesystemError) {
	fmt.Fprintf(w, "Filesystem error during %s of %s: %v\n", fsErr.Op, fsErr.Path, fsErr.Err)
	report := fsErr.Report
	if report == nil {
		return
	}
	fmt.Fprintf(w, "\n%d action(s) were applied before the failure and remain in place:\n", len(report.Applied))
	for i := range report.Applied {
		fmt.Fprintf(w, "  applied: %s\n", report.Applied[i].Describe())
	}
	if report.Failed != nil {
		fmt.Fprintf(w, "  FAILED:  %s\n", report.Failed.Describe())
	}
	for i := range report.Remaining {
		fmt.Fprintf(w, "  skipped: %s\n", report.Remaining[i].Describe())
	}
	fmt.Fprintln(w, "\nThe working tree is in a partial state. Nothing was rolled back; review")
	fmt.Fprintln(w, "the list above before retrying.")
}
