package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/replayhq/cli/cmd/replay/cli/branch"
	"github.com/spf13/cobra"
)

func newUndoCmd() *cobra.Command {
	var flags sessionFlags
	var toTurn int
	var list bool
	var yes bool
	var asJSON bool
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "undo [n]",
		Short: "Undo the last turn(s) of the session",
		Long: `Revert the file changes of the last n turns and archive them as a
branch so they can be redone later. With no arguments an interactive
picker selects the turn to rewind to.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := loadWorkspace(cmd.Context(), flags)
			if err != nil {
				return err
			}

			if list {
				return runUndoList(cmd.OutOrStdout(), ws)
			}

			n, err := resolveUndoCount(ws, args, toTurn, cmd.Flags().Changed("to"))
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Undo cancelled.")
				return nil
			}

			plan, err := ws.Engine.PlanUndo(n)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPlanPreview(out, plan)
			if showDiff {
				printPlanDiff(out, plan, ws.Settings.ContextLines)
			}

			ok, err := confirmPlan(ws, fmt.Sprintf("Undo %d turn(s)?", n), yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Undo cancelled.")
				return nil
			}

			return applyPlan(cmd.Context(), out, ws, asJSON)
		},
	}

	registerSessionFlags(cmd, &flags)
	cmd.Flags().IntVar(&toTurn, "to", 0, "Undo every turn at or after this live turn index")
	cmd.Flags().BoolVar(&list, "list", false, "List undoable turns and exit")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show content hunks for the planned changes")

	return cmd
}

// resolveUndoCount turns command input into a turn count. Returns 0 when
// the user cancelled the interactive picker.
func resolveUndoCount(ws *workspace, args []string, toTurn int, toSet bool) (int, error) {
	live := ws.Engine.LiveTurns()
	if len(live) == 0 {
		return 0, fmt.Errorf("the live timeline is empty; nothing to undo")
	}

	if toSet {
		if toTurn < 0 || toTurn >= len(live) {
			return 0, fmt.Errorf("turn %d is out of range (live timeline has %d turns)", toTurn, len(live))
		}
		return len(live) - toTurn, nil
	}

	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid turn count %q", args[0])
		}
		return n, nil
	}

	if !isInteractive() {
		return 1, nil
	}
	return pickUndoTarget(live)
}

// pickUndoTarget shows the most recent turns and asks which one to undo
// back through. Selecting turn i undoes turns i..end.
func pickUndoTarget(live []branch.ArchivedTurn) (int, error) {
	const maxShown = 20
	start := 0
	if len(live) > maxShown {
		start = len(live) - maxShown
	}

	options := make([]huh.Option[int], 0, len(live)-start+1)
	for i := len(live) - 1; i >= start; i-- {
		t := &live[i]
		timestamp := ""
		if !t.Turn.StartedAt.IsZero() {
			timestamp = t.Turn.StartedAt.Format("15:04") + " "
		}
		label := fmt.Sprintf("%3d  %s%s", t.Turn.Index, timestamp, sanitizeForTerminal(t.Turn.Summary(60)))
		options = append(options, huh.NewOption(label, t.Turn.Index))
	}
	options = append(options, huh.NewOption("Cancel", -1))

	var selected int
	form := NewAccessibleForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Undo back through which turn?").
				Description("The selected turn and everything after it will be reverted").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return 0, fmt.Errorf("selection cancelled: %w", err)
	}
	if selected < 0 {
		return 0, nil
	}
	return len(live) - selected, nil
}

func runUndoList(w io.Writer, ws *workspace) error {
	live := ws.Engine.LiveTurns()
	if len(live) == 0 {
		fmt.Fprintln(w, "The live timeline is empty.")
		return nil
	}
	for i := range live {
		printTurn(w, &live[i], false)
	}
	return nil
}
