package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newRedoCmd() *cobra.Command {
	var flags sessionFlags
	var branchID string
	var upTo int
	var yes bool
	var asJSON bool
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "redo",
		Short: "Re-apply undone turns from an archived branch",
		Long: `Re-apply the file changes of an archived branch to the working tree,
splicing its turns back onto the live timeline. By default the most
recently undone branch is redone in full; --upto redoes only its first
n turns, leaving the rest archived.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd.Context(), flags)
			if err != nil {
				return err
			}

			id, err := resolveRedoBranch(cmd.Context(), ws, branchID)
			if err != nil {
				return err
			}
			if id == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Redo cancelled.")
				return nil
			}

			plan, err := ws.Engine.PlanRedo(id, upTo)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPlanPreview(out, plan)
			if showDiff {
				printPlanDiff(out, plan, ws.Settings.ContextLines)
			}

			ok, err := confirmPlan(ws, fmt.Sprintf("Redo %d turn(s)?", plan.RedoCount), yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Redo cancelled.")
				return nil
			}

			return applyPlan(cmd.Context(), out, ws, asJSON)
		},
	}

	registerSessionFlags(cmd, &flags)
	cmd.Flags().StringVar(&branchID, "branch", "", "Branch to redo (defaults to the most recently undone)")
	cmd.Flags().IntVar(&upTo, "upto", 0, "Redo only the first n turns of the branch")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show content hunks for the planned changes")

	return cmd
}

// resolveRedoBranch picks the branch to redo: the explicit flag, the
// session's active branch, the sole archived branch, or an interactive
// choice when several qualify. Returns "" when the user cancelled.
func resolveRedoBranch(ctx context.Context, ws *workspace, branchID string) (string, error) {
	if branchID != "" {
		return branchID, nil
	}

	if state, err := ws.States.Load(ctx, ws.Session.SessionID); err == nil && state != nil && state.ActiveBranchID != "" {
		if _, err := ws.Branches.Get(state.ActiveBranchID); err == nil {
			return state.ActiveBranchID, nil
		}
	}

	entries := ws.Branches.List()
	if len(entries) == 0 {
		return "", errors.New("no archived branches; nothing to redo")
	}
	if len(entries) == 1 {
		return entries[0].Branch.ID, nil
	}

	if !isInteractive() {
		return "", errors.New("multiple archived branches; pass --branch <id>")
	}

	options := make([]huh.Option[string], 0, len(entries)+1)
	for _, e := range entries {
		b := e.Branch
		label := fmt.Sprintf("%s  %d turn(s)  %s", b.ID, len(b.Turns), sanitizeForTerminal(b.Name))
		options = append(options, huh.NewOption(label, b.ID))
	}
	options = append(options, huh.NewOption("Cancel", ""))

	var selected string
	form := NewAccessibleForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select a branch to redo").
				Options(options...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return selected, nil
}
