package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/replayhq/cli/cmd/replay/cli/jsonutil"
	"github.com/replayhq/cli/cmd/replay/cli/validation"
	"github.com/replayhq/cli/redact"
	"github.com/spf13/cobra"
)

func newBranchesCmd() *cobra.Command {
	var flags sessionFlags

	cmd := &cobra.Command{
		Use:   "branches",
		Short: "List and inspect archived timeline branches",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return runBranchesList(cmd.OutOrStdout(), ws, false)
		},
	}

	registerSessionFlags(cmd, &flags)
	cmd.AddCommand(newBranchesListCmd())
	cmd.AddCommand(newBranchesShowCmd())
	cmd.AddCommand(newBranchesSwitchCmd())

	return cmd
}

func newBranchesListCmd() *cobra.Command {
	var flags sessionFlags
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived branches as a tree",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return runBranchesList(cmd.OutOrStdout(), ws, asJSON)
		},
	}

	registerSessionFlags(cmd, &flags)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}

func runBranchesList(w io.Writer, ws *workspace, asJSON bool) error {
	if asJSON {
		data, err := jsonutil.MarshalIndentWithNewline(ws.Branches.Tree(), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling branch tree: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	entries := ws.Branches.List()
	if len(entries) == 0 {
		fmt.Fprintln(w, "No archived branches. Undoing turns creates one.")
		return nil
	}

	live := len(ws.Engine.LiveTurns())
	fmt.Fprintf(w, "Live timeline: %d turn(s). Archived: %d turn(s) in %d branch(es).\n\n",
		live, ws.Branches.ArchivedTurnCount(), len(entries))

	for _, e := range entries {
		b := e.Branch
		indent := strings.Repeat("  ", e.Depth)
		name := sanitizeForTerminal(b.Name)
		if name == "" {
			name = "(unnamed)"
		}
		fmt.Fprintf(w, "%s%s  @turn %d  %d turn(s)  %s  %s\n",
			indent, b.ID, b.BranchPointTurnIndex, len(b.Turns),
			b.CreatedAt.Format("2006-01-02 15:04"), name)
	}
	return nil
}

func newBranchesShowCmd() *cobra.Command {
	var flags sessionFlags
	var doRedact bool

	cmd := &cobra.Command{
		Use:   "show <branch-id>",
		Short: "Show the turns archived in a branch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateBranchID(args[0]); err != nil {
				return err
			}
			ws, err := loadWorkspace(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return runBranchesShow(cmd.OutOrStdout(), ws, args[0], doRedact)
		},
	}

	registerSessionFlags(cmd, &flags)
	cmd.Flags().BoolVar(&doRedact, "redact", false, "Redact secrets from displayed prompt text")

	return cmd
}

func runBranchesShow(w io.Writer, ws *workspace, branchID string, doRedact bool) error {
	b, err := ws.Branches.Get(branchID)
	if err != nil {
		return err
	}

	display := func(s string) string {
		if doRedact {
			s = redact.String(s)
		}
		return sanitizeForTerminal(s)
	}

	name := display(b.Name)
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "Branch %s  %s\n", b.ID, name)
	fmt.Fprintf(w, "Anchors at live turn %d, created %s\n\n", b.BranchPointTurnIndex, b.CreatedAt.Format("2006-01-02 15:04"))

	for i := range b.Turns {
		t := &b.Turns[i]
		fmt.Fprintf(w, "%3d  %s\n", b.BranchPointTurnIndex+i, display(t.Turn.Summary(72)))
		for j := range t.Actions {
			fmt.Fprintf(w, "       %s\n", t.Actions[j].Describe())
		}
		for _, d := range t.Deletions {
			fmt.Fprintf(w, "       deleted %s (not restorable)\n", d.Path)
		}
	}

	if len(b.ChildBranches) > 0 {
		fmt.Fprintf(w, "\n%d child branch(es) anchor on these turns; they become redoable after this branch is restored.\n", len(b.ChildBranches))
	}
	return nil
}

func newBranchesSwitchCmd() *cobra.Command {
	var flags sessionFlags
	var yes bool
	var asJSON bool
	var showDiff bool

	cmd := &cobra.Command{
		Use:   "switch <branch-id>",
		Short: "Switch the live timeline to an archived branch",
		Long: `Undo back to the branch's anchor point and redo the branch in full,
as a single confirmed operation. The turns that leave the live timeline
are archived as a new branch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateBranchID(args[0]); err != nil {
				return err
			}
			ws, err := loadWorkspace(cmd.Context(), flags)
			if err != nil {
				return err
			}

			plan, err := ws.Engine.PlanSwitch(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printPlanPreview(out, plan)
			if showDiff {
				printPlanDiff(out, plan, ws.Settings.ContextLines)
			}

			ok, err := confirmPlan(ws, fmt.Sprintf("Switch to branch %s?", args[0]), yes)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "Switch cancelled.")
				return nil
			}

			return applyPlan(cmd.Context(), out, ws, asJSON)
		},
	}

	registerSessionFlags(cmd, &flags)
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the result as JSON")
	cmd.Flags().BoolVar(&showDiff, "diff", false, "Show content hunks for the planned changes")

	return cmd
}
