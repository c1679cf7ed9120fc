package cli

import (
	"fmt"
	"io"

	"github.com/go-git/go-git/v5"
	"github.com/replayhq/cli/cmd/replay/cli/jsonutil"
	"github.com/replayhq/cli/cmd/replay/cli/paths"
	"github.com/replayhq/cli/cmd/replay/cli/session"
	"github.com/replayhq/cli/cmd/replay/cli/sessionid"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var flags sessionFlags
	var asJSON bool
	var warnings bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the session and engine status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return runSessionStatus(cmd.OutOrStdout(), ws, asJSON, warnings)
		},
	}

	registerSessionFlags(cmd, &flags)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&warnings, "warnings", false, "List parse warnings")

	return cmd
}

// statusReport is the JSON shape of 'replay status'.
type statusReport struct {
	SessionID     string        `json:"session_id"`
	AgentSession  string        `json:"agent_session_id,omitempty"`
	EngineState   string        `json:"engine_state"`
	LiveTurns     int           `json:"live_turns"`
	ArchivedTurns int           `json:"archived_turns"`
	Branches      int           `json:"branches"`
	GitBranch     string        `json:"git_branch,omitempty"`
	Stats         session.Stats `json:"stats"`
}

func runSessionStatus(w io.Writer, ws *workspace, asJSON, showWarnings bool) error {
	report := statusReport{
		SessionID:     ws.Session.SessionID,
		AgentSession:  sessionid.AgentSessionID(ws.Session.SessionID),
		EngineState:   ws.Engine.State().String(),
		LiveTurns:     len(ws.Engine.LiveTurns()),
		ArchivedTurns: ws.Branches.ArchivedTurnCount(),
		Branches:      len(ws.Branches.List()),
		GitBranch:     currentGitBranch(),
		Stats:         ws.Session.Stats(),
	}

	if asJSON {
		data, err := jsonutil.MarshalIndentWithNewline(report, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling status: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	fmt.Fprintf(w, "Session:   %s\n", report.SessionID)
	if report.AgentSession != report.SessionID {
		fmt.Fprintf(w, "Agent:     %s\n", report.AgentSession)
	}
	fmt.Fprintf(w, "Engine:    %s\n", report.EngineState)
	fmt.Fprintf(w, "Timeline:  %d live turn(s), %d archived in %d branch(es)\n",
		report.LiveTurns, report.ArchivedTurns, report.Branches)
	if report.GitBranch != "" {
		fmt.Fprintf(w, "Git:       on branch %s\n", report.GitBranch)
	}
	fmt.Fprintf(w, "Activity:  %d tool call(s), %d input / %d output tokens\n",
		report.Stats.ToolCalls, report.Stats.InputTokens, report.Stats.OutputTokens)

	if n := len(ws.Session.Warnings); n > 0 {
		fmt.Fprintf(w, "Warnings:  %d malformed line(s) skipped\n", n)
		if showWarnings {
			writeWarnings(w, ws)
		}
	}
	return nil
}

// currentGitBranch returns the checked-out git branch name, or "" when not
// in a repository or on a detached HEAD.
func currentGitBranch() string {
	root, err := paths.RepoRoot()
	if err != nil {
		return ""
	}
	repo, err := git.PlainOpen(root)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	if !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}
