package cli

import (
	"fmt"
	"io"

	"github.com/replayhq/cli/cmd/replay/cli/branch"
	"github.com/replayhq/cli/cmd/replay/cli/jsonutil"
	"github.com/spf13/cobra"
)

func newLogCmd() *cobra.Command {
	var flags sessionFlags
	var asJSON bool
	var full bool

	cmd := &cobra.Command{
		Use:   "log",
		Short: "List the session's turns",
		Long:  "List the parsed turns of the current session's live timeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd.Context(), flags)
			if err != nil {
				return err
			}
			return runLog(cmd.OutOrStdout(), ws, asJSON, full)
		},
	}

	registerSessionFlags(cmd, &flags)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&full, "full", false, "Show tool calls and file changes per turn")

	return cmd
}

// logEntry is the JSON shape of one live turn.
type logEntry struct {
	Index        int      `json:"index"`
	StartedAt    string   `json:"started_at,omitempty"`
	Prompt       string   `json:"prompt"`
	Model        string   `json:"model,omitempty"`
	ToolCalls    int      `json:"tool_calls"`
	Actions      int      `json:"actions"`
	Files        []string `json:"files,omitempty"`
	IsCompaction bool     `json:"is_compaction,omitempty"`
	Compacted    bool     `json:"compacted,omitempty"`
}

func runLog(w io.Writer, ws *workspace, asJSON, full bool) error {
	live := ws.Engine.LiveTurns()

	if asJSON {
		entries := make([]logEntry, 0, len(live))
		for i := range live {
			entries = append(entries, makeLogEntry(&live[i]))
		}
		data, err := jsonutil.MarshalIndentWithNewline(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling log: %w", err)
		}
		_, err = w.Write(data)
		return err
	}

	if len(live) == 0 {
		fmt.Fprintln(w, "No turns on the live timeline.")
		return nil
	}

	for i := range live {
		printTurn(w, &live[i], full)
	}

	if n := len(ws.Session.Warnings); n > 0 {
		fmt.Fprintf(w, "\n%d malformed line(s) skipped while parsing; see 'replay status' for details.\n", n)
	}
	return nil
}

func makeLogEntry(t *branch.ArchivedTurn) logEntry {
	entry := logEntry{
		Index:        t.Turn.Index,
		Prompt:       t.Turn.Summary(120),
		Model:        t.Turn.Model,
		ToolCalls:    len(t.Turn.ToolUses()),
		Actions:      len(t.Actions),
		IsCompaction: t.Turn.IsCompaction,
		Compacted:    t.Turn.PreCompaction,
	}
	if !t.Turn.StartedAt.IsZero() {
		entry.StartedAt = t.Turn.StartedAt.Format("2006-01-02 15:04:05")
	}
	seen := map[string]bool{}
	for _, a := range t.Actions {
		if !seen[a.FilePath] {
			seen[a.FilePath] = true
			entry.Files = append(entry.Files, a.FilePath)
		}
	}
	return entry
}

func printTurn(w io.Writer, t *branch.ArchivedTurn, full bool) {
	timestamp := "                "
	if !t.Turn.StartedAt.IsZero() {
		timestamp = t.Turn.StartedAt.Format("2006-01-02 15:04")
	}

	marker := " "
	if t.Turn.IsCompaction {
		marker = "*"
	} else if t.Turn.PreCompaction {
		marker = "~"
	}

	fmt.Fprintf(w, "%s %3d  (%s)  %s\n", marker, t.Turn.Index, timestamp, sanitizeForTerminal(t.Turn.Summary(72)))

	if !full {
		return
	}
	for _, use := range t.Turn.ToolUses() {
		status := ""
		if !use.HasResult {
			status = " [no result]"
		} else if use.IsError {
			status = " [error]"
		}
		fmt.Fprintf(w, "         %s%s\n", use.Name, status)
	}
	for i := range t.Actions {
		fmt.Fprintf(w, "         %s\n", t.Actions[i].Describe())
	}
	for _, d := range t.Deletions {
		suffix := ""
		if d.Recursive {
			suffix = " (recursive)"
		}
		fmt.Fprintf(w, "         deleted %s%s (not restorable)\n", d.Path, suffix)
	}
}

// writeWarnings prints parse warnings with their line numbers.
func writeWarnings(w io.Writer, ws *workspace) {
	for _, warning := range ws.Session.Warnings {
		fmt.Fprintf(w, "  line %d: %s\n", warning.LineNumber, sanitizeForTerminal(warning.Reason))
	}
}
