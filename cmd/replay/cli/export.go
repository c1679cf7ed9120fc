package cli

import (
	"fmt"
	"os"

	"github.com/replayhq/cli/redact"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var flags sessionFlags
	var doRedact bool
	var outPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the session's raw transcript",
		Long: `Write the session's JSONL transcript to stdout or a file.
With --redact, likely secrets in string values are replaced before the
transcript leaves the machine; lines without secrets keep their exact
original bytes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(cmd.Context(), flags)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(ws.TranscriptPath) //nolint:gosec // path recorded by loadWorkspace
			if err != nil {
				return fmt.Errorf("reading transcript: %w", err)
			}

			out := string(content)
			if doRedact {
				out, err = redact.Lines(out)
				if err != nil {
					return fmt.Errorf("redacting transcript: %w", err)
				}
			}

			if outPath == "" {
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			}
			if err := os.WriteFile(outPath, []byte(out), 0o600); err != nil {
				return fmt.Errorf("writing export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d byte(s) to %s\n", len(out), outPath)
			return nil
		},
	}

	registerSessionFlags(cmd, &flags)
	cmd.Flags().BoolVar(&doRedact, "redact", false, "Redact likely secrets before export")
	cmd.Flags().StringVar(&outPath, "out", "", "Write to a file instead of stdout")

	return cmd
}
