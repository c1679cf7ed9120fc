package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/replayhq/cli/cmd/replay/cli/jsonutil"
	"github.com/replayhq/cli/cmd/replay/cli/paths"
	"github.com/replayhq/cli/cmd/replay/cli/settings"
	"github.com/spf13/cobra"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change Replay settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSettingsGet(cmd)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the effective settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSettingsGet(cmd)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a settings key in .replay/settings.json",
		Long: `Set a settings key. Supported keys:
  enabled              true|false
  log_level            debug|info|warn|error
  context_lines        positive integer
  confirm_destructive  true|false
  telemetry            true|false`,
		Args: cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			return runSettingsSet(args[0], args[1])
		},
	})

	return cmd
}

func runSettingsGet(cmd *cobra.Command) error {
	cfg, err := settings.Load()
	if err != nil {
		return err
	}
	data, err := jsonutil.MarshalIndentWithNewline(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// runSettingsSet rewrites .replay/settings.json with one key changed.
// The file is read raw (not through Load) so local overrides and defaults
// don't leak into the committed settings file.
func runSettingsSet(key, value string) error {
	settingsPath, err := paths.AbsPath(settings.SettingsFile)
	if err != nil {
		settingsPath = settings.SettingsFile
	}

	raw := map[string]json.RawMessage{}
	if data, err := os.ReadFile(settingsPath); err == nil { //nolint:gosec // path is from AbsPath or constant
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("parsing settings file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("reading settings file: %w", err)
	}

	encoded, err := encodeSettingsValue(key, value)
	if err != nil {
		return err
	}
	raw[key] = encoded

	data, err := jsonutil.MarshalIndentWithNewline(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}

	replayDir, err := paths.AbsPath(paths.ReplayDir)
	if err != nil {
		replayDir = paths.ReplayDir
	}
	if err := os.MkdirAll(replayDir, 0o750); err != nil {
		return fmt.Errorf("creating .replay directory: %w", err)
	}
	if err := os.WriteFile(settingsPath, data, 0o600); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	return nil
}

func encodeSettingsValue(key, value string) (json.RawMessage, error) {
	switch key {
	case "enabled", "confirm_destructive", "telemetry":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("key %s takes true or false, got %q", key, value)
		}
		return json.Marshal(b)
	case "log_level":
		switch value {
		case "debug", "info", "warn", "error":
			return json.Marshal(value)
		default:
			return nil, fmt.Errorf("invalid log level %q", value)
		}
	case "context_lines":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("key context_lines takes a positive integer, got %q", value)
		}
		return json.Marshal(n)
	default:
		return nil, fmt.Errorf("unknown settings key %q", key)
	}
}
