// Package settings provides configuration loading for Replay.
// This package is separate from cli so leaf packages can import it
// without creating an import cycle.
package settings

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/replayhq/cli/cmd/replay/cli/paths"
)

const (
	// SettingsFile is the path to the Replay settings file
	SettingsFile = ".replay/settings.json"
	// SettingsLocalFile is the path to the local settings override file (not committed)
	SettingsLocalFile = ".replay/settings.local.json"
)

// DefaultContextLines is the number of unchanged lines shown around a hunk
// when none is configured.
const DefaultContextLines = 3

// Settings represents the .replay/settings.json configuration
type Settings struct {
	// Enabled indicates whether Replay is active. When false, CLI commands
	// show a disabled message. Defaults to true.
	Enabled bool `json:"enabled"`

	// LogLevel sets the logging verbosity (debug, info, warn, error).
	// Can be overridden by REPLAY_LOG_LEVEL environment variable.
	// Defaults to "info".
	LogLevel string `json:"log_level,omitempty"`

	// ContextLines is the number of unchanged lines shown around diff hunks.
	ContextLines int `json:"context_lines,omitempty"`

	// ConfirmDestructive controls whether undo/redo/switch always prompt
	// before touching the working tree. Defaults to true; --yes overrides.
	ConfirmDestructive *bool `json:"confirm_destructive,omitempty"`

	// Telemetry controls anonymous usage analytics.
	// nil = not asked yet, true = opted in, false = opted out
	Telemetry *bool `json:"telemetry,omitempty"`
}

// Load loads the Replay settings from .replay/settings.json,
// then applies any overrides from .replay/settings.local.json if it exists.
// Returns default settings if neither file exists.
// Works correctly from any subdirectory within the repository.
func Load() (*Settings, error) {
	settingsFileAbs, err := paths.AbsPath(SettingsFile)
	if err != nil {
		settingsFileAbs = SettingsFile // Fallback to relative
	}
	localSettingsFileAbs, err := paths.AbsPath(SettingsLocalFile)
	if err != nil {
		localSettingsFileAbs = SettingsLocalFile // Fallback to relative
	}

	settings, err := loadFromFile(settingsFileAbs)
	if err != nil {
		return nil, fmt.Errorf("reading settings file: %w", err)
	}

	localData, err := os.ReadFile(localSettingsFileAbs) //nolint:gosec // path is from AbsPath or constant
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading local settings file: %w", err)
		}
		// Local file doesn't exist, continue without overrides
	} else {
		if err := mergeJSON(settings, localData); err != nil {
			return nil, fmt.Errorf("merging local settings: %w", err)
		}
	}

	applyDefaults(settings)

	return settings, nil
}

// loadFromFile loads settings from a specific file path.
// Returns default settings if the file doesn't exist.
func loadFromFile(filePath string) (*Settings, error) {
	settings := &Settings{
		Enabled: true, // Default to enabled
	}

	data, err := os.ReadFile(filePath) //nolint:gosec // path is from caller
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return nil, fmt.Errorf("%w", err)
	}

	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings file: %w", err)
	}
	applyDefaults(settings)

	return settings, nil
}

// mergeJSON merges JSON data into existing settings.
// Only fields present in the JSON override existing settings.
func mergeJSON(settings *Settings, data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing JSON: %w", err)
	}

	if enabledRaw, ok := raw["enabled"]; ok {
		var e bool
		if err := json.Unmarshal(enabledRaw, &e); err != nil {
			return fmt.Errorf("parsing enabled field: %w", err)
		}
		settings.Enabled = e
	}

	if logLevelRaw, ok := raw["log_level"]; ok {
		var ll string
		if err := json.Unmarshal(logLevelRaw, &ll); err != nil {
			return fmt.Errorf("parsing log_level field: %w", err)
		}
		if ll != "" {
			settings.LogLevel = ll
		}
	}

	if contextRaw, ok := raw["context_lines"]; ok {
		var n int
		if err := json.Unmarshal(contextRaw, &n); err != nil {
			return fmt.Errorf("parsing context_lines field: %w", err)
		}
		if n > 0 {
			settings.ContextLines = n
		}
	}

	if confirmRaw, ok := raw["confirm_destructive"]; ok {
		var c bool
		if err := json.Unmarshal(confirmRaw, &c); err != nil {
			return fmt.Errorf("parsing confirm_destructive field: %w", err)
		}
		settings.ConfirmDestructive = &c
	}

	if telemetryRaw, ok := raw["telemetry"]; ok {
		var t bool
		if err := json.Unmarshal(telemetryRaw, &t); err != nil {
			return fmt.Errorf("parsing telemetry field: %w", err)
		}
		settings.Telemetry = &t
	}

	return nil
}

func applyDefaults(settings *Settings) {
	if settings.ContextLines <= 0 {
		settings.ContextLines = DefaultContextLines
	}
}

// ShouldConfirm reports whether destructive operations should prompt.
// Defaults to true when the key is missing.
func (s *Settings) ShouldConfirm() bool {
	if s.ConfirmDestructive == nil {
		return true
	}
	return *s.ConfirmDestructive
}
