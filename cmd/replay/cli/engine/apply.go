package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/replayhq/cli/cmd/replay/cli/action"
	"github.com/replayhq/cli/cmd/replay/cli/logging"
)

// fileState is the simulated content of one file during prechecking.
type fileState struct {
	content string
	exists  bool
}

// precheck verifies every step against the working tree before anything is
// touched. Steps are simulated in order on in-memory copies, so later
// steps see the effect of earlier ones. Any mismatch aborts the whole
// plan with a ConflictError.
func (e *Engine) precheck(steps []action.Action) error {
	files := make(map[string]*fileState)

	load := func(path string) (*fileState, error) {
		if fs, ok := files[path]; ok {
			return fs, nil
		}
		fs := &fileState{}
		data, err := os.ReadFile(e.resolve(path)) //nolint:gosec // path comes from the session log the user chose to replay
		if err == nil {
			fs.content = string(data)
			fs.exists = true
		} else if !os.IsNotExist(err) {
			return nil, &FilesystemError{Path: path, Op: "read", Err: err, Report: &ApplyReport{Remaining: steps}}
		}
		files[path] = fs
		return fs, nil
	}

	for i := range steps {
		step := steps[i]
		fs, err := load(step.FilePath)
		if err != nil {
			return err
		}

		switch {
		case step.RemoveFile:
			if !fs.exists {
				return &ConflictError{Path: step.FilePath, Reason: "file is already absent"}
			}
			fs.exists = false
			fs.content = ""

		case step.Kind == action.KindWrite:
			if step.FileExisted && !fs.exists {
				return &ConflictError{Path: step.FilePath, Reason: "file no longer exists"}
			}
			fs.exists = true
			fs.content = step.Content

		case step.Kind == action.KindEdit:
			if !fs.exists {
				return &ConflictError{Path: step.FilePath, Reason: "file no longer exists"}
			}
			count := strings.Count(fs.content, step.OldString)
			if count == 0 {
				return &ConflictError{Path: step.FilePath, Reason: "expected text not found; the file was modified outside the session"}
			}
			if count > 1 && !step.ReplaceAll {
				return &ConflictError{Path: step.FilePath, Reason: fmt.Sprintf("expected text occurs %d times; replacement is ambiguous", count)}
			}
			if step.ReplaceAll {
				fs.content = strings.ReplaceAll(fs.content, step.OldString, step.NewString)
			} else {
				fs.content = strings.Replace(fs.content, step.OldString, step.NewString, 1)
			}
		}
	}
	return nil
}

// applySteps applies a prechecked plan to the working tree in order.
// On failure it stops immediately: nothing already applied is rolled back,
// and the returned FilesystemError reports applied/failed/remaining.
// Cancellation is honored between actions, never mid-action.
func (e *Engine) applySteps(ctx context.Context, steps []action.Action) error {
	for i := range steps {
		if err := ctx.Err(); err != nil {
			return &FilesystemError{
				Path: steps[i].FilePath,
				Op:   "apply",
				Err:  err,
				Report: &ApplyReport{
					Applied:   steps[:i],
					Remaining: steps[i:],
				},
			}
		}

		if err := e.applyStep(steps[i]); err != nil {
			failed := steps[i]
			return &FilesystemError{
				Path: failed.FilePath,
				Op:   opName(failed),
				Err:  err,
				Report: &ApplyReport{
					Applied:   steps[:i],
					Failed:    &failed,
					Remaining: steps[i+1:],
				},
			}
		}
		logging.Debug(logging.WithTurn(ctx, steps[i].TurnIndex), "action applied",
			slog.String("action", steps[i].Describe()),
			slog.Int("step", i+1),
			slog.Int("total", len(steps)),
		)
	}
	return nil
}

func (e *Engine) applyStep(step action.Action) error {
	path := e.resolve(step.FilePath)

	switch {
	case step.RemoveFile:
		return os.Remove(path)

	case step.Kind == action.KindWrite:
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return err
		}
		return os.WriteFile(path, []byte(step.Content), 0o644) //nolint:gosec // working-tree files keep standard permissions

	case step.Kind == action.KindEdit:
		data, err := os.ReadFile(path) //nolint:gosec // path comes from the session log
		if err != nil {
			return err
		}
		content := string(data)
		if step.ReplaceAll {
			content = strings.ReplaceAll(content, step.OldString, step.NewString)
		} else {
			content = strings.Replace(content, step.OldString, step.NewString, 1)
		}
		mode := os.FileMode(0o644)
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode()
		}
		return os.WriteFile(path, []byte(content), mode)

	default:
		return fmt.Errorf("unknown action kind %q", step.Kind)
	}
}

// resolve turns an action path into an absolute path under the engine root.
func (e *Engine) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(e.root, path)
}

func opName(a action.Action) string {
	switch {
	case a.RemoveFile:
		return "remove"
	case a.Kind == action.KindWrite:
		return "write"
	default:
		return "edit"
	}
}
