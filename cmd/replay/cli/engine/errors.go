package engine

import (
	"errors"
	"fmt"

	"github.com/replayhq/cli/cmd/replay/cli/action"
)

// ErrBusy is returned when an operation arrives while another is applying.
// Operations fail fast; they are never queued.
var ErrBusy = errors.New("another operation is currently applying")

// ErrNoPendingPlan is returned by Confirm when no plan awaits confirmation.
var ErrNoPendingPlan = errors.New("no plan is pending confirmation")

// ConflictError reports that the working tree no longer matches what an
// action expects. Nothing was applied.
type ConflictError struct {
	Path   string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict in %s: %s", e.Path, e.Reason)
}

// InvalidTargetError reports an unknown branch or an out-of-range turn
// selection.
type InvalidTargetError struct {
	Target string
	Reason string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target %s: %s", e.Target, e.Reason)
}

// ApplyReport describes how far an interrupted application got. The engine
// never rolls back: the applied actions stay applied, and the report tells
// the user exactly where things stopped.
type ApplyReport struct {
	Applied   []action.Action `json:"applied"`
	Failed    *action.Action  `json:"failed,omitempty"`
	Remaining []action.Action `json:"remaining,omitempty"`
}

// FilesystemError reports an I/O failure while applying an action,
// together with the partial-application report.
type FilesystemError struct {
	Path   string
	Op     string
	Err    error
	Report *ApplyReport
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error during %s of %s: %v (%d applied, %d remaining)",
		e.Op, e.Path, e.Err, len(e.Report.Applied), len(e.Report.Remaining))
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
