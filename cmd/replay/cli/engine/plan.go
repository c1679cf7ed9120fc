package engine

import (
	"sort"

	"github.com/replayhq/cli/cmd/replay/cli/action"
	"github.com/replayhq/cli/cmd/replay/cli/diff"
)

// Kind identifies the engine operation a plan will perform.
type Kind string

const (
	// KindUndo removes turns from the live timeline.
	KindUndo Kind = "undo"
	// KindRedo re-applies archived turns.
	KindRedo Kind = "redo"
	// KindSwitch undoes back to a branch point and redoes another branch.
	KindSwitch Kind = "switch"
)

// FileSummary is the per-file preview of what a plan will change.
type FileSummary struct {
	Path    string     `json:"path"`
	Stats   diff.Stats `json:"stats"`
	Created bool       `json:"created,omitempty"`
	Deleted bool       `json:"deleted,omitempty"`
}

// Plan is a fully computed operation awaiting confirmation. Steps are in
// application order; for undo that means actions inverted and reversed
// across and within turns.
type Plan struct {
	Kind  Kind            `json:"kind"`
	Steps []action.Action `json:"steps"`

	// TurnCount is the number of turns leaving the live timeline (undo,
	// and the undo half of switch).
	TurnCount int `json:"turn_count,omitempty"`

	// BranchID and RedoCount describe the redo half.
	BranchID  string `json:"branch_id,omitempty"`
	RedoCount int    `json:"redo_count,omitempty"`

	// Files summarizes per-file line changes for the preview.
	Files []FileSummary `json:"files,omitempty"`

	// LostDeletions lists paths deleted by Bash commands in the affected
	// turns. Their content is not in the log, so they cannot be restored.
	LostDeletions []action.Deletion `json:"lost_deletions,omitempty"`
}

// summarizeFiles computes per-file line stats for a sequence of steps.
// Edit stats come from diffing the old and new strings; writes diff the
// prior content against the new content.
func summarizeFiles(steps []action.Action) []FileSummary {
	byPath := make(map[string]*FileSummary)
	order := []string{}

	get := func(path string) *FileSummary {
		if s, ok := byPath[path]; ok {
			return s
		}
		s := &FileSummary{Path: path}
		byPath[path] = s
		order = append(order, path)
		return s
	}

	for _, step := range steps {
		s := get(step.FilePath)
		switch {
		case step.RemoveFile:
			s.Deleted = true
			s.Stats.Add(diff.Stats{Removed: diff.CountLines(step.PriorContent)})
		case step.Kind == action.KindWrite && !step.FileExisted:
			s.Created = true
			s.Stats.Add(diff.Stats{Added: diff.CountLines(step.Content)})
		case step.Kind == action.KindWrite:
			s.Stats.Add(diff.Lines(step.PriorContent, step.Content))
		default:
			s.Stats.Add(diff.Lines(step.OldString, step.NewString))
		}
	}

	sort.Strings(order)
	summaries := make([]FileSummary, 0, len(order))
	for _, path := range order {
		summaries = append(summaries, *byPath[path])
	}
	return summaries
}
