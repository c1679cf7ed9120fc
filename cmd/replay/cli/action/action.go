// Package action extracts the file mutations a turn performed from its tool
// invocations, in a form the engine can apply forward (redo) or inverted
// (undo).
package action

import "fmt"

// Kind classifies an archivable action.
type Kind string

const (
	// KindEdit is a string replacement within an existing file.
	KindEdit Kind = "edit"
	// KindWrite is a whole-file write (create or overwrite).
	KindWrite Kind = "write"
)

// Action is one file mutation extracted from a tool invocation.
// Edit actions carry OldString/NewString; Write actions carry Content plus
// the pre-write state captured at extraction time, which is what makes the
// inverse computable later.
type Action struct {
	Kind     Kind   `json:"kind"`
	FilePath string `json:"file_path"`

	// Edit fields
	OldString  string `json:"old_string,omitempty"`
	NewString  string `json:"new_string,omitempty"`
	ReplaceAll bool   `json:"replace_all,omitempty"`

	// Write fields
	Content      string `json:"content,omitempty"`
	PriorContent string `json:"prior_content,omitempty"`

	// FileExisted reports whether the file existed before a write.
	// When false, the inverse of the write is deleting the file.
	FileExisted bool `json:"file_existed,omitempty"`

	// RemoveFile marks an inverted create-by-write: applying the action
	// deletes FilePath instead of writing content.
	RemoveFile bool `json:"remove_file,omitempty"`

	// Provenance
	TurnIndex int    `json:"turn_index"`
	ToolUseID string `json:"tool_use_id,omitempty"`
	SubAgent  bool   `json:"sub_agent,omitempty"`
}

// Invert returns the action that undoes a.
func (a Action) Invert() Action {
	inv := a
	switch a.Kind {
	case KindEdit:
		inv.OldString, inv.NewString = a.NewString, a.OldString
	case KindWrite:
		if a.RemoveFile {
			// Undoing a deletion restores the removed content.
			inv.RemoveFile = false
			inv.Content = a.PriorContent
			inv.PriorContent = ""
			inv.FileExisted = false
			break
		}
		inv.Content = a.PriorContent
		inv.PriorContent = a.Content
		if !a.FileExisted {
			inv.RemoveFile = true
			inv.Content = ""
		}
		inv.FileExisted = true
	}
	return inv
}

// Describe returns a short human-readable description for previews.
func (a Action) Describe() string {
	switch {
	case a.RemoveFile:
		return fmt.Sprintf("delete %s", a.FilePath)
	case a.Kind == KindWrite && !a.FileExisted:
		return fmt.Sprintf("create %s", a.FilePath)
	case a.Kind == KindWrite:
		return fmt.Sprintf("write %s", a.FilePath)
	default:
		return fmt.Sprintf("edit %s", a.FilePath)
	}
}

// Deletion records a path removed by a Bash command. Deletions are tracked
// for display only: the removed content is not in the log, so they are
// never undone.
type Deletion struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive,omitempty"`
	TurnIndex int    `json:"turn_index"`
}
