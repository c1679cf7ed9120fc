package action

import (
	"github.com/replayhq/cli/cmd/replay/cli/session"
	"github.com/replayhq/cli/cmd/replay/cli/transcript"
)

// Tool names that mutate files.
const (
	toolEdit      = "Edit"
	toolMultiEdit = "MultiEdit"
	toolWrite     = "Write"
	toolBash      = "Bash"
)

// FromTurn extracts the ordered file mutations and display-only deletions a
// turn performed. Sub-agent tool uses attribute to the parent turn with the
// SubAgent flag set. Tool uses whose result is missing or marks an error
// produce no action: the mutation may never have reached the working tree.
func FromTurn(turn *session.Turn, doc *transcript.Document) ([]Action, []Deletion) {
	var actions []Action
	var deletions []Deletion
	seenDeletes := make(map[string]bool)

	var walk func(blocks []session.Block, subAgent bool)
	walk = func(blocks []session.Block, subAgent bool) {
		for i := range blocks {
			block := blocks[i]
			switch block.Kind {
			case session.BlockSubAgent:
				walk(block.SubAgent.Blocks, true)
			case session.BlockToolUse:
				use := block.ToolUse
				if !use.HasResult || use.IsError {
					continue
				}
				switch use.Name {
				case toolEdit:
					actions = append(actions, editAction(turn, use, use.Input.OldString, use.Input.NewString, use.Input.ReplaceAll, subAgent))
				case toolMultiEdit:
					for _, e := range use.Input.Edits {
						actions = append(actions, editAction(turn, use, e.OldString, e.NewString, e.ReplaceAll, subAgent))
					}
				case toolWrite:
					actions = append(actions, writeAction(turn, use, doc, subAgent))
				case toolBash:
					for _, del := range DeletionsFromCommand(use.Input.Command) {
						if seenDeletes[del.Path] {
							continue
						}
						seenDeletes[del.Path] = true
						del.TurnIndex = turn.Index
						deletions = append(deletions, del)
					}
				}
			case session.BlockText, session.BlockThinking:
			}
		}
	}
	walk(turn.Blocks, false)

	return actions, deletions
}

// FromTurns extracts actions for a contiguous range of turns, in turn order.
func FromTurns(turns []session.Turn, doc *transcript.Document) ([][]Action, [][]Deletion) {
	actions := make([][]Action, len(turns))
	deletions := make([][]Deletion, len(turns))
	for i := range turns {
		actions[i], deletions[i] = FromTurn(&turns[i], doc)
	}
	return actions, deletions
}

func editAction(turn *session.Turn, use *session.ToolUse, oldStr, newStr string, replaceAll, subAgent bool) Action {
	path := use.Input.FilePath
	if path == "" {
		path = use.Input.NotebookPath
	}
	return Action{
		Kind:       KindEdit,
		FilePath:   path,
		OldString:  oldStr,
		NewString:  newStr,
		ReplaceAll: replaceAll,
		TurnIndex:  turn.Index,
		ToolUseID:  use.ID,
		SubAgent:   subAgent,
	}
}

func writeAction(turn *session.Turn, use *session.ToolUse, doc *transcript.Document, subAgent bool) Action {
	a := Action{
		Kind:      KindWrite,
		FilePath:  use.Input.FilePath,
		Content:   use.Input.Content,
		TurnIndex: turn.Index,
		ToolUseID: use.ID,
		SubAgent:  subAgent,
	}
	// Pre-write content comes from the file-history snapshot taken before
	// the tool ran. Without one the write is treated as a file creation.
	if doc != nil {
		if backup, ok := doc.BackupForPath(turn.StartUUID, a.FilePath); ok {
			a.PriorContent = backup.Content
			a.FileExisted = backup.Exists
		}
	}
	return a
}
