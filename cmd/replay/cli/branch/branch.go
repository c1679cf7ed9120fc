// Package branch maintains the tree of archived timeline branches a
// session accumulates as turns are undone and redone.
package branch

import (
	"errors"
	"fmt"
	"time"

	"github.com/replayhq/cli/cmd/replay/cli/action"
	"github.com/replayhq/cli/cmd/replay/cli/paths"
	"github.com/replayhq/cli/cmd/replay/cli/session"
)

// ErrBranchNotFound is returned when a branch ID doesn't exist in the tree.
var ErrBranchNotFound = errors.New("branch not found")

// ArchivedTurn is a turn that was undone off the live timeline, together
// with the actions needed to redo it.
type ArchivedTurn struct {
	Turn      session.Turn      `json:"turn"`
	Actions   []action.Action   `json:"actions,omitempty"`
	Deletions []action.Deletion `json:"deletions,omitempty"`
}

// Branch is an archived suffix of the timeline.
//
// BranchPointTurnIndex is the live-timeline index the branch's first turn
// occupied before it was undone: restoring the branch splices its turns
// back starting at that index. ChildBranches were archived off this
// branch's turns while it was live.
type Branch struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name,omitempty"`
	CreatedAt            time.Time      `json:"created_at"`
	BranchPointTurnIndex int            `json:"branch_point_turn_index"`
	Turns                []ArchivedTurn `json:"turns"`
	ChildBranches        []*Branch      `json:"child_branches,omitempty"`
}

// TurnCount returns the number of turns archived in this branch and all
// of its descendants.
func (b *Branch) TurnCount() int {
	count := len(b.Turns)
	for _, child := range b.ChildBranches {
		count += child.TurnCount()
	}
	return count
}

// Tree is a session's full set of archived branches.
// Root branches anchor on the live timeline; nested branches anchor on
// their parent's turns.
type Tree struct {
	SessionID string    `json:"session_id"`
	Roots     []*Branch `json:"branches,omitempty"`
}

// Entry is one branch in depth-first listing order.
type Entry struct {
	Branch *Branch
	Depth  int
}

// Manager owns a session's branch tree and its persistence.
type Manager struct {
	store *Store
	tree  *Tree
}

// NewManager loads (or initializes) the branch tree for a session.
func NewManager(store *Store, sessionID string) (*Manager, error) {
	tree, err := store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		tree = &Tree{SessionID: sessionID}
	}
	return &Manager{store: store, tree: tree}, nil
}

// Archive creates a new branch from an undone timeline suffix.
//
// branchPoint is the live index the first archived turn occupied. Existing
// root branches whose branch point lies inside the archived suffix
// (branch point > branchPoint) re-anchor as children of the new branch:
// their parent turns just left the live timeline.
func (m *Manager) Archive(turns []ArchivedTurn, branchPoint int, name string) (*Branch, error) {
	if len(turns) == 0 {
		return nil, errors.New("cannot archive an empty set of turns")
	}

	newBranch := &Branch{
		ID:                   paths.GenerateID(),
		Name:                 name,
		CreatedAt:            time.Now(),
		BranchPointTurnIndex: branchPoint,
		Turns:                turns,
	}

	var remaining []*Branch
	for _, root := range m.tree.Roots {
		if root.BranchPointTurnIndex > branchPoint {
			newBranch.ChildBranches = append(newBranch.ChildBranches, root)
		} else {
			remaining = append(remaining, root)
		}
	}
	m.tree.Roots = append(remaining, newBranch)

	if err := m.store.Save(m.tree); err != nil {
		return nil, fmt.Errorf("saving branch tree: %w", err)
	}
	return newBranch, nil
}

// Restore removes a branch from the tree and returns it so its turns can
// be re-applied. The branch's children are promoted to roots: once the
// branch's turns are live again, its children anchor on the live timeline.
func (m *Manager) Restore(id string) (*Branch, error) {
	branch, removed := removeBranch(&m.tree.Roots, id)
	if !removed {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, id)
	}

	m.tree.Roots = append(m.tree.Roots, branch.ChildBranches...)
	branch.ChildBranches = nil

	if err := m.store.Save(m.tree); err != nil {
		return nil, fmt.Errorf("saving branch tree: %w", err)
	}
	return branch, nil
}

// RestoreUpTo restores the first upTo turns of a branch.
//
// When upTo covers the whole branch this is a full Restore. Otherwise the
// redone prefix is returned and the branch shrinks in place: its branch
// point advances past the redone turns and it keeps its children, except
// those anchored inside the redone prefix, which are promoted to roots.
func (m *Manager) RestoreUpTo(id string, upTo int) ([]ArchivedTurn, error) {
	target := findBranch(m.tree.Roots, id)
	if target == nil {
		return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, id)
	}
	if upTo <= 0 || upTo > len(target.Turns) {
		return nil, fmt.Errorf("invalid redo range: %d of %d turns", upTo, len(target.Turns))
	}

	if upTo == len(target.Turns) {
		restored, err := m.Restore(id)
		if err != nil {
			return nil, err
		}
		return restored.Turns, nil
	}

	prefix := target.Turns[:upTo]
	target.Turns = target.Turns[upTo:]
	newPoint := target.BranchPointTurnIndex + upTo
	var kept []*Branch
	for _, child := range target.ChildBranches {
		if child.BranchPointTurnIndex < newPoint {
			m.tree.Roots = append(m.tree.Roots, child)
		} else {
			kept = append(kept, child)
		}
	}
	target.ChildBranches = kept
	target.BranchPointTurnIndex = newPoint

	if err := m.store.Save(m.tree); err != nil {
		return nil, fmt.Errorf("saving branch tree: %w", err)
	}
	return prefix, nil
}

// Reattach puts a branch (typically the un-redone remainder after a
// partial restore) back into the tree as a root.
func (m *Manager) Reattach(branch *Branch) error {
	m.tree.Roots = append(m.tree.Roots, branch)
	if err := m.store.Save(m.tree); err != nil {
		return fmt.Errorf("saving branch tree: %w", err)
	}
	return nil
}

// Get finds a branch anywhere in the tree by ID.
func (m *Manager) Get(id string) (*Branch, error) {
	if b := findBranch(m.tree.Roots, id); b != nil {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrBranchNotFound, id)
}

// List returns all branches in depth-first order with their nesting depth.
func (m *Manager) List() []Entry {
	var entries []Entry
	var walk func(branches []*Branch, depth int)
	walk = func(branches []*Branch, depth int) {
		for _, b := range branches {
			entries = append(entries, Entry{Branch: b, Depth: depth})
			walk(b.ChildBranches, depth+1)
		}
	}
	walk(m.tree.Roots, 0)
	return entries
}

// ArchivedTurnCount returns the total number of turns archived across the
// whole tree. Together with the live turn count this is conserved across
// archive/restore pairs.
func (m *Manager) ArchivedTurnCount() int {
	count := 0
	for _, root := range m.tree.Roots {
		count += root.TurnCount()
	}
	return count
}

// Tree returns the underlying tree (read-only use).
func (m *Manager) Tree() *Tree {
	return m.tree
}

func findBranch(branches []*Branch, id string) *Branch {
	for _, b := range branches {
		if b.ID == id {
			return b
		}
		if found := findBranch(b.ChildBranches, id); found != nil {
			return found
		}
	}
	return nil
}

// removeBranch detaches the branch with the given ID from wherever it sits
// in the tree. Returns the branch and whether it was found.
func removeBranch(branches *[]*Branch, id string) (*Branch, bool) {
	for i, b := range *branches {
		if b.ID == id {
			*branches = append((*branches)[:i], (*branches)[i+1:]...)
			return b, true
		}
		if found, ok := removeBranch(&b.ChildBranches, id); ok {
			return found, true
		}
	}
	return nil, false
}
