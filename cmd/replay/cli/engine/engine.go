// Package engine drives undo, redo, and branch switching over a parsed
// session. Every operation is planned first, confirmed explicitly, then
// applied to the working tree in order. Nothing is rolled back on partial
// failure; the caller gets a report of exactly what was applied.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/replayhq/cli/cmd/replay/cli/action"
	"github.com/replayhq/cli/cmd/replay/cli/branch"
	"github.com/replayhq/cli/cmd/replay/cli/logging"
	"github.com/replayhq/cli/cmd/replay/cli/session"
)

// StateKind is the engine's lifecycle state.
type StateKind int

const (
	// Idle means no operation is planned or running.
	Idle StateKind = iota
	// PendingConfirmation means a plan awaits Confirm or Cancel.
	PendingConfirmation
	// Applying means a confirmed plan is touching the working tree.
	Applying
)

func (s StateKind) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingConfirmation:
		return "pending_confirmation"
	case Applying:
		return "applying"
	default:
		return "unknown"
	}
}

// Result reports a completed operation.
type Result struct {
	Kind           Kind   `json:"kind"`
	ActionsApplied int    `json:"actions_applied"`
	BranchID       string `json:"branch_id,omitempty"`
	LiveTurnCount  int    `json:"live_turn_count"`
}

// Engine owns a session's live timeline and applies planned operations.
// It is safe for concurrent use; a second operation arriving while one is
// applying fails fast with ErrBusy.
type Engine struct {
	mu      sync.Mutex
	state   StateKind
	pending *Plan

	sess      *session.Session
	branches  *branch.Manager
	states    *session.StateStore
	timelines *TimelineStore
	root      string

	// base holds the transcript-derived turns with their extracted actions.
	base     []branch.ArchivedTurn
	timeline *Timeline
}

// New builds an engine over a parsed session.
//
// root is the directory relative action paths resolve against. A
// previously saved timeline is reloaded; transcript turns beyond the last
// known total (the agent kept working) are appended to the live timeline.
func New(sess *session.Session, branches *branch.Manager, states *session.StateStore, timelines *TimelineStore, root string) (*Engine, error) {
	e := &Engine{
		sess:      sess,
		branches:  branches,
		states:    states,
		timelines: timelines,
		root:      root,
	}

	doc := sess.Document()
	e.base = make([]branch.ArchivedTurn, len(sess.Turns))
	for i := range sess.Turns {
		acts, dels := action.FromTurn(&sess.Turns[i], doc)
		e.base[i] = branch.ArchivedTurn{
			Turn:      sess.Turns[i],
			Actions:   acts,
			Deletions: dels,
		}
	}

	tl, err := timelines.Load(sess.SessionID)
	if err != nil {
		return nil, err
	}
	if tl == nil {
		tl = &Timeline{SessionID: sess.SessionID, BaseTurnCount: len(e.base)}
	} else {
		// Turn-count conservation: live + archived equals the number of
		// turns ever parsed. Anything past that total is new agent work.
		known := tl.BaseTurnCount + len(tl.Splice) + branches.ArchivedTurnCount()
		for i := known; i < len(e.base); i++ {
			tl.Splice = append(tl.Splice, e.base[i])
		}
		if tl.BaseTurnCount > len(e.base) {
			tl.BaseTurnCount = len(e.base)
		}
	}
	e.timeline = tl

	return e, nil
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() StateKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// PendingPlan returns the plan awaiting confirmation, or nil.
func (e *Engine) PendingPlan() *Plan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pending
}

// LiveTurns returns the live timeline in order, re-indexed to live
// positions.
func (e *Engine) LiveTurns() []branch.ArchivedTurn {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.liveTurnsLocked()
}

func (e *Engine) liveTurnsLocked() []branch.ArchivedTurn {
	live := make([]branch.ArchivedTurn, 0, e.timeline.BaseTurnCount+len(e.timeline.Splice))
	live = append(live, e.base[:e.timeline.BaseTurnCount]...)
	live = append(live, e.timeline.Splice...)
	for i := range live {
		live[i].Turn.Index = i
	}
	return live
}

// PlanUndo plans removing the last n turns from the live timeline.
// Actions are inverted and reversed across and within turns. A plan
// already pending is replaced; planning while applying fails with ErrBusy.
func (e *Engine) PlanUndo(n int) (*Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Applying {
		return nil, ErrBusy
	}

	live := e.liveTurnsLocked()
	if n <= 0 || n > len(live) {
		return nil, &InvalidTargetError{
			Target: fmt.Sprintf("%d turns", n),
			Reason: fmt.Sprintf("live timeline has %d turns", len(live)),
		}
	}

	turns := live[len(live)-n:]
	var steps []action.Action
	var lost []action.Deletion
	for i := len(turns) - 1; i >= 0; i-- {
		for j := len(turns[i].Actions) - 1; j >= 0; j-- {
			steps = append(steps, turns[i].Actions[j].Invert())
		}
		lost = append(lost, turns[i].Deletions...)
	}

	plan := &Plan{
		Kind:          KindUndo,
		TurnCount:     n,
		Steps:         steps,
		Files:         summarizeFiles(steps),
		LostDeletions: lost,
	}
	e.pending = plan
	e.state = PendingConfirmation
	return plan, nil
}

// PlanUndoTo plans undoing every turn at or after the given live index.
func (e *Engine) PlanUndoTo(turnIndex int) (*Plan, error) {
	e.mu.Lock()
	liveLen := e.timeline.BaseTurnCount + len(e.timeline.Splice)
	e.mu.Unlock()
	if turnIndex < 0 || turnIndex >= liveLen {
		return nil, &InvalidTargetError{
			Target: fmt.Sprintf("turn %d", turnIndex),
			Reason: fmt.Sprintf("live timeline has %d turns", liveLen),
		}
	}
	return e.PlanUndo(liveLen - turnIndex)
}

// PlanRedo plans re-applying the first upTo turns of an archived branch.
// upTo <= 0 means the whole branch. The branch must anchor at the current
// timeline tip; a branch anchored earlier needs PlanSwitch.
func (e *Engine) PlanRedo(branchID string, upTo int) (*Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Applying {
		return nil, ErrBusy
	}

	b, err := e.branches.Get(branchID)
	if err != nil {
		return nil, &InvalidTargetError{Target: branchID, Reason: "unknown branch"}
	}
	liveLen := e.timeline.BaseTurnCount + len(e.timeline.Splice)
	if b.BranchPointTurnIndex != liveLen {
		return nil, &InvalidTargetError{
			Target: branchID,
			Reason: fmt.Sprintf("branch anchors at turn %d but the timeline tip is %d; use switch", b.BranchPointTurnIndex, liveLen),
		}
	}
	if upTo <= 0 || upTo > len(b.Turns) {
		upTo = len(b.Turns)
	}

	var steps []action.Action
	for i := 0; i < upTo; i++ {
		steps = append(steps, b.Turns[i].Actions...)
	}

	plan := &Plan{
		Kind:      KindRedo,
		BranchID:  branchID,
		RedoCount: upTo,
		Steps:     steps,
		Files:     summarizeFiles(steps),
	}
	e.pending = plan
	e.state = PendingConfirmation
	return plan, nil
}

// PlanSwitch plans undoing back to a branch's branch point and redoing
// that branch in full, as a single confirmed operation.
func (e *Engine) PlanSwitch(branchID string) (*Plan, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Applying {
		return nil, ErrBusy
	}

	b, err := e.branches.Get(branchID)
	if err != nil {
		return nil, &InvalidTargetError{Target: branchID, Reason: "unknown branch"}
	}
	live := e.liveTurnsLocked()
	if b.BranchPointTurnIndex > len(live) {
		return nil, &InvalidTargetError{
			Target: branchID,
			Reason: fmt.Sprintf("branch anchors at turn %d beyond the live timeline (%d turns)", b.BranchPointTurnIndex, len(live)),
		}
	}

	undoCount := len(live) - b.BranchPointTurnIndex
	undone := live[b.BranchPointTurnIndex:]

	var steps []action.Action
	var lost []action.Deletion
	for i := len(undone) - 1; i >= 0; i-- {
		for j := len(undone[i].Actions) - 1; j >= 0; j-- {
			steps = append(steps, undone[i].Actions[j].Invert())
		}
		lost = append(lost, undone[i].Deletions...)
	}
	for i := range b.Turns {
		steps = append(steps, b.Turns[i].Actions...)
	}

	plan := &Plan{
		Kind:          KindSwitch,
		TurnCount:     undoCount,
		BranchID:      branchID,
		RedoCount:     len(b.Turns),
		Steps:         steps,
		Files:         summarizeFiles(steps),
		LostDeletions: lost,
	}
	e.pending = plan
	e.state = PendingConfirmation
	return plan, nil
}

// Cancel drops any pending plan. Free while nothing is applying.
func (e *Engine) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Applying {
		return ErrBusy
	}
	e.pending = nil
	e.state = Idle
	return nil
}

// Confirm applies the pending plan.
//
// Every step is conflict-checked against the working tree before anything
// is touched; any mismatch aborts with ConflictError and no changes. Once
// application starts, a failure stops immediately without rollback and the
// FilesystemError carries the partial report. Cancellation via ctx is
// honored between actions, never mid-action.
func (e *Engine) Confirm(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	if e.state == Applying {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	if e.state != PendingConfirmation || e.pending == nil {
		e.mu.Unlock()
		return nil, ErrNoPendingPlan
	}
	plan := e.pending
	e.state = Applying
	e.mu.Unlock()

	ctx = logging.WithSession(ctx, e.sess.SessionID)
	ctx = logging.WithOperation(ctx, string(plan.Kind))
	start := time.Now()

	finish := func() {
		e.mu.Lock()
		e.pending = nil
		e.state = Idle
		e.mu.Unlock()
	}

	if err := e.precheck(plan.Steps); err != nil {
		finish()
		logging.Warn(ctx, "plan aborted by conflict", slog.String("error", err.Error()))
		return nil, err
	}

	if err := e.applySteps(ctx, plan.Steps); err != nil {
		finish()
		logging.Error(ctx, "apply failed", slog.String("error", err.Error()))
		return nil, err
	}

	result, err := e.commit(ctx, plan)
	finish()
	if err != nil {
		return nil, err
	}
	logging.LogDuration(ctx, slog.LevelInfo, "operation applied", start,
		slog.Int("actions", result.ActionsApplied),
		slog.Int("live_turns", result.LiveTurnCount),
	)
	return result, nil
}

// commit updates timeline, branch tree, and session state after a
// successful application.
func (e *Engine) commit(ctx context.Context, plan *Plan) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result := &Result{Kind: plan.Kind, ActionsApplied: len(plan.Steps)}

	if plan.TurnCount > 0 {
		archived, err := e.popTurnsLocked(plan.TurnCount)
		if err != nil {
			return nil, err
		}
		name := ""
		if len(archived) > 0 {
			name = archived[0].Turn.Summary(48)
		}
		b, err := e.branches.Archive(archived, e.timeline.BaseTurnCount+len(e.timeline.Splice), name)
		if err != nil {
			return nil, fmt.Errorf("archiving undone turns: %w", err)
		}
		result.BranchID = b.ID
	}

	if plan.BranchID != "" && plan.RedoCount > 0 {
		restored, err := e.branches.RestoreUpTo(plan.BranchID, plan.RedoCount)
		if err != nil {
			return nil, fmt.Errorf("restoring branch: %w", err)
		}
		e.timeline.Splice = append(e.timeline.Splice, restored...)
		result.BranchID = plan.BranchID
	}

	result.LiveTurnCount = e.timeline.BaseTurnCount + len(e.timeline.Splice)

	if err := e.timelines.Save(e.timeline); err != nil {
		return nil, fmt.Errorf("saving timeline: %w", err)
	}
	if err := e.states.Save(ctx, &session.State{
		SessionID:      e.sess.SessionID,
		LiveTurnCount:  result.LiveTurnCount,
		ActiveBranchID: result.BranchID,
		LastOperation:  string(plan.Kind),
	}); err != nil {
		return nil, fmt.Errorf("saving session state: %w", err)
	}

	return result, nil
}

// popTurnsLocked removes the last n live turns, in timeline order.
// Spliced turns pop before base turns.
func (e *Engine) popTurnsLocked(n int) ([]branch.ArchivedTurn, error) {
	liveLen := e.timeline.BaseTurnCount + len(e.timeline.Splice)
	if n > liveLen {
		return nil, fmt.Errorf("cannot pop %d of %d live turns", n, liveLen)
	}

	var popped []branch.ArchivedTurn
	fromSplice := n
	if fromSplice > len(e.timeline.Splice) {
		fromSplice = len(e.timeline.Splice)
	}
	fromBase := n - fromSplice

	if fromBase > 0 {
		popped = append(popped, e.base[e.timeline.BaseTurnCount-fromBase:e.timeline.BaseTurnCount]...)
		e.timeline.BaseTurnCount -= fromBase
	}
	if fromSplice > 0 {
		cut := len(e.timeline.Splice) - fromSplice
		popped = append(popped, e.timeline.Splice[cut:]...)
		e.timeline.Splice = e.timeline.Splice[:cut]
	}
	return popped, nil
}
