package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// InlineSpan is a character-level fragment of a replaced region, used to
// highlight what changed within a line when rendering hunks.
type InlineSpan struct {
	Kind OpKind
	Text string
}

// Refine computes intra-line highlight spans for a hunk's replaced region.
// The hunk's removed lines are compared against its added lines as whole
// text blocks. Returns nil when the hunk has no removed or no added lines
// (pure insertion or deletion needs no refinement).
func Refine(h Hunk) []InlineSpan {
	var removed, added []string
	for _, op := range h.Ops {
		switch op.Kind {
		case OpRemove:
			removed = append(removed, op.Line)
		case OpAdd:
			added = append(added, op.Line)
		case OpEqual:
		}
	}
	if len(removed) == 0 || len(added) == 0 {
		return nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(strings.Join(removed, "\n"), strings.Join(added, "\n"), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	spans := make([]InlineSpan, 0, len(diffs))
	for _, d := range diffs {
		span := InlineSpan{Text: d.Text}
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			span.Kind = OpAdd
		case diffmatchpatch.DiffDelete:
			span.Kind = OpRemove
		case diffmatchpatch.DiffEqual:
			span.Kind = OpEqual
		}
		spans = append(spans, span)
	}
	return spans
}
