package diff

import "testing"

func hunkFor(t *testing.T, oldText, newText string) Hunk {
	t.Helper()
	hunks := Hunks(oldText, newText)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	return hunks[0]
}

func TestRefine_SingleWordChange(t *testing.T) {
	h := hunkFor(t, "the quick brown fox\n", "the quick red fox\n")
	spans := Refine(h)
	if len(spans) == 0 {
		t.Fatal("expected refinement spans")
	}

	var removed, added, equal string
	for _, s := range spans {
		switch s.Kind {
		case OpRemove:
			removed += s.Text
		case OpAdd:
			added += s.Text
		case OpEqual:
			equal += s.Text
		}
	}
	if removed != "brown" || added != "red" {
		t.Errorf("refined change = -%q +%q, want -brown +red", removed, added)
	}
	if equal == "" {
		t.Error("shared prefix/suffix should appear as equal spans")
	}

	// Spans reassemble both sides of the replaced region.
	var oldSide, newSide string
	for _, s := range spans {
		if s.Kind != OpAdd {
			oldSide += s.Text
		}
		if s.Kind != OpRemove {
			newSide += s.Text
		}
	}
	if oldSide != "the quick brown fox" || newSide != "the quick red fox" {
		t.Errorf("spans do not reassemble: old %q, new %q", oldSide, newSide)
	}
}

func TestRefine_PureInsertionNotRefined(t *testing.T) {
	h := hunkFor(t, "a\n", "a\nb\n")
	if spans := Refine(h); spans != nil {
		t.Errorf("pure insertion should not refine, got %+v", spans)
	}
}

func TestRefine_PureDeletionNotRefined(t *testing.T) {
	h := hunkFor(t, "a\nb\n", "a\n")
	if spans := Refine(h); spans != nil {
		t.Errorf("pure deletion should not refine, got %+v", spans)
	}
}

func TestRefine_MultiLineReplacement(t *testing.T) {
	h := hunkFor(t, "alpha one\nbeta two\n", "alpha 1\nbeta 2\n")
	spans := Refine(h)
	if len(spans) == 0 {
		t.Fatal("expected refinement spans")
	}
	var newSide string
	for _, s := range spans {
		if s.Kind != OpRemove {
			newSide += s.Text
		}
	}
	if newSide != "alpha 1\nbeta 2" {
		t.Errorf("new side reassembles to %q", newSide)
	}
}
