package diff

// DefaultContextLines is the number of unchanged lines kept around a hunk.
const DefaultContextLines = 3

// Hunk is a contiguous run of changes with surrounding context.
// OldStart and NewStart are 0-based line offsets of the first op in the
// hunk on each side.
type Hunk struct {
	OldStart int
	OldLines int
	NewStart int
	NewLines int
	Ops      []Op
}

// Hunks groups the diff of two file contents into hunks with
// DefaultContextLines lines of context.
func Hunks(oldText, newText string) []Hunk {
	return HunksContext(oldText, newText, DefaultContextLines)
}

// HunksContext groups the diff into hunks with the given number of context
// lines. Changes separated by at most 2*context equal lines merge into a
// single hunk.
func HunksContext(oldText, newText string, context int) []Hunk {
	ops := Ops(oldText, newText)
	if context < 0 {
		context = 0
	}

	// Find indices of changed ops
	var changed []int
	for i, op := range ops {
		if op.Kind != OpEqual {
			changed = append(changed, i)
		}
	}
	if len(changed) == 0 {
		return nil
	}

	var hunks []Hunk
	start := maxInt(0, changed[0]-context)
	end := minInt(len(ops), changed[0]+context+1)

	for _, idx := range changed[1:] {
		if idx-context <= end {
			// Close enough to merge into the current hunk
			end = minInt(len(ops), idx+context+1)
			continue
		}
		hunks = append(hunks, buildHunk(ops[start:end]))
		start = maxInt(0, idx-context)
		end = minInt(len(ops), idx+context+1)
	}
	hunks = append(hunks, buildHunk(ops[start:end]))

	return hunks
}

func buildHunk(ops []Op) Hunk {
	h := Hunk{OldStart: -1, NewStart: -1, Ops: ops}
	for _, op := range ops {
		if op.OldIndex >= 0 {
			if h.OldStart < 0 {
				h.OldStart = op.OldIndex
			}
			h.OldLines++
		}
		if op.NewIndex >= 0 {
			if h.NewStart < 0 {
				h.NewStart = op.NewIndex
			}
			h.NewLines++
		}
	}
	if h.OldStart < 0 {
		h.OldStart = 0
	}
	if h.NewStart < 0 {
		h.NewStart = 0
	}
	return h
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
