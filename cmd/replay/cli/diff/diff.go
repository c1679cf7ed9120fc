// Package diff implements the line-level diff used for undo/redo summaries
// and previews. Counts are deterministic: the same pair of inputs always
// yields the same added/removed split.
package diff

import "strings"

// Stats holds line-level change counts for a file transition.
// A modified line counts once on each side.
type Stats struct {
	Added   int `json:"added"`
	Removed int `json:"removed"`
}

// IsZero reports whether no lines changed.
func (s Stats) IsZero() bool {
	return s.Added == 0 && s.Removed == 0
}

// Add accumulates another Stats value.
func (s *Stats) Add(other Stats) {
	s.Added += other.Added
	s.Removed += other.Removed
}

// OpKind classifies a single diff operation.
type OpKind int

const (
	// OpEqual marks a line present on both sides.
	OpEqual OpKind = iota
	// OpAdd marks a line present only on the new side.
	OpAdd
	// OpRemove marks a line present only on the old side.
	OpRemove
)

// Op is one line of diff output.
// OldIndex and NewIndex are 0-based line positions; the index on the side
// an operation does not touch is -1.
type Op struct {
	Kind     OpKind
	Line     string
	OldIndex int
	NewIndex int
}

// Lines computes line-level change counts between two file contents.
// Empty content is zero lines; content without a trailing newline still
// counts its final line. When an equal-cost split exists, the added side
// wins, so counts are stable across runs.
func Lines(oldText, newText string) Stats {
	var stats Stats
	for _, op := range Ops(oldText, newText) {
		switch op.Kind {
		case OpAdd:
			stats.Added++
		case OpRemove:
			stats.Removed++
		case OpEqual:
		}
	}
	return stats
}

// Ops computes the full line-level diff between two file contents.
// Common prefix and suffix runs are trimmed before the LCS pass, so cost
// is quadratic only in the changed middle region.
func Ops(oldText, newText string) []Op {
	a := SplitLines(oldText)
	b := SplitLines(newText)

	// Trim common prefix
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		prefix++
	}

	// Trim common suffix (without overlapping the prefix)
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix &&
		a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	ops := make([]Op, 0, len(a)+len(b)-2*prefix)
	for i := 0; i < prefix; i++ {
		ops = append(ops, Op{Kind: OpEqual, Line: a[i], OldIndex: i, NewIndex: i})
	}

	mid := lcsOps(a[prefix:len(a)-suffix], b[prefix:len(b)-suffix], prefix)
	ops = append(ops, mid...)

	for i := 0; i < suffix; i++ {
		oldIdx := len(a) - suffix + i
		newIdx := len(b) - suffix + i
		ops = append(ops, Op{Kind: OpEqual, Line: a[oldIdx], OldIndex: oldIdx, NewIndex: newIdx})
	}

	return ops
}

// lcsOps runs the LCS dynamic program over the trimmed middle region.
// offset is the number of prefix lines trimmed, used to report absolute
// line indices.
func lcsOps(a, b []string, offset int) []Op {
	m, n := len(a), len(b)
	if m == 0 && n == 0 {
		return nil
	}

	// dp[i][j] = LCS length of a[:i] and b[:j]
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] > dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	// Backtrack from (m,n). On a tie the new side is consumed first, so
	// equal-cost splits report the line as added.
	var reversed []Op
	i, j := m, n
	for i > 0 || j > 0 {
		switch {
		case i > 0 && j > 0 && a[i-1] == b[j-1]:
			reversed = append(reversed, Op{Kind: OpEqual, Line: a[i-1], OldIndex: offset + i - 1, NewIndex: offset + j - 1})
			i--
			j--
		case j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]):
			reversed = append(reversed, Op{Kind: OpAdd, Line: b[j-1], OldIndex: -1, NewIndex: offset + j - 1})
			j--
		default:
			reversed = append(reversed, Op{Kind: OpRemove, Line: a[i-1], OldIndex: offset + i - 1, NewIndex: -1})
			i--
		}
	}

	// Reverse into forward order
	for l, r := 0, len(reversed)-1; l < r; l, r = l+1, r-1 {
		reversed[l], reversed[r] = reversed[r], reversed[l]
	}
	return reversed
}

// SplitLines splits file content into lines for diffing.
// Empty content yields no lines. A trailing newline does not create an
// extra empty line; content without one still counts its final line.
func SplitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// CountLines returns the number of lines in file content using the same
// rules as SplitLines.
func CountLines(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
