// Package textdiff compares two texts line by line.
package textdiff

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
)

type Op int

const (
	Unchanged Op = iota
	Added
	Removed
	Modified
)

func (o Op) String() string {
	switch o {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Modified:
		return "modified"
	default:
		return "unchanged"
	}
}

func (o Op) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// Entry is one aligned line. Line numbers are 1-based and zero when the side
// has no line.
type Entry struct {
	Op         Op      `json:"op"`
	Left       string  `json:"left,omitempty"`
	Right      string  `json:"right,omitempty"`
	LeftLine   int     `json:"left_line,omitempty"`
	RightLine  int     `json:"right_line,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
}

// DefaultSimilarityThreshold is the minimum similarity for a removed/added
// pair to be reported as Modified.
const DefaultSimilarityThreshold = 0.6

// DefaultMaxCells bounds the changed region Compare aligns, counted as
// changed left lines times changed right lines.
const DefaultMaxCells = 1 << 25

// TooLargeError reports a changed region over the alignment budget.
type TooLargeError struct {
	LeftLines  int
	RightLines int
	Limit      int
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("diff too large: %d x %d changed lines exceeds %d cells", e.LeftLines, e.RightLines, e.Limit)
}

func (e *TooLargeError) Unwrap() error {
	return workflow.ErrDiffTooLarge
}

func IsTooLarge(err error) bool {
	var target *TooLargeError
	return errors.As(err, &target)
}

type options struct {
	threshold float64
	maxCells  int
}

type Option func(*options)

// WithSimilarityThreshold sets the Modified threshold. Values outside [0, 1]
// are clamped.
func WithSimilarityThreshold(t float64) Option {
	return func(o *options) {
		switch {
		case t < 0:
			t = 0
		case t > 1:
			t = 1
		}
		o.threshold = t
	}
}

// WithMaxCells sets the alignment budget of Compare. Zero or less removes it.
func WithMaxCells(n int) Option {
	return func(o *options) {
		o.maxCells = n
	}
}

// Diff aligns the lines of left and right without a budget. Identical inputs
// give one Unchanged entry per line, and Diff(b, a) mirrors Diff(a, b) with
// Added and Removed swapped.
func Diff(left, right string, opts ...Option) []Entry {
	entries, _ := compare(left, right, append([]Option{WithMaxCells(0)}, opts...))
	return entries
}

// Compare is Diff with the alignment budget applied, DefaultMaxCells unless
// WithMaxCells says otherwise. Common leading and trailing lines are free.
func Compare(left, right string, opts ...Option) ([]Entry, error) {
	return compare(left, right, append([]Option{WithMaxCells(DefaultMaxCells)}, opts...))
}

func compare(left, right string, opts []Option) ([]Entry, error) {
	o := options{threshold: DefaultSimilarityThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	a, b := Lines(left), Lines(right)

	entries := make([]Entry, 0, max(len(a), len(b)))
	prefix := 0
	for prefix < len(a) && prefix < len(b) && a[prefix] == b[prefix] {
		entries = append(entries, same(a[prefix], prefix, prefix))
		prefix++
	}
	suffix := 0
	for suffix < len(a)-prefix && suffix < len(b)-prefix && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}

	midA := a[prefix : len(a)-suffix]
	midB := b[prefix : len(b)-suffix]
	if o.maxCells > 0 && len(midA) > 0 && len(midB) > o.maxCells/len(midA) {
		return nil, &TooLargeError{LeftLines: len(midA), RightLines: len(midB), Limit: o.maxCells}
	}
	entries = append(entries, align(midA, midB, prefix, prefix, o.threshold)...)

	for k := 0; k < suffix; k++ {
		i, j := len(a)-suffix+k, len(b)-suffix+k
		entries = append(entries, same(a[i], i, j))
	}
	return entries, nil
}

// Lines splits text on newlines and drops carriage returns. A trailing
// newline does not start another line.
func Lines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func same(line string, i, j int) Entry {
	return Entry{Op: Unchanged, Left: line, Right: line, LeftLine: i + 1, RightLine: j + 1}
}

// align runs a suffix LCS over a and b. On ties the lexicographically smaller
// line is consumed first, which keeps the alignment independent of argument
// order.
func align(a, b []string, offA, offB int, threshold float64) []Entry {
	n, m := len(a), len(b)
	lcs := newSuffixTable(a, b)

	var (
		out     []Entry
		removed []int
		added   []int
	)
	flush := func() {
		out = append(out, pairRun(a, b, removed, added, offA, offB, threshold)...)
		removed, added = removed[:0], added[:0]
	}

	i, j := 0, 0
	for i < n || j < m {
		switch {
		case i < n && j < m && a[i] == b[j]:
			flush()
			out = append(out, same(a[i], offA+i, offB+j))
			i++
			j++
		case j == m:
			removed = append(removed, i)
			i++
		case i == n:
			added = append(added, j)
			j++
		case lcs.row(i + 1)[j] > lcs.row(i)[j+1]:
			removed = append(removed, i)
			i++
		case lcs.row(i + 1)[j] < lcs.row(i)[j+1]:
			added = append(added, j)
			j++
		case a[i] <= b[j]:
			removed = append(removed, i)
			i++
		default:
			added = append(added, j)
			j++
		}
	}
	flush()
	return out
}

// suffixTable serves rows of the suffix LCS table of a and b in O(m*sqrt(n))
// memory. Every stride-th row is kept as a checkpoint and the rows of the
// block being walked are rebuilt from the checkpoint below it.
type suffixTable struct {
	a, b   []string
	stride int
	marks  map[int][]int32
	base   int
	block  [][]int32
}

func newSuffixTable(a, b []string) *suffixTable {
	n, m := len(a), len(b)
	t := &suffixTable{
		a:      a,
		b:      b,
		stride: max(1, int(math.Ceil(math.Sqrt(float64(n))))),
		marks:  make(map[int][]int32),
		base:   -1,
	}

	below, cur := make([]int32, m+1), make([]int32, m+1)
	t.marks[n] = append([]int32(nil), below...)
	for i := n - 1; i >= 0; i-- {
		t.fill(i, cur, below)
		if i%t.stride == 0 {
			t.marks[i] = append([]int32(nil), cur...)
		}
		below, cur = cur, below
	}
	return t
}

// fill computes row i from the row below it.
func (t *suffixTable) fill(i int, cur, below []int32) {
	cur[len(t.b)] = 0
	for j := len(t.b) - 1; j >= 0; j-- {
		if t.a[i] == t.b[j] {
			cur[j] = below[j+1] + 1
		} else {
			cur[j] = max(below[j], cur[j+1])
		}
	}
}

func (t *suffixTable) row(i int) []int32 {
	if r, ok := t.marks[i]; ok {
		return r
	}
	if t.base < 0 || i < t.base || i >= t.base+len(t.block) {
		t.load(i)
	}
	return t.block[i-t.base]
}

// load rebuilds the block of rows holding i, from its checkpoint row up to
// the next one.
func (t *suffixTable) load(i int) {
	start := (i / t.stride) * t.stride
	top := min(start+t.stride, len(t.a))
	if t.block == nil {
		t.block = make([][]int32, t.stride+1)
		for k := range t.block {
			t.block[k] = make([]int32, len(t.b)+1)
		}
	}
	t.block = t.block[:top-start+1]
	t.base = start
	copy(t.block[top-start], t.marks[top])
	for r := top - 1; r >= start; r-- {
		t.fill(r, t.block[r-start], t.block[r-start+1])
	}
}

// pairRun emits a run of removed and added lines. The k-th removed line is
// paired with the k-th added line and shown as Modified when similar enough.
func pairRun(a, b []string, removed, added []int, offA, offB int, threshold float64) []Entry {
	var out []Entry
	k := 0
	for ; k < len(removed) && k < len(added); k++ {
		l, r := a[removed[k]], b[added[k]]
		sim := Similarity(l, r)
		if sim >= threshold {
			out = append(out, Entry{
				Op: Modified, Left: l, Right: r,
				LeftLine: offA + removed[k] + 1, RightLine: offB + added[k] + 1,
				Similarity: sim,
			})
			continue
		}
		out = append(out,
			Entry{Op: Removed, Left: l, LeftLine: offA + removed[k] + 1},
			Entry{Op: Added, Right: r, RightLine: offB + added[k] + 1},
		)
	}
	for _, i := range removed[k:] {
		out = append(out, Entry{Op: Removed, Left: a[i], LeftLine: offA + i + 1})
	}
	for _, j := range added[k:] {
		out = append(out, Entry{Op: Added, Right: b[j], RightLine: offB + j + 1})
	}
	return out
}

// Similarity is 2*LCS/(len a + len b) over runes. Two empty strings are
// identical.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				cur[j] = prev[j-1] + 1
			} else {
				cur[j] = max(prev[j], cur[j-1])
			}
		}
		prev, cur = cur, prev
	}
	return 2 * float64(prev[len(rb)]) / float64(len(ra)+len(rb))
}

// Summary counts entries per operation.
type Summary struct {
	Unchanged int  `json:"unchanged"`
	Added     int  `json:"added"`
	Removed   int  `json:"removed"`
	Modified  int  `json:"modified"`
	Identical bool `json:"identical"`
}

func Stats(entries []Entry) Summary {
	var s Summary
	for _, e := range entries {
		switch e.Op {
		case Added:
			s.Added++
		case Removed:
			s.Removed++
		case Modified:
			s.Modified++
		default:
			s.Unchanged++
		}
	}
	s.Identical = s.Added+s.Removed+s.Modified == 0
	return s
}

// Unified renders entries with "+", "-" and " " prefixes. A Modified entry
// is written as its removed then its added line.
func Unified(entries []Entry) string {
	var sb strings.Builder
	for _, e := range entries {
		switch e.Op {
		case Unchanged:
			fmt.Fprintf(&sb, " %s\n", e.Left)
		case Removed:
			fmt.Fprintf(&sb, "-%s\n", e.Left)
		case Added:
			fmt.Fprintf(&sb, "+%s\n", e.Right)
		case Modified:
			fmt.Fprintf(&sb, "-%s\n+%s\n", e.Left, e.Right)
		}
	}
	return sb.String()
}
