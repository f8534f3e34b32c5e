// Package textsearch finds and replaces literal or regular-expression
// patterns in a text.
package textsearch

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/flowbridge/flowbridge-mcp/internal/domain/workflow"
)

const previewRadius = 30

type Options struct {
	CaseSensitive bool `json:"case_sensitive"`
	WholeWord     bool `json:"whole_word"`
	IsRegex       bool `json:"is_regex"`
	// MaxMatches caps Find and Replace. Zero means no limit.
	MaxMatches int `json:"max_matches,omitempty"`
}

// Match is a byte range of the searched text. Line and Column are 1-based,
// Column counts runes.
type Match struct {
	Start   int    `json:"start"`
	End     int    `json:"end"`
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Text    string `json:"text"`
	Preview string `json:"preview"`
}

// InvalidPatternError reports a pattern that cannot be compiled.
type InvalidPatternError struct {
	Pattern string
	Err     error
}

func (e *InvalidPatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *InvalidPatternError) Unwrap() []error {
	return []error{workflow.ErrInvalidPattern, e.Err}
}

// IsInvalidPattern checks if an error is an InvalidPatternError
func IsInvalidPattern(err error) bool {
	var target *InvalidPatternError
	return errors.As(err, &target)
}

// Compile builds the expression used by Find and Replace. Literal patterns
// are quoted and whole-word matching only applies to them.
func Compile(pattern string, opts Options) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, &InvalidPatternError{Pattern: pattern, Err: errors.New("empty pattern")}
	}
	expr := pattern
	if !opts.IsRegex {
		expr = regexp.QuoteMeta(pattern)
		if opts.WholeWord {
			expr = `\b` + expr + `\b`
		}
	}
	if !opts.CaseSensitive {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, &InvalidPatternError{Pattern: pattern, Err: err}
	}
	return re, nil
}

// Find returns the non-overlapping matches of pattern in order.
func Find(text, pattern string, opts Options) ([]Match, error) {
	re, err := Compile(pattern, opts)
	if err != nil {
		return nil, err
	}
	locs := re.FindAllStringIndex(text, limit(opts))
	matches := make([]Match, 0, len(locs))
	for _, loc := range locs {
		matches = append(matches, newMatch(text, loc[0], loc[1]))
	}
	return matches, nil
}

// Replace substitutes every match and returns the new text with the number
// of replacements. Regex replacements expand $1 style references, literal
// ones are inserted verbatim.
func Replace(text, pattern, replacement string, opts Options) (string, int, error) {
	re, err := Compile(pattern, opts)
	if err != nil {
		return "", 0, err
	}
	locs := re.FindAllStringSubmatchIndex(text, limit(opts))
	if len(locs) == 0 {
		return text, 0, nil
	}

	var sb strings.Builder
	sb.Grow(len(text))
	pos := 0
	for _, loc := range locs {
		sb.WriteString(text[pos:loc[0]])
		if opts.IsRegex {
			sb.Write(re.ExpandString(nil, replacement, text, loc))
		} else {
			sb.WriteString(replacement)
		}
		pos = loc[1]
	}
	sb.WriteString(text[pos:])
	return sb.String(), len(locs), nil
}

func limit(opts Options) int {
	if opts.MaxMatches > 0 {
		return opts.MaxMatches
	}
	return -1
}

func newMatch(text string, start, end int) Match {
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	return Match{
		Start:   start,
		End:     end,
		Line:    strings.Count(text[:start], "\n") + 1,
		Column:  utf8.RuneCountInString(text[lineStart:start]) + 1,
		Text:    text[start:end],
		Preview: preview(text, start, end),
	}
}

// preview returns the match with some context on its line.
func preview(text string, start, end int) string {
	from := max(start-previewRadius, strings.LastIndexByte(text[:start], '\n')+1)
	to := min(end+previewRadius, len(text))
	if nl := strings.IndexByte(text[end:], '\n'); nl >= 0 && end+nl < to {
		to = end + nl
	}
	for from < start && !utf8.RuneStart(text[from]) {
		from++
	}
	for to < len(text) && to > end && !utf8.RuneStart(text[to]) {
		to--
	}
	return strings.TrimSpace(text[from:to])
}
