// Package dates recognizes the date literals found in workflow
// configuration text and rewrites them to a target period.
package dates

import (
	"fmt"
	"strconv"
)

// Form is one of the supported date surface forms.
type Form int

const (
	FormYearMonthDay   Form = iota // YYYY-MM-DD
	FormDayMonthYear               // DD/MM/YYYY
	FormYearMonth                  // YYYY-MM
	FormMonthYearSlash             // MM/YYYY
	FormMonthYearDash              // MM-YYYY
)

// Forms lists every form in matching precedence order.
var Forms = []Form{
	FormYearMonthDay,
	FormDayMonthYear,
	FormYearMonth,
	FormMonthYearSlash,
	FormMonthYearDash,
}

var layouts = map[Form]string{
	FormYearMonthDay:   "YYYY-MM-DD",
	FormDayMonthYear:   "DD/MM/YYYY",
	FormYearMonth:      "YYYY-MM",
	FormMonthYearSlash: "MM/YYYY",
	FormMonthYearDash:  "MM-YYYY",
}

func (f Form) String() string {
	if l, ok := layouts[f]; ok {
		return l
	}
	return "unknown"
}

func (f Form) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// ParseForm accepts a layout string such as "MM/YYYY".
func ParseForm(s string) (Form, error) {
	for f, l := range layouts {
		if l == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown date form %q", s)
}

// Match is a date literal found in a text.
type Match struct {
	Start int  `json:"start"`
	End   int  `json:"end"`
	Form  Form `json:"form"`
	Year  int  `json:"year"`
	Month int  `json:"month"`
	Day   int  `json:"day,omitempty"`
}

// Target is the period dates are moved to. The day always becomes 01.
type Target struct {
	Year  int `json:"year" yaml:"year"`
	Month int `json:"month" yaml:"month"`
}

func (t Target) Validate() error {
	if t.Year < 1000 || t.Year > 9999 {
		return fmt.Errorf("year %d is not a four digit year", t.Year)
	}
	if t.Month < 1 || t.Month > 12 {
		return fmt.Errorf("month %d is out of range", t.Month)
	}
	return nil
}

// Scan finds date literals left to right. At each position the forms are
// tried in precedence order, so "2024-01-15" is one YYYY-MM-DD match and
// never also a YYYY-MM match. A literal must not touch other digits.
func Scan(s string) []Match {
	var out []Match
	for i := 0; i < len(s); {
		if !isDigit(s[i]) || (i > 0 && isDigit(s[i-1])) {
			i++
			continue
		}
		m, ok := matchAt(s, i)
		if !ok {
			i++
			continue
		}
		out = append(out, m)
		i = m.End
	}
	return out
}

// Contains reports whether s holds at least one date literal.
func Contains(s string) bool {
	return len(Scan(s)) > 0
}

// Format renders the target period in the given form.
func Format(f Form, t Target) string {
	switch f {
	case FormYearMonthDay:
		return fmt.Sprintf("%04d-%02d-01", t.Year, t.Month)
	case FormDayMonthYear:
		return fmt.Sprintf("01/%02d/%04d", t.Month, t.Year)
	case FormYearMonth:
		return fmt.Sprintf("%04d-%02d", t.Year, t.Month)
	case FormMonthYearSlash:
		return fmt.Sprintf("%02d/%04d", t.Month, t.Year)
	case FormMonthYearDash:
		return fmt.Sprintf("%02d-%04d", t.Month, t.Year)
	}
	return ""
}

func matchAt(s string, i int) (Match, bool) {
	for _, f := range Forms {
		layout := layouts[f]
		end := i + len(layout)
		if end > len(s) {
			continue
		}
		m, ok := fit(s[i:end], layout)
		if !ok {
			continue
		}
		if end < len(s) && isDigit(s[end]) {
			continue
		}
		switch f {
		case FormYearMonth:
			// YYYY-MM-D... belongs to a longer literal.
			if end+1 < len(s) && s[end] == '-' && isDigit(s[end+1]) {
				continue
			}
		case FormMonthYearSlash, FormMonthYearDash:
			if m.Month < 1 || m.Month > 12 || m.Year < 2000 || m.Year > 2099 {
				continue
			}
		}
		m.Start, m.End, m.Form = i, end, f
		return m, true
	}
	return Match{}, false
}

// fit checks s against a layout where Y, M and D stand for digits and any
// other byte must match literally.
func fit(s, layout string) (Match, bool) {
	var year, month, day []byte
	for k := 0; k < len(layout); k++ {
		c := layout[k]
		switch c {
		case 'Y', 'M', 'D':
			if !isDigit(s[k]) {
				return Match{}, false
			}
			switch c {
			case 'Y':
				year = append(year, s[k])
			case 'M':
				month = append(month, s[k])
			case 'D':
				day = append(day, s[k])
			}
		default:
			if s[k] != c {
				return Match{}, false
			}
		}
	}
	var m Match
	m.Year, _ = strconv.Atoi(string(year))
	m.Month, _ = strconv.Atoi(string(month))
	if len(day) > 0 {
		m.Day, _ = strconv.Atoi(string(day))
	}
	return m, true
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
