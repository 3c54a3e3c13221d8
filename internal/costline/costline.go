// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package costline finds and rescales the cost field of object records in
// world files.
//
// Object files carry no field labels. A cost record is recognised
// positionally: a line of three to five integers (weight, cost, rent and
// optionally level and timer) directly after a line of exactly four
// integers. This is a heuristic and may match unrelated numeric sections.
package costline

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ws is the whitespace class shared by costRe and numericTokens: ASCII
// whitespace including \v, the \x1c-\x1f separators, NEL and Unicode
// separators.
const ws = `[\t\n\v\f\r\x1c-\x1f\x{85}\p{Z}]`

// costRe is the cost record layout. Every separator is captured so the
// record can be rebuilt byte for byte.
var costRe = regexp.MustCompile(strings.NewReplacer(`\s`, ws).Replace(
	`^(\s*)(-?\d+)(\s+)(-?\d+)(\s+)(-?\d+)(?:(\s+)(-?\d+))?(?:(\s+)(-?\d+))?(\s*)$`,
))

// Submatch index of the cost digits in costRe.
const costGroup = 4

// Decision is what happened to a single line.
type Decision int

const (
	// Unchanged lines are not cost records.
	Unchanged Decision = iota
	// Matched lines are cost records left as they were.
	Matched
	// Changed lines had their cost multiplied.
	Changed
)

func (d Decision) String() string {
	switch d {
	case Matched:
		return "matched"
	case Changed:
		return "changed"
	default:
		return "unchanged"
	}
}

// Rewriter rescales cost records line by line. It remembers only how many
// numeric tokens the previous line had. A Rewriter is used for one file and
// is not safe for concurrent use.
type Rewriter struct {
	Rate      int64
	Threshold int64

	prev int
}

// New returns a Rewriter multiplying costs below threshold by rate.
func New(rate, threshold int64) *Rewriter {
	return &Rewriter{Rate: rate, Threshold: threshold}
}

// Reset forgets the previous line.
func (r *Rewriter) Reset() {
	r.prev = 0
}

// Line classifies one line, including its "\n" terminator if any, and
// returns the line to emit. Only the cost digits of an eligible record
// below the threshold are ever replaced.
func (r *Rewriter) Line(raw string) (string, Decision) {
	n := numericTokens(raw)
	eligible := r.prev == 4 && n >= 3 && n <= 5
	r.prev = n
	if !eligible {
		return raw, Unchanged
	}
	return r.rewrite(raw)
}

func (r *Rewriter) rewrite(raw string) (string, Decision) {
	body, term := raw, ""
	if strings.HasSuffix(body, "\n") {
		body, term = body[:len(body)-1], "\n"
	}

	m := costRe.FindStringSubmatchIndex(body)
	if m == nil {
		return raw, Unchanged
	}
	start, end := m[2*costGroup], m[2*costGroup+1]
	cost, err := strconv.ParseInt(body[start:end], 10, 64)
	if err != nil {
		// Out of int64 range: too large to be an unconverted cost, or too
		// small to be multiplied without overflow.
		return raw, Matched
	}
	if cost >= r.Threshold {
		return raw, Matched
	}

	scaled, ok := multiply(cost, r.Rate)
	if !ok || scaled == cost {
		return raw, Matched
	}
	return body[:start] + strconv.FormatInt(scaled, 10) + body[end:] + term, Changed
}

// numericTokens returns the number of whitespace-separated fields in line
// when every one of them is an integer, and 0 otherwise. Integers of any
// size count; only cost fields need to fit in int64.
func numericTokens(line string) int {
	fields := strings.FieldsFunc(line, isSpace)
	for _, f := range fields {
		if !isInteger(f) {
			return 0
		}
	}
	return len(fields)
}

func isSpace(r rune) bool {
	switch {
	case r == ' ', r >= '\t' && r <= '\r', r >= 0x1c && r <= 0x1f, r == 0x85:
		return true
	}
	return unicode.In(r, unicode.Z)
}

// isInteger reports whether s is an optionally signed run of ASCII digits.
func isInteger(s string) bool {
	if s != "" && (s[0] == '+' || s[0] == '-') {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func multiply(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	p := a * b
	if p/b != a {
		return 0, false
	}
	return p, true
}

// Result is the outcome of rewriting a whole file.
type Result struct {
	// Content is the rewritten text. It equals the input when Changed is false.
	Content string
	// Changed reports whether any cost was multiplied.
	Changed bool
	// Matched reports whether any line was a cost record, changed or not.
	Matched bool
	// ChangedLines and MatchedLines count lines by decision. MatchedLines
	// includes changed lines.
	ChangedLines int
	MatchedLines int
}

// Rewrite runs a fresh Rewriter over text.
func Rewrite(text string, rate, threshold int64) Result {
	rw := New(rate, threshold)
	var b strings.Builder
	b.Grow(len(text))

	var res Result
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		var line string
		if i < 0 {
			line, text = text, ""
		} else {
			line, text = text[:i+1], text[i+1:]
		}

		out, d := rw.Line(line)
		b.WriteString(out)
		switch d {
		case Changed:
			res.Changed = true
			res.ChangedLines++
			fallthrough
		case Matched:
			res.Matched = true
			res.MatchedLines++
		}
	}
	res.Content = b.String()
	return res
}
