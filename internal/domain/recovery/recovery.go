// Package recovery extracts a JSON value from unreliable generated text.
//
// Recovery runs an ordered list of strategies and stops at the first one
// that yields valid JSON. The last strategy repairs arrays whose tail was
// cut off by dropping the partial trailing record. Records are never
// synthesized.
package recovery

import (
	"strings"
	"unicode"

	"github.com/tidwall/gjson"
)

// Strategy names, in the order they are tried.
const (
	StrategyDirect          = "direct"
	StrategyFenced          = "fenced"
	StrategySubstringArray  = "substring_array"
	StrategySubstringObject = "substring_object"
	StrategyBackwardRepair  = "backward_repair"
)

const (
	defaultMaxAttempts = 50
	defaultExcerptLen  = 120
	fence              = "```"
)

// StrategyFunc turns text into a JSON value or fails.
type StrategyFunc func(text string) (gjson.Result, error)

// Strategy is a named StrategyFunc.
type Strategy struct {
	Name string
	Try  StrategyFunc
}

// Outcome describes a successful recovery.
type Outcome struct {
	Value    gjson.Result
	Strategy string
	// Candidates is the number of truncation repair candidates parsed.
	Candidates int
}

// Recoverer runs the strategy chain.
type Recoverer struct {
	maxAttempts int
	excerptLen  int
}

// New creates a Recoverer.
func New(opts ...Option) *Recoverer {
	r := &Recoverer{
		maxAttempts: defaultMaxAttempts,
		excerptLen:  defaultExcerptLen,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recover extracts a JSON value from text.
func (r *Recoverer) Recover(text string) (Outcome, error) {
	var candidates int
	strategies := []Strategy{
		{Name: StrategyDirect, Try: Direct},
		{Name: StrategyFenced, Try: Fenced},
		{Name: StrategySubstringArray, Try: SubstringArray},
		{Name: StrategySubstringObject, Try: SubstringObject},
		{Name: StrategyBackwardRepair, Try: func(s string) (gjson.Result, error) {
			v, n, err := repair(s, r.maxAttempts)
			candidates = n
			return v, err
		}},
	}

	tried := make([]string, 0, len(strategies))
	for _, s := range strategies {
		tried = append(tried, s.Name)
		v, err := s.Try(text)
		if err == nil {
			return Outcome{Value: v, Strategy: s.Name, Candidates: candidates}, nil
		}
	}
	return Outcome{Candidates: candidates}, &RecoveryError{Excerpt: excerpt(text, r.excerptLen), Tried: tried}
}

// RecoverObject extracts a single JSON object, skipping the array strategies.
// It is used for analysis documents, which are never arrays of records.
func (r *Recoverer) RecoverObject(text string) (Outcome, error) {
	tried := []string{StrategyFenced, StrategySubstringObject}
	if v, err := Fenced(text); err == nil && v.IsObject() {
		return Outcome{Value: v, Strategy: StrategyFenced}, nil
	}
	if v, err := SubstringObject(text); err == nil {
		return Outcome{Value: v, Strategy: StrategySubstringObject}, nil
	}
	return Outcome{}, &RecoveryError{Excerpt: excerpt(text, r.excerptLen), Tried: tried}
}

// Direct parses the trimmed text as is.
func Direct(text string) (gjson.Result, error) {
	return parse(strings.TrimSpace(text))
}

// Fenced strips a leading code fence with an optional language tag and a
// trailing fence, then parses the remainder.
func Fenced(text string) (gjson.Result, error) {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, fence) && !strings.HasSuffix(s, fence) {
		return gjson.Result{}, ErrNotApplicable
	}
	return parse(StripFences(s))
}

// StripFences removes a leading fence (and its language tag) and a trailing
// fence from s.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if rest, ok := strings.CutPrefix(s, fence); ok {
		s = strings.TrimLeftFunc(rest, func(r rune) bool {
			return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))
		})
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), fence)
	return strings.TrimSpace(s)
}

// SubstringArray parses the span from the first '[' to the last ']'.
func SubstringArray(text string) (gjson.Result, error) {
	return between(text, '[', ']')
}

// SubstringObject parses the span from the first '{' to the last '}'.
func SubstringObject(text string) (gjson.Result, error) {
	return between(text, '{', '}')
}

// BackwardRepair returns the truncation repair strategy bounded to limit
// candidates.
func BackwardRepair(limit int) StrategyFunc {
	return func(text string) (gjson.Result, error) {
		v, _, err := repair(text, limit)
		return v, err
	}
}

// repair closes a truncated array after the last complete record. It walks
// the '}' positions backward from the end, appending ']' to the prefix that
// starts at the first '[' and ends at the candidate.
func repair(text string, limit int) (gjson.Result, int, error) {
	start := strings.IndexByte(text, '[')
	if start < 0 {
		return gjson.Result{}, 0, ErrNotApplicable
	}
	end := strings.LastIndexByte(text, '}')
	n := 0
	for end > start && n < limit {
		n++
		if v, err := parse(text[start:end+1] + "]"); err == nil {
			return v, n, nil
		}
		end = strings.LastIndexByte(text[:end], '}')
	}
	if n == 0 {
		return gjson.Result{}, 0, ErrNotApplicable
	}
	return gjson.Result{}, n, ErrInvalid
}

func between(text string, open, closer byte) (gjson.Result, error) {
	i := strings.IndexByte(text, open)
	j := strings.LastIndexByte(text, closer)
	if i < 0 || j < 0 || i >= j {
		return gjson.Result{}, ErrNotApplicable
	}
	return parse(text[i : j+1])
}

func parse(s string) (gjson.Result, error) {
	if s == "" || !gjson.Valid(s) {
		return gjson.Result{}, ErrInvalid
	}
	return gjson.Parse(s), nil
}

func excerpt(text string, n int) string {
	s := strings.TrimSpace(text)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
