package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// Condition is a pure predicate over a score vector. String renders the
// trigger description shown next to a recommendation.
type Condition interface {
	Eval(v score.Vector) bool
	String() string
	codes() []taxonomy.Code
}

// Above is true when the score of Code is strictly greater than Threshold.
type Above struct {
	Code      taxonomy.Code
	Threshold float64
}

func (a Above) Eval(v score.Vector) bool {
	s, ok := v.Get(a.Code)
	return ok && s > a.Threshold
}

func (a Above) String() string {
	return fmt.Sprintf("%s > %s", a.Code, formatThreshold(a.Threshold))
}

func (a Above) codes() []taxonomy.Code { return []taxonomy.Code{a.Code} }

// All is the conjunction of its terms.
type All []Condition

func (c All) Eval(v score.Vector) bool {
	for _, t := range c {
		if !t.Eval(v) {
			return false
		}
	}
	return len(c) > 0
}

func (c All) String() string { return join(c, " & ") }

func (c All) codes() []taxonomy.Code { return collectCodes(c) }

// Any is the disjunction of its terms.
type Any []Condition

func (c Any) Eval(v score.Vector) bool {
	for _, t := range c {
		if t.Eval(v) {
			return true
		}
	}
	return false
}

func (c Any) String() string { return join(c, " or ") }

func (c Any) codes() []taxonomy.Code { return collectCodes(c) }

// CountAbove is true when at least Min subdomains score strictly above
// Threshold.
type CountAbove struct {
	Threshold float64
	Min       int
	Label     string
}

func (c CountAbove) Eval(v score.Vector) bool {
	n := 0
	for i := 0; i < v.Len(); i++ {
		if v.At(i) > c.Threshold {
			n++
		}
	}
	return n >= c.Min
}

func (c CountAbove) String() string {
	if c.Label != "" {
		return c.Label
	}
	return fmt.Sprintf("count(> %s) >= %d", formatThreshold(c.Threshold), c.Min)
}

func (c CountAbove) codes() []taxonomy.Code { return nil }

func join(terms []Condition, sep string) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, sep)
}

func collectCodes(terms []Condition) []taxonomy.Code {
	var out []taxonomy.Code
	for _, t := range terms {
		out = append(out, t.codes()...)
	}
	return out
}

func formatThreshold(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
