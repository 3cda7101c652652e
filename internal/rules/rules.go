package rules

import (
	"fmt"

	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// ErrUnknownCode means a rule references a code the taxonomy does not declare.
var ErrUnknownCode = fmt.Errorf("%w: rule references unknown code", taxonomy.ErrConfiguration)

// Rule is one fixed business rule.
type Rule struct {
	ID             string
	Recommendation string
	Condition      Condition
}

// Trigger is the human-readable description of what fires the rule.
func (r Rule) Trigger() string { return r.Condition.String() }

// Hit is a triggered rule, in engine declaration order.
type Hit struct {
	RuleID         string `json:"rule_id"`
	Recommendation string `json:"recommendation"`
	Trigger        string `json:"trigger"`
}

// Engine evaluates the ordered rule list. It holds no mutable state.
type Engine struct {
	rules []Rule
}

// NewEngine builds the engine over the built-in rules and checks every
// referenced code against the table.
func NewEngine(table *taxonomy.Table) (*Engine, error) {
	return newEngine(table, ruleDefs())
}

func newEngine(table *taxonomy.Table, defs []Rule) (*Engine, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil taxonomy", taxonomy.ErrConfiguration)
	}
	for _, r := range defs {
		for _, c := range r.Condition.codes() {
			if _, ok := table.Index(c); !ok {
				return nil, fmt.Errorf("%w: rule %s uses %s", ErrUnknownCode, r.ID, c)
			}
		}
	}
	out := make([]Rule, len(defs))
	copy(out, defs)
	return &Engine{rules: out}, nil
}

// Rules returns the rule definitions in declaration order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs every rule against v. All rules are evaluated on every call;
// the result lists hits in declaration order without deduplication.
func (e *Engine) Evaluate(v score.Vector) []Hit {
	hits := make([]Hit, 0, len(e.rules))
	for _, r := range e.rules {
		if r.Condition.Eval(v) {
			hits = append(hits, Hit{
				RuleID:         r.ID,
				Recommendation: r.Recommendation,
				Trigger:        r.Trigger(),
			})
		}
	}
	return hits
}
