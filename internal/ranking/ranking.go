package ranking

import (
	"fmt"
	"sort"

	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// DefaultTopN is the number of focus areas returned when none is requested.
const DefaultTopN = 3

// ErrUnknownCode means a ranked code has no taxonomy entry.
var ErrUnknownCode = fmt.Errorf("%w: ranked code missing from taxonomy", taxonomy.ErrConfiguration)

// FocusArea is one ranked subdomain with its suggested topics.
type FocusArea struct {
	Rank   int           `json:"rank"`
	Code   taxonomy.Code `json:"code"`
	Label  string        `json:"label"`
	Score  float64       `json:"score"`
	Topics []string      `json:"topics"`
}

// Engine selects the highest-scoring subdomains.
type Engine struct {
	table *taxonomy.Table
	topN  int
}

// NewEngine returns a ranking engine over table. topN <= 0 selects
// DefaultTopN.
func NewEngine(table *taxonomy.Table, topN int) *Engine {
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Engine{table: table, topN: topN}
}

// TopN returns the configured default count.
func (e *Engine) TopN() int { return e.topN }

// Top ranks v with the engine's default count.
func (e *Engine) Top(v score.Vector) ([]FocusArea, error) {
	return e.Rank(v, e.topN)
}

// Rank returns min(n, len) focus areas sorted by score descending. Ties keep
// taxonomy declaration order. n <= 0 selects the engine default.
func (e *Engine) Rank(v score.Vector, n int) ([]FocusArea, error) {
	if n <= 0 {
		n = e.topN
	}
	if v.Len() != e.table.Len() {
		return nil, fmt.Errorf("%w: vector has %d scores, taxonomy %d", score.ErrKeySetMismatch, v.Len(), e.table.Len())
	}

	order := make([]int, v.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return v.At(order[a]) > v.At(order[b])
	})

	if n > len(order) {
		n = len(order)
	}

	out := make([]FocusArea, 0, n)
	for rank, idx := range order[:n] {
		code := v.Table().CodeAt(idx)
		entry, ok := e.table.Entry(code)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCode, code)
		}
		out = append(out, FocusArea{
			Rank:   rank + 1,
			Code:   code,
			Label:  entry.Label,
			Score:  v.At(idx),
			Topics: entry.Topics,
		})
	}
	return out, nil
}
