// Package score holds the per-request TNA score vector.
package score

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// Score bounds enforced on every vector.
const (
	Min = 1.0
	Max = 10.0
)

var (
	// ErrKeySetMismatch means the supplied codes differ from the taxonomy.
	ErrKeySetMismatch = fmt.Errorf("%w: score codes do not match taxonomy", taxonomy.ErrConfiguration)

	// ErrOutOfRange means a score lies outside [Min, Max] or is not finite.
	ErrOutOfRange = errors.New("score out of range")
)

// Vector is an immutable mapping from every taxonomy code to its score,
// stored in the table's declared order.
type Vector struct {
	table  *taxonomy.Table
	values []float64
}

// New validates scores against the table and returns a vector in declared
// order. Missing or unknown codes are a configuration error; out-of-bound
// values are rejected, never clamped.
func New(table *taxonomy.Table, scores map[string]float64) (Vector, error) {
	if table == nil {
		return Vector{}, fmt.Errorf("%w: nil taxonomy", taxonomy.ErrConfiguration)
	}

	var unknown []string
	for k := range scores {
		if _, ok := table.Index(taxonomy.Code(k)); !ok {
			unknown = append(unknown, k)
		}
	}

	var missing []string
	for _, code := range table.Codes() {
		if _, ok := scores[string(code)]; !ok {
			missing = append(missing, string(code))
		}
	}
	if len(missing) > 0 || len(unknown) > 0 {
		sort.Strings(unknown)
		return Vector{}, fmt.Errorf("%w: missing=[%s] unknown=[%s]", ErrKeySetMismatch,
			strings.Join(missing, ","), strings.Join(unknown, ","))
	}

	values := make([]float64, table.Len())
	for i := range values {
		code := table.CodeAt(i)
		v := scores[string(code)]
		if err := checkBound(code, v); err != nil {
			return Vector{}, err
		}
		values[i] = v
	}
	return Vector{table: table, values: values}, nil
}

// Uniform returns a vector with every code set to v.
func Uniform(table *taxonomy.Table, v float64) (Vector, error) {
	scores := make(map[string]float64, table.Len())
	for _, c := range table.Codes() {
		scores[string(c)] = v
	}
	return New(table, scores)
}

func checkBound(code taxonomy.Code, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < Min || v > Max {
		return fmt.Errorf("%w: %s=%v not in [%g,%g]", ErrOutOfRange, code, v, Min, Max)
	}
	return nil
}

// With returns a new vector with code set to v; the receiver is unchanged.
func (v Vector) With(code taxonomy.Code, value float64) (Vector, error) {
	i, ok := v.table.Index(code)
	if !ok {
		return Vector{}, fmt.Errorf("%w: unknown=[%s]", ErrKeySetMismatch, code)
	}
	if err := checkBound(code, value); err != nil {
		return Vector{}, err
	}
	values := make([]float64, len(v.values))
	copy(values, v.values)
	values[i] = value
	return Vector{table: v.table, values: values}, nil
}

// Table returns the taxonomy the vector was built against.
func (v Vector) Table() *taxonomy.Table { return v.table }

// Len returns the number of scores.
func (v Vector) Len() int { return len(v.values) }

// At returns the score at declared position i.
func (v Vector) At(i int) float64 { return v.values[i] }

// Get returns the score for code.
func (v Vector) Get(code taxonomy.Code) (float64, bool) {
	if v.table == nil {
		return 0, false
	}
	i, ok := v.table.Index(code)
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Features returns a copy of the scores in declared taxonomy order.
func (v Vector) Features() []float64 {
	out := make([]float64, len(v.values))
	copy(out, v.values)
	return out
}

// Map returns the scores keyed by code.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, len(v.values))
	for i, s := range v.values {
		out[string(v.table.CodeAt(i))] = s
	}
	return out
}
