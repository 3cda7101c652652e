package classifier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// Adapter states reported on the health endpoint.
const (
	StateReady  = "ready"
	StateAbsent = "absent"
	StateOpen   = "open"
)

const (
	defaultTimeout  = 2 * time.Second
	defaultFailures = 5
	defaultCooldown = 30 * time.Second
)

// FeatureNamer is implemented by models that carry their training feature
// order. A non-empty list must equal the taxonomy order.
type FeatureNamer interface {
	FeatureNames() []taxonomy.Code
}

type adapterOptions struct {
	timeout  time.Duration
	failures uint32
	cooldown time.Duration
	logger   zerolog.Logger
}

// Option configures an Adapter.
type Option func(*adapterOptions)

// WithTimeout bounds a single inference.
func WithTimeout(d time.Duration) Option {
	return func(o *adapterOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithBreaker sets how many consecutive failures open the breaker and how
// long it stays open.
func WithBreaker(failures uint32, cooldown time.Duration) Option {
	return func(o *adapterOptions) {
		if failures > 0 {
			o.failures = failures
		}
		if cooldown > 0 {
			o.cooldown = cooldown
		}
	}
}

// WithLogger sets the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *adapterOptions) { o.logger = l }
}

// Adapter runs a Classifier against score vectors of one taxonomy.
type Adapter struct {
	table *taxonomy.Table
	clf   Classifier
	guard *Guard
	log   zerolog.Logger
}

// NewAdapter checks clf against table and returns an adapter. A nil clf is
// allowed and reports every prediction as ErrNotConfigured.
func NewAdapter(table *taxonomy.Table, clf Classifier, opts ...Option) (*Adapter, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil taxonomy", taxonomy.ErrConfiguration)
	}
	o := adapterOptions{
		timeout:  defaultTimeout,
		failures: defaultFailures,
		cooldown: defaultCooldown,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if clf != nil {
		if n := clf.NumFeatures(); n != table.Len() {
			return nil, fmt.Errorf("%w: model expects %d features, taxonomy has %d", ErrFeatureMismatch, n, table.Len())
		}
		if fn, ok := clf.(FeatureNamer); ok {
			if names := fn.FeatureNames(); len(names) > 0 && !table.SameOrder(names) {
				return nil, fmt.Errorf("%w: model feature order differs from taxonomy", ErrFeatureMismatch)
			}
		}
		if ir, ok := clf.(ImportanceReporter); ok {
			if imps, ok := ir.FeatureImportances(); ok && len(imps) != table.Len() {
				return nil, fmt.Errorf("%w: %d importances for %d features", ErrFeatureMismatch, len(imps), table.Len())
			}
		}
	}

	return &Adapter{
		table: table,
		clf:   clf,
		guard: newGuard(o),
		log:   o.logger,
	}, nil
}

// State is ready, absent (no model) or open (breaker tripped).
func (a *Adapter) State() string {
	switch {
	case a.clf == nil:
		return StateAbsent
	case a.guard.Open():
		return StateOpen
	default:
		return StateReady
	}
}

// Predict returns the label and positive-class probability for v.
func (a *Adapter) Predict(ctx context.Context, v score.Vector) (Prediction, error) {
	if a.clf == nil {
		return Prediction{}, ErrNotConfigured
	}
	if v.Len() != a.table.Len() || !a.table.SameOrder(v.Table().Codes()) {
		return Prediction{}, fmt.Errorf("%w: vector does not follow taxonomy order", ErrFeatureMismatch)
	}
	features := v.Features()

	return a.guard.Do(ctx, func() (Prediction, error) {
		label, prob, err := a.run(features)
		if err != nil {
			if errors.Is(err, taxonomy.ErrConfiguration) || errors.Is(err, ErrUnavailable) {
				return Prediction{}, err
			}
			return Prediction{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if math.IsNaN(prob) || prob < 0 || prob > 1 {
			return Prediction{}, fmt.Errorf("%w: probability %v outside [0,1]", ErrUnavailable, prob)
		}
		return Prediction{
			Label:       label,
			HighNeed:    label == PositiveLabel,
			Probability: prob,
		}, nil
	})
}

func (a *Adapter) run(features []float64) (int, float64, error) {
	if s, ok := a.clf.(Scorer); ok {
		return s.Score(features)
	}
	label, err := a.clf.Predict(features)
	if err != nil {
		return 0, 0, err
	}
	prob, err := a.clf.PredictProbability(features)
	if err != nil {
		return 0, 0, err
	}
	return label, prob, nil
}

// Importances returns per-code importances in taxonomy order. The second
// result is false when the model does not expose them.
func (a *Adapter) Importances() ([]Importance, bool) {
	ir, ok := a.clf.(ImportanceReporter)
	if !ok {
		return nil, false
	}
	values, ok := ir.FeatureImportances()
	if !ok || len(values) != a.table.Len() {
		return nil, false
	}
	out := make([]Importance, len(values))
	for i, val := range values {
		code := a.table.CodeAt(i)
		entry, _ := a.table.Entry(code)
		out[i] = Importance{Code: code, Label: entry.Label, Importance: val}
	}
	return out, true
}

// Close releases model resources when the provider holds any.
func (a *Adapter) Close() error {
	if c, ok := a.clf.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
