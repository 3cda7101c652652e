// Package advisor combines the classifier, ranking and rule engines into
// one evaluation response.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/straja-ai/fdpadvisor/internal/classifier"
	"github.com/straja-ai/fdpadvisor/internal/ranking"
	"github.com/straja-ai/fdpadvisor/internal/rules"
	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// Response is the evaluation result handed to renderers. Prediction is nil
// when the classifier could not produce one.
type Response struct {
	Prediction      *classifier.Prediction `json:"prediction"`
	PredictionError string                 `json:"prediction_error,omitempty"`
	FocusAreas      []ranking.FocusArea    `json:"focus_areas"`
	Recommendations []rules.Hit            `json:"recommendations"`
}

// Compose assembles a response from component outputs without reordering or
// filtering them. Inputs are copied.
func Compose(pred *classifier.Prediction, predErr error, areas []ranking.FocusArea, hits []rules.Hit) Response {
	var resp Response
	if pred != nil && predErr == nil {
		p := *pred
		resp.Prediction = &p
	}
	if predErr != nil {
		resp.PredictionError = predErr.Error()
	}

	resp.FocusAreas = make([]ranking.FocusArea, len(areas))
	for i, a := range areas {
		a.Topics = append([]string(nil), a.Topics...)
		resp.FocusAreas[i] = a
	}
	resp.Recommendations = append(make([]rules.Hit, 0, len(hits)), hits...)
	return resp
}

// Evaluator runs the full evaluation against one taxonomy.
type Evaluator struct {
	table   *taxonomy.Table
	adapter *classifier.Adapter
	ranker  *ranking.Engine
	rules   *rules.Engine
	observe InferenceObserver
}

// InferenceObserver is told the duration and result of each classifier call.
type InferenceObserver func(ctx context.Context, d time.Duration, err error)

// New builds an evaluator. topN <= 0 uses the ranking default. Rule codes
// are checked against the table here.
func New(table *taxonomy.Table, adapter *classifier.Adapter, topN int) (*Evaluator, error) {
	if table == nil {
		return nil, fmt.Errorf("%w: nil taxonomy", taxonomy.ErrConfiguration)
	}
	if adapter == nil {
		return nil, errors.New("advisor: nil classifier adapter")
	}
	re, err := rules.NewEngine(table)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		table:   table,
		adapter: adapter,
		ranker:  ranking.NewEngine(table, topN),
		rules:   re,
	}, nil
}

// ObserveInference installs fn. Call it before the evaluator is shared.
func (e *Evaluator) ObserveInference(fn InferenceObserver) { e.observe = fn }

func (e *Evaluator) Table() *taxonomy.Table { return e.table }

func (e *Evaluator) Adapter() *classifier.Adapter { return e.adapter }

func (e *Evaluator) Rules() *rules.Engine { return e.rules }

// DefaultTopN is the focus-area count used when a call passes topN <= 0.
func (e *Evaluator) DefaultTopN() int { return e.ranker.TopN() }

// EvaluateScores validates raw scores and evaluates them.
func (e *Evaluator) EvaluateScores(ctx context.Context, scores map[string]float64, topN int) (Response, error) {
	v, err := score.New(e.table, scores)
	if err != nil {
		return Response{}, err
	}
	return e.Evaluate(ctx, v, topN)
}

// Evaluate produces the response for v. A classifier failure leaves the
// prediction absent; ranking and rules are still returned. Configuration
// errors abort.
func (e *Evaluator) Evaluate(ctx context.Context, v score.Vector, topN int) (Response, error) {
	var pred *classifier.Prediction
	start := time.Now()
	p, predErr := e.adapter.Predict(ctx, v)
	if e.observe != nil {
		e.observe(ctx, time.Since(start), predErr)
	}
	switch {
	case predErr == nil:
		pred = &p
	case errors.Is(predErr, taxonomy.ErrConfiguration):
		return Response{}, predErr
	}

	areas, err := e.ranker.Rank(v, topN)
	if err != nil {
		return Response{}, err
	}
	hits := e.rules.Evaluate(v)

	return Compose(pred, predErr, areas, hits), nil
}
