package advisor

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// BatchItem is one score set in a batch.
type BatchItem struct {
	ID     string             `json:"id"`
	Scores map[string]float64 `json:"scores"`
}

// BatchResult pairs an item with its response or error.
type BatchResult struct {
	ID       string    `json:"id"`
	Response *Response `json:"response,omitempty"`
	Error    string    `json:"error,omitempty"`
	Err      error     `json:"-"`
}

// EvaluateBatch evaluates items with at most parallelism concurrent
// evaluations. Results keep input order and item failures are recorded on
// the item. The only returned error is context cancellation.
func (e *Evaluator) EvaluateBatch(ctx context.Context, items []BatchItem, topN, parallelism int) ([]BatchResult, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	results := make([]BatchResult, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, item := range items {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := BatchResult{ID: item.ID}
			resp, err := e.EvaluateScores(gctx, item.Scores, topN)
			if err != nil {
				res.Err = err
				res.Error = err.Error()
			} else {
				res.Response = &resp
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
