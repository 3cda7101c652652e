package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
	"github.com/straja-ai/fdpadvisor/internal/audit"
	"github.com/straja-ai/fdpadvisor/internal/classifier"
	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

const (
	sourceAPI      = "api"
	sourceAPIBatch = "api_batch"
)

type evaluateRequest struct {
	Scores map[string]float64 `json:"scores"`
	TopN   int                `json:"top_n,omitempty"`
}

type evaluateResponse struct {
	RequestID string `json:"request_id"`
	advisor.Response
}

type batchRequest struct {
	Items []batchRequestItem `json:"items"`
	TopN  int                `json:"top_n,omitempty"`
}

type batchRequestItem struct {
	ID     string          `json:"id"`
	Scores json.RawMessage `json:"scores"`
}

type batchResponse struct {
	RequestID string                `json:"request_id"`
	Results   []advisor.BatchResult `json:"results"`
}

type healthResponse struct {
	Status       string `json:"status"`
	TaxonomySize int    `json:"taxonomy_size"`
	Classifier   string `json:"classifier"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		TaxonomySize: s.eval.Table().Len(),
		Classifier:   s.eval.Adapter().State(),
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rid := requestID(r.Context())
	ctx, span := s.telemetry.StartSpan(r.Context(), "fdpadvisor.evaluate",
		attribute.String("fdpadvisor.request_id", rid),
		attribute.String("fdpadvisor.client_id", clientID(r.Context())),
	)
	defer span.End()

	body, ok := readBody(w, r)
	if !ok {
		return
	}

	var req evaluateRequest
	err := validate(s.schemas.evaluate, body)
	if err == nil {
		if uerr := json.Unmarshal(body, &req); uerr != nil {
			err = &requestError{err: fmt.Errorf("invalid JSON body: %w", uerr)}
		}
	}

	var resp advisor.Response
	if err == nil {
		resp, err = s.eval.EvaluateScores(ctx, req.Scores, req.TopN)
	}
	outcome := s.record(ctx, sourceAPI, req.Scores, &resp, err, time.Since(start))
	span.SetAttributes(attribute.String("fdpadvisor.outcome", string(outcome)))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(outcome))
		s.writeEvalError(w, rid, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluateResponse{RequestID: rid, Response: resp})
}

func (s *Server) handleEvaluateBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rid := requestID(r.Context())
	ctx, span := s.telemetry.StartSpan(r.Context(), "fdpadvisor.evaluate_batch",
		attribute.String("fdpadvisor.request_id", rid),
		attribute.String("fdpadvisor.client_id", clientID(r.Context())),
	)
	defer span.End()

	body, ok := readBody(w, r)
	if !ok {
		return
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), "invalid_request_error")
		return
	}
	if err := validateValue(s.schemas.batch, inst); err != nil {
		writeAPIError(w, http.StatusBadRequest, err.Error(), "invalid_request_error")
		return
	}
	var req batchRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeAPIError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), "invalid_request_error")
		return
	}
	if limit := s.cfg.Batch.MaxItems; limit > 0 && len(req.Items) > limit {
		writeAPIError(w, http.StatusBadRequest, fmt.Sprintf("batch has %d items; at most %d are allowed", len(req.Items), limit), "invalid_request_error")
		return
	}
	span.SetAttributes(attribute.Int("fdpadvisor.batch_size", len(req.Items)))

	// Items that fail the score schema are answered directly; the rest are
	// evaluated together and merged back by position.
	rawItems, _ := inst.(map[string]any)["items"].([]any)
	results := make([]advisor.BatchResult, len(req.Items))
	var (
		runnable []advisor.BatchItem
		slots    []int
	)
	for i, item := range req.Items {
		id := item.ID
		if id == "" {
			id = fmt.Sprintf("item-%d", i+1)
		}
		var scoresInst any
		if i < len(rawItems) {
			if m, ok := rawItems[i].(map[string]any); ok {
				scoresInst = m["scores"]
			}
		}
		var scores map[string]float64
		err := validateValue(s.schemas.scores, scoresInst)
		if err == nil {
			if uerr := json.Unmarshal(item.Scores, &scores); uerr != nil {
				err = &requestError{err: uerr}
			}
		}
		if err != nil {
			results[i] = advisor.BatchResult{ID: id, Err: err, Error: err.Error()}
			s.record(ctx, sourceAPIBatch, nil, nil, err, time.Since(start))
			continue
		}
		runnable = append(runnable, advisor.BatchItem{ID: id, Scores: scores})
		slots = append(slots, i)
	}

	evaluated, err := s.eval.EvaluateBatch(ctx, runnable, req.TopN, s.cfg.Batch.Parallelism)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "canceled")
		writeAPIError(w, http.StatusServiceUnavailable, "Batch evaluation canceled", "internal_error")
		return
	}
	for j, res := range evaluated {
		results[slots[j]] = res
		s.record(ctx, sourceAPIBatch, runnable[j].Scores, res.Response, res.Err, time.Since(start))
	}

	writeJSON(w, http.StatusOK, batchResponse{RequestID: rid, Results: results})
}

type taxonomyResponse struct {
	Entries []taxonomy.Entry `json:"entries"`
}

func (s *Server) handleTaxonomy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, taxonomyResponse{Entries: s.eval.Table().Entries()})
}

type importancesResponse struct {
	Importances []classifier.Importance `json:"importances"`
}

// handleImportances returns importances in taxonomy order, or ascending by
// value with ?order=ascending.
func (s *Server) handleImportances(w http.ResponseWriter, r *http.Request) {
	imps, ok := s.eval.Adapter().Importances()
	if !ok {
		writeAPIError(w, http.StatusNotFound, "The configured model does not report feature importances", "not_found_error")
		return
	}
	switch r.URL.Query().Get("order") {
	case "", "taxonomy":
	case "ascending":
		imps = classifier.SortedAscending(imps)
	default:
		writeAPIError(w, http.StatusBadRequest, "order must be taxonomy or ascending", "invalid_request_error")
		return
	}
	writeJSON(w, http.StatusOK, importancesResponse{Importances: imps})
}

// writeEvalError maps evaluation errors onto HTTP statuses.
func (s *Server) writeEvalError(w http.ResponseWriter, rid string, err error) {
	var reqErr *requestError
	switch {
	case errors.Is(err, score.ErrKeySetMismatch):
		writeAPIError(w, http.StatusUnprocessableEntity, err.Error(), "configuration_error")
	case errors.As(err, &reqErr), errors.Is(err, score.ErrOutOfRange):
		writeAPIError(w, http.StatusBadRequest, err.Error(), "invalid_request_error")
	case errors.Is(err, taxonomy.ErrConfiguration):
		s.log.Error().Err(err).Str("request_id", rid).Msg("configuration error during evaluation")
		writeAPIError(w, http.StatusInternalServerError, "Server configuration error", "configuration_error")
	default:
		s.log.Error().Err(err).Str("request_id", rid).Msg("evaluation failed")
		writeAPIError(w, http.StatusInternalServerError, "Evaluation failed", "internal_error")
	}
}

// record emits metrics and an audit event for one evaluation and returns
// its outcome.
func (s *Server) record(ctx context.Context, source string, scores map[string]float64, resp *advisor.Response, err error, d time.Duration) audit.Outcome {
	if err != nil {
		resp = nil
	}
	outcome := audit.OutcomeOf(resp, err)
	var reqErr *requestError
	if errors.As(err, &reqErr) && !errors.Is(err, score.ErrKeySetMismatch) {
		outcome = audit.OutcomeInputError
	}

	var ruleIDs []string
	if resp != nil {
		for _, h := range resp.Recommendations {
			ruleIDs = append(ruleIDs, h.RuleID)
		}
	}
	s.telemetry.RecordEvaluation(ctx, string(outcome), source, float64(d.Microseconds())/1000, ruleIDs)

	if s.audit != nil {
		ev := audit.NewEvent(s.auditLevel, audit.Input{
			RequestID: requestID(ctx),
			ClientID:  clientID(ctx),
			Source:    source,
			Scores:    scores,
			Response:  resp,
			Err:       err,
			Latency:   d,
		})
		if ev != nil {
			ev.Outcome = outcome
			s.audit.Emit(ev)
		}
	}
	return outcome
}
