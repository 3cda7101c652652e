package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
	"github.com/straja-ai/fdpadvisor/internal/audit"
	"github.com/straja-ai/fdpadvisor/internal/auth"
	"github.com/straja-ai/fdpadvisor/internal/classifier"
	"github.com/straja-ai/fdpadvisor/internal/config"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg, err := config.Load("testdata/does-not-exist.yaml")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Server.Addr = ":0"
	cfg.Server.MaxInFlight = 5
	cfg.Batch.MaxItems = 10
	return cfg
}

func linearModel(t *testing.T) classifier.Classifier {
	t.Helper()
	coef := make([]float64, taxonomy.Default().Len())
	for i := range coef {
		coef[i] = 0.1
	}
	m, err := classifier.NewLinear(coef, -20, 0)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	return m
}

func newTestServer(t *testing.T, cfg *config.Config, clf classifier.Classifier, deps Deps) *Server {
	t.Helper()

	tab := taxonomy.Default()
	adapter, err := classifier.NewAdapter(tab, clf)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	eval, err := advisor.New(tab, adapter, cfg.Ranking.TopN)
	if err != nil {
		t.Fatalf("advisor.New: %v", err)
	}
	authz, err := auth.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	srv, err := New(cfg, authz, eval, deps)
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}
	return srv
}

func scoresWith(base float64, overrides map[string]float64) map[string]float64 {
	out := make(map[string]float64)
	for _, c := range taxonomy.Default().Codes() {
		out[string(c)] = base
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return bytes.NewReader(b)
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body apiErrorBody
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return body.Error.Type
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), linearModel(t), Deps{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got healthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := healthResponse{Status: "ok", TaxonomySize: 43, Classifier: classifier.StateReady}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("health (-want +got):\n%s", diff)
	}
	if _, err := uuid.Parse(rr.Header().Get("X-Request-ID")); err != nil {
		t.Fatalf("expected uuid request id, got %q", rr.Header().Get("X-Request-ID"))
	}
}

func TestEvaluateScenario(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), linearModel(t), Deps{})

	rid := uuid.NewString()
	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", jsonBody(t, map[string]any{
		"scores": scoresWith(5, map[string]float64{"A11": 9, "A21": 8}),
	}))
	req.Header.Set("X-Request-ID", rid)
	rr := do(srv, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var got evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.RequestID != rid || rr.Header().Get("X-Request-ID") != rid {
		t.Fatalf("request id not propagated: body=%q header=%q", got.RequestID, rr.Header().Get("X-Request-ID"))
	}
	if got.Prediction == nil || !got.Prediction.HighNeed {
		t.Fatalf("expected high need prediction, got %+v", got.Prediction)
	}
	var codes []taxonomy.Code
	for _, a := range got.FocusAreas {
		codes = append(codes, a.Code)
	}
	if diff := cmp.Diff([]taxonomy.Code{"A11", "A21", "A12"}, codes); diff != "" {
		t.Fatalf("focus areas (-want +got):\n%s", diff)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].RuleID != "subject_analysis" {
		t.Fatalf("unexpected recommendations %+v", got.Recommendations)
	}
}

func TestEvaluateTopN(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil, Deps{})

	rr := do(srv, httptest.NewRequest(http.MethodPost, "/v1/evaluate", jsonBody(t, map[string]any{
		"scores": scoresWith(5, nil),
		"top_n":  5,
	})))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got evaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.FocusAreas) != 5 {
		t.Fatalf("expected 5 focus areas, got %d", len(got.FocusAreas))
	}
	if got.Prediction != nil || got.PredictionError == "" {
		t.Fatalf("expected absent prediction without a model, got %+v / %q", got.Prediction, got.PredictionError)
	}
}

func TestEvaluateRejections(t *testing.T) {
	missing := scoresWith(5, nil)
	delete(missing, "D32")
	extra := scoresWith(5, map[string]float64{"Z99": 3})

	cases := []struct {
		name     string
		body     string
		wantCode int
		wantType string
	}{
		{"missing code", mustJSON(t, map[string]any{"scores": missing}), http.StatusUnprocessableEntity, "configuration_error"},
		{"extra code", mustJSON(t, map[string]any{"scores": extra}), http.StatusUnprocessableEntity, "configuration_error"},
		{"out of range", mustJSON(t, map[string]any{"scores": scoresWith(5, map[string]float64{"B14": 11})}), http.StatusBadRequest, "invalid_request_error"},
		{"below range", mustJSON(t, map[string]any{"scores": scoresWith(5, map[string]float64{"B14": 0.5})}), http.StatusBadRequest, "invalid_request_error"},
		{"string score", strings.Replace(mustJSON(t, map[string]any{"scores": scoresWith(5, nil)}), `"A11":5`, `"A11":"5"`, 1), http.StatusBadRequest, "invalid_request_error"},
		{"no scores", `{"top_n":3}`, http.StatusBadRequest, "invalid_request_error"},
		{"bad top_n", mustJSON(t, map[string]any{"scores": scoresWith(5, nil), "top_n": 0}), http.StatusBadRequest, "invalid_request_error"},
		{"not json", `{"scores":`, http.StatusBadRequest, "invalid_request_error"},
	}

	srv := newTestServer(t, newTestConfig(t), linearModel(t), Deps{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := do(srv, httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(tc.body)))
			if rr.Code != tc.wantCode {
				t.Fatalf("expected %d, got %d: %s", tc.wantCode, rr.Code, rr.Body.String())
			}
			if got := errorType(t, rr); got != tc.wantType {
				t.Fatalf("expected type %q, got %q", tc.wantType, got)
			}
		})
	}
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestRequestBodyLimitReturns413(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.MaxRequestBodyBytes = 10
	srv := newTestServer(t, cfg, nil, Deps{})

	rr := do(srv, httptest.NewRequest(http.MethodPost, "/v1/evaluate", jsonBody(t, map[string]any{"scores": scoresWith(5, nil)})))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
	if got := errorType(t, rr); got != "payload_too_large" {
		t.Fatalf("unexpected type %q", got)
	}
}

func TestAuthRequiredWhenClientsConfigured(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Clients = []config.ClientConfig{{ID: "faculty-office", APIKeys: []string{"test-key"}}}
	srv := newTestServer(t, cfg, nil, Deps{})

	body := mustJSON(t, map[string]any{"scores": scoresWith(5, nil)})
	cases := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusUnauthorized},
		{"Basic test-key", http.StatusUnauthorized},
		{"Bearer test-key", http.StatusOK},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body))
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if rr := do(srv, req); rr.Code != tc.want {
			t.Fatalf("auth %q: expected %d, got %d", tc.header, tc.want, rr.Code)
		}
	}

	if rr := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil)); rr.Code != http.StatusOK {
		t.Fatalf("healthz should stay open, got %d", rr.Code)
	}
}

type blockingClassifier struct {
	n       int
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingClassifier) NumFeatures() int { return b.n }

func (b *blockingClassifier) Predict([]float64) (int, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return 0, nil
}

func (b *blockingClassifier) PredictProbability([]float64) (float64, error) { return 0.2, nil }

func TestInFlightLimitReturns429(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Server.MaxInFlight = 1
	clf := &blockingClassifier{n: 43, started: make(chan struct{}), release: make(chan struct{})}
	srv := newTestServer(t, cfg, clf, Deps{})

	body := mustJSON(t, map[string]any{"scores": scoresWith(5, nil)})
	done := make(chan int, 1)
	go func() {
		rr := do(srv, httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body)))
		done <- rr.Code
	}()

	select {
	case <-clf.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("first request never reached the classifier")
	}

	rr := do(srv, httptest.NewRequest(http.MethodPost, "/v1/evaluate", strings.NewReader(body)))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	close(clf.release)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", code)
	}
}

func TestEvaluateBatch(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), linearModel(t), Deps{})

	missing := scoresWith(5, nil)
	delete(missing, "C12")
	rr := do(srv, httptest.NewRequest(http.MethodPost, "/v1/evaluate/batch", jsonBody(t, map[string]any{
		"items": []map[string]any{
			{"id": "a", "scores": scoresWith(5, map[string]float64{"A11": 9, "A21": 8})},
			{"scores": missing},
			{"id": "c", "scores": scoresWith(5, map[string]float64{"D32": 12})},
			{"id": "d", "scores": scoresWith(5, nil)},
		},
	})))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var got batchResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	ids := make([]string, len(got.Results))
	for i, r := range got.Results {
		ids[i] = r.ID
	}
	if diff := cmp.Diff([]string{"a", "item-2", "c", "d"}, ids); diff != "" {
		t.Fatalf("ids (-want +got):\n%s", diff)
	}
	if got.Results[0].Response == nil || got.Results[0].Response.Prediction == nil || !got.Results[0].Response.Prediction.HighNeed {
		t.Fatalf("item a: unexpected %+v", got.Results[0])
	}
	if got.Results[1].Error == "" || got.Results[2].Error == "" {
		t.Fatalf("expected item errors, got %+v", got.Results)
	}
	if got.Results[3].Response == nil || got.Results[3].Error != "" {
		t.Fatalf("item d: unexpected %+v", got.Results[3])
	}
}

func TestEvaluateBatchMaxItems(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Batch.MaxItems = 1
	srv := newTestServer(t, cfg, nil, Deps{})

	item := map[string]any{"scores": scoresWith(5, nil)}
	rr := do(srv, httptest.NewRequest(http.MethodPost, "/v1/evaluate/batch", jsonBody(t, map[string]any{
		"items": []map[string]any{item, item},
	})))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	rr = do(srv, httptest.NewRequest(http.MethodPost, "/v1/evaluate/batch", strings.NewReader(`{"items":[]}`)))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty batch: expected 400, got %d", rr.Code)
	}
}

func TestTaxonomyEndpoint(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil, Deps{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/v1/taxonomy", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got taxonomyResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Entries) != 43 || got.Entries[0].Code != "A11" || got.Entries[42].Code != "D32" {
		t.Fatalf("unexpected taxonomy %d entries", len(got.Entries))
	}
}

func TestImportancesEndpoint(t *testing.T) {
	srv := newTestServer(t, newTestConfig(t), nil, Deps{})
	if rr := do(srv, httptest.NewRequest(http.MethodGet, "/v1/model/importances", nil)); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a model, got %d", rr.Code)
	}

	coef := make([]float64, 43)
	for i := range coef {
		coef[i] = float64(43 - i)
	}
	m, err := classifier.NewLinear(coef, 0, 0)
	if err != nil {
		t.Fatalf("NewLinear: %v", err)
	}
	srv = newTestServer(t, newTestConfig(t), m, Deps{})

	rr := do(srv, httptest.NewRequest(http.MethodGet, "/v1/model/importances?order=ascending", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var got importancesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Importances) != 43 || got.Importances[0].Code != "D32" || got.Importances[42].Code != "A11" {
		t.Fatalf("unexpected importances order: first=%v last=%v", got.Importances[0], got.Importances[len(got.Importances)-1])
	}

	if rr := do(srv, httptest.NewRequest(http.MethodGet, "/v1/model/importances?order=random", nil)); rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown order, got %d", rr.Code)
	}
}

type memorySink struct {
	mu     sync.Mutex
	events []*audit.Event
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Deliver(_ context.Context, ev *audit.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memorySink) Close(context.Context) error { return nil }

func TestEvaluateEmitsAuditEvents(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Audit.Level = "full"
	sink := &memorySink{}
	em := audit.NewEmitter([]audit.Sink{sink}, audit.WithQueue(10, 1))
	srv := newTestServer(t, cfg, nil, Deps{Audit: em})

	req := httptest.NewRequest(http.MethodPost, "/v1/evaluate", jsonBody(t, map[string]any{"scores": scoresWith(5, nil)}))
	okID := do(srv, req).Header().Get("X-Request-ID")
	rr := do(srv, httptest.NewRequest(http.MethodPost, "/v1/evaluate", jsonBody(t, map[string]any{"scores": scoresWith(5, map[string]float64{"A11": 42})})))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	em.Close(context.Background())

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.events) != 2 {
		t.Fatalf("expected 2 audit events, got %d", len(sink.events))
	}
	byOutcome := map[audit.Outcome]*audit.Event{}
	for _, ev := range sink.events {
		byOutcome[ev.Outcome] = ev
	}
	absent := byOutcome[audit.OutcomePredictionAbsent]
	if absent == nil || absent.RequestID != okID || absent.Source != sourceAPI || len(absent.Scores) != 43 {
		t.Fatalf("unexpected prediction_absent event %+v", absent)
	}
	if byOutcome[audit.OutcomeInputError] == nil {
		t.Fatalf("expected an input_error event, got %+v", sink.events)
	}
}
