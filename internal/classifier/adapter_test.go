package classifier

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/sony/gobreaker"

	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

type fakeClassifier struct {
	n     int
	label int
	prob  float64
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (f *fakeClassifier) NumFeatures() int { return f.n }

func (f *fakeClassifier) Predict(features []float64) (int, error) {
	f.calls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.label, f.err
}

func (f *fakeClassifier) PredictProbability(features []float64) (float64, error) {
	return f.prob, f.err
}

type fakeWithImportances struct {
	fakeClassifier
	importances []float64
}

func (f *fakeWithImportances) FeatureImportances() ([]float64, bool) {
	return f.importances, true
}

func uniform(t *testing.T, tab *taxonomy.Table, v float64) score.Vector {
	t.Helper()
	vec, err := score.Uniform(tab, v)
	if err != nil {
		t.Fatalf("uniform: %v", err)
	}
	return vec
}

func TestNewAdapterRejectsFeatureCount(t *testing.T) {
	tab := taxonomy.Default()
	_, err := NewAdapter(tab, &fakeClassifier{n: tab.Len() - 1})
	if !errors.Is(err, ErrFeatureMismatch) {
		t.Fatalf("expected ErrFeatureMismatch, got %v", err)
	}
	if !errors.Is(err, taxonomy.ErrConfiguration) {
		t.Fatalf("feature mismatch must be a configuration error")
	}
}

func TestNewAdapterRejectsFeatureOrder(t *testing.T) {
	tab := taxonomy.Default()
	codes := tab.Codes()
	codes[0], codes[1] = codes[1], codes[0]

	coef := make([]float64, len(codes))
	m, err := newLinear(linearFile{Features: codes, Coefficients: coef})
	if err != nil {
		t.Fatalf("newLinear: %v", err)
	}
	if _, err := NewAdapter(tab, m); !errors.Is(err, ErrFeatureMismatch) {
		t.Fatalf("expected ErrFeatureMismatch for swapped order, got %v", err)
	}
}

func TestPredictHighNeed(t *testing.T) {
	tab := taxonomy.Default()
	a, err := NewAdapter(tab, &fakeClassifier{n: tab.Len(), label: 1, prob: 0.83})
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}

	got, err := a.Predict(context.Background(), uniform(t, tab, 5))
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	want := Prediction{Label: 1, HighNeed: true, Probability: 0.83}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("prediction (-want +got):\n%s", diff)
	}
	if a.State() != StateReady {
		t.Fatalf("state = %s", a.State())
	}
}

func TestPredictWithoutModel(t *testing.T) {
	tab := taxonomy.Default()
	a, err := NewAdapter(tab, nil)
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	_, err = a.Predict(context.Background(), uniform(t, tab, 5))
	if !errors.Is(err, ErrNotConfigured) || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if a.State() != StateAbsent {
		t.Fatalf("state = %s", a.State())
	}
	if _, ok := a.Importances(); ok {
		t.Fatalf("no model must report no importances")
	}
}

func TestPredictTimeout(t *testing.T) {
	tab := taxonomy.Default()
	a, err := NewAdapter(tab, &fakeClassifier{n: tab.Len(), delay: 200 * time.Millisecond}, WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	_, err = a.Predict(context.Background(), uniform(t, tab, 5))
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected timeout as ErrUnavailable, got %v", err)
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	tab := taxonomy.Default()
	clf := &fakeClassifier{n: tab.Len(), err: errors.New("session lost")}
	a, err := NewAdapter(tab, clf, WithBreaker(2, time.Minute))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	v := uniform(t, tab, 5)

	for i := 0; i < 2; i++ {
		if _, err := a.Predict(context.Background(), v); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("call %d: expected ErrUnavailable, got %v", i, err)
		}
	}
	_, err = a.Predict(context.Background(), v)
	if !errors.Is(err, ErrUnavailable) || !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if got := clf.calls.Load(); got != 2 {
		t.Fatalf("model called %d times, want 2", got)
	}
	if a.State() != StateOpen {
		t.Fatalf("state = %s", a.State())
	}
}

func TestCallerDeadlineDoesNotTripBreaker(t *testing.T) {
	tab := taxonomy.Default()
	clf := &fakeClassifier{n: tab.Len(), label: 1, prob: 0.9, delay: 100 * time.Millisecond}
	a, err := NewAdapter(tab, clf, WithTimeout(time.Second), WithBreaker(1, time.Minute))
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	v := uniform(t, tab, 5)

	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		_, err := a.Predict(ctx, v)
		cancel()
		if !errors.Is(err, ErrUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("call %d: expected caller deadline, got %v", i, err)
		}
		if errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("call %d: breaker opened on caller deadline", i)
		}
	}
	if a.State() == StateOpen {
		t.Fatalf("breaker must stay closed, state = %s", a.State())
	}

	p, err := a.Predict(context.Background(), v)
	if err != nil || !p.HighNeed {
		t.Fatalf("expected prediction after caller deadlines, got %+v %v", p, err)
	}
}

func TestProbabilityOutsideUnitIntervalIsUnavailable(t *testing.T) {
	tab := taxonomy.Default()
	a, err := NewAdapter(tab, &fakeClassifier{n: tab.Len(), label: 1, prob: 1.5})
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if _, err := a.Predict(context.Background(), uniform(t, tab, 5)); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestPredictRejectsVectorOfOtherTaxonomy(t *testing.T) {
	small, err := taxonomy.New([]taxonomy.Entry{{Code: "A11", Label: "One", Topics: []string{"x"}}})
	if err != nil {
		t.Fatalf("taxonomy: %v", err)
	}
	tab := taxonomy.Default()
	a, err := NewAdapter(tab, &fakeClassifier{n: tab.Len()})
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if _, err := a.Predict(context.Background(), uniform(t, small, 5)); !errors.Is(err, ErrFeatureMismatch) {
		t.Fatalf("expected ErrFeatureMismatch, got %v", err)
	}
}

func TestImportances(t *testing.T) {
	tab, err := taxonomy.New([]taxonomy.Entry{
		{Code: "A11", Label: "Subject Knowledge", Topics: []string{"x"}},
		{Code: "A12", Label: "Research Methods", Topics: []string{"y"}},
		{Code: "A13", Label: "Information Literacy", Topics: []string{"z"}},
	})
	if err != nil {
		t.Fatalf("taxonomy: %v", err)
	}

	plain, err := NewAdapter(tab, &fakeClassifier{n: 3})
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	if _, ok := plain.Importances(); ok {
		t.Fatalf("plain model must not report importances")
	}

	a, err := NewAdapter(tab, &fakeWithImportances{fakeClassifier: fakeClassifier{n: 3}, importances: []float64{0.5, 0.1, 0.4}})
	if err != nil {
		t.Fatalf("NewAdapter: %v", err)
	}
	imps, ok := a.Importances()
	if !ok {
		t.Fatalf("expected importances")
	}
	want := []Importance{
		{Code: "A11", Label: "Subject Knowledge", Importance: 0.5},
		{Code: "A12", Label: "Research Methods", Importance: 0.1},
		{Code: "A13", Label: "Information Literacy", Importance: 0.4},
	}
	if diff := cmp.Diff(want, imps); diff != "" {
		t.Fatalf("importances (-want +got):\n%s", diff)
	}

	sorted := SortedAscending(imps)
	gotCodes := []taxonomy.Code{sorted[0].Code, sorted[1].Code, sorted[2].Code}
	if diff := cmp.Diff([]taxonomy.Code{"A12", "A13", "A11"}, gotCodes); diff != "" {
		t.Fatalf("ascending order (-want +got):\n%s", diff)
	}
	if imps[0].Code != "A11" {
		t.Fatalf("SortedAscending must not reorder its input")
	}
}

func TestImportanceCountMismatchFailsFast(t *testing.T) {
	tab := taxonomy.Default()
	clf := &fakeWithImportances{fakeClassifier: fakeClassifier{n: tab.Len()}, importances: []float64{1, 2}}
	if _, err := NewAdapter(tab, clf); !errors.Is(err, ErrFeatureMismatch) {
		t.Fatalf("expected ErrFeatureMismatch, got %v", err)
	}
}
