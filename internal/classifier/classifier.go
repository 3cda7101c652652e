// Package classifier adapts a pre-trained binary FDP-need model to the score
// vector. Providers are loaded once at startup and shared read-only.
package classifier

import (
	"errors"
	"fmt"
	"sort"

	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// PositiveLabel is the class label meaning high FDP need.
const PositiveLabel = 1

var (
	// ErrFeatureMismatch means the model expects a different feature count
	// or order than the taxonomy declares.
	ErrFeatureMismatch = fmt.Errorf("%w: classifier features do not match taxonomy", taxonomy.ErrConfiguration)

	// ErrUnavailable means no prediction could be produced for this call.
	ErrUnavailable = errors.New("classifier unavailable")

	// ErrNotConfigured is returned when the service runs without a model.
	ErrNotConfigured = fmt.Errorf("%w: no model configured", ErrUnavailable)
)

// Classifier is a binary model over the ordered feature vector.
type Classifier interface {
	NumFeatures() int
	Predict(features []float64) (int, error)
	PredictProbability(features []float64) (float64, error)
}

// ImportanceReporter is implemented by models that expose per-feature
// importances, in feature order.
type ImportanceReporter interface {
	FeatureImportances() ([]float64, bool)
}

// Scorer lets a model return label and probability from one inference.
type Scorer interface {
	Score(features []float64) (label int, probability float64, err error)
}

// Prediction is the model output for one vector.
type Prediction struct {
	Label       int     `json:"label"`
	HighNeed    bool    `json:"high_need"`
	Probability float64 `json:"probability"`
}

// Importance is the model weight of one taxonomy code.
type Importance struct {
	Code       taxonomy.Code `json:"code"`
	Label      string        `json:"label"`
	Importance float64       `json:"importance"`
}

// SortedAscending returns a copy of imps ordered by importance, lowest first.
// Equal importances keep their input order.
func SortedAscending(imps []Importance) []Importance {
	out := make([]Importance, len(imps))
	copy(out, imps)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Importance < out[j].Importance
	})
	return out
}
