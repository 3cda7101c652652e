package classifier

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// LinearModel is a logistic-regression classifier with fixed weights.
type LinearModel struct {
	features     []taxonomy.Code
	coefficients []float64
	intercept    float64
	threshold    float64
	importances  []float64
}

type linearFile struct {
	Features           []taxonomy.Code `yaml:"features"`
	Coefficients       []float64       `yaml:"coefficients"`
	Intercept          float64         `yaml:"intercept"`
	Threshold          float64         `yaml:"threshold"`
	FeatureImportances []float64       `yaml:"feature_importances"`
}

// NewLinear builds a model from weights. threshold <= 0 means 0.5.
func NewLinear(coefficients []float64, intercept, threshold float64) (*LinearModel, error) {
	return newLinear(linearFile{
		Coefficients: coefficients,
		Intercept:    intercept,
		Threshold:    threshold,
	})
}

// LoadLinear reads a YAML model description.
func LoadLinear(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read linear model: %w", err)
	}
	var f linearFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse linear model %s: %w", path, err)
	}
	m, err := newLinear(f)
	if err != nil {
		return nil, fmt.Errorf("linear model %s: %w", path, err)
	}
	return m, nil
}

func newLinear(f linearFile) (*LinearModel, error) {
	if len(f.Coefficients) == 0 {
		return nil, errors.New("no coefficients")
	}
	if len(f.Features) > 0 && len(f.Features) != len(f.Coefficients) {
		return nil, fmt.Errorf("%w: %d feature names for %d coefficients", ErrFeatureMismatch, len(f.Features), len(f.Coefficients))
	}
	if len(f.FeatureImportances) > 0 && len(f.FeatureImportances) != len(f.Coefficients) {
		return nil, fmt.Errorf("%w: %d importances for %d coefficients", ErrFeatureMismatch, len(f.FeatureImportances), len(f.Coefficients))
	}
	if f.Threshold <= 0 {
		f.Threshold = 0.5
	}
	if f.Threshold >= 1 {
		return nil, fmt.Errorf("threshold %v must be below 1", f.Threshold)
	}
	for i, c := range f.Coefficients {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, fmt.Errorf("coefficient %d is not finite", i)
		}
	}

	return &LinearModel{
		features:     append([]taxonomy.Code(nil), f.Features...),
		coefficients: append([]float64(nil), f.Coefficients...),
		intercept:    f.Intercept,
		threshold:    f.Threshold,
		importances:  append([]float64(nil), f.FeatureImportances...),
	}, nil
}

func (m *LinearModel) NumFeatures() int { return len(m.coefficients) }

func (m *LinearModel) FeatureNames() []taxonomy.Code {
	return append([]taxonomy.Code(nil), m.features...)
}

// FeatureImportances returns the configured importances, or the absolute
// coefficients when none were given.
func (m *LinearModel) FeatureImportances() ([]float64, bool) {
	if len(m.importances) > 0 {
		return append([]float64(nil), m.importances...), true
	}
	out := make([]float64, len(m.coefficients))
	for i, c := range m.coefficients {
		out[i] = math.Abs(c)
	}
	return out, true
}

func (m *LinearModel) Predict(features []float64) (int, error) {
	label, _, err := m.Score(features)
	return label, err
}

func (m *LinearModel) PredictProbability(features []float64) (float64, error) {
	_, p, err := m.Score(features)
	return p, err
}

func (m *LinearModel) Score(features []float64) (int, float64, error) {
	if len(features) != len(m.coefficients) {
		return 0, 0, fmt.Errorf("%w: got %d features, want %d", ErrFeatureMismatch, len(features), len(m.coefficients))
	}
	z := m.intercept
	for i, x := range features {
		z += m.coefficients[i] * x
	}
	p := 1.0 / (1.0 + math.Exp(-z))
	label := 0
	if p > m.threshold {
		label = PositiveLabel
	}
	return label, p, nil
}
