package advisor

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/straja-ai/fdpadvisor/internal/classifier"
	"github.com/straja-ai/fdpadvisor/internal/config"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// LoadTable returns the configured taxonomy, or the built-in one.
func LoadTable(c *config.Config) (*taxonomy.Table, error) {
	if c.Taxonomy.Path == "" {
		return taxonomy.Default(), nil
	}
	t, err := taxonomy.Load(c.Taxonomy.Path)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	return t, nil
}

// loadClassifier is replaced in tests.
var loadClassifier = classifier.Load

// FromConfig wires taxonomy, classifier and engines from config. Any
// mismatch between model and taxonomy fails here, before anything is served.
func FromConfig(c *config.Config, logger zerolog.Logger) (*Evaluator, error) {
	table, err := LoadTable(c)
	if err != nil {
		return nil, err
	}
	clf, err := loadClassifier(c.Model.Kind, c.Model.Path, c.Model.ONNXRuntimeLibrary)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	adapter, err := classifier.NewAdapter(table, clf,
		classifier.WithTimeout(c.Model.InferenceTimeout),
		classifier.WithBreaker(c.Model.BreakerFailures, c.Model.BreakerCooldown),
		classifier.WithLogger(logger.With().Str("component", "classifier").Logger()),
	)
	if err != nil {
		if c, ok := clf.(io.Closer); ok {
			_ = c.Close()
		}
		return nil, err
	}
	if clf == nil {
		logger.Warn().Msg("no model configured; predictions will be absent")
	}
	e, err := New(table, adapter, c.Ranking.TopN)
	if err != nil {
		_ = adapter.Close()
		return nil, err
	}
	return e, nil
}
