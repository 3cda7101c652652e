package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

const schemaBase = "schema://fdpadvisor/"

// requestSchemas holds the compiled request schemas for one taxonomy.
type requestSchemas struct {
	evaluate *jsonschema.Schema
	batch    *jsonschema.Schema
	scores   *jsonschema.Schema
}

// scoresDefinition requires every code in the table, rejects any other key
// and bounds each score to the Likert range.
func scoresDefinition(table *taxonomy.Table) map[string]any {
	props := make(map[string]any, table.Len())
	required := make([]any, 0, table.Len())
	for _, c := range table.Codes() {
		props[string(c)] = map[string]any{
			"type":    "number",
			"minimum": score.Min,
			"maximum": score.Max,
		}
		required = append(required, string(c))
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func compileRequestSchemas(table *taxonomy.Table) (*requestSchemas, error) {
	topN := map[string]any{"type": "integer", "minimum": 1, "maximum": table.Len()}
	defs := map[string]any{
		"scores.json": scoresDefinition(table),
		"evaluate.json": map[string]any{
			"type":                 "object",
			"required":             []any{"scores"},
			"additionalProperties": false,
			"properties": map[string]any{
				"scores": map[string]any{"$ref": "scores.json"},
				"top_n":  topN,
			},
		},
		// Item scores are checked one by one so a bad item does not fail the
		// whole batch.
		"batch.json": map[string]any{
			"type":                 "object",
			"required":             []any{"items"},
			"additionalProperties": false,
			"properties": map[string]any{
				"top_n": topN,
				"items": map[string]any{
					"type":     "array",
					"minItems": 1,
					"items": map[string]any{
						"type":                 "object",
						"required":             []any{"scores"},
						"additionalProperties": false,
						"properties": map[string]any{
							"id":     map[string]any{"type": "string"},
							"scores": map[string]any{"type": "object"},
						},
					},
				},
			},
		},
	}

	c := jsonschema.NewCompiler()
	for name, def := range defs {
		// The compiler wants JSON-decoded values, not Go literals.
		raw, err := json.Marshal(def)
		if err != nil {
			return nil, fmt.Errorf("marshal schema %s: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", name, err)
		}
		if err := c.AddResource(schemaBase+name, doc); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}
	out := &requestSchemas{}
	for name, dst := range map[string]**jsonschema.Schema{
		"evaluate.json": &out.evaluate,
		"batch.json":    &out.batch,
		"scores.json":   &out.scores,
	} {
		s, err := c.Compile(schemaBase + name)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", name, err)
		}
		*dst = s
	}
	return out, nil
}

// requestError is a rejected request body. Missing or extra score codes
// wrap score.ErrKeySetMismatch.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// validate parses body as JSON and checks it against s.
func validate(s *jsonschema.Schema, body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return &requestError{err: fmt.Errorf("invalid JSON body: %w", err)}
	}
	return validateValue(s, inst)
}

func validateValue(s *jsonschema.Schema, inst any) error {
	err := s.Validate(inst)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		if keySetViolation(ve) {
			return &requestError{err: fmt.Errorf("%w: %w", score.ErrKeySetMismatch, ve)}
		}
		return &requestError{err: ve}
	}
	return &requestError{err: err}
}

// keySetViolation reports whether any leaf failure is a required or
// additionalProperties violation on the scores object.
func keySetViolation(ve *jsonschema.ValidationError) bool {
	if len(ve.Causes) == 0 {
		if ve.ErrorKind == nil {
			return false
		}
		kw := ve.ErrorKind.KeywordPath()
		if len(kw) == 0 {
			return false
		}
		switch kw[len(kw)-1] {
		case "required", "additionalProperties":
			loc := ve.InstanceLocation
			if len(loc) == 0 {
				return strings.HasPrefix(ve.SchemaURL, schemaBase+"scores.json")
			}
			return loc[len(loc)-1] == "scores"
		}
		return false
	}
	for _, c := range ve.Causes {
		if keySetViolation(c) {
			return true
		}
	}
	return false
}
