package audit

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/straja-ai/fdpadvisor/internal/advisor"
	"github.com/straja-ai/fdpadvisor/internal/score"
	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// EventVersion is bumped when the event shape changes.
const EventVersion = "1"

// Level controls how much of a request an event carries.
type Level string

const (
	LevelOff      Level = "off"
	LevelMetadata Level = "metadata"
	LevelFull     Level = "full"
)

// ParseLevel maps a config value to a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelOff:
		return LevelOff, nil
	case "", LevelMetadata:
		return LevelMetadata, nil
	case LevelFull:
		return LevelFull, nil
	default:
		return "", fmt.Errorf("unknown audit level %q", s)
	}
}

// Outcome classifies an evaluation from the audit perspective.
type Outcome string

const (
	OutcomeOK                 Outcome = "ok"
	OutcomePredictionAbsent   Outcome = "prediction_absent"
	OutcomeInputError         Outcome = "input_error"
	OutcomeConfigurationError Outcome = "configuration_error"
	OutcomeError              Outcome = "error"
)

// OutcomeOf derives the outcome of one evaluation.
func OutcomeOf(resp *advisor.Response, err error) Outcome {
	switch {
	case err == nil && resp != nil && resp.Prediction == nil:
		return OutcomePredictionAbsent
	case err == nil:
		return OutcomeOK
	case errors.Is(err, taxonomy.ErrConfiguration):
		return OutcomeConfigurationError
	case errors.Is(err, score.ErrOutOfRange):
		return OutcomeInputError
	default:
		return OutcomeError
	}
}

type PredictionInfo struct {
	HighNeed    bool    `json:"high_need"`
	Probability float64 `json:"probability"`
}

// Event is the canonical audit payload for one evaluation.
type Event struct {
	Version         string             `json:"version"`
	ID              string             `json:"id"`
	Timestamp       time.Time          `json:"timestamp"`
	RequestID       string             `json:"request_id"`
	ClientID        string             `json:"client_id,omitempty"`
	Source          string             `json:"source"`
	Outcome         Outcome            `json:"outcome"`
	Prediction      *PredictionInfo    `json:"prediction,omitempty"`
	PredictionError string             `json:"prediction_error,omitempty"`
	FocusCodes      []string           `json:"focus_codes,omitempty"`
	RuleIDs         []string           `json:"rule_ids,omitempty"`
	Error           string             `json:"error,omitempty"`
	LatencyMs       float64            `json:"latency_ms"`
	Scores          map[string]float64 `json:"scores,omitempty"`
}

// Input carries everything needed to build an event.
type Input struct {
	RequestID string
	ClientID  string
	Source    string
	Scores    map[string]float64
	Response  *advisor.Response
	Err       error
	Latency   time.Duration
}

// NewEvent builds an event at the given level. It returns nil when the
// level is off. Scores are kept only at LevelFull.
func NewEvent(level Level, in Input) *Event {
	if level == LevelOff {
		return nil
	}
	ev := &Event{
		Version:   EventVersion,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		RequestID: in.RequestID,
		ClientID:  in.ClientID,
		Source:    in.Source,
		Outcome:   OutcomeOf(in.Response, in.Err),
		LatencyMs: float64(in.Latency.Microseconds()) / 1000,
	}
	if in.Err != nil {
		ev.Error = in.Err.Error()
	}
	if resp := in.Response; resp != nil && in.Err == nil {
		if resp.Prediction != nil {
			ev.Prediction = &PredictionInfo{
				HighNeed:    resp.Prediction.HighNeed,
				Probability: resp.Prediction.Probability,
			}
		}
		ev.PredictionError = resp.PredictionError
		for _, a := range resp.FocusAreas {
			ev.FocusCodes = append(ev.FocusCodes, string(a.Code))
		}
		for _, h := range resp.Recommendations {
			ev.RuleIDs = append(ev.RuleIDs, h.RuleID)
		}
	}
	if level == LevelFull && len(in.Scores) > 0 {
		ev.Scores = make(map[string]float64, len(in.Scores))
		for k, v := range in.Scores {
			ev.Scores[k] = v
		}
	}
	return ev
}
