package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// Guard bounds each inference with a timeout and trips a circuit breaker
// after repeated failures.
type Guard struct {
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

// errCallerDone marks calls abandoned because the caller's own context
// ended. They do not count against the breaker.
var errCallerDone = errors.New("caller context done")

type guardResult struct {
	pred Prediction
	err  error
}

func newGuard(o adapterOptions) *Guard {
	settings := gobreaker.Settings{
		Name:        "classifier",
		MaxRequests: 1,
		Timeout:     o.cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= o.failures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerDone) || errors.Is(err, taxonomy.ErrConfiguration)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			level := zerolog.InfoLevel
			if to == gobreaker.StateOpen {
				level = zerolog.WarnLevel
			}
			o.logger.WithLevel(level).
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("classifier breaker state changed")
		},
	}
	return &Guard{timeout: o.timeout, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Do runs fn under the breaker and the per-call timeout. Timeouts and
// breaker rejections come back as ErrUnavailable.
func (g *Guard) Do(ctx context.Context, fn func() (Prediction, error)) (Prediction, error) {
	out, err := g.cb.Execute(func() (interface{}, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		ch := make(chan guardResult, 1)
		go func() {
			p, err := fn()
			ch <- guardResult{pred: p, err: err}
		}()

		select {
		case r := <-ch:
			return r.pred, r.err
		case <-callCtx.Done():
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w: %w", ErrUnavailable, errCallerDone, ctx.Err())
			}
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, callCtx.Err())
		}
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Prediction{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return Prediction{}, err
	}
	return out.(Prediction), nil
}

// Open reports whether the breaker is currently rejecting calls.
func (g *Guard) Open() bool {
	return g.cb.State() == gobreaker.StateOpen
}
