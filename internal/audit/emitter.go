package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/straja-ai/fdpadvisor/internal/redact"
)

// Sink consumes audit events (file, webhook, sqlite).
type Sink interface {
	Name() string
	Deliver(context.Context, *Event) error
	Close(context.Context) error
}

// Observer receives delivery accounting. telemetry.Provider implements it.
type Observer interface {
	RecordAuditQueued(ctx context.Context, outcome string, accepted bool)
	RecordAuditDelivery(ctx context.Context, sink string, ok bool)
}

// Stats is a point-in-time view of an Emitter's counters.
type Stats struct {
	Queued    uint64
	Dropped   uint64
	Delivered uint64
	Failed    uint64
}

// Emitter hands audit events to sinks on background workers so evaluations
// never wait on disk or network.
type Emitter struct {
	events chan *Event
	sinks  []Sink
	obs    Observer
	drain  time.Duration
	log    zerolog.Logger

	// mu orders Emit against Close so nothing is sent on a closed channel.
	mu      sync.RWMutex
	closed  bool
	workers sync.WaitGroup

	queued, dropped, delivered, failed atomic.Uint64
}

type emitterOptions struct {
	queueSize int
	workers   int
	drain     time.Duration
	logger    zerolog.Logger
	obs       Observer
}

// EmitterOption customizes NewEmitter.
type EmitterOption func(*emitterOptions)

// WithQueue sets the buffered event count and the worker count.
func WithQueue(size, workers int) EmitterOption {
	return func(o *emitterOptions) {
		if size > 0 {
			o.queueSize = size
		}
		if workers > 0 {
			o.workers = workers
		}
	}
}

// WithDrainTimeout bounds how long Close waits for queued events.
func WithDrainTimeout(d time.Duration) EmitterOption {
	return func(o *emitterOptions) {
		if d > 0 {
			o.drain = d
		}
	}
}

func WithEmitterLogger(l zerolog.Logger) EmitterOption {
	return func(o *emitterOptions) { o.logger = l }
}

// WithObserver reports queue and delivery counts, e.g. as OTel instruments.
func WithObserver(obs Observer) EmitterOption {
	return func(o *emitterOptions) { o.obs = obs }
}

// NewEmitter starts the delivery workers.
func NewEmitter(sinks []Sink, opts ...EmitterOption) *Emitter {
	o := emitterOptions{queueSize: 1000, workers: 1, drain: 2 * time.Second, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	e := &Emitter{
		events: make(chan *Event, o.queueSize),
		sinks:  sinks,
		obs:    o.obs,
		drain:  o.drain,
		log:    o.logger,
	}
	for range o.workers {
		e.workers.Go(e.run)
	}
	return e
}

// Emit queues ev without blocking. Events arriving while the queue is full
// or after Close are dropped and counted.
func (e *Emitter) Emit(ev *Event) {
	if e == nil || ev == nil {
		return
	}
	e.mu.RLock()
	accepted := false
	if !e.closed {
		select {
		case e.events <- ev:
			accepted = true
		default:
		}
	}
	e.mu.RUnlock()

	if accepted {
		e.queued.Add(1)
	} else {
		e.dropped.Add(1)
		e.log.Debug().Str("request_id", ev.RequestID).Str("outcome", string(ev.Outcome)).Msg("audit: event dropped")
	}
	if e.obs != nil {
		e.obs.RecordAuditQueued(context.Background(), string(ev.Outcome), accepted)
	}
}

// Stats returns the current counters.
func (e *Emitter) Stats() Stats {
	if e == nil {
		return Stats{}
	}
	return Stats{
		Queued:    e.queued.Load(),
		Dropped:   e.dropped.Load(),
		Delivered: e.delivered.Load(),
		Failed:    e.failed.Load(),
	}
}

// Close stops intake, waits up to the drain timeout for queued events, then
// closes every sink. It returns the final counters.
func (e *Emitter) Close(ctx context.Context) Stats {
	if e == nil {
		return Stats{}
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return e.Stats()
	}
	e.closed = true
	close(e.events)
	e.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		e.workers.Wait()
		close(drained)
	}()

	ctx, cancel := context.WithTimeout(ctx, e.drain)
	defer cancel()
	select {
	case <-drained:
	case <-ctx.Done():
		e.log.Warn().Int("pending", len(e.events)).Msg("audit: drain timeout, pending events lost")
	}

	for _, s := range e.sinks {
		if err := s.Close(ctx); err != nil {
			e.log.Error().Err(err).Str("sink", s.Name()).Msg("audit: sink close failed")
		}
	}
	return e.Stats()
}

func (e *Emitter) run() {
	for ev := range e.events {
		for _, s := range e.sinks {
			e.deliver(s, ev)
		}
	}
}

func (e *Emitter) deliver(s Sink, ev *Event) {
	err := s.Deliver(context.Background(), ev)
	if err != nil {
		e.failed.Add(1)
		e.log.Warn().
			Str("error", redact.String(err.Error())).
			Str("sink", s.Name()).
			Str("request_id", ev.RequestID).
			Msg("audit: delivery failed")
	} else {
		e.delivered.Add(1)
	}
	if e.obs != nil {
		e.obs.RecordAuditDelivery(context.Background(), s.Name(), err == nil)
	}
}
