package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/rs/zerolog/log"

	"github.com/straja-ai/fdpadvisor/internal/taxonomy"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider wires tracer/meter providers and exposes helpers.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	evaluationsCounter    metric.Int64Counter
	evaluationDuration    metric.Float64Histogram
	inferenceDuration     metric.Float64Histogram
	ruleHitsCounter       metric.Int64Counter
	auditQueuedCounter    metric.Int64Counter
	auditDeliveryCounter  metric.Int64Counter
	shutdownTraceProvider func(context.Context) error
	shutdownMeterProvider func(context.Context) error
}

// NewProvider configures OTEL exporters + providers. When disabled, returns no-op providers.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return newNoop(), nil
	}

	protocol := strings.ToLower(strings.TrimSpace(cfg.Protocol))
	if protocol == "" {
		protocol = "grpc"
	}
	if protocol != "grpc" && protocol != "http" {
		return nil, fmt.Errorf("unknown telemetry protocol %q", cfg.Protocol)
	}

	log.Info().
		Str("protocol", protocol).
		Str("endpoint", cfg.Endpoint).
		Msg("telemetry enabled (OpenTelemetry OTLP); without a collector, periodic export warnings are expected")

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	var traceExp sdktrace.SpanExporter
	var metricExp sdkmetric.Exporter
	switch protocol {
	case "grpc":
		traceExp, err = otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
		metricExp, err = otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.Endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, err
		}
	case "http":
		traceExp, err = otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, err
		}
		metricExp, err = otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, err
		}
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp)),
	)
	otel.SetMeterProvider(mp)

	p := &Provider{
		Enabled:               true,
		tracer:                tp.Tracer("fdpadvisor"),
		meter:                 mp.Meter("fdpadvisor"),
		shutdownTraceProvider: tp.Shutdown,
		shutdownMeterProvider: mp.Shutdown,
	}
	p.initInstruments()
	return p, nil
}

// NewWithMeterProvider builds a provider over caller-supplied providers.
// Tests use it with an in-memory metric reader.
func NewWithMeterProvider(mp metric.MeterProvider, tp trace.TracerProvider) *Provider {
	p := &Provider{
		Enabled: true,
		tracer:  tp.Tracer("fdpadvisor"),
		meter:   mp.Meter("fdpadvisor"),
	}
	p.initInstruments()
	return p
}

func newNoop() *Provider {
	p := &Provider{
		tracer: tracenoop.NewTracerProvider().Tracer(""),
		meter:  noop.NewMeterProvider().Meter(""),
	}
	p.initInstruments()
	return p
}

func (p *Provider) initInstruments() {
	// Instrument errors are ignored; telemetry is best-effort.
	p.evaluationsCounter, _ = p.meter.Int64Counter("fdpadvisor_evaluations_total")
	p.evaluationDuration, _ = p.meter.Float64Histogram("fdpadvisor_evaluation_duration_ms")
	p.inferenceDuration, _ = p.meter.Float64Histogram("fdpadvisor_inference_duration_ms")
	p.ruleHitsCounter, _ = p.meter.Int64Counter("fdpadvisor_rule_hits_total")
	p.auditQueuedCounter, _ = p.meter.Int64Counter("fdpadvisor_audit_events_total")
	p.auditDeliveryCounter, _ = p.meter.Int64Counter("fdpadvisor_audit_deliveries_total")
}

// Tracer returns the tracer.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil {
		return tracenoop.NewTracerProvider().Tracer("")
	}
	return p.tracer
}

// StartSpan starts a span. Attributes that would carry individual scores or
// credentials are dropped; see spanAttributes.
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer().Start(ctx, name, trace.WithAttributes(spanAttributes(attrs)...))
}

const maxAttrString = 256

var credentialKeys = []string{"authorization", "api_key", "token", "secret"}

// spanAttributes keeps request metadata only. A key whose last segment is a
// subdomain code (fdpadvisor.score.A11, A11) or that names scores is a
// personal assessment data and never leaves the process.
func spanAttributes(attrs []attribute.KeyValue) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, kv := range attrs {
		key := string(kv.Key)
		last := key[strings.LastIndex(key, ".")+1:]
		lower := strings.ToLower(key)
		if taxonomy.IsCode(last) || strings.Contains(lower, "score") || containsAny(lower, credentialKeys) {
			continue
		}
		if kv.Value.Type() == attribute.STRING {
			if v := kv.Value.AsString(); len(v) > maxAttrString {
				kv = attribute.String(key, v[:maxAttrString])
			}
		}
		out = append(out, kv)
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// Shutdown flushes providers.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	if p.shutdownTraceProvider != nil {
		_ = p.shutdownTraceProvider(ctx)
	}
	if p.shutdownMeterProvider != nil {
		_ = p.shutdownMeterProvider(ctx)
	}
}

// RecordEvaluation emits counters and histograms for one evaluation.
func (p *Provider) RecordEvaluation(ctx context.Context, outcome, source string, durMs float64, ruleIDs []string) {
	if p == nil {
		return
	}
	labels := metric.WithAttributes(
		attribute.String("fdpadvisor.outcome", outcome),
		attribute.String("fdpadvisor.source", source),
	)
	p.evaluationsCounter.Add(ctx, 1, labels)
	p.evaluationDuration.Record(ctx, durMs, labels)
	for _, id := range ruleIDs {
		p.ruleHitsCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("fdpadvisor.rule_id", id)))
	}
}

// RecordInference records classifier latency.
func (p *Provider) RecordInference(ctx context.Context, state string, durMs float64) {
	if p == nil {
		return
	}
	p.inferenceDuration.Record(ctx, durMs, metric.WithAttributes(attribute.String("fdpadvisor.classifier_state", state)))
}

// RecordAuditQueued counts audit events by outcome and whether the emitter
// queue accepted them.
func (p *Provider) RecordAuditQueued(ctx context.Context, outcome string, accepted bool) {
	if p == nil {
		return
	}
	p.auditQueuedCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("fdpadvisor.outcome", outcome),
		attribute.Bool("fdpadvisor.audit_accepted", accepted),
	))
}

// RecordAuditDelivery counts per-sink delivery results.
func (p *Provider) RecordAuditDelivery(ctx context.Context, sink string, ok bool) {
	if p == nil {
		return
	}
	p.auditDeliveryCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("fdpadvisor.audit_sink", sink),
		attribute.Bool("fdpadvisor.audit_ok", ok),
	))
}
