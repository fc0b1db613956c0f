package sessionlog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TraceConfig configures the OTLP exporter a Tracer reports spans to. A
// zero-value config (empty Endpoint) yields a no-op tracer: spans are
// created but never exported, so instrumented code paths work unchanged
// in tests and in deployments without a collector.
type TraceConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	SamplingRate   float64
	EnableInsecure bool
}

// Tracer wraps the reasoning loop's two span-worthy operations: an LLM
// call and a tool dispatch. It never decides whether a call succeeded —
// callers pass the error, if any, and the span records it.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// NewTracer builds a Tracer. If cfg.Endpoint is empty, or the OTLP
// exporter cannot be constructed, a no-op tracer is returned instead of an
// error — tracing is a diagnostic aid, never a reason to fail a session.
func NewTracer(cfg TraceConfig) (*Tracer, func(context.Context) error) {
	if cfg.ServiceName == "" {
		cfg.ServiceName = "agentcore-orchestrator"
	}
	if cfg.Endpoint == "" {
		return &Tracer{tracer: otel.Tracer(cfg.ServiceName)}, func(context.Context) error { return nil }
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.EnableInsecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return &Tracer{tracer: otel.Tracer(cfg.ServiceName)}, func(context.Context) error { return nil }
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
	}
	if cfg.Environment != "" {
		attrs = append(attrs, semconv.DeploymentEnvironment(cfg.Environment))
	}
	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		res = resource.Default()
	}

	sampler := sdktrace.AlwaysSample()
	switch {
	case cfg.SamplingRate <= 0:
		// zero-value config means "unset", not "never"; treat as always.
	case cfg.SamplingRate < 1.0:
		sampler = sdktrace.TraceIDRatioBased(cfg.SamplingRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &Tracer{provider: provider, tracer: provider.Tracer(cfg.ServiceName)}, provider.Shutdown
}

// StartRoot opens the top-level span for one CLI invocation. Every
// per-iteration LLM-call and tool-execution span created later in the
// same query is automatically parented to it through ctx, giving each
// session an OTel span tree rooted at this one call.
func (t *Tracer) StartRoot(ctx context.Context, sessionID, mode string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "orchestrator.query", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("mode", mode),
	))
}

// StartLLMCall opens a span named "<provider>.chat" for one iteration's
// model call.
func (t *Tracer) StartLLMCall(ctx context.Context, sessionID, provider, model string, iteration int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, provider+".chat", trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("llm.provider", provider),
		attribute.String("llm.model", model),
		attribute.Int("session.iteration", iteration),
	))
}

// StartToolExecution opens a span named "tool.<name>" for one dispatch.
func (t *Tracer) StartToolExecution(ctx context.Context, sessionID, toolName string, iteration int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "tool."+toolName, trace.WithAttributes(
		attribute.String("session.id", sessionID),
		attribute.String("tool.name", toolName),
		attribute.Int("session.iteration", iteration),
	))
}

// EndWithResult closes span, marking it as an error if err is non-nil,
// and records the call's wall-clock duration as an attribute.
func EndWithResult(span trace.Span, start time.Time, err error) {
	span.SetAttributes(attribute.Int64("duration_ms", time.Since(start).Milliseconds()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
