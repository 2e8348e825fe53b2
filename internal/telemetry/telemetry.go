// Package telemetry wires OpenTelemetry tracing and call metrics.
package telemetry

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// InstrumentationName names the tracer and meter.
const InstrumentationName = "github.com/ironsheep/layout-tools-mcp"

// Setup initialises OpenTelemetry tracing for the server.
//
// Tracing is opt-in: when endpoint is empty Setup returns a no-op shutdown
// function and no global provider is registered.
//
// The returned shutdown function flushes pending spans and should be deferred
// by the caller.
func Setup(ctx context.Context, endpoint, serviceName, version string) (shutdown func(context.Context) error, err error) {
	noop := func(context.Context) error { return nil }

	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(version),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Instruments records one span and two metrics per request.
type Instruments struct {
	tracer  trace.Tracer
	calls   metric.Int64Counter
	latency metric.Float64Histogram
}

// New builds instruments from explicit providers.
func New(tp trace.TracerProvider, mp metric.MeterProvider) (*Instruments, error) {
	meter := mp.Meter(InstrumentationName)
	calls, err := meter.Int64Counter("layout_mcp.requests",
		metric.WithDescription("JSON-RPC requests handled, by method, tool and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram("layout_mcp.request.duration",
		metric.WithDescription("Time spent handling a JSON-RPC request"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}
	return &Instruments{
		tracer:  tp.Tracer(InstrumentationName),
		calls:   calls,
		latency: latency,
	}, nil
}

// Global builds instruments from the registered global providers.
func Global() (*Instruments, error) {
	return New(otel.GetTracerProvider(), otel.GetMeterProvider())
}

// Nop returns instruments that record nothing.
func Nop() *Instruments {
	inst, _ := New(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	return inst
}

// Start opens the span for one request. tool is empty for methods other than
// tools/call.
func (i *Instruments) Start(ctx context.Context, method, tool string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("rpc.system", "jsonrpc"), attribute.String("rpc.method", method)}
	if tool != "" {
		attrs = append(attrs, attribute.String("mcp.tool", tool))
	}
	return i.tracer.Start(ctx, method, trace.WithSpanKind(trace.SpanKindServer), trace.WithAttributes(attrs...))
}

// Outcome labels the result of a request.
type Outcome struct {
	Method string
	Tool   string
	// Status is "ok", "tool_error" or "protocol_error".
	Status string
	// Kind is the error kind of a failed tool call, or the JSON-RPC code name
	// of a protocol error.
	Kind string
}

// End records o and closes span.
func (i *Instruments) End(ctx context.Context, span trace.Span, o Outcome, elapsed time.Duration) {
	attrs := []attribute.KeyValue{
		attribute.String("rpc.method", o.Method),
		attribute.String("outcome", o.Status),
	}
	if o.Tool != "" {
		attrs = append(attrs, attribute.String("mcp.tool", o.Tool))
	}
	if o.Kind != "" {
		attrs = append(attrs, attribute.String("error.kind", o.Kind))
	}
	set := metric.WithAttributes(attrs...)
	i.calls.Add(ctx, 1, set)
	i.latency.Record(ctx, float64(elapsed.Microseconds())/1000, set)

	span.SetAttributes(attrs...)
	if o.Status != "ok" {
		span.SetStatus(codes.Error, o.Kind)
	}
	span.End()
}
