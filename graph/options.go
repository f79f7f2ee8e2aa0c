package graph

import (
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/hc1839/crul-sub003/id"
)

// Option configures a System.
type Option func(*options)

// options holds configuration shared by a System and its graphs.
type options struct {
	systemID  string
	logger    *slog.Logger
	tracer    trace.Tracer
	meter     metric.Meter
	sinks     []EventSink
	generator id.Generator
	now       func() time.Time
}

func defaultOptions() options {
	return options{
		logger:    slog.Default(),
		tracer:    tracenoop.NewTracerProvider().Tracer(instrumentationName),
		meter:     metricnoop.NewMeterProvider().Meter(instrumentationName),
		generator: id.UUIDGenerator{},
		now:       time.Now,
	}
}

// WithSystemID sets the system ID. It must satisfy the identity grammar.
// If not provided, an ID is generated.
func WithSystemID(systemID string) Option {
	return func(o *options) {
		o.systemID = systemID
	}
}

// WithLogger sets the logger used by the system and its graphs.
// If not provided, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTracer sets an OpenTelemetry tracer for merge and removal spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithMeter sets an OpenTelemetry meter for the construct counters.
func WithMeter(meter metric.Meter) Option {
	return func(o *options) {
		if meter != nil {
			o.meter = meter
		}
	}
}

// WithEventSink adds a sink that receives merge and removal events.
// Can be called multiple times.
func WithEventSink(sink EventSink) Option {
	return func(o *options) {
		if sink != nil {
			o.sinks = append(o.sinks, sink)
		}
	}
}

// WithIDGenerator sets the generator used when a graph or construct is added
// without an ID. The default is id.UUIDGenerator.
func WithIDGenerator(gen id.Generator) Option {
	return func(o *options) {
		if gen != nil {
			o.generator = gen
		}
	}
}

// WithClock sets the time source used to stamp events.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}
