package training

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "mmmcli/training"

// telemetry holds the training instruments. It reads the global providers, so
// it records nothing until the command line installs real ones.
type telemetry struct {
	tracer trace.Tracer

	units      metric.Int64Counter
	failures   metric.Int64Counter
	violations metric.Int64Counter
	duration   metric.Float64Histogram
	iterations metric.Int64Histogram
}

func newTelemetry() *telemetry {
	meter := otel.Meter(instrumentationName)
	t := &telemetry{tracer: otel.Tracer(instrumentationName)}

	// Creation errors only arise from invalid names, and the API still returns
	// a usable instrument.
	t.units, _ = meter.Int64Counter("training_units_total",
		metric.WithDescription("Total number of (combination, model) units trained"))
	t.failures, _ = meter.Int64Counter("training_unit_failures_total",
		metric.WithDescription("Total number of units that failed"))
	t.violations, _ = meter.Int64Counter("training_constraint_violations_total",
		metric.WithDescription("Total number of constraint violations reported by fits"))
	t.duration, _ = meter.Float64Histogram("training_unit_duration_seconds",
		metric.WithDescription("Unit training duration in seconds"),
		metric.WithUnit("s"))
	t.iterations, _ = meter.Int64Histogram("training_fit_iterations",
		metric.WithDescription("Optimizer iterations per fit"))
	return t
}

func (t *telemetry) recordUnit(ctx context.Context, model string, took time.Duration, iterations, violations int, err error) {
	attrs := metric.WithAttributes(attribute.String("model", model))
	t.units.Add(ctx, 1, attrs)
	t.duration.Record(ctx, took.Seconds(), attrs)
	if err != nil {
		t.failures.Add(ctx, 1, attrs)
		return
	}
	t.iterations.Record(ctx, int64(iterations), attrs)
	if violations > 0 {
		t.violations.Add(ctx, int64(violations), attrs)
	}
}
