package graph

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/hc1839/crul-sub003/construct"
)

const instrumentationName = "github.com/hc1839/crul-sub003/graph"

// Span names.
const (
	spanMerge  = "crul.graph.merge"
	spanRemove = "crul.graph.remove"
)

// instruments holds the metric instruments of a System.
// They are created once in NewSystem and shared by all of its graphs.
type instruments struct {
	// added counts constructs added, by kind
	added metric.Int64Counter

	// merged counts constructs folded into another, by kind
	merged metric.Int64Counter

	// removed counts IDs erased by removals, aliases included, by kind
	removed metric.Int64Counter
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	inst := &instruments{}
	var err error

	inst.added, err = meter.Int64Counter(
		"crul.constructs.added",
		metric.WithDescription("Number of constructs added to graphs"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create added counter: %w", err)
	}

	inst.merged, err = meter.Int64Counter(
		"crul.constructs.merged",
		metric.WithDescription("Number of constructs merged into another construct"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create merged counter: %w", err)
	}

	inst.removed, err = meter.Int64Counter(
		"crul.constructs.removed",
		metric.WithDescription("Number of construct IDs erased, aliases included"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("create removed counter: %w", err)
	}

	return inst, nil
}

func (i *instruments) record(ctx context.Context, counter metric.Int64Counter, n int, graphID string, kind construct.Kind) {
	if n == 0 {
		return
	}
	counter.Add(ctx, int64(n), metric.WithAttributes(
		attribute.String("graph.id", graphID),
		attribute.String("construct.kind", kind.String()),
	))
}
