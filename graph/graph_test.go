package graph_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hc1839/crul-sub003/construct"
	"github.com/hc1839/crul-sub003/graph"
	"github.com/hc1839/crul-sub003/hgerr"
	"github.com/hc1839/crul-sub003/id"
)

func newGraph(t *testing.T, opts ...graph.Option) *graph.Graph {
	t.Helper()
	sys, err := graph.NewSystem(append([]graph.Option{graph.WithSystemID("sys")}, opts...)...)
	require.NoError(t, err)
	g, err := sys.NewGraph("g")
	require.NoError(t, err)
	return g
}

func TestNewSystem(t *testing.T) {
	t.Run("explicit id", func(t *testing.T) {
		sys, err := graph.NewSystem(graph.WithSystemID("lab"))
		require.NoError(t, err)
		assert.Equal(t, "lab", sys.ID())
	})

	t.Run("generated id", func(t *testing.T) {
		sys, err := graph.NewSystem()
		require.NoError(t, err)
		assert.True(t, id.IsValid(sys.ID()))
		assert.Contains(t, sys.ID(), "sys_")
	})

	t.Run("invalid id", func(t *testing.T) {
		_, err := graph.NewSystem(graph.WithSystemID("9lives"))
		require.Error(t, err)
		assert.True(t, hgerr.IsInvalidArgument(err))
	})
}

func TestSystemGraphs(t *testing.T) {
	sys, err := graph.NewSystem(graph.WithSystemID("sys"))
	require.NoError(t, err)

	g, err := sys.NewGraph("beta")
	require.NoError(t, err)
	_, err = sys.NewGraph("alpha")
	require.NoError(t, err)

	_, err = sys.NewGraph("beta")
	assert.True(t, hgerr.IsInvalidArgument(err))
	_, err = sys.NewGraph("no spaces")
	assert.True(t, hgerr.IsInvalidArgument(err))

	generated, err := sys.NewGraph("")
	require.NoError(t, err)
	assert.True(t, id.IsValid(generated.ID()))

	got, ok := sys.Graph("beta")
	require.True(t, ok)
	assert.Same(t, g, got)
	assert.Same(t, sys, got.System())

	assert.Equal(t, []string{"alpha", "beta", generated.ID()}, sys.GraphIDs())

	assert.True(t, sys.RemoveGraph("beta"))
	assert.False(t, sys.RemoveGraph("beta"))
	_, ok = sys.Graph("beta")
	assert.False(t, ok)
}

func TestAddConstructs(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t)

	bond, err := g.AddVertex(ctx, "bond", "bond")
	require.NoError(t, err)
	c1, err := g.AddVertex(ctx, "c1", "carbon", "C")
	require.NoError(t, err)
	_, err = g.AddVertex(ctx, "h1", "hydrogen")
	require.NoError(t, err)

	e, err := g.AddEdge(ctx, "e1", "bond", "h1", "c1")
	require.NoError(t, err)
	typ, ok := e.Type()
	require.True(t, ok)
	assert.Same(t, bond, typ)
	require.Len(t, e.Vertices(), 2)
	assert.Same(t, c1, e.Vertices()[0])

	_, err = g.AddVertex(ctx, "mass", "mass")
	require.NoError(t, err)
	p, err := g.AddProperty(ctx, "p1", "mass", "c1", 12.011)
	require.NoError(t, err)
	parent, ok := p.Parent()
	require.True(t, ok)
	assert.Same(t, c1, parent)
	assert.Equal(t, 12.011, p.Value())

	assert.Equal(t, 4, g.Len(construct.KindVertex))
	assert.Equal(t, []string{"e1"}, g.TerminalIDs(construct.KindEdge))
}

func TestAddErrors(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t)
	_, err := g.AddVertex(ctx, "v", "v")
	require.NoError(t, err)

	tests := []struct {
		name string
		add  func() error
	}{
		{"vertex without names", func() error { _, err := g.AddVertex(ctx, "x"); return err }},
		{"empty name", func() error { _, err := g.AddVertex(ctx, "x", ""); return err }},
		{"invalid id", func() error { _, err := g.AddVertex(ctx, "1x", "x"); return err }},
		{"duplicate id", func() error { _, err := g.AddVertex(ctx, "v", "x"); return err }},
		{"id used by another kind", func() error { _, err := g.AddEdge(ctx, "v", "v", "v"); return err }},
		{"missing edge type", func() error { _, err := g.AddEdge(ctx, "e", "nope", "v"); return err }},
		{"missing participant", func() error { _, err := g.AddEdge(ctx, "e", "v", "nope"); return err }},
		{"missing property parent", func() error { _, err := g.AddProperty(ctx, "p", "v", "nope", 1); return err }},
		{"missing property type", func() error { _, err := g.AddProperty(ctx, "p", "nope", "v", 1); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.add()
			require.Error(t, err)
			assert.True(t, hgerr.IsInvalidArgument(err), err.Error())
		})
	}
	assert.Equal(t, 1, g.Len(construct.KindVertex))
}

func TestGeneratedConstructIDs(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t, graph.WithIDGenerator(id.ContentGenerator{}))

	v, err := g.AddVertex(ctx, "", "carbon")
	require.NoError(t, err)
	want, err := id.ContentGenerator{}.Generate("vertex", "carbon")
	require.NoError(t, err)
	assert.Equal(t, want, v.ID())

	// Same content, same ID.
	_, err = g.AddVertex(ctx, "", "carbon")
	assert.True(t, hgerr.IsInvalidArgument(err))
}

func TestMergeVertices(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t)
	_, err := g.AddVertex(ctx, "a", "x")
	require.NoError(t, err)
	b, err := g.AddVertex(ctx, "b", "y")
	require.NoError(t, err)
	_, err = g.AddVertex(ctx, "t", "bond")
	require.NoError(t, err)
	e, err := g.AddEdge(ctx, "e", "t", "a", "b")
	require.NoError(t, err)

	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "b"))

	got, ok := g.Vertex("a")
	require.True(t, ok)
	assert.Same(t, b, got)
	assert.Equal(t, []string{"x", "y"}, b.Names())
	assert.Equal(t, []string{"b", "t"}, g.TerminalIDs(construct.KindVertex))
	assert.Equal(t, []string{"a"}, g.Aliases(construct.KindVertex, "b"))

	// The edge now sees a single participant.
	require.Len(t, e.Vertices(), 1)
	assert.Same(t, b, e.Vertices()[0])

	err = g.Merge(ctx, construct.KindVertex, "a", "b")
	assert.True(t, hgerr.IsInvalidArgument(err))
	err = g.Merge(ctx, construct.KindVertex, "zz", "b")
	assert.True(t, hgerr.IsInvalidArgument(err))
	err = g.Merge(ctx, construct.KindEdge, "a", "b")
	assert.True(t, hgerr.IsInvalidArgument(err))
}

func TestMergeThroughAliases(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t)
	for _, v := range []string{"a", "b", "c"} {
		_, err := g.AddVertex(ctx, v, v)
		require.NoError(t, err)
	}
	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "b"))

	// Merging by alias folds the alias's terminal construct.
	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "c"))

	for _, v := range []string{"a", "b", "c"} {
		terminal, ok := g.TerminalID(construct.KindVertex, v)
		require.True(t, ok)
		assert.Equal(t, "c", terminal)
	}
	c, _ := g.Vertex("c")
	assert.Equal(t, []string{"a", "b", "c"}, c.Names())
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t)
	for _, v := range []string{"a", "b", "c"} {
		_, err := g.AddVertex(ctx, v, v)
		require.NoError(t, err)
	}
	_, err := g.AddProperty(ctx, "p", "a", "c", "value")
	require.NoError(t, err)
	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "b"))

	assert.Equal(t, []string{"a", "b"}, g.Remove(ctx, construct.KindVertex, "a"))
	assert.Nil(t, g.Remove(ctx, construct.KindVertex, "a"))

	_, ok := g.ConstructByID(construct.KindVertex, "b")
	assert.False(t, ok)

	// Dependents stay but no longer resolve the removed vertex.
	p, ok := g.Property("p")
	require.True(t, ok)
	_, ok = p.Type()
	assert.False(t, ok)
	_, ok = p.Parent()
	assert.True(t, ok)
}

func TestReference(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t)
	_, err := g.AddVertex(ctx, "a", "a")
	require.NoError(t, err)
	b, err := g.AddVertex(ctx, "b", "b")
	require.NoError(t, err)
	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "b"))

	ref, err := g.Reference(construct.KindVertex, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", ref.ID)

	c, ok := ref.Resolve()
	require.True(t, ok)
	assert.Same(t, b, c)

	_, err = g.Reference(construct.KindVertex, "zz")
	assert.True(t, hgerr.IsNotFound(err))
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t)
	for _, v := range []string{"c1", "c2", "h1"} {
		_, err := g.AddVertex(ctx, v, v)
		require.NoError(t, err)
	}

	startsWithC := matcherFunc(func(c construct.Construct) (bool, error) {
		return c.ID()[0] == 'c', nil
	})
	got, err := g.Select(construct.KindVertex, startsWithC)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].ID())
	assert.Equal(t, "c2", got[1].ID())

	failing := matcherFunc(func(construct.Construct) (bool, error) {
		return false, errors.New("boom")
	})
	_, err = g.Select(construct.KindVertex, failing)
	assert.ErrorContains(t, err, "boom")
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	g := newGraph(t)
	_, err := g.AddVertex(ctx, "a", "a")
	require.NoError(t, err)

	g.Clear()

	assert.Zero(t, g.Len(construct.KindVertex))
	_, ok := g.TerminalID(construct.KindVertex, "a")
	assert.False(t, ok)
}

func TestEvents(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var events []graph.Event
	sink := graph.EventSinkFunc(func(_ context.Context, e graph.Event) error {
		events = append(events, e)
		return nil
	})
	g := newGraph(t, graph.WithEventSink(sink), graph.WithClock(func() time.Time { return at }))

	for _, v := range []string{"a", "b"} {
		_, err := g.AddVertex(ctx, v, v)
		require.NoError(t, err)
	}
	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "b"))
	g.Remove(ctx, construct.KindVertex, "b")

	require.Len(t, events, 2)
	assert.Equal(t, graph.Event{
		Type: graph.EventMerged, SystemID: "sys", GraphID: "g",
		Kind: construct.KindVertex, From: "a", To: "b", At: at,
	}, events[0])
	assert.Equal(t, graph.EventRemoved, events[1].Type)
	assert.Equal(t, []string{"a", "b"}, events[1].Removed)
}

func TestEventSinkFailureIsLogged(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := graph.EventSinkFunc(func(context.Context, graph.Event) error {
		return errors.New("sink down")
	})
	g := newGraph(t, graph.WithLogger(logger), graph.WithEventSink(sink))

	for _, v := range []string{"a", "b"} {
		_, err := g.AddVertex(ctx, v, v)
		require.NoError(t, err)
	}
	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "b"))

	out := buf.String()
	assert.Contains(t, out, "constructs merged")
	assert.Contains(t, out, "event sink failed")
	assert.Contains(t, out, "sink down")
}

func TestTracing(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	g := newGraph(t, graph.WithTracer(tp.Tracer("test")))

	for _, v := range []string{"a", "b"} {
		_, err := g.AddVertex(ctx, v, v)
		require.NoError(t, err)
	}
	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "b"))
	require.Error(t, g.Merge(ctx, construct.KindVertex, "a", "b"))
	g.Remove(ctx, construct.KindVertex, "b")

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "crul.graph.merge", spans[0].Name())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "crul.graph.merge", spans[1].Name())
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "crul.graph.remove", spans[2].Name())
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	g := newGraph(t, graph.WithMeter(mp.Meter("test")))

	for _, v := range []string{"a", "b", "c"} {
		_, err := g.AddVertex(ctx, v, v)
		require.NoError(t, err)
	}
	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "b"))
	g.Remove(ctx, construct.KindVertex, "b")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	assert.Equal(t, int64(3), counterTotal(t, rm, "crul.constructs.added"))
	assert.Equal(t, int64(1), counterTotal(t, rm, "crul.constructs.merged"))
	assert.Equal(t, int64(2), counterTotal(t, rm, "crul.constructs.removed"))
}

func counterTotal(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not collected", name)
	return 0
}

type matcherFunc func(construct.Construct) (bool, error)

func (f matcherFunc) Match(c construct.Construct) (bool, error) { return f(c) }
