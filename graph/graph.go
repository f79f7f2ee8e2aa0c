package graph

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/hc1839/crul-sub003/construct"
	"github.com/hc1839/crul-sub003/hgerr"
	"github.com/hc1839/crul-sub003/id"
	"github.com/hc1839/crul-sub003/redirect"
)

// Matcher selects constructs. selector.Matcher satisfies it.
type Matcher interface {
	Match(c construct.Construct) (bool, error)
}

// Graph is an in-memory hypergraph. It implements construct.Graph.
//
// Construct IDs are unique across kinds within a graph: an ID used by a
// vertex, or still held as an alias of one, cannot name an edge.
//
// Graph is not safe for concurrent mutation.
type Graph struct {
	system     *System
	id         string
	vertices   *redirect.Redirector[*construct.Vertex]
	edges      *redirect.Redirector[*construct.Edge]
	properties *redirect.Redirector[*construct.Property]
}

var _ construct.Graph = (*Graph)(nil)

func newGraph(s *System, graphID string) *Graph {
	return &Graph{
		system:     s,
		id:         graphID,
		vertices:   redirect.New[*construct.Vertex](),
		edges:      redirect.New[*construct.Edge](),
		properties: redirect.New[*construct.Property](),
	}
}

// ID returns the graph ID.
func (g *Graph) ID() string { return g.id }

// System returns the owning system.
func (g *Graph) System() construct.System { return g.system }

func (g *Graph) logger() *slog.Logger { return g.system.opts.logger }

// ConstructByID returns the live construct of the given kind reached from
// cid, following redirections.
func (g *Graph) ConstructByID(kind construct.Kind, cid string) (construct.Construct, bool) {
	switch kind {
	case construct.KindVertex:
		if v, ok := g.vertices.Get(cid); ok {
			return v, true
		}
	case construct.KindEdge:
		if e, ok := g.edges.Get(cid); ok {
			return e, true
		}
	case construct.KindProperty:
		if p, ok := g.properties.Get(cid); ok {
			return p, true
		}
	}
	return nil, false
}

// TerminalID returns the ID that currently designates the construct reached
// from cid.
func (g *Graph) TerminalID(kind construct.Kind, cid string) (string, bool) {
	switch kind {
	case construct.KindVertex:
		return g.vertices.TerminalID(cid)
	case construct.KindEdge:
		return g.edges.TerminalID(cid)
	case construct.KindProperty:
		return g.properties.TerminalID(cid)
	}
	return "", false
}

// TerminalIDs returns the IDs of the live constructs of a kind, sorted.
func (g *Graph) TerminalIDs(kind construct.Kind) []string {
	switch kind {
	case construct.KindVertex:
		return g.vertices.TerminalIDs()
	case construct.KindEdge:
		return g.edges.TerminalIDs()
	case construct.KindProperty:
		return g.properties.TerminalIDs()
	}
	return nil
}

// Aliases returns the IDs that redirect to the terminal ID of cid.
func (g *Graph) Aliases(kind construct.Kind, cid string) []string {
	switch kind {
	case construct.KindVertex:
		return g.vertices.Aliases(cid)
	case construct.KindEdge:
		return g.edges.Aliases(cid)
	case construct.KindProperty:
		return g.properties.Aliases(cid)
	}
	return nil
}

// Len returns the number of live constructs of a kind.
func (g *Graph) Len(kind construct.Kind) int {
	switch kind {
	case construct.KindVertex:
		return g.vertices.Len()
	case construct.KindEdge:
		return g.edges.Len()
	case construct.KindProperty:
		return g.properties.Len()
	}
	return 0
}

// Vertex returns the vertex reached from cid.
func (g *Graph) Vertex(cid string) (*construct.Vertex, bool) { return g.vertices.Get(cid) }

// Edge returns the edge reached from cid.
func (g *Graph) Edge(cid string) (*construct.Edge, bool) { return g.edges.Get(cid) }

// Property returns the property reached from cid.
func (g *Graph) Property(cid string) (*construct.Property, bool) { return g.properties.Get(cid) }

// Reference returns a reference to the construct of the given kind under
// cid. cid may be an alias; the reference keeps it as given.
func (g *Graph) Reference(kind construct.Kind, cid string) (construct.Reference, error) {
	if !g.known(kind, cid) {
		return construct.Reference{}, hgerr.NotFound("Graph.Reference", cid).
			WithContext(map[string]any{"graph": g.id, "kind": kind.String()})
	}
	return construct.Reference{System: g.system, GraphID: g.id, Kind: kind, ID: cid}, nil
}

// AddVertex adds a vertex with at least one name. An empty cid asks the
// configured generator for one.
func (g *Graph) AddVertex(ctx context.Context, cid string, names ...string) (*construct.Vertex, error) {
	if len(names) == 0 {
		return nil, hgerr.InvalidArgument("Graph.AddVertex", cid, "a vertex needs at least one name")
	}
	cid, err := g.reserve("Graph.AddVertex", construct.KindVertex, cid, names...)
	if err != nil {
		return nil, err
	}
	v, err := construct.NewVertex(g, cid, names...)
	if err != nil {
		return nil, err
	}
	if err := g.vertices.Put(cid, v); err != nil {
		return nil, err
	}
	g.added(ctx, construct.KindVertex, cid)
	return v, nil
}

// AddEdge adds an edge of type typeID over the given participants. The type
// vertex and every participant must exist.
func (g *Graph) AddEdge(ctx context.Context, cid, typeID string, vertexIDs ...string) (*construct.Edge, error) {
	const op = "Graph.AddEdge"
	if _, ok := g.vertices.Get(typeID); !ok {
		return nil, hgerr.InvalidArgument(op, cid, "type vertex %q does not exist", typeID)
	}
	for _, vid := range vertexIDs {
		if _, ok := g.vertices.Get(vid); !ok {
			return nil, hgerr.InvalidArgument(op, cid, "participant vertex %q does not exist", vid)
		}
	}
	cid, err := g.reserve(op, construct.KindEdge, cid, append([]string{typeID}, vertexIDs...)...)
	if err != nil {
		return nil, err
	}
	e := construct.NewEdge(g, cid, typeID, vertexIDs...)
	if err := g.edges.Put(cid, e); err != nil {
		return nil, err
	}
	g.added(ctx, construct.KindEdge, cid)
	return e, nil
}

// AddProperty attaches value to the parent vertex, classified by the type
// vertex. Both vertices must exist.
func (g *Graph) AddProperty(ctx context.Context, cid, typeID, parentID string, value any) (*construct.Property, error) {
	const op = "Graph.AddProperty"
	if _, ok := g.vertices.Get(typeID); !ok {
		return nil, hgerr.InvalidArgument(op, cid, "type vertex %q does not exist", typeID)
	}
	if _, ok := g.vertices.Get(parentID); !ok {
		return nil, hgerr.InvalidArgument(op, cid, "parent vertex %q does not exist", parentID)
	}
	cid, err := g.reserve(op, construct.KindProperty, cid, typeID, parentID, fmt.Sprint(value))
	if err != nil {
		return nil, err
	}
	p := construct.NewProperty(g, cid, typeID, parentID, value)
	if err := g.properties.Put(cid, p); err != nil {
		return nil, err
	}
	g.added(ctx, construct.KindProperty, cid)
	return p, nil
}

// Merge folds the construct reached from fromID into the construct reached
// from toID. Afterwards every ID that reached the source reaches the target.
// Merging vertices adds the source's names to the target; the target keeps
// its own proxy.
//
// Returns an invalid-argument error if either ID is unknown or both already
// reach the same construct.
func (g *Graph) Merge(ctx context.Context, kind construct.Kind, fromID, toID string) (err error) {
	const op = "Graph.Merge"

	ctx, span := g.system.opts.tracer.Start(ctx, spanMerge, trace.WithAttributes(
		attribute.String("graph.id", g.id),
		attribute.String("construct.kind", kind.String()),
		attribute.String("construct.from", fromID),
		attribute.String("construct.to", toID),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	from, ok := g.TerminalID(kind, fromID)
	if !ok {
		return hgerr.InvalidArgument(op, fromID, "source %s is unknown", kind)
	}
	to, ok := g.TerminalID(kind, toID)
	if !ok {
		return hgerr.InvalidArgument(op, toID, "target %s is unknown", kind)
	}
	if from == to {
		return hgerr.InvalidArgument(op, fromID, "already merged into %q", to)
	}

	switch kind {
	case construct.KindVertex:
		src, _ := g.vertices.Get(from)
		dst, _ := g.vertices.Get(to)
		if err := dst.AddNames(src.Names()...); err != nil {
			return err
		}
		err = g.vertices.Redirect(from, to)
	case construct.KindEdge:
		err = g.edges.Redirect(from, to)
	case construct.KindProperty:
		err = g.properties.Redirect(from, to)
	}
	if err != nil {
		return err
	}

	g.system.inst.record(ctx, g.system.inst.merged, 1, g.id, kind)
	g.logger().Debug("constructs merged",
		"component", "graph",
		"graph_id", g.id,
		"kind", kind.String(),
		"from", from,
		"to", to,
	)
	g.emit(ctx, Event{Type: EventMerged, Kind: kind, From: from, To: to})
	return nil
}

// Remove erases the construct reached from cid together with every ID that
// redirects to it, and returns the erased IDs, sorted. Removing an unknown ID
// is a no-op.
//
// Removing a vertex does not remove the edges and properties that name it;
// their resolution of that vertex fails from then on.
func (g *Graph) Remove(ctx context.Context, kind construct.Kind, cid string) []string {
	ctx, span := g.system.opts.tracer.Start(ctx, spanRemove, trace.WithAttributes(
		attribute.String("graph.id", g.id),
		attribute.String("construct.kind", kind.String()),
		attribute.String("construct.id", cid),
	))
	defer span.End()

	var removed []string
	switch kind {
	case construct.KindVertex:
		removed = g.vertices.Remove(cid)
	case construct.KindEdge:
		removed = g.edges.Remove(cid)
	case construct.KindProperty:
		removed = g.properties.Remove(cid)
	}
	span.SetAttributes(attribute.Int("construct.removed", len(removed)))
	if len(removed) == 0 {
		return nil
	}

	g.system.inst.record(ctx, g.system.inst.removed, len(removed), g.id, kind)
	g.logger().Debug("constructs removed",
		"component", "graph",
		"graph_id", g.id,
		"kind", kind.String(),
		"removed", removed,
	)
	g.emit(ctx, Event{Type: EventRemoved, Kind: kind, Removed: removed})
	return removed
}

// Select returns the live constructs of a kind that m matches, ordered by ID.
func (g *Graph) Select(kind construct.Kind, m Matcher) ([]construct.Construct, error) {
	var out []construct.Construct
	for _, cid := range g.TerminalIDs(kind) {
		c, ok := g.ConstructByID(kind, cid)
		if !ok {
			continue
		}
		matched, err := m.Match(c)
		if err != nil {
			return nil, fmt.Errorf("failed to match %s %q: %w", kind, cid, err)
		}
		if matched {
			out = append(out, c)
		}
	}
	return out, nil
}

// Clear removes every construct and alias of every kind.
func (g *Graph) Clear() {
	g.vertices.Clear()
	g.edges.Clear()
	g.properties.Clear()
}

func (g *Graph) known(kind construct.Kind, cid string) bool {
	switch kind {
	case construct.KindVertex:
		return g.vertices.Known(cid)
	case construct.KindEdge:
		return g.edges.Known(cid)
	case construct.KindProperty:
		return g.properties.Known(cid)
	}
	return false
}

// reserve returns the ID a new construct will be stored under, generating
// one when cid is empty.
func (g *Graph) reserve(op string, kind construct.Kind, cid string, parts ...string) (string, error) {
	if cid == "" {
		generated, err := g.system.opts.generator.Generate(kind.String(), parts...)
		if err != nil {
			return "", err
		}
		cid = generated
	}
	if !id.IsValid(cid) {
		return "", hgerr.InvalidArgument(op, cid, "not a valid name token")
	}
	for _, k := range construct.Kinds() {
		if g.known(k, cid) {
			return "", hgerr.InvalidArgument(op, cid, "id is already used by a %s", k)
		}
	}
	return cid, nil
}

func (g *Graph) added(ctx context.Context, kind construct.Kind, cid string) {
	g.system.inst.record(ctx, g.system.inst.added, 1, g.id, kind)
	g.logger().Debug("construct added", "component", "graph", "graph_id", g.id, "kind", kind.String(), "id", cid)
}

func (g *Graph) emit(ctx context.Context, event Event) {
	event.SystemID = g.system.id
	event.GraphID = g.id
	event.At = g.system.opts.now()

	for _, sink := range g.system.opts.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			g.logger().Warn("event sink failed",
				"component", "graph",
				"graph_id", g.id,
				"event", string(event.Type),
				"error", err,
			)
		}
	}
}
