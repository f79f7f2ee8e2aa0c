package construct

import (
	"slices"
	"sort"
)

// Edge connects an unordered set of participant vertices and is classified
// by a type vertex. Both are held by ID and resolved through the graph.
type Edge struct {
	graph     Graph
	id        string
	typeID    string
	vertexIDs []string
}

// NewEdge creates an edge of graph g. Duplicate participant IDs are collapsed.
func NewEdge(g Graph, id, typeID string, vertexIDs ...string) *Edge {
	ids := slices.Clone(vertexIDs)
	slices.Sort(ids)
	return &Edge{
		graph:     g,
		id:        id,
		typeID:    typeID,
		vertexIDs: slices.Compact(ids),
	}
}

// Kind returns KindEdge.
func (e *Edge) Kind() Kind { return KindEdge }

// ID returns the edge ID.
func (e *Edge) ID() string { return e.id }

// Graph returns the owning graph.
func (e *Edge) Graph() Graph { return e.graph }

func (e *Edge) isConstruct() {}

// TypeID returns the ID the type vertex was recorded under. It may be an
// alias of the current type vertex.
func (e *Edge) TypeID() string { return e.typeID }

// VertexIDs returns the recorded participant IDs, sorted.
func (e *Edge) VertexIDs() []string { return slices.Clone(e.vertexIDs) }

// Type resolves the type vertex.
func (e *Edge) Type() (*Vertex, bool) {
	return lookupVertex(e.graph, e.typeID)
}

// Vertices resolves the participants. Participants that no longer exist are
// skipped, and participants that were merged into the same vertex are
// returned once. The result is sorted by ID.
func (e *Edge) Vertices() []*Vertex {
	seen := make(map[string]bool, len(e.vertexIDs))
	out := make([]*Vertex, 0, len(e.vertexIDs))
	for _, vid := range e.vertexIDs {
		v, ok := lookupVertex(e.graph, vid)
		if !ok || seen[v.ID()] {
			continue
		}
		seen[v.ID()] = true
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
