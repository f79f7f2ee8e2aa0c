// Package construct defines the constructs of a hypergraph (vertices, edges
// and properties), the boundary interfaces of the graph system that owns
// them, and Reference, the ID-based pointer used to reach a construct that
// may since have been merged into another.
//
// Constructs never hold pointers to other constructs. An edge stores the IDs
// of its type vertex and participants; a property stores the IDs of its type
// and parent vertices. Every access resolves those IDs through the owning
// Graph, so a construct that was merged away is transparently replaced by the
// construct it was merged into.
package construct

// System is the outer registry that resolves graph IDs to live graphs.
//
// Implementations must be comparable (typically a pointer), because
// references compare their System with ==.
type System interface {
	// ID returns the system identifier. It is used for hashing only;
	// equality of systems is identity.
	ID() string

	// Graph returns the live graph with the given ID.
	// It must be idempotent and free of side effects.
	Graph(id string) (Graph, bool)
}

// Graph resolves construct IDs to live constructs.
type Graph interface {
	// ID returns the graph identifier, unique within its System.
	ID() string

	// System returns the system that owns the graph.
	System() System

	// ConstructByID returns the live construct of the given kind designated
	// by id. Redirections are followed transparently, so an ID that was merged
	// into another resolves to the surviving construct.
	ConstructByID(kind Kind, id string) (Construct, bool)

	// TerminalID returns the ID that currently designates the construct
	// reached from id, or false if id is unknown.
	TerminalID(kind Kind, id string) (string, bool)
}

// Construct is a vertex, edge or property owned by a Graph.
//
// The set of implementations is closed: *Vertex, *Edge and *Property.
type Construct interface {
	// Kind returns the construct kind.
	Kind() Kind

	// ID returns the construct ID, unique within its graph.
	ID() string

	// Graph returns the owning graph.
	Graph() Graph

	isConstruct()
}

func lookupVertex(g Graph, id string) (*Vertex, bool) {
	if g == nil || id == "" {
		return nil, false
	}
	c, ok := g.ConstructByID(KindVertex, id)
	if !ok {
		return nil, false
	}
	v, ok := c.(*Vertex)
	return v, ok
}
