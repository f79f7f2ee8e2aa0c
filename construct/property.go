package construct

// Property attaches an opaque value to a parent vertex, classified by a type
// vertex. Type and parent are held by ID and resolved through the graph.
type Property struct {
	graph    Graph
	id       string
	typeID   string
	parentID string
	value    any
}

// NewProperty creates a property of graph g.
func NewProperty(g Graph, id, typeID, parentID string, value any) *Property {
	return &Property{
		graph:    g,
		id:       id,
		typeID:   typeID,
		parentID: parentID,
		value:    value,
	}
}

// Kind returns KindProperty.
func (p *Property) Kind() Kind { return KindProperty }

// ID returns the property ID.
func (p *Property) ID() string { return p.id }

// Graph returns the owning graph.
func (p *Property) Graph() Graph { return p.graph }

func (p *Property) isConstruct() {}

// TypeID returns the ID the type vertex was recorded under.
func (p *Property) TypeID() string { return p.typeID }

// ParentID returns the ID the parent vertex was recorded under.
func (p *Property) ParentID() string { return p.parentID }

// Type resolves the type vertex.
func (p *Property) Type() (*Vertex, bool) {
	return lookupVertex(p.graph, p.typeID)
}

// Parent resolves the parent vertex.
func (p *Property) Parent() (*Vertex, bool) {
	return lookupVertex(p.graph, p.parentID)
}

// Value returns the property value.
func (p *Property) Value() any { return p.value }

// SetValue replaces the property value.
func (p *Property) SetValue(value any) { p.value = value }
