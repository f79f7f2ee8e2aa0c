package construct

import (
	"slices"

	"github.com/hc1839/crul-sub003/hgerr"
)

// Vertex is a construct identified for matching purposes by a set of names.
// A vertex may stand in for (proxy) another construct, possibly in another
// graph.
type Vertex struct {
	graph   Graph
	id      string
	names   []string
	proxied *Reference
}

// NewVertex creates a vertex of graph g. Names are deduplicated; an empty
// name is an invalid argument.
func NewVertex(g Graph, id string, names ...string) (*Vertex, error) {
	v := &Vertex{graph: g, id: id}
	if err := v.AddNames(names...); err != nil {
		return nil, err
	}
	return v, nil
}

// Kind returns KindVertex.
func (v *Vertex) Kind() Kind { return KindVertex }

// ID returns the vertex ID.
func (v *Vertex) ID() string { return v.id }

// Graph returns the owning graph.
func (v *Vertex) Graph() Graph { return v.graph }

func (v *Vertex) isConstruct() {}

// Names returns a sorted copy of the vertex names.
func (v *Vertex) Names() []string {
	return slices.Clone(v.names)
}

// HasName reports whether name is one of the vertex names.
func (v *Vertex) HasName(name string) bool {
	_, found := slices.BinarySearch(v.names, name)
	return found
}

// SharesName reports whether v and other have at least one name in common.
func (v *Vertex) SharesName(other *Vertex) bool {
	i, j := 0, 0
	for i < len(v.names) && j < len(other.names) {
		switch {
		case v.names[i] == other.names[j]:
			return true
		case v.names[i] < other.names[j]:
			i++
		default:
			j++
		}
	}
	return false
}

// AddNames adds names to the vertex. Either all names are added or, if any
// name is empty, none is.
func (v *Vertex) AddNames(names ...string) error {
	for _, name := range names {
		if name == "" {
			return hgerr.InvalidArgument("Vertex.AddNames", v.id, "vertex names must be non-empty")
		}
	}
	for _, name := range names {
		if i, found := slices.BinarySearch(v.names, name); !found {
			v.names = slices.Insert(v.names, i, name)
		}
	}
	return nil
}

// Proxied returns the construct this vertex stands in for, if any.
func (v *Vertex) Proxied() (*Reference, bool) {
	if v.proxied == nil {
		return nil, false
	}
	ref := *v.proxied
	return &ref, true
}

// SetProxied sets the construct this vertex stands in for. A nil reference
// clears it.
func (v *Vertex) SetProxied(ref *Reference) {
	if ref == nil {
		v.proxied = nil
		return
	}
	stored := *ref
	v.proxied = &stored
}
