package identity

import (
	"reflect"

	"github.com/hc1839/crul-sub003/construct"
)

// GraphsEqual reports whether a and b are the same graph: same system and
// same ID.
func GraphsEqual(a, b construct.Graph) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.System() == b.System() && a.ID() == b.ID()
}

// ConstructIdentitiesEqual reports strict identity: same graph and same ID.
func ConstructIdentitiesEqual(a, b construct.Construct) bool {
	return GraphsEqual(a.Graph(), b.Graph()) && a.ID() == b.ID()
}

// VerticesEqual reports whether a and b belong to the same graph, share at
// least one name, and proxy the same construct (or both proxy nothing).
func VerticesEqual(a, b *construct.Vertex) bool {
	if !GraphsEqual(a.Graph(), b.Graph()) || !a.SharesName(b) {
		return false
	}
	pa, okA := proxiedIdentity(a)
	pb, okB := proxiedIdentity(b)
	if okA != okB {
		return false
	}
	return !okA || pa == pb
}

// EdgesEqual reports whether a and b belong to the same graph, have equal
// type vertices, and have equal participant sets under vertex equality.
func EdgesEqual(a, b *construct.Edge) bool {
	if !GraphsEqual(a.Graph(), b.Graph()) {
		return false
	}
	if !optionalVerticesEqual(a.Type, b.Type) {
		return false
	}

	setA := NewVertexSet(a.Vertices()...)
	setB := NewVertexSet(b.Vertices()...)
	if setA.Len() != setB.Len() {
		return false
	}
	for _, v := range setA.Items() {
		if !setB.Contains(v) {
			return false
		}
	}
	for _, v := range setB.Items() {
		if !setA.Contains(v) {
			return false
		}
	}
	return true
}

// PropertiesEqual reports whether a and b belong to the same graph, have
// equal parent and type vertices, and have equal values.
func PropertiesEqual(a, b *construct.Property) bool {
	return GraphsEqual(a.Graph(), b.Graph()) &&
		optionalVerticesEqual(a.Parent, b.Parent) &&
		optionalVerticesEqual(a.Type, b.Type) &&
		ValuesEqual(a.Value(), b.Value())
}

// ValuesEqual compares opaque property values. When both values implement
// Value, a decides. A Value never equals a plain value. Plain values are
// equal when they are deeply equal and hash equally, so 0.0 and -0.0,
// which reflect.DeepEqual treats as equal but ValueHash does not, differ.
func ValuesEqual(a, b any) bool {
	va, okA := a.(Value)
	vb, okB := b.(Value)
	switch {
	case okA && okB:
		return va.Equal(vb)
	case okA || okB:
		return false
	}
	return ValueHash(a) == ValueHash(b) && reflect.DeepEqual(a, b)
}

// Equal dispatches to the equality function of the constructs' kind.
// Constructs of different kinds are never equal.
func Equal(a, b construct.Construct) bool {
	switch va := a.(type) {
	case *construct.Vertex:
		vb, ok := b.(*construct.Vertex)
		return ok && VerticesEqual(va, vb)
	case *construct.Edge:
		vb, ok := b.(*construct.Edge)
		return ok && EdgesEqual(va, vb)
	case *construct.Property:
		vb, ok := b.(*construct.Property)
		return ok && PropertiesEqual(va, vb)
	}
	return false
}

// optionalVerticesEqual compares two lazily resolved vertices. Two
// unresolvable vertices are equal; a resolvable and an unresolvable one are
// not.
func optionalVerticesEqual(a, b func() (*construct.Vertex, bool)) bool {
	va, okA := a()
	vb, okB := b()
	if okA != okB {
		return false
	}
	return !okA || VerticesEqual(va, vb)
}
