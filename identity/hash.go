// Package identity computes structural hash codes and structural equality for
// graphs and constructs.
//
// Hashes and equality only ever consult semantically meaningful fields (graph
// system and ID, construct ID, vertex proxies, edge participants, property
// values), never object identity. Every equality function is paired with a
// hash function such that equal constructs always hash equally; Set relies
// on that pairing.
//
// Vertex equality is deliberately weak: two vertices of the same graph are
// equal when they share at least one name and proxy the same construct (or
// both proxy nothing). This relation is not transitive. {"x","y"} equals
// {"y","z"} and {"y","z"} equals {"z","w"}, but {"x","y"} does not equal
// {"z","w"}. Deduplication built on it keeps the first match.
package identity

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/cespare/xxhash/v2"
	"github.com/mitchellh/hashstructure/v2"

	"github.com/hc1839/crul-sub003/construct"
	"github.com/hc1839/crul-sub003/hgerr"
)

// Value may be implemented by property values that define their own
// identity. Hash must agree with Equal. A Value is only ever compared with
// another Value.
type Value interface {
	Hash() uint64
	Equal(other any) bool
}

// hasher combines fields into a single order-sensitive hash.
type hasher struct {
	d *xxhash.Digest
}

func newHasher() hasher {
	return hasher{d: xxhash.New()}
}

func (h hasher) str(s string) hasher {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
	_, _ = h.d.Write(n[:])
	_, _ = h.d.WriteString(s)
	return h
}

func (h hasher) u64(v uint64) hasher {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	_, _ = h.d.Write(b[:])
	return h
}

func (h hasher) sum() uint64 {
	return h.d.Sum64()
}

func systemID(s construct.System) string {
	if s == nil {
		return ""
	}
	return s.ID()
}

func graphHashOf(sysID, graphID string) uint64 {
	return newHasher().str(sysID).str(graphID).sum()
}

// GraphHash hashes a graph by its system and ID.
func GraphHash(g construct.Graph) uint64 {
	if g == nil {
		return 0
	}
	return graphHashOf(systemID(g.System()), g.ID())
}

// ConstructIdentityHash hashes a construct by its graph and ID only.
func ConstructIdentityHash(c construct.Construct) uint64 {
	return newHasher().u64(GraphHash(c.Graph())).str(c.ID()).sum()
}

// VertexHash hashes a vertex by its graph and the identity of the construct
// it proxies (zero when it proxies nothing). Names are not hashed because
// vertex equality only requires a shared name.
func VertexHash(v *construct.Vertex) uint64 {
	var proxied uint64
	if key, ok := proxiedIdentity(v); ok {
		proxied = key.hash()
	}
	return newHasher().u64(GraphHash(v.Graph())).u64(proxied).sum()
}

// EdgeHash hashes an edge by its graph, its type vertex and its participant
// vertices. Participant hashes are sorted and deduplicated before combining,
// so the hash is independent of insertion order and agrees with the set
// semantics of EdgesEqual.
func EdgeHash(e *construct.Edge) uint64 {
	vertices := e.Vertices()
	hashes := make([]uint64, 0, len(vertices))
	for _, v := range vertices {
		hashes = append(hashes, VertexHash(v))
	}
	slices.Sort(hashes)
	hashes = slices.Compact(hashes)

	h := newHasher().u64(GraphHash(e.Graph())).u64(optionalVertexHash(e.Type()))
	h = h.u64(uint64(len(hashes)))
	for _, vh := range hashes {
		h = h.u64(vh)
	}
	return h.sum()
}

// PropertyHash hashes a property by its graph, type vertex, parent vertex and
// value.
func PropertyHash(p *construct.Property) uint64 {
	return newHasher().
		u64(GraphHash(p.Graph())).
		u64(optionalVertexHash(p.Type())).
		u64(optionalVertexHash(p.Parent())).
		u64(ValueHash(p.Value())).
		sum()
}

// ValueHash hashes an opaque property value consistently with ValuesEqual.
// Values implementing Value hash themselves; other values are hashed
// structurally.
func ValueHash(value any) uint64 {
	if value == nil {
		return 0
	}
	if v, ok := value.(Value); ok {
		return v.Hash()
	}
	sum, err := hashstructure.Hash(value, hashstructure.FormatV2, nil)
	if err != nil {
		// Values hashstructure cannot walk (funcs, channels) fall back to
		// their dynamic type, which equal values share.
		return newHasher().str(fmt.Sprintf("%T", value)).sum()
	}
	return sum
}

// Hash dispatches to the hash function of c's kind.
func Hash(c construct.Construct) uint64 {
	switch v := c.(type) {
	case *construct.Vertex:
		return VertexHash(v)
	case *construct.Edge:
		return EdgeHash(v)
	case *construct.Property:
		return PropertyHash(v)
	}
	panic(hgerr.Invariant("identity.Hash", "", "unhandled construct type %T", c))
}

func optionalVertexHash(v *construct.Vertex, ok bool) uint64 {
	if !ok {
		return 0
	}
	return VertexHash(v)
}

// identityKey is the (system, graph, id) triple compared by
// ConstructIdentitiesEqual.
type identityKey struct {
	system  construct.System
	graphID string
	id      string
}

func (k identityKey) hash() uint64 {
	return newHasher().u64(graphHashOf(systemID(k.system), k.graphID)).str(k.id).sum()
}

// proxiedIdentity returns the identity of the construct v proxies: the live
// construct's graph and current ID when the proxy resolves, otherwise the
// stored fields of the proxy reference.
func proxiedIdentity(v *construct.Vertex) (identityKey, bool) {
	ref, ok := v.Proxied()
	if !ok {
		return identityKey{}, false
	}
	if c, ok := ref.Resolve(); ok {
		g := c.Graph()
		return identityKey{system: g.System(), graphID: g.ID(), id: c.ID()}, true
	}
	return identityKey{system: ref.System, graphID: ref.GraphID, id: ref.ID}, true
}
