package identity

import (
	"sort"

	"github.com/hc1839/crul-sub003/construct"
)

// Set is a collection of elements deduplicated by a hash function and a
// matching equality function rather than by Go equality.
//
// The hash and equality functions must agree: equal elements must hash
// equally. When the equality function is not transitive (as for vertices),
// an element is a duplicate if it equals any element already stored, and the
// first stored element wins.
//
// Set is not safe for concurrent use.
type Set[T any] struct {
	hash    func(T) uint64
	equal   func(T, T) bool
	buckets map[uint64][]setEntry[T]
	size    int
	seq     uint64
}

type setEntry[T any] struct {
	seq   uint64
	value T
}

// NewSet creates an empty set using the given hash and equality functions.
func NewSet[T any](hash func(T) uint64, equal func(T, T) bool) *Set[T] {
	return &Set[T]{
		hash:    hash,
		equal:   equal,
		buckets: make(map[uint64][]setEntry[T]),
	}
}

// NewConstructSet creates a set of constructs of any kind, keyed by Hash and
// Equal.
func NewConstructSet(items ...construct.Construct) *Set[construct.Construct] {
	s := NewSet(Hash, Equal)
	s.AddAll(items...)
	return s
}

// NewVertexSet creates a set of vertices keyed by VertexHash and VerticesEqual.
func NewVertexSet(items ...*construct.Vertex) *Set[*construct.Vertex] {
	s := NewSet(VertexHash, VerticesEqual)
	s.AddAll(items...)
	return s
}

// NewEdgeSet creates a set of edges keyed by EdgeHash and EdgesEqual.
func NewEdgeSet(items ...*construct.Edge) *Set[*construct.Edge] {
	s := NewSet(EdgeHash, EdgesEqual)
	s.AddAll(items...)
	return s
}

// NewPropertySet creates a set of properties keyed by PropertyHash and
// PropertiesEqual.
func NewPropertySet(items ...*construct.Property) *Set[*construct.Property] {
	s := NewSet(PropertyHash, PropertiesEqual)
	s.AddAll(items...)
	return s
}

// Add inserts v unless an equal element is already present.
// It reports whether v was inserted.
func (s *Set[T]) Add(v T) bool {
	h := s.hash(v)
	for _, e := range s.buckets[h] {
		if s.equal(e.value, v) {
			return false
		}
	}
	s.seq++
	s.buckets[h] = append(s.buckets[h], setEntry[T]{seq: s.seq, value: v})
	s.size++
	return true
}

// AddAll inserts every element of items, in order.
func (s *Set[T]) AddAll(items ...T) {
	for _, v := range items {
		s.Add(v)
	}
}

// Find returns the stored element equal to v.
func (s *Set[T]) Find(v T) (T, bool) {
	for _, e := range s.buckets[s.hash(v)] {
		if s.equal(e.value, v) {
			return e.value, true
		}
	}
	var zero T
	return zero, false
}

// Contains reports whether an element equal to v is stored.
func (s *Set[T]) Contains(v T) bool {
	_, ok := s.Find(v)
	return ok
}

// Remove deletes the first stored element equal to v.
// It reports whether an element was removed.
func (s *Set[T]) Remove(v T) bool {
	h := s.hash(v)
	bucket := s.buckets[h]
	for i, e := range bucket {
		if !s.equal(e.value, v) {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		if len(bucket) == 0 {
			delete(s.buckets, h)
		} else {
			s.buckets[h] = bucket
		}
		s.size--
		return true
	}
	return false
}

// Len returns the number of stored elements.
func (s *Set[T]) Len() int {
	return s.size
}

// Items returns the stored elements in insertion order.
func (s *Set[T]) Items() []T {
	entries := make([]setEntry[T], 0, s.size)
	for _, bucket := range s.buckets {
		entries = append(entries, bucket...)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]T, len(entries))
	for i, e := range entries {
		out[i] = e.value
	}
	return out
}
