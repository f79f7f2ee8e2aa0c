// Package involvement tracks the constructs of one kind that are "involved"
// in some working set, for example the vertices touched by a query.
//
// An Indexer stores references, not constructs. Stored references go stale
// when the constructs they name are merged away; Reindex pins every stored
// reference to the current terminal ID again. Constructs derives the
// deduplicated live constructs from whatever is currently stored.
package involvement

import (
	"cmp"
	"slices"

	"github.com/hc1839/crul-sub003/construct"
	"github.com/hc1839/crul-sub003/hgerr"
	"github.com/hc1839/crul-sub003/identity"
)

// Indexer is a set of construct references of a single kind.
//
// Indexer is not safe for concurrent use.
type Indexer struct {
	kind construct.Kind
	refs map[construct.Reference]struct{}
}

// Matcher selects constructs. selector.Matcher satisfies it.
type Matcher interface {
	Match(c construct.Construct) (bool, error)
}

// Enumerable is a graph that can list the terminal IDs of a kind.
type Enumerable interface {
	construct.Graph
	TerminalIDs(kind construct.Kind) []string
}

// New creates an empty Indexer for references of the given kind.
func New(kind construct.Kind) *Indexer {
	return &Indexer{
		kind: kind,
		refs: make(map[construct.Reference]struct{}),
	}
}

// Kind returns the construct kind indexed.
func (x *Indexer) Kind() construct.Kind {
	return x.kind
}

// Add stores ref as given, without resolving it.
func (x *Indexer) Add(ref construct.Reference) error {
	if ref.Kind != x.kind {
		return hgerr.InvalidArgument("Indexer.Add", ref.ID,
			"reference kind %s does not match indexer kind %s", ref.Kind, x.kind)
	}
	x.refs[ref] = struct{}{}
	return nil
}

// Remove drops the entry that ref designates. The indexer is reindexed first
// so a reference carrying a since-merged ID still matches the entry stored
// for the surviving construct.
//
// If ref no longer resolves, an identical stored entry is dropped as is.
// Otherwise Remove returns a not-found error. This is stricter than a plain
// set delete, which would ignore a missing entry: removing something the
// indexer never held is reported to the caller.
func (x *Indexer) Remove(ref construct.Reference) error {
	x.Reindex()

	pinned, err := ref.WithTerminalID()
	if err != nil {
		if _, ok := x.refs[ref]; ok {
			delete(x.refs, ref)
			return nil
		}
		return err
	}
	if _, ok := x.refs[pinned]; !ok {
		return hgerr.NotFound("Indexer.Remove", pinned.ID).
			WithContext(map[string]any{"graph": pinned.GraphID, "kind": pinned.Kind.String()})
	}
	delete(x.refs, pinned)
	return nil
}

// Reindex replaces every stored reference with its terminal-pinned form.
// References that pin to the same terminal ID collapse into one. References
// that no longer resolve are kept unchanged; Prune drops them.
func (x *Indexer) Reindex() {
	next := make(map[construct.Reference]struct{}, len(x.refs))
	for ref := range x.refs {
		if pinned, err := ref.WithTerminalID(); err == nil {
			next[pinned] = struct{}{}
		} else {
			next[ref] = struct{}{}
		}
	}
	x.refs = next
}

// Prune drops every stored reference that no longer resolves and returns the
// number dropped.
func (x *Indexer) Prune() int {
	var dropped int
	for ref := range x.refs {
		if _, ok := ref.Resolve(); !ok {
			delete(x.refs, ref)
			dropped++
		}
	}
	return dropped
}

// Contains reports whether ref is stored exactly as given.
func (x *Indexer) Contains(ref construct.Reference) bool {
	_, ok := x.refs[ref]
	return ok
}

// Len returns the number of stored references.
func (x *Indexer) Len() int {
	return len(x.refs)
}

// References returns a sorted copy of the stored references.
func (x *Indexer) References() []construct.Reference {
	out := make([]construct.Reference, 0, len(x.refs))
	for ref := range x.refs {
		out = append(out, ref)
	}
	slices.SortFunc(out, compareReferences)
	return out
}

// Constructs resolves every stored reference and returns the distinct live
// constructs under structural equality, in reference order. References that
// do not resolve are skipped.
func (x *Indexer) Constructs() []construct.Construct {
	set := identity.NewConstructSet()
	for _, ref := range x.References() {
		if c, ok := ref.Resolve(); ok {
			set.Add(c)
		}
	}
	return set.Items()
}

// AddMatching adds a reference to every construct of the indexer's kind in g
// that m selects, and returns the number of references added.
func (x *Indexer) AddMatching(g Enumerable, m Matcher) (int, error) {
	var added int
	for _, cid := range g.TerminalIDs(x.kind) {
		c, ok := g.ConstructByID(x.kind, cid)
		if !ok {
			continue
		}
		matched, err := m.Match(c)
		if err != nil {
			return added, err
		}
		if !matched {
			continue
		}
		ref := construct.NewReference(c)
		if _, ok := x.refs[ref]; !ok {
			x.refs[ref] = struct{}{}
			added++
		}
	}
	return added, nil
}

func compareReferences(a, b construct.Reference) int {
	var sa, sb string
	if a.System != nil {
		sa = a.System.ID()
	}
	if b.System != nil {
		sb = b.System.ID()
	}
	return cmp.Or(
		cmp.Compare(sa, sb),
		cmp.Compare(a.GraphID, b.GraphID),
		cmp.Compare(a.Kind, b.Kind),
		cmp.Compare(a.ID, b.ID),
	)
}
