// Package redirect implements the Redirector, the per-graph, per-kind arena
// that owns live constructs and maintains the forest of ID aliases created by
// merges.
//
// Every ID ever Put is known to the Redirector. A known ID is either terminal
// (it designates a directly stored construct) or an alias whose redirection
// target is another known ID. Following redirections from any known ID always
// ends at a terminal ID. Redirect only ever targets terminal IDs, so chains
// cannot form cycles and stay short without rebalancing.
package redirect

import (
	"slices"

	"github.com/hc1839/crul-sub003/hgerr"
	"github.com/hc1839/crul-sub003/id"
)

// Redirector stores the constructs of one kind within one graph, keyed by
// terminal ID, together with the aliases that redirect to them.
//
// Redirector is not safe for concurrent use; callers serialise access.
type Redirector[T any] struct {
	constructs map[string]T

	// redirections maps every known ID to its redirection target.
	// The empty string marks a terminal ID.
	redirections map[string]string
}

// New creates an empty Redirector.
func New[T any]() *Redirector[T] {
	return &Redirector[T]{
		constructs:   make(map[string]T),
		redirections: make(map[string]string),
	}
}

// Get returns the construct reached by following redirections from id.
// It returns false if id was never registered or has been removed.
func (r *Redirector[T]) Get(cid string) (T, bool) {
	terminal, ok := r.TerminalID(cid)
	if !ok {
		var zero T
		return zero, false
	}
	c, ok := r.constructs[terminal]
	if !ok {
		panic(hgerr.Invariant("Redirector.Get", terminal, "terminal id has no stored construct"))
	}
	return c, true
}

// Put registers c under cid as a terminal ID, replacing any construct or
// redirection previously registered under cid. IDs that alias cid keep
// resolving through it.
func (r *Redirector[T]) Put(cid string, c T) error {
	if !id.IsValid(cid) {
		return hgerr.InvalidArgument("Redirector.Put", cid, "not a valid name token")
	}
	r.redirections[cid] = ""
	r.constructs[cid] = c
	return nil
}

// TerminalID returns the terminal ID reached by following redirections from
// cid, or false if cid is unknown.
func (r *Redirector[T]) TerminalID(cid string) (string, bool) {
	target, ok := r.redirections[cid]
	if !ok {
		return "", false
	}

	current := cid
	// A chain visits each known ID at most once.
	for steps := 0; target != ""; steps++ {
		if steps >= len(r.redirections) {
			panic(hgerr.Invariant("Redirector.TerminalID", cid, "redirection chain does not terminate"))
		}
		current = target
		target, ok = r.redirections[current]
		if !ok {
			panic(hgerr.Invariant("Redirector.TerminalID", cid, "redirection target %q is unknown", current))
		}
	}
	return current, true
}

// Redirect makes fromID an alias of terminalID. The construct stored under
// fromID, if any, is dropped; IDs that aliased fromID now resolve to
// terminalID through it.
//
// Returns an invalid-argument error if fromID is unknown, if terminalID does
// not directly designate a stored construct, or if the two are equal.
func (r *Redirector[T]) Redirect(fromID, terminalID string) error {
	if _, ok := r.redirections[fromID]; !ok {
		return hgerr.InvalidArgument("Redirector.Redirect", fromID, "source id is unknown")
	}
	if !r.IsTerminal(terminalID) {
		return hgerr.InvalidArgument("Redirector.Redirect", terminalID, "target id is not a terminal id")
	}
	if fromID == terminalID {
		return hgerr.InvalidArgument("Redirector.Redirect", fromID, "source and target ids are equal")
	}

	r.redirections[fromID] = terminalID
	delete(r.constructs, fromID)
	return nil
}

// Remove resolves cid to its terminal ID and erases that ID together with
// every ID that transitively redirects to it. It returns the removed IDs,
// sorted. Removing an unknown ID is a no-op.
func (r *Redirector[T]) Remove(cid string) []string {
	terminal, ok := r.TerminalID(cid)
	if !ok {
		return nil
	}

	removed := []string{terminal}
	frontier := map[string]bool{terminal: true}
	delete(r.redirections, terminal)
	delete(r.constructs, terminal)

	for len(frontier) > 0 {
		next := make(map[string]bool)
		for known, target := range r.redirections {
			if frontier[target] {
				next[known] = true
			}
		}
		for known := range next {
			delete(r.redirections, known)
			delete(r.constructs, known)
			removed = append(removed, known)
		}
		frontier = next
	}

	slices.Sort(removed)
	return removed
}

// Clear removes every construct and redirection.
func (r *Redirector[T]) Clear() {
	clear(r.constructs)
	clear(r.redirections)
}

// TerminalIDs returns the IDs that currently designate a stored construct,
// sorted.
func (r *Redirector[T]) TerminalIDs() []string {
	ids := make([]string, 0, len(r.constructs))
	for cid := range r.constructs {
		ids = append(ids, cid)
	}
	slices.Sort(ids)
	return ids
}

// Known reports whether cid is registered, as a terminal ID or an alias.
func (r *Redirector[T]) Known(cid string) bool {
	_, ok := r.redirections[cid]
	return ok
}

// IsTerminal reports whether cid directly designates a stored construct.
func (r *Redirector[T]) IsTerminal(cid string) bool {
	target, ok := r.redirections[cid]
	if !ok || target != "" {
		return false
	}
	_, stored := r.constructs[cid]
	return stored
}

// Aliases returns every known ID, other than the terminal ID itself, whose
// redirection chain ends at the terminal ID of cid. The result is sorted.
func (r *Redirector[T]) Aliases(cid string) []string {
	terminal, ok := r.TerminalID(cid)
	if !ok {
		return nil
	}
	var aliases []string
	for known, target := range r.redirections {
		if target == "" {
			continue
		}
		if t, _ := r.TerminalID(known); t == terminal {
			aliases = append(aliases, known)
		}
	}
	slices.Sort(aliases)
	return aliases
}

// Len returns the number of stored constructs.
func (r *Redirector[T]) Len() int {
	return len(r.constructs)
}
