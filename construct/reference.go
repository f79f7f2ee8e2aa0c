package construct

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/hc1839/crul-sub003/hgerr"
)

// Reference is a lightweight, re-resolvable pointer to a construct.
//
// ID records the ID the caller originally asked for and is never rewritten,
// even after that ID has been redirected. WithTerminalID derives a new
// reference pinned to the current terminal ID instead.
//
// Two references are equal iff all four fields are equal. Equality is by
// stored fields, not by what the references resolve to: references to two
// aliased IDs are different references to the same construct. Reference is
// comparable and may be used as a map key.
type Reference struct {
	// System resolves GraphID.
	System System

	// GraphID identifies the graph within System.
	GraphID string

	// Kind is the construct kind the reference designates.
	Kind Kind

	// ID is the construct ID as originally requested.
	ID string
}

// NewReference returns a reference to c under its current ID.
func NewReference(c Construct) Reference {
	g := c.Graph()
	return Reference{
		System:  g.System(),
		GraphID: g.ID(),
		Kind:    c.Kind(),
		ID:      c.ID(),
	}
}

// Resolve returns the live construct the reference designates.
// It returns false if the graph or the construct no longer exists.
func (r Reference) Resolve() (Construct, bool) {
	if r.System == nil {
		return nil, false
	}
	g, ok := r.System.Graph(r.GraphID)
	if !ok {
		return nil, false
	}
	return g.ConstructByID(r.Kind, r.ID)
}

// WithTerminalID returns a copy of r whose ID is the current terminal ID of
// the construct r resolves to. It returns a not-found error if r does not
// resolve.
func (r Reference) WithTerminalID() (Reference, error) {
	c, ok := r.Resolve()
	if !ok {
		return Reference{}, hgerr.NotFound("Reference.WithTerminalID", r.ID).
			WithContext(map[string]any{"graph": r.GraphID, "kind": r.Kind.String()})
	}
	pinned := r
	pinned.ID = c.ID()
	return pinned, nil
}

// Equal reports whether r and other have the same stored fields.
func (r Reference) Equal(other Reference) bool {
	return r == other
}

// Hash returns a hash of the stored fields, consistent with Equal.
func (r Reference) Hash() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(r.systemID())
	_, _ = d.Write([]byte{0, byte(r.Kind), 0})
	_, _ = d.WriteString(r.GraphID)
	_, _ = d.Write([]byte{0})
	_, _ = d.WriteString(r.ID)
	return d.Sum64()
}

// String returns graph/kind/id.
func (r Reference) String() string {
	return fmt.Sprintf("%s/%s/%s", r.GraphID, r.Kind, r.ID)
}

func (r Reference) systemID() string {
	if r.System == nil {
		return ""
	}
	return r.System.ID()
}

type referenceJSON struct {
	System string `json:"system"`
	Graph  string `json:"graph"`
	Kind   Kind   `json:"kind"`
	ID     string `json:"id"`
}

// MarshalJSON encodes the reference with its System replaced by the system ID.
func (r Reference) MarshalJSON() ([]byte, error) {
	return json.Marshal(referenceJSON{
		System: r.systemID(),
		Graph:  r.GraphID,
		Kind:   r.Kind,
		ID:     r.ID,
	})
}

// DecodeReference decodes a reference produced by MarshalJSON, rebinding the
// system through lookup.
func DecodeReference(data []byte, lookup func(systemID string) (System, bool)) (Reference, error) {
	var raw referenceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return Reference{}, fmt.Errorf("failed to decode reference: %w", err)
	}
	sys, ok := lookup(raw.System)
	if !ok {
		return Reference{}, hgerr.NotFound("construct.DecodeReference", raw.System)
	}
	return Reference{System: sys, GraphID: raw.Graph, Kind: raw.Kind, ID: raw.ID}, nil
}
