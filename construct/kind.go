package construct

import (
	"fmt"

	"github.com/hc1839/crul-sub003/hgerr"
)

// Kind is the closed set of construct kinds. The zero value is not a valid
// kind.
type Kind uint8

const (
	// KindVertex identifies vertices.
	KindVertex Kind = iota + 1

	// KindEdge identifies edges.
	KindEdge

	// KindProperty identifies properties.
	KindProperty
)

// Kinds returns every valid kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindVertex, KindEdge, KindProperty}
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindVertex, KindEdge, KindProperty:
		return true
	}
	return false
}

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	case KindProperty:
		return "property"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind parses the name produced by String.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, hgerr.InvalidArgument("construct.ParseKind", s, "unknown construct kind")
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, hgerr.InvalidArgument("Kind.MarshalText", k.String(), "unknown construct kind")
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
