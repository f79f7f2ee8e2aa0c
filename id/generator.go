package id

import (
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"lukechampine.com/blake3"

	"github.com/hc1839/crul-sub003/hgerr"
)

// Generator creates IDs that satisfy the identity grammar.
type Generator interface {
	// Generate creates an ID for a construct (or graph) of the given kind.
	// The optional parts describe the construct; generators that are not
	// content-addressed ignore them.
	//
	// Returns an invalid-argument error if kind cannot prefix a legal ID.
	//
	// Example:
	//   id, err := gen.Generate("vertex", "carbon")
	Generate(kind string, parts ...string) (string, error)
}

// UUIDGenerator produces random IDs of the form {prefix}_{uuid}.
// If Prefix is empty, the kind passed to Generate is used.
type UUIDGenerator struct {
	Prefix string
}

// Generate returns a fresh random ID. Parts are ignored.
func (g UUIDGenerator) Generate(kind string, _ ...string) (string, error) {
	prefix := g.Prefix
	if prefix == "" {
		prefix = kind
	}
	if err := validatePrefix(prefix); err != nil {
		return "", err
	}
	return prefix + "_" + uuid.NewString(), nil
}

// ContentGenerator produces deterministic, content-addressed IDs.
//
// ID Generation Algorithm:
//  1. Build the canonical string: kind, a newline, then the parts joined by
//     the ASCII unit separator (parts keep their order)
//  2. BLAKE3 hash the canonical string
//  3. Base64url encode the first 12 bytes (no padding)
//  4. Return {kind}.{encoded}
//
// The same kind and parts always produce the same ID. The base64url alphabet
// only contains characters the identity grammar allows after the first one.
type ContentGenerator struct{}

// Generate returns the content-addressed ID for kind and parts.
func (ContentGenerator) Generate(kind string, parts ...string) (string, error) {
	if err := validatePrefix(kind); err != nil {
		return "", err
	}

	canonical := kind + "\n" + strings.Join(parts, "\x1f")
	sum := blake3.Sum256([]byte(canonical))
	encoded := base64.RawURLEncoding.EncodeToString(sum[:12])

	return kind + "." + encoded, nil
}

func validatePrefix(prefix string) error {
	if !IsValid(prefix) {
		return hgerr.InvalidArgument("id.Generate", prefix, "kind cannot prefix a valid name token")
	}
	return nil
}
