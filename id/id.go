// Package id implements the identity grammar for graph and construct IDs and
// the generators that mint IDs satisfying it.
//
// A legal ID is a name token: it starts with an ASCII letter or underscore,
// followed by any number of ASCII letters, digits, dots, hyphens or
// underscores. IDs are never normalised; a violation is a caller error.
package id

import "github.com/hc1839/crul-sub003/hgerr"

// IsValid reports whether s matches [A-Za-z_][A-Za-z0-9._-]*.
func IsValid(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z':
		case i > 0 && ('0' <= c && c <= '9' || c == '.' || c == '-'):
		default:
			return false
		}
	}
	return true
}

// Validate returns an invalid-argument error if s is not a legal ID.
func Validate(s string) error {
	if !IsValid(s) {
		return hgerr.InvalidArgument("id.Validate", s, "not a valid name token")
	}
	return nil
}
