// Package hgerr provides the structured error type shared by the hypergraph
// identity packages.
//
// Errors fall into three groups:
//
//   - Invalid arguments (malformed IDs, illegal redirections). These are
//     returned synchronously to the caller of the mutating operation.
//   - Not found. Most lookups represent absence with a (value, bool) pair; the
//     few operations that require their target to exist return an error that
//     matches ErrNotFound.
//   - Invariant violations. These indicate corrupted internal state and are
//     raised with panic, never returned.
package hgerr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the hypergraph identity packages.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidArgument indicates a caller-correctable precondition failure,
	// such as an ID that violates the identity grammar or a redirection whose
	// target is not a terminal ID.
	//
	// Example:
	//	if err := r.Put("1bad", v); errors.Is(err, hgerr.ErrInvalidArgument) {
	//	    // reject the ID at the boundary
	//	}
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrNotFound indicates that an ID or reference no longer designates a
	// live construct. This is expected steady-state behavior after merges and
	// removals, not a programming error.
	ErrNotFound = errors.New("not found")

	// ErrInvariant indicates that internal state is corrupted, for example a
	// redirection chain that does not terminate. It is only ever carried by a
	// panic.
	ErrInvariant = errors.New("invariant violation")

	// ErrInvalidConfig indicates the provided configuration is invalid or incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnavailable indicates that an external collaborator (such as the
	// event transport) could not be reached.
	ErrUnavailable = errors.New("unavailable")
)

// Error kinds categorize errors by their type.
const (
	// KindInvalidArgument represents caller errors.
	KindInvalidArgument = "invalid_argument"

	// KindNotFound represents lookups of constructs that do not exist.
	KindNotFound = "not_found"

	// KindInternal represents invariant violations.
	KindInternal = "internal"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindUnavailable represents failures of external collaborators.
	KindUnavailable = "unavailable"
)

// Error is a structured error that records the failed operation, the error
// kind and the ID the operation was applied to.
//
// Error supports unwrapping, so errors.Is(err, ErrNotFound) works on any
// Error whose Err is (or wraps) ErrNotFound.
//
// Example:
//
//	err := &hgerr.Error{
//		Op:   "Redirector.Redirect",
//		Kind: hgerr.KindInvalidArgument,
//		ID:   "v1",
//		Err:  hgerr.ErrInvalidArgument,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "Redirector.Put").
	Op string

	// Kind categorizes the error (e.g., KindInvalidArgument).
	Kind string

	// ID is the construct or graph ID the operation was applied to (optional).
	ID string

	// Err is the underlying error.
	Err error

	// Context provides additional debugging information (optional).
	Context map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("crul: ")
	b.WriteString(e.Op)
	b.WriteString(" (")
	b.WriteString(e.Kind)
	b.WriteString(")")
	if e.ID != "" {
		fmt.Fprintf(&b, " %q", e.ID)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString("]")
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a target *Error by Kind (and by Op when the target sets one),
// and otherwise delegates to the wrapped error.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with ctx merged into its context.
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	merged := make(map[string]any, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	newErr.Context = merged
	return &newErr
}

// InvalidArgument creates an Error with KindInvalidArgument wrapping
// ErrInvalidArgument.
func InvalidArgument(op, id, format string, args ...any) *Error {
	return &Error{
		Op:   op,
		Kind: KindInvalidArgument,
		ID:   id,
		Err:  fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...)),
	}
}

// NotFound creates an Error with KindNotFound wrapping ErrNotFound.
func NotFound(op, id string) *Error {
	return &Error{
		Op:   op,
		Kind: KindNotFound,
		ID:   id,
		Err:  ErrNotFound,
	}
}

// Invariant creates an Error with KindInternal wrapping ErrInvariant.
// Callers panic with the result.
func Invariant(op, id, format string, args ...any) *Error {
	return &Error{
		Op:   op,
		Kind: KindInternal,
		ID:   id,
		Err:  fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...)),
	}
}

// Configuration creates an Error with KindConfiguration wrapping err.
// If err does not already wrap ErrInvalidConfig, it is joined with it.
func Configuration(op string, err error) *Error {
	if !errors.Is(err, ErrInvalidConfig) {
		err = fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &Error{
		Op:   op,
		Kind: KindConfiguration,
		Err:  err,
	}
}

// Unavailable creates an Error with KindUnavailable wrapping err.
func Unavailable(op string, err error) *Error {
	if !errors.Is(err, ErrUnavailable) {
		err = fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return &Error{
		Op:   op,
		Kind: KindUnavailable,
		Err:  err,
	}
}

// IsInvalidArgument reports whether err is an invalid-argument error.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
