// Package selector matches graph constructs against CEL expressions and
// glob patterns.
//
// A CEL selector sees one construct at a time through these variables:
//
//	kind          string        "vertex", "edge" or "property"
//	id            string        construct ID
//	graph         string        owning graph ID
//	names         list(string)  vertex names (empty for other kinds)
//	proxied       bool          whether a vertex stands in for another construct
//	type_id       string        terminal ID of the type vertex ("" if none)
//	type_names    list(string)  names of the type vertex
//	parent_id     string        terminal ID of a property's parent vertex
//	parent_names  list(string)  names of a property's parent vertex
//	vertex_ids    list(string)  terminal IDs of an edge's participants
//	value         dyn           a property's value (null for other kinds)
//
// Example:
//
//	m, err := selector.Compile(`kind == "edge" && "bond" in type_names && size(vertex_ids) == 2`)
package selector

import (
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/cel-go/cel"

	"github.com/hc1839/crul-sub003/construct"
	"github.com/hc1839/crul-sub003/hgerr"
)

// Matcher selects constructs.
type Matcher interface {
	Match(c construct.Construct) (bool, error)
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(c construct.Construct) (bool, error)

// Match calls f.
func (f MatcherFunc) Match(c construct.Construct) (bool, error) {
	return f(c)
}

// Expression is a compiled CEL selector.
type Expression struct {
	source  string
	program cel.Program
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("kind", cel.StringType),
		cel.Variable("id", cel.StringType),
		cel.Variable("graph", cel.StringType),
		cel.Variable("names", cel.ListType(cel.StringType)),
		cel.Variable("proxied", cel.BoolType),
		cel.Variable("type_id", cel.StringType),
		cel.Variable("type_names", cel.ListType(cel.StringType)),
		cel.Variable("parent_id", cel.StringType),
		cel.Variable("parent_names", cel.ListType(cel.StringType)),
		cel.Variable("vertex_ids", cel.ListType(cel.StringType)),
		cel.Variable("value", cel.DynType),
	)
}

// Compile parses and type-checks a boolean CEL expression.
//
// Returns an invalid-argument error if the expression does not compile or
// does not evaluate to a bool.
func Compile(expr string) (*Expression, error) {
	const op = "selector.Compile"

	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, hgerr.InvalidArgument(op, "", "%v", issues.Err()).
			WithContext(map[string]any{"expr": expr})
	}
	// dyn results (for example a bare `value`) are checked when evaluated.
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, hgerr.InvalidArgument(op, "", "expression has type %s, want bool", ast.OutputType()).
			WithContext(map[string]any{"expr": expr})
	}

	program, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to build CEL program: %w", err)
	}
	return &Expression{source: expr, program: program}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Expression {
	e, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the expression source.
func (e *Expression) String() string {
	return e.source
}

// Match evaluates the expression against c.
func (e *Expression) Match(c construct.Construct) (bool, error) {
	out, _, err := e.program.Eval(activation(c))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate %q on %s %q: %w", e.source, c.Kind(), c.ID(), err)
	}
	matched, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q produced %T, want bool", e.source, out.Value())
	}
	return matched, nil
}

func activation(c construct.Construct) map[string]any {
	vars := map[string]any{
		"kind":         c.Kind().String(),
		"id":           c.ID(),
		"graph":        "",
		"names":        []string{},
		"proxied":      false,
		"type_id":      "",
		"type_names":   []string{},
		"parent_id":    "",
		"parent_names": []string{},
		"vertex_ids":   []string{},
		"value":        nil,
	}
	if g := c.Graph(); g != nil {
		vars["graph"] = g.ID()
	}

	switch v := c.(type) {
	case *construct.Vertex:
		vars["names"] = v.Names()
		_, vars["proxied"] = v.Proxied()
	case *construct.Edge:
		setVertex(vars, "type", v.Type)
		participants := v.Vertices()
		vids := make([]string, len(participants))
		for i, p := range participants {
			vids[i] = p.ID()
		}
		vars["vertex_ids"] = vids
	case *construct.Property:
		setVertex(vars, "type", v.Type)
		setVertex(vars, "parent", v.Parent)
		vars["value"] = v.Value()
	}
	return vars
}

func setVertex(vars map[string]any, prefix string, resolve func() (*construct.Vertex, bool)) {
	v, ok := resolve()
	if !ok {
		return
	}
	vars[prefix+"_id"] = v.ID()
	vars[prefix+"_names"] = v.Names()
}

// Glob matches constructs whose ID matches a doublestar pattern.
//
// Returns an invalid-argument error if the pattern is malformed.
func Glob(pattern string) (Matcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, hgerr.InvalidArgument("selector.Glob", pattern, "malformed glob pattern")
	}
	return MatcherFunc(func(c construct.Construct) (bool, error) {
		return doublestar.Match(pattern, c.ID())
	}), nil
}

// NameGlob matches vertices with at least one name matching a doublestar
// pattern. Edges and properties never match.
func NameGlob(pattern string) (Matcher, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, hgerr.InvalidArgument("selector.NameGlob", pattern, "malformed glob pattern")
	}
	return MatcherFunc(func(c construct.Construct) (bool, error) {
		v, ok := c.(*construct.Vertex)
		if !ok {
			return false, nil
		}
		for _, name := range v.Names() {
			matched, err := doublestar.Match(pattern, name)
			if err != nil || matched {
				return matched, err
			}
		}
		return false, nil
	}), nil
}

// All matches constructs that every matcher matches. It stops at the first
// mismatch or error. All() matches everything.
func All(matchers ...Matcher) Matcher {
	return MatcherFunc(func(c construct.Construct) (bool, error) {
		for _, m := range matchers {
			matched, err := m.Match(c)
			if err != nil || !matched {
				return false, err
			}
		}
		return true, nil
	})
}

// Any matches constructs that at least one matcher matches. Any() matches
// nothing.
func Any(matchers ...Matcher) Matcher {
	return MatcherFunc(func(c construct.Construct) (bool, error) {
		for _, m := range matchers {
			matched, err := m.Match(c)
			if err != nil || matched {
				return matched, err
			}
		}
		return false, nil
	})
}
