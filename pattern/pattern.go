// Package pattern implements PatternMatcher (SPEC_FULL.md §4.4): triple
// and multi-leg pattern matching over a graph.Store, with a cache-driven
// fast path and a predicate-evaluating SQL path that must agree exactly
// whenever both can answer a pattern.
package pattern

import "github.com/kestrelgraph/sqlitegraph/graph"

// Triple is a single-edge pattern: an optional label/property
// constraint on the start entity, a required edge type, an optional
// label/property constraint on the end entity, and a direction.
type Triple struct {
	EdgeType   string
	Direction  graph.Direction
	StartLabel *string
	EndLabel   *string
	StartProps map[string]string
	EndProps   map[string]string
}

// hasFilter reports whether t constrains anything beyond edge type and
// direction, which disqualifies it from the fast path per SPEC_FULL.md
// §4.4.
func (t Triple) hasFilter() bool {
	return t.StartLabel != nil || t.EndLabel != nil || len(t.StartProps) > 0 || len(t.EndProps) > 0
}

// TripleMatch is one result of matching a Triple from a seed entity.
type TripleMatch struct {
	StartID int64
	EdgeID  int64
	EndID   int64
}

// NodeConstraint tests a candidate entity's kind and/or name prefix.
// Used by multi-leg patterns, not by Triple.
type NodeConstraint struct {
	Kind       *string
	NamePrefix *string
}

// satisfies reports whether e meets every non-nil field of c. A nil
// NodeConstraint always matches.
func (c *NodeConstraint) satisfies(e graph.Entity) bool {
	if c == nil {
		return true
	}
	if c.Kind != nil && e.Kind != *c.Kind {
		return false
	}
	if c.NamePrefix != nil && !hasPrefix(e.Name, *c.NamePrefix) {
		return false
	}
	return true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Leg is one step of a MultiLeg pattern.
type Leg struct {
	Direction  graph.Direction
	EdgeType   string // empty means any type
	Constraint *NodeConstraint
}

// MultiLeg is an ordered chain of Legs, optionally constraining the
// root (seed) entity itself.
type MultiLeg struct {
	Root *NodeConstraint
	Legs []Leg
}
