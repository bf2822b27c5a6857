// Package graph implements the embedded property-graph storage contract:
// entities, edges, labels, properties, schema migrations, an adjacency
// cache, and the query operations built over them.
package graph

import "encoding/json"

// Entity is a graph node. Identity is by ID; IDs are assigned by the
// Store at insert time and never reused within a process lifetime.
type Entity struct {
	ID       int64
	Kind     string
	Name     string
	FilePath *string
	Data     json.RawMessage
}

// Edge is a typed, directed connection between two entities.
type Edge struct {
	ID       int64
	FromID   int64
	ToID     int64
	EdgeType string
	Data     json.RawMessage
}

// Label is a many-to-many tag between an entity and a string label.
type Label struct {
	EntityID int64
	Label    string
}

// Property is a (key, value) pair attached to an entity. The same
// (EntityID, Key) may appear more than once.
type Property struct {
	EntityID int64
	Key      string
	Value    string
}

// Direction selects which side of an edge to traverse.
type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

// MetricsSnapshot is a point-in-time read of the Store's instrumented
// counters, independent of the OpenTelemetry meter wiring in package
// internal/metrics (which records the same numbers for external
// observers; this type is the cheap in-process equivalent).
type MetricsSnapshot struct {
	StatementsPrepared int64
	StatementsExecuted int64
	Transactions       int64
	CacheHits          int64
	CacheMisses        int64
}
