package migration

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// State is one of the three MigrationRuntime states (SPEC_FULL.md
// §4.10). There are no backward transitions.
type State int

const (
	PreMigration State = iota
	DualWrite
	Cutover
)

func (s State) String() string {
	switch s {
	case PreMigration:
		return "pre_migration"
	case DualWrite:
		return "dual_write"
	case Cutover:
		return "cutover"
	default:
		return "unknown"
	}
}

// DualWriter owns a base and a shadow Backend. Every write goes to base
// first, then is mirrored to shadow with endpoint ids translated
// through an id map, since the shadow side may have had independent
// prior inserts and so assign different ids for "the same" node.
type DualWriter struct {
	mu     sync.Mutex
	base   Backend
	shadow Backend
	idMap  map[int64]int64 // base node id -> shadow node id
	state  State

	nodesWritten atomic.Int64
	edgesWritten atomic.Int64
}

// NewDualWriter returns a DualWriter in the PreMigration state.
func NewDualWriter(base, shadow Backend) *DualWriter {
	return &DualWriter{base: base, shadow: shadow, idMap: make(map[int64]int64), state: PreMigration}
}

func (w *DualWriter) enterDualWrite() {
	if w.state == PreMigration {
		w.state = DualWrite
	}
}

// InsertNode writes to base then mirrors to shadow, returning both
// assigned ids and recording the mapping for later edge translation.
func (w *DualWriter) InsertNode(ctx context.Context, kind, name string, filePath *string, data json.RawMessage) (baseID, shadowID int64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enterDualWrite()

	baseID, err = w.base.InsertNode(ctx, kind, name, filePath, data)
	if err != nil {
		return 0, 0, err
	}
	shadowID, err = w.shadow.InsertNode(ctx, kind, name, filePath, data)
	if err != nil {
		return baseID, 0, err
	}
	w.idMap[baseID] = shadowID
	w.nodesWritten.Add(1)
	return baseID, shadowID, nil
}

// InsertEdge writes to base using base-side endpoint ids, then mirrors
// to shadow with both endpoints translated through the id map (an
// untranslated id, e.g. one inserted before dual-write began, is used
// as-is).
func (w *DualWriter) InsertEdge(ctx context.Context, fromBaseID, toBaseID int64, edgeType string, data json.RawMessage) (baseEdgeID, shadowEdgeID int64, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.enterDualWrite()

	baseEdgeID, err = w.base.InsertEdge(ctx, fromBaseID, toBaseID, edgeType, data)
	if err != nil {
		return 0, 0, err
	}

	fromShadow, ok := w.idMap[fromBaseID]
	if !ok {
		fromShadow = fromBaseID
	}
	toShadow, ok := w.idMap[toBaseID]
	if !ok {
		toShadow = toBaseID
	}

	shadowEdgeID, err = w.shadow.InsertEdge(ctx, fromShadow, toShadow, edgeType, data)
	if err != nil {
		return baseEdgeID, 0, err
	}
	w.edgesWritten.Add(1)
	return baseEdgeID, shadowEdgeID, nil
}

// State returns the writer's current state.
func (w *DualWriter) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Cutover flips the active pointer from base to shadow. Idempotent: a
// second call while already in Cutover is a no-op. Stats counters
// persist across the transition.
func (w *DualWriter) Cutover() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = Cutover
	return w.state
}

// Active returns the backend reads should be served from: base before
// Cutover, shadow after.
func (w *DualWriter) Active() Backend {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state == Cutover {
		return w.shadow
	}
	return w.base
}

// Stats returns the running node/edge write counters, which persist
// across Cutover.
func (w *DualWriter) Stats() (nodesWritten, edgesWritten int64) {
	return w.nodesWritten.Load(), w.edgesWritten.Load()
}

// ShadowID translates a base node id to its shadow-side id, if a
// mapping exists.
func (w *DualWriter) ShadowID(baseID int64) (int64, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.idMap[baseID]
	return id, ok
}
