// Package safety implements SafetyAudit (SPEC_FULL.md §4.8): three
// independent consistency checks over a graph.Store merged into one
// report, with an optional strict mode that turns any positive counter
// into a failure.
package safety

import (
	"context"
	"errors"
	"fmt"

	"github.com/kestrelgraph/sqlitegraph/graph"
)

// Report is the combined result of the three SafetyAudit checks.
type Report struct {
	TotalNodes       int64
	TotalEdges       int64
	OrphanEdges      int64
	DuplicateEdges   int64
	InvalidLabels    int64
	InvalidProperties int64
}

// Dirty reports whether any counter besides the totals is positive.
func (r Report) Dirty() bool {
	return r.OrphanEdges > 0 || r.DuplicateEdges > 0 || r.InvalidLabels > 0 || r.InvalidProperties > 0
}

// ErrStrictModeFailed is wrapped into a graph.Error of kind Validation
// when Run is called with strict=true and the resulting Report is
// Dirty.
var ErrStrictModeFailed = errors.New("safety audit found inconsistencies in strict mode")

// Run executes all three checks against store and, if strict is true,
// returns a Validation error when the report is dirty.
func Run(ctx context.Context, store *graph.Store, strict bool) (Report, error) {
	const op = "safety.Run"
	db := store.DB()

	var report Report
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_entities`).Scan(&report.TotalNodes); err != nil {
		return Report{}, graph.NewQueryError(op, err)
	}
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM graph_edges`).Scan(&report.TotalEdges); err != nil {
		return Report{}, graph.NewQueryError(op, err)
	}

	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM graph_edges e
		WHERE NOT EXISTS (SELECT 1 FROM graph_entities n WHERE n.id = e.from_id)
		   OR NOT EXISTS (SELECT 1 FROM graph_entities n WHERE n.id = e.to_id)
	`).Scan(&report.OrphanEdges); err != nil {
		return Report{}, graph.NewQueryError(op, err)
	}

	if err := db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(n - 1), 0) FROM (
			SELECT COUNT(*) AS n FROM graph_edges
			GROUP BY from_id, to_id, edge_type
		)
	`).Scan(&report.DuplicateEdges); err != nil {
		return Report{}, graph.NewQueryError(op, err)
	}

	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM graph_labels l
		WHERE NOT EXISTS (SELECT 1 FROM graph_entities n WHERE n.id = l.entity_id)
	`).Scan(&report.InvalidLabels); err != nil {
		return Report{}, graph.NewQueryError(op, err)
	}

	if err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM graph_properties p
		WHERE NOT EXISTS (SELECT 1 FROM graph_entities n WHERE n.id = p.entity_id)
	`).Scan(&report.InvalidProperties); err != nil {
		return Report{}, graph.NewQueryError(op, err)
	}

	if strict && report.Dirty() {
		return report, graph.NewValidationError(op, fmt.Errorf("%w: %+v", ErrStrictModeFailed, report))
	}
	return report, nil
}
