// Package reindex implements the supplemented Reindex component
// (SPEC_FULL.md §4.13): a mutating consistency pass sharing
// SafetyAudit's counting queries, but deleting orphan label/property
// rows and collapsing duplicate edge triples down to one instead of
// merely counting them. It never rewrites adjacency — AdjacencyCache
// has no persistent index to repair, only the clear operation.
package reindex

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kestrelgraph/sqlitegraph/graph"
)

// Table names a single validator's scope.
type Table string

const (
	TableEntities   Table = "entities"
	TableEdges      Table = "edges"
	TableLabels     Table = "labels"
	TableProperties Table = "properties"
)

// Result is one table's ReindexResult: how many offending rows were
// found (checked) and how many were actually deleted/collapsed
// (repaired). Every offending row found is deleted, so the two counts
// are always equal; with --no-validate both come from the last
// completed pass.
type Result struct {
	Table    Table
	Checked  int64
	Repaired int64
}

// Options configures a Run.
type Options struct {
	// NoValidate skips the validation/repair pass entirely and returns
	// the counts from LastRun instead.
	NoValidate bool
	// BatchSize bounds how many offending rows are deleted per
	// transaction, so a single transaction does not hold the writer
	// lock indefinitely on a large graph. Defaults to 500 if <= 0.
	BatchSize int
	// Progress, if non-nil, is called after every batch with the
	// number of batches completed so far for the current table,
	// mirroring the --progress flag's "log a line every N batches"
	// behavior at the CLI layer (logging itself happens via Logger).
	Progress func(table Table, batchesDone int)
	// Logger receives an Info line per batch, whether or not Progress
	// is set. Defaults to store's logger.
	Logger *slog.Logger
}

// Tables selects which tables reindex-{all,syncore,sync-graph} passes
// over.
var (
	AllTables       = []Table{TableEntities, TableEdges, TableLabels, TableProperties}
	SyncoreTables   = []Table{TableEntities, TableEdges}
	SyncGraphTables = []Table{TableLabels, TableProperties}
)

// lastRun holds the most recent completed Run's results, keyed by
// table, for --no-validate to report against. Reindex is not typically
// run concurrently with itself, so a simple package-level cache (reset
// per-process, never shared across Store instances through disk state)
// is sufficient; it deliberately does not pretend to be a durable
// audit log.
var lastRun = map[Table]Result{}

// Run executes the validators for the given tables against store. With
// NoValidate set, it returns the cached Result from the previous Run
// for each requested table (zero-valued if none has run yet) without
// touching the database.
func Run(ctx context.Context, store *graph.Store, tables []Table, opts Options) ([]Result, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	logger := opts.Logger
	if logger == nil {
		logger = store.Logger()
	}

	if opts.NoValidate {
		out := make([]Result, len(tables))
		for i, t := range tables {
			out[i] = lastRun[t]
		}
		return out, nil
	}

	out := make([]Result, 0, len(tables))
	for _, t := range tables {
		r, err := runTable(ctx, store, t, opts, logger)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
		lastRun[t] = r
	}
	return out, nil
}

func runTable(ctx context.Context, store *graph.Store, table Table, opts Options, logger *slog.Logger) (Result, error) {
	switch table {
	case TableEntities:
		// Entities have no repairable invariant of their own in this
		// scheme (SafetyAudit's referential check targets edges, not
		// entities); listed for parity with reindex-all's table set but
		// never mutated.
		return Result{Table: table, Checked: 0, Repaired: 0}, nil
	case TableEdges:
		return reindexEdges(ctx, store, opts, logger)
	case TableLabels:
		return reindexOrphanRows(ctx, store, TableLabels, "graph_labels", opts, logger)
	case TableProperties:
		return reindexOrphanRows(ctx, store, TableProperties, "graph_properties", opts, logger)
	default:
		return Result{}, graph.NewInvalidInputError("reindex.runTable", fmt.Errorf("unknown table %q", table))
	}
}

// reindexEdges repairs two independent edge invariants: orphan edges
// (an endpoint no longer references an entity) and duplicate (from,
// to, type) triples (all but the lowest-id row in each group are
// removed). Both are counted together into one Result, batched at
// opts.BatchSize rows per transaction.
func reindexEdges(ctx context.Context, store *graph.Store, opts Options, logger *slog.Logger) (Result, error) {
	var result Result
	result.Table = TableEdges

	orphanRepaired, err := deleteBatched(ctx, store, opts, logger, TableEdges,
		`SELECT e.id FROM graph_edges e
		 WHERE NOT EXISTS (SELECT 1 FROM graph_entities n WHERE n.id = e.from_id)
		    OR NOT EXISTS (SELECT 1 FROM graph_entities n WHERE n.id = e.to_id)
		 LIMIT ?`,
		`DELETE FROM graph_edges WHERE id = ?`)
	if err != nil {
		return Result{}, err
	}
	result.Checked += orphanRepaired
	result.Repaired += orphanRepaired

	dupRepaired, err := deleteBatched(ctx, store, opts, logger, TableEdges,
		`SELECT id FROM graph_edges e
		 WHERE id NOT IN (
		     SELECT MIN(id) FROM graph_edges GROUP BY from_id, to_id, edge_type
		 )
		 LIMIT ?`,
		`DELETE FROM graph_edges WHERE id = ?`)
	if err != nil {
		return Result{}, err
	}
	result.Checked += dupRepaired
	result.Repaired += dupRepaired

	if result.Repaired > 0 {
		store.InvalidateCaches()
	}
	return result, nil
}

// reindexOrphanRows repairs orphan label/property rows (entity_id
// references no entity).
func reindexOrphanRows(ctx context.Context, store *graph.Store, table Table, tableName string, opts Options, logger *slog.Logger) (Result, error) {
	selectQuery := fmt.Sprintf(`
		SELECT rowid FROM %s r
		WHERE NOT EXISTS (SELECT 1 FROM graph_entities n WHERE n.id = r.entity_id)
		LIMIT ?`, tableName)
	deleteQuery := fmt.Sprintf(`DELETE FROM %s WHERE rowid = ?`, tableName)

	repaired, err := deleteBatched(ctx, store, opts, logger, table, selectQuery, deleteQuery)
	if err != nil {
		return Result{}, err
	}
	result := Result{Table: table, Checked: repaired, Repaired: repaired}
	if repaired > 0 {
		store.InvalidateCaches()
	}
	return result, nil
}

// deleteBatched repeatedly selects up to opts.BatchSize offending row
// ids with selectQuery and deletes each with deleteQuery, one
// transaction per batch, until a batch comes back empty. Returns the
// total number of rows deleted.
func deleteBatched(ctx context.Context, store *graph.Store, opts Options, logger *slog.Logger, table Table, selectQuery, deleteQuery string) (int64, error) {
	const op = "reindex.deleteBatched"
	var total int64
	batches := 0

	for {
		store.LockWriter()
		ids, err := selectBatch(ctx, store, selectQuery, opts.BatchSize)
		if err != nil {
			store.UnlockWriter()
			return total, graph.NewQueryError(op, err)
		}
		if len(ids) == 0 {
			store.UnlockWriter()
			break
		}

		tx, err := store.DB().BeginTx(ctx, nil)
		if err != nil {
			store.UnlockWriter()
			return total, graph.NewTransactionError(op, err)
		}
		for _, id := range ids {
			if _, err := tx.ExecContext(ctx, deleteQuery, id); err != nil {
				_ = tx.Rollback()
				store.UnlockWriter()
				return total, graph.NewQueryError(op, err)
			}
		}
		if err := tx.Commit(); err != nil {
			store.UnlockWriter()
			return total, graph.NewTransactionError(op, err)
		}
		store.RecordTransaction()
		store.UnlockWriter()

		total += int64(len(ids))
		batches++
		if opts.Progress != nil {
			opts.Progress(table, batches)
		}
		if logger != nil {
			logger.Info("reindex batch applied", "table", table, "batch", batches, "rows", len(ids))
		}
	}
	return total, nil
}

func selectBatch(ctx context.Context, store *graph.Store, query string, batchSize int) ([]int64, error) {
	rows, err := store.DB().QueryContext(ctx, query, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
