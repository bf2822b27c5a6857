// Package bulktxn implements BulkTxn (SPEC_FULL.md §4.9): batched
// entity/edge inserts wrapped in a single transaction, gated by a
// fault-injection check immediately before commit.
package bulktxn

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kestrelgraph/sqlitegraph/graph"
	"github.com/kestrelgraph/sqlitegraph/internal/fault"
)

// EntityEntry is one row of a bulk_insert_entities call.
type EntityEntry struct {
	Kind     string
	Name     string
	FilePath *string
	Data     json.RawMessage
}

// EdgeEntry is one row of a bulk_insert_edges call.
type EdgeEntry struct {
	FromID   int64
	ToID     int64
	EdgeType string
	Data     json.RawMessage
}

var errEmptyEntityFields = errors.New("kind and name must be non-empty")

// InsertEntities inserts entries in a single transaction, in input
// order. The fault point BulkInsertEntitiesBeforeCommit is checked
// immediately before commit; if it fires, the transaction rolls back
// and no entity is persisted.
func InsertEntities(ctx context.Context, store *graph.Store, entries []EntityEntry) ([]int64, error) {
	const op = "bulktxn.InsertEntities"

	store.LockWriter()
	defer store.UnlockWriter()

	tx, err := store.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, graph.NewTransactionError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		if e.Kind == "" || e.Name == "" {
			return nil, graph.NewInvalidInputError(op, errEmptyEntityFields)
		}
		data := e.Data
		if len(data) == 0 {
			data = json.RawMessage("{}")
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO graph_entities (kind, name, file_path, data) VALUES (?, ?, ?, ?)`,
			e.Kind, e.Name, e.FilePath, string(data))
		if err != nil {
			return nil, graph.NewQueryError(op, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, graph.NewQueryError(op, err)
		}
		ids = append(ids, id)
	}

	if err := store.Fault().Check(fault.BulkInsertEntitiesBeforeCommit); err != nil {
		return nil, graph.NewFaultInjectedError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, graph.NewTransactionError(op, err)
	}
	store.RecordTransaction()
	store.InvalidateCaches()
	return ids, nil
}

// InsertEdges inserts entries in a single transaction. Endpoints are
// validated to exist via one COUNT query over the whole batch before
// any row is inserted; (from, to, type) triples are deduplicated within
// the batch, keeping the first occurrence and silently dropping later
// ones. Returned ids correspond to the deduplicated entries, in the
// input order of their first occurrence. The fault point
// BulkInsertEdgesBeforeCommit is checked immediately before commit.
func InsertEdges(ctx context.Context, store *graph.Store, entries []EdgeEntry) ([]int64, error) {
	const op = "bulktxn.InsertEdges"

	if len(entries) == 0 {
		return nil, nil
	}

	deduped := make([]EdgeEntry, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		key := fmt.Sprintf("%d\x00%d\x00%s", e.FromID, e.ToID, e.EdgeType)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, e)
	}

	store.LockWriter()
	defer store.UnlockWriter()

	endpoints := make(map[int64]bool)
	for _, e := range deduped {
		endpoints[e.FromID] = true
		endpoints[e.ToID] = true
	}
	ids64 := make([]int64, 0, len(endpoints))
	for id := range endpoints {
		ids64 = append(ids64, id)
	}

	tx, err := store.DB().BeginTx(ctx, nil)
	if err != nil {
		return nil, graph.NewTransactionError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if ok, err := allEndpointsExist(ctx, tx, ids64); err != nil {
		return nil, graph.NewQueryError(op, err)
	} else if !ok {
		return nil, graph.NewInvalidInputError(op, errors.New("one or more edge endpoints do not reference an existing entity"))
	}

	out := make([]int64, 0, len(deduped))
	for _, e := range deduped {
		if e.EdgeType == "" {
			return nil, graph.NewInvalidInputError(op, errors.New("edge_type must be non-empty"))
		}
		data := e.Data
		if len(data) == 0 {
			data = json.RawMessage("{}")
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO graph_edges (from_id, to_id, edge_type, data) VALUES (?, ?, ?, ?)`,
			e.FromID, e.ToID, e.EdgeType, string(data))
		if err != nil {
			return nil, graph.NewQueryError(op, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, graph.NewQueryError(op, err)
		}
		out = append(out, id)
	}

	if err := store.Fault().Check(fault.BulkInsertEdgesBeforeCommit); err != nil {
		return nil, graph.NewFaultInjectedError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, graph.NewTransactionError(op, err)
	}
	store.RecordTransaction()
	store.InvalidateCaches()
	return out, nil
}

// allEndpointsExist runs the single COUNT query described in
// SPEC_FULL.md §4.9 step 3: every id in ids must reference an existing
// entity, checked in one round trip rather than per-edge.
func allEndpointsExist(ctx context.Context, tx *sql.Tx, ids []int64) (bool, error) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM graph_entities WHERE id IN (%s)`, strings.Join(placeholders, ","))

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, err
	}
	return count == len(ids), nil
}
