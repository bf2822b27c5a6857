// Package recovery implements Recovery (SPEC_FULL.md §4.11/§6):
// streaming the graph to and from newline-delimited JSON, with
// load_graph_from_reader fully replacing prior contents inside a single
// transaction gated by a fault-injection check.
package recovery

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/kestrelgraph/sqlitegraph/graph"
	"github.com/kestrelgraph/sqlitegraph/internal/fault"
)

// record is the on-the-wire shape of one JSONL line. Exactly one of the
// per-type field groups is populated, selected by Type.
type record struct {
	Type string `json:"type"`

	ID       *int64          `json:"id,omitempty"`
	Kind     string          `json:"kind,omitempty"`
	Name     string          `json:"name,omitempty"`
	FilePath *string         `json:"file_path,omitempty"`
	Data     json.RawMessage `json:"data,omitempty"`

	FromID   *int64 `json:"from_id,omitempty"`
	ToID     *int64 `json:"to_id,omitempty"`
	EdgeType string `json:"edge_type,omitempty"`

	EntityID *int64 `json:"entity_id,omitempty"`
	Label    string `json:"label,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    string `json:"value,omitempty"`
}

// DumpToWriter streams every entity, then edge, then label, then
// property row as one JSON object per line, in ascending id order.
func DumpToWriter(ctx context.Context, store *graph.Store, w io.Writer) error {
	const op = "recovery.DumpToWriter"
	enc := json.NewEncoder(w)

	entities, err := store.AllEntities(ctx)
	if err != nil {
		return err
	}
	for _, e := range entities {
		// Entity lines always carry file_path (null when unset), which
		// record's omitempty tag would drop.
		if err := enc.Encode(struct {
			Type     string          `json:"type"`
			ID       int64           `json:"id"`
			Kind     string          `json:"kind"`
			Name     string          `json:"name"`
			FilePath *string         `json:"file_path"`
			Data     json.RawMessage `json:"data"`
		}{"entity", e.ID, e.Kind, e.Name, e.FilePath, e.Data}); err != nil {
			return graph.NewQueryError(op, err)
		}
	}

	edges, err := store.AllEdges(ctx)
	if err != nil {
		return err
	}
	for _, e := range edges {
		if err := enc.Encode(record{Type: "edge", ID: &e.ID, FromID: &e.FromID, ToID: &e.ToID, EdgeType: e.EdgeType, Data: e.Data}); err != nil {
			return graph.NewQueryError(op, err)
		}
	}

	labels, err := store.AllLabels(ctx)
	if err != nil {
		return err
	}
	for _, l := range labels {
		if err := enc.Encode(record{Type: "label", EntityID: &l.EntityID, Label: l.Label}); err != nil {
			return graph.NewQueryError(op, err)
		}
	}

	props, err := store.AllProperties(ctx)
	if err != nil {
		return err
	}
	for _, p := range props {
		if err := enc.Encode(record{Type: "property", EntityID: &p.EntityID, Key: p.Key, Value: p.Value}); err != nil {
			return graph.NewQueryError(op, err)
		}
	}
	return nil
}

// LoadFromReader parses a JSONL stream and replaces store's entire
// contents with it inside a single transaction. Records may appear in
// any order except that a label/property/edge referencing an entity id
// not yet seen in this stream is rejected. On any parse error,
// constraint violation, or an armed RecoveryLoadBeforeCommit fault, the
// transaction rolls back and store is left exactly as it was.
func LoadFromReader(ctx context.Context, store *graph.Store, r io.Reader) error {
	const op = "recovery.LoadFromReader"

	store.LockWriter()
	defer store.UnlockWriter()

	tx, err := store.DB().BeginTx(ctx, nil)
	if err != nil {
		return graph.NewTransactionError(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM graph_properties`,
		`DELETE FROM graph_labels`,
		`DELETE FROM graph_edges`,
		`DELETE FROM graph_entities`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return graph.NewQueryError(op, err)
		}
	}

	seenEntities := make(map[int64]bool)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return graph.NewValidationError(op, fmt.Errorf("line %d: %w", lineNum, err))
		}
		if err := applyRecord(ctx, tx, rec, seenEntities); err != nil {
			return graph.NewValidationError(op, fmt.Errorf("line %d: %w", lineNum, err))
		}
	}
	if err := sc.Err(); err != nil {
		return graph.NewQueryError(op, err)
	}

	if err := store.Fault().Check(fault.RecoveryLoadBeforeCommit); err != nil {
		return graph.NewFaultInjectedError(op, err)
	}

	if err := tx.Commit(); err != nil {
		return graph.NewTransactionError(op, err)
	}
	store.RecordTransaction()
	store.InvalidateCaches()
	return nil
}

func applyRecord(ctx context.Context, tx *sql.Tx, rec record, seenEntities map[int64]bool) error {
	switch rec.Type {
	case "entity":
		if rec.ID == nil {
			return fmt.Errorf("entity record missing id")
		}
		data := rec.Data
		if len(data) == 0 {
			data = json.RawMessage("{}")
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO graph_entities (id, kind, name, file_path, data) VALUES (?, ?, ?, ?, ?)`,
			*rec.ID, rec.Kind, rec.Name, rec.FilePath, string(data)); err != nil {
			return err
		}
		seenEntities[*rec.ID] = true
		return nil

	case "edge":
		if rec.ID == nil || rec.FromID == nil || rec.ToID == nil {
			return fmt.Errorf("edge record missing id/from_id/to_id")
		}
		if !seenEntities[*rec.FromID] || !seenEntities[*rec.ToID] {
			return fmt.Errorf("edge %d references an entity not yet present in the stream", *rec.ID)
		}
		data := rec.Data
		if len(data) == 0 {
			data = json.RawMessage("{}")
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO graph_edges (id, from_id, to_id, edge_type, data) VALUES (?, ?, ?, ?, ?)`,
			*rec.ID, *rec.FromID, *rec.ToID, rec.EdgeType, string(data))
		return err

	case "label":
		if rec.EntityID == nil {
			return fmt.Errorf("label record missing entity_id")
		}
		if !seenEntities[*rec.EntityID] {
			return fmt.Errorf("label references entity %d not yet present in the stream", *rec.EntityID)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO graph_labels (entity_id, label) VALUES (?, ?)`, *rec.EntityID, rec.Label)
		return err

	case "property":
		if rec.EntityID == nil {
			return fmt.Errorf("property record missing entity_id")
		}
		if !seenEntities[*rec.EntityID] {
			return fmt.Errorf("property references entity %d not yet present in the stream", *rec.EntityID)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO graph_properties (entity_id, key, value) VALUES (?, ?, ?)`, *rec.EntityID, rec.Key, rec.Value)
		return err

	default:
		return fmt.Errorf("unknown record type %q", rec.Type)
	}
}
