package graph

import (
	"context"
	"encoding/json"
)

// InsertEntity persists a new entity and returns its freshly-assigned
// id, strictly greater than every previously-assigned entity id (see
// SPEC_FULL.md §4.1 rowid monotonicity; backed by SQLite's own
// AUTOINCREMENT high-water mark, which survives deletes within the
// same file).
func (s *Store) InsertEntity(ctx context.Context, kind, name string, filePath *string, data json.RawMessage) (int64, error) {
	const op = "graph.Store.InsertEntity"
	if kind == "" || name == "" {
		return 0, NewInvalidInputError(op, errEmptyKindOrName)
	}
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO graph_entities (kind, name, file_path, data) VALUES (?, ?, ?, ?)`,
		kind, name, filePath, string(data))
	if err != nil {
		return 0, NewQueryError(op, err)
	}
	s.metricsExecuted.Add(1)
	id, err := res.LastInsertId()
	if err != nil {
		return 0, NewQueryError(op, err)
	}
	s.invalidateCaches()
	return id, nil
}

// GetEntity returns the entity with the given id, or a NotFound error.
func (s *Store) GetEntity(ctx context.Context, id int64) (Entity, error) {
	const op = "graph.Store.GetEntity"
	var e Entity
	var data string
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, name, file_path, data FROM graph_entities WHERE id = ?`, id)
	if err := row.Scan(&e.ID, &e.Kind, &e.Name, &e.FilePath, &data); err != nil {
		return Entity{}, wrapDBError(op, err)
	}
	e.Data = json.RawMessage(data)
	return e, nil
}

// EntityExists reports whether id refers to a live entity.
func (s *Store) EntityExists(ctx context.Context, id int64) (bool, error) {
	const op = "graph.Store.EntityExists"
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM graph_entities WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, NewQueryError(op, err)
	}
	return exists, nil
}

// UpdateEntity overwrites the mutable fields of an existing entity.
func (s *Store) UpdateEntity(ctx context.Context, id int64, kind, name string, filePath *string, data json.RawMessage) error {
	const op = "graph.Store.UpdateEntity"
	if kind == "" || name == "" {
		return NewInvalidInputError(op, errEmptyKindOrName)
	}
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE graph_entities SET kind = ?, name = ?, file_path = ?, data = ? WHERE id = ?`,
		kind, name, filePath, string(data), id)
	if err != nil {
		return NewQueryError(op, err)
	}
	s.metricsExecuted.Add(1)
	n, err := res.RowsAffected()
	if err != nil {
		return NewQueryError(op, err)
	}
	if n == 0 {
		return NewNotFoundError(op, errNoSuchEntity)
	}
	s.invalidateCaches()
	return nil
}

// DeleteEntity removes an entity. It does not cascade to edges/labels/
// properties referencing it: those become orphans, surfaced by
// SafetyAudit, matching SPEC_FULL.md §3's invariant that orphan rows
// are a safety violation rather than an insertion-time error.
func (s *Store) DeleteEntity(ctx context.Context, id int64) error {
	const op = "graph.Store.DeleteEntity"

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM graph_entities WHERE id = ?`, id)
	if err != nil {
		return NewQueryError(op, err)
	}
	s.metricsExecuted.Add(1)
	n, err := res.RowsAffected()
	if err != nil {
		return NewQueryError(op, err)
	}
	if n == 0 {
		return NewNotFoundError(op, errNoSuchEntity)
	}
	s.invalidateCaches()
	return nil
}

// AllEntityIDs returns every entity id in ascending order.
func (s *Store) AllEntityIDs(ctx context.Context) ([]int64, error) {
	const op = "graph.Store.AllEntityIDs"
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM graph_entities ORDER BY id ASC`)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, NewQueryError(op, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError(op, err)
	}
	return ids, nil
}
