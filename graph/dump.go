package graph

import (
	"context"
	"encoding/json"
)

// AllEntities returns every entity row, ordered by id ascending.
func (s *Store) AllEntities(ctx context.Context) ([]Entity, error) {
	const op = "graph.Store.AllEntities"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, name, file_path, data FROM graph_entities ORDER BY id ASC`)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()

	var out []Entity
	for rows.Next() {
		var e Entity
		var data string
		if err := rows.Scan(&e.ID, &e.Kind, &e.Name, &e.FilePath, &data); err != nil {
			return nil, NewQueryError(op, err)
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AllEdges returns every edge row, ordered by id ascending.
func (s *Store) AllEdges(ctx context.Context) ([]Edge, error) {
	const op = "graph.Store.AllEdges"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, from_id, to_id, edge_type, data FROM graph_edges ORDER BY id ASC`)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()

	var out []Edge
	for rows.Next() {
		var e Edge
		var data string
		if err := rows.Scan(&e.ID, &e.FromID, &e.ToID, &e.EdgeType, &data); err != nil {
			return nil, NewQueryError(op, err)
		}
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AllLabels returns every label row, ordered by entity_id then label.
func (s *Store) AllLabels(ctx context.Context) ([]Label, error) {
	const op = "graph.Store.AllLabels"
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, label FROM graph_labels ORDER BY entity_id ASC, label ASC`)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()

	var out []Label
	for rows.Next() {
		var l Label
		if err := rows.Scan(&l.EntityID, &l.Label); err != nil {
			return nil, NewQueryError(op, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// AllProperties returns every property row, ordered by entity_id, key,
// value.
func (s *Store) AllProperties(ctx context.Context) ([]Property, error) {
	const op = "graph.Store.AllProperties"
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, key, value FROM graph_properties ORDER BY entity_id ASC, key ASC, value ASC`)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()

	var out []Property
	for rows.Next() {
		var p Property
		if err := rows.Scan(&p.EntityID, &p.Key, &p.Value); err != nil {
			return nil, NewQueryError(op, err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
