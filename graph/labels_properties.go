package graph

import "context"

// AddLabel attaches label to entityID. (entityID, label) is unique;
// a duplicate call is a silent no-op via INSERT OR IGNORE.
func (s *Store) AddLabel(ctx context.Context, entityID int64, label string) error {
	const op = "graph.Store.AddLabel"
	if label == "" {
		return NewInvalidInputError(op, errEmptyLabel)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO graph_labels (entity_id, label) VALUES (?, ?)`, entityID, label); err != nil {
		return NewQueryError(op, err)
	}
	s.metricsExecuted.Add(1)
	s.invalidateCaches()
	return nil
}

// AddProperty attaches a (key, value) pair to entityID. Multi-valued:
// the same (entityID, key) may be added more than once.
func (s *Store) AddProperty(ctx context.Context, entityID int64, key, value string) error {
	const op = "graph.Store.AddProperty"
	if key == "" {
		return NewInvalidInputError(op, errEmptyPropKey)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO graph_properties (entity_id, key, value) VALUES (?, ?, ?)`, entityID, key, value); err != nil {
		return NewQueryError(op, err)
	}
	s.metricsExecuted.Add(1)
	s.invalidateCaches()
	return nil
}

// GetEntitiesByLabel returns, in ascending id order, every entity id
// tagged with label.
func (s *Store) GetEntitiesByLabel(ctx context.Context, label string) ([]int64, error) {
	const op = "graph.Store.GetEntitiesByLabel"
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id FROM graph_labels WHERE label = ? ORDER BY entity_id ASC`, label)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()
	return scanInt64Column(op, rows)
}

// GetEntitiesByProperty returns, in ascending id order, every entity id
// with a (key, value) property row matching exactly.
func (s *Store) GetEntitiesByProperty(ctx context.Context, key, value string) ([]int64, error) {
	const op = "graph.Store.GetEntitiesByProperty"
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id FROM graph_properties WHERE key = ? AND value = ? ORDER BY entity_id ASC`, key, value)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()
	return scanInt64Column(op, rows)
}

// Labels returns every label attached to entityID, in lexical order.
func (s *Store) Labels(ctx context.Context, entityID int64) ([]string, error) {
	const op = "graph.Store.Labels"
	rows, err := s.db.QueryContext(ctx,
		`SELECT label FROM graph_labels WHERE entity_id = ? ORDER BY label ASC`, entityID)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, NewQueryError(op, err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Properties returns every (key, value) property row for entityID,
// ordered by key then value.
func (s *Store) Properties(ctx context.Context, entityID int64) ([]Property, error) {
	const op = "graph.Store.Properties"
	rows, err := s.db.QueryContext(ctx,
		`SELECT entity_id, key, value FROM graph_properties WHERE entity_id = ? ORDER BY key ASC, value ASC`, entityID)
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

func scanInt64Column(op string, rows interface {
	Next() bool
	Scan(...any) error
	Err() error
}) ([]int64, error) {
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, NewQueryError(op, err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError(op, err)
	}
	return out, nil
}
