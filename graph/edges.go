package graph

import (
	"context"
	"encoding/json"
)

// InsertEdge persists a new edge and returns its freshly-assigned id,
// strictly greater than every previously-assigned edge id. Fails with
// InvalidInput for an empty edge_type, non-positive endpoints, a
// self-loop (unless Options.AllowSelfLoops), or an endpoint that does
// not reference an existing entity.
func (s *Store) InsertEdge(ctx context.Context, fromID, toID int64, edgeType string, data json.RawMessage) (int64, error) {
	const op = "graph.Store.InsertEdge"
	if edgeType == "" {
		return 0, NewInvalidInputError(op, errEmptyEdgeType)
	}
	if fromID <= 0 || toID <= 0 {
		return 0, NewInvalidInputError(op, errNonPositiveID)
	}
	if fromID == toID && !s.opts.AllowSelfLoops {
		return 0, NewInvalidInputError(op, errSelfLoop)
	}
	if len(data) == 0 {
		data = json.RawMessage("{}")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var count int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM graph_entities WHERE id IN (?, ?)`, fromID, toID).Scan(&count); err != nil {
		return 0, NewQueryError(op, err)
	}
	wantCount := 2
	if fromID == toID {
		wantCount = 1
	}
	if count < wantCount {
		return 0, NewInvalidInputError(op, errMissingEndpoint)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO graph_edges (from_id, to_id, edge_type, data) VALUES (?, ?, ?, ?)`,
		fromID, toID, edgeType, string(data))
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

// GetEdge returns the edge with the given id, or a NotFound error.
func (s *Store) GetEdge(ctx context.Context, id int64) (Edge, error) {
	const op = "graph.Store.GetEdge"
	var e Edge
	var data string
	row := s.db.QueryRowContext(ctx,
		`SELECT id, from_id, to_id, edge_type, data FROM graph_edges WHERE id = ?`, id)
	if err := row.Scan(&e.ID, &e.FromID, &e.ToID, &e.EdgeType, &data); err != nil {
		return Edge{}, wrapDBError(op, err)
	}
	e.Data = json.RawMessage(data)
	return e, nil
}

// DeleteEdge removes an edge.
func (s *Store) DeleteEdge(ctx context.Context, id int64) error {
	const op = "graph.Store.DeleteEdge"

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM graph_edges WHERE id = ?`, id)
	if err != nil {
		return NewQueryError(op, err)
	}
	s.metricsExecuted.Add(1)
	n, err := res.RowsAffected()
	if err != nil {
		return NewQueryError(op, err)
	}
	if n == 0 {
		return NewNotFoundError(op, errNoSuchEdge)
	}
	s.invalidateCaches()
	return nil
}

// AdjacentEdge is one entry of a fetch_outgoing/fetch_incoming result:
// the neighbor id reached, the edge's type, and the edge's own id. The
// canonical sort order (SPEC_FULL.md §4.1) is by (NeighborID, EdgeType,
// EdgeID) ascending.
type AdjacentEdge struct {
	NeighborID int64
	EdgeType   string
	EdgeID     int64
}

// FetchOutgoing returns every edge leaving id, in canonical order.
func (s *Store) FetchOutgoing(ctx context.Context, id int64) ([]AdjacentEdge, error) {
	return s.fetchAdjacent(ctx, id, `SELECT to_id, edge_type, id FROM graph_edges WHERE from_id = ? ORDER BY to_id ASC, edge_type ASC, id ASC`)
}

// FetchIncoming returns every edge entering id, in canonical order.
func (s *Store) FetchIncoming(ctx context.Context, id int64) ([]AdjacentEdge, error) {
	return s.fetchAdjacent(ctx, id, `SELECT from_id, edge_type, id FROM graph_edges WHERE to_id = ? ORDER BY from_id ASC, edge_type ASC, id ASC`)
}

func (s *Store) fetchAdjacent(ctx context.Context, id int64, query string) ([]AdjacentEdge, error) {
	const op = "graph.Store.fetchAdjacent"
	rows, err := s.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()

	var out []AdjacentEdge
	for rows.Next() {
		var a AdjacentEdge
		if err := rows.Scan(&a.NeighborID, &a.EdgeType, &a.EdgeID); err != nil {
			return nil, NewQueryError(op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError(op, err)
	}
	return out, nil
}

// fetchOutgoingIDs returns just the neighbor ids from FetchOutgoing, in
// the same canonical order, for the adjacency cache.
func (s *Store) fetchOutgoingIDs(ctx context.Context, id int64) ([]int64, error) {
	adj, err := s.FetchOutgoing(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(adj))
	for i, a := range adj {
		ids[i] = a.NeighborID
	}
	return ids, nil
}

func (s *Store) fetchIncomingIDs(ctx context.Context, id int64) ([]int64, error) {
	adj, err := s.FetchIncoming(ctx, id)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(adj))
	for i, a := range adj {
		ids[i] = a.NeighborID
	}
	return ids, nil
}

// OutgoingIDs returns cached (or freshly fetched and cached) neighbor
// ids reachable via outgoing edges from id, in canonical order.
func (s *Store) OutgoingIDs(ctx context.Context, id int64) ([]int64, error) {
	if ids, ok := s.outCache.get(id); ok {
		return ids, nil
	}
	ids, err := s.fetchOutgoingIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	s.outCache.insert(id, ids)
	return ids, nil
}

// IncomingIDs returns cached (or freshly fetched and cached) neighbor
// ids reachable via incoming edges into id, in canonical order.
func (s *Store) IncomingIDs(ctx context.Context, id int64) ([]int64, error) {
	if ids, ok := s.inCache.get(id); ok {
		return ids, nil
	}
	ids, err := s.fetchIncomingIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	s.inCache.insert(id, ids)
	return ids, nil
}

// EdgesBetweenOfType returns, in ascending edge id order, every edge id
// of edgeType connecting fromID to toID. Used by PatternMatcher's fast
// path to confirm cache-derived candidates against the authoritative
// store (SPEC_FULL.md §4.4): the cache narrows candidates to distinct
// neighbor ids, and this query supplies the edge-level detail (possibly
// more than one edge, since the raw layer permits duplicate (from, to,
// type) triples) the cache does not retain.
func (s *Store) EdgesBetweenOfType(ctx context.Context, fromID, toID int64, edgeType string) ([]int64, error) {
	const op = "graph.Store.EdgesBetweenOfType"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM graph_edges WHERE from_id = ? AND to_id = ? AND edge_type = ? ORDER BY id ASC`,
		fromID, toID, edgeType)
	if err != nil {
		return nil, NewQueryError(op, err)
	}
	defer rows.Close()
	return scanInt64Column(op, rows)
}
