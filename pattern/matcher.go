package pattern

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/kestrelgraph/sqlitegraph/graph"
)

var errEmptyEdgeType = errors.New("edge_type must be non-empty")

// Matcher evaluates Triple and MultiLeg patterns against a graph.Store.
type Matcher struct {
	store *graph.Store
}

// New wraps store in a Matcher.
func New(store *graph.Store) *Matcher {
	return &Matcher{store: store}
}

// MatchTriple evaluates t starting from seed, returning every
// TripleMatch, sorted by (StartID, EdgeID, EndID). The fast path and
// the SQL path are required to agree exactly (SPEC_FULL.md §4.4). Each
// call runs exactly one of them: the SQL path when t carries a label or
// property filter, the fast path otherwise.
func (m *Matcher) MatchTriple(ctx context.Context, seed int64, t Triple) ([]TripleMatch, error) {
	const op = "pattern.Matcher.MatchTriple"
	if t.EdgeType == "" {
		return nil, graph.NewInvalidInputError(op, errEmptyEdgeType)
	}

	var matches []TripleMatch
	var err error
	if t.hasFilter() {
		matches, err = m.matchTripleSQL(ctx, seed, t)
	} else {
		matches, err = m.matchTripleFast(ctx, seed, t)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(matches, func(i, j int) bool {
		a, b := matches[i], matches[j]
		if a.StartID != b.StartID {
			return a.StartID < b.StartID
		}
		if a.EdgeID != b.EdgeID {
			return a.EdgeID < b.EdgeID
		}
		return a.EndID < b.EndID
	})
	return matches, nil
}

// matchTripleFast is the cache-driven path used when t has no label or
// property filter: candidates come from the adjacency cache, deduped to
// distinct neighbor ids, and each is confirmed (and its edge ids
// fetched) against the authoritative store.
func (m *Matcher) matchTripleFast(ctx context.Context, seed int64, t Triple) ([]TripleMatch, error) {
	neighbors, err := m.store.Neighbors(ctx, seed, t.Direction)
	if err != nil {
		return nil, err
	}

	var matches []TripleMatch
	for _, candidate := range dedupSorted(neighbors) {
		var from, to int64 = seed, candidate
		if t.Direction == graph.Incoming {
			from, to = candidate, seed
		}
		edgeIDs, err := m.store.EdgesBetweenOfType(ctx, from, to, t.EdgeType)
		if err != nil {
			return nil, err
		}
		for _, edgeID := range edgeIDs {
			matches = append(matches, TripleMatch{StartID: seed, EdgeID: edgeID, EndID: candidate})
		}
	}
	return matches, nil
}

// matchTripleSQL evaluates t directly against the database, applying
// the start/end label and property constraints as joins rather than
// relying on cached candidates.
func (m *Matcher) matchTripleSQL(ctx context.Context, seed int64, t Triple) ([]TripleMatch, error) {
	const op = "pattern.Matcher.matchTripleSQL"

	if t.StartLabel != nil || len(t.StartProps) > 0 {
		ok, err := m.entityMatches(ctx, seed, t.StartLabel, t.StartProps)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
	}

	var query string
	args := []any{seed, t.EdgeType}
	if t.Direction == graph.Outgoing {
		query = `SELECT e.id, e.to_id FROM graph_edges e WHERE e.from_id = ? AND e.edge_type = ?`
	} else {
		query = `SELECT e.id, e.from_id FROM graph_edges e WHERE e.to_id = ? AND e.edge_type = ?`
	}

	endAlias := "e.to_id"
	if t.Direction == graph.Incoming {
		endAlias = "e.from_id"
	}
	if t.EndLabel != nil {
		query += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM graph_labels l WHERE l.entity_id = %s AND l.label = ?)`, endAlias)
		args = append(args, *t.EndLabel)
	}
	for k, v := range t.EndProps {
		query += fmt.Sprintf(` AND EXISTS (SELECT 1 FROM graph_properties p WHERE p.entity_id = %s AND p.key = ? AND p.value = ?)`, endAlias)
		args = append(args, k, v)
	}
	query += ` ORDER BY 2 ASC, e.id ASC`

	rows, err := m.store.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, graph.NewQueryError(op, err)
	}
	defer rows.Close()

	var matches []TripleMatch
	for rows.Next() {
		var edgeID, endID int64
		if err := rows.Scan(&edgeID, &endID); err != nil {
			return nil, graph.NewQueryError(op, err)
		}
		matches = append(matches, TripleMatch{StartID: seed, EdgeID: edgeID, EndID: endID})
	}
	if err := rows.Err(); err != nil {
		return nil, graph.NewQueryError(op, err)
	}
	return matches, nil
}

// entityMatches reports whether the entity at id carries label (if
// non-nil) and every key/value pair in props.
func (m *Matcher) entityMatches(ctx context.Context, id int64, label *string, props map[string]string) (bool, error) {
	const op = "pattern.Matcher.entityMatches"
	if label != nil {
		var exists int
		err := m.store.DB().QueryRowContext(ctx,
			`SELECT 1 FROM graph_labels WHERE entity_id = ? AND label = ?`, id, *label).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, graph.NewQueryError(op, err)
		}
	}
	for k, v := range props {
		var exists int
		err := m.store.DB().QueryRowContext(ctx,
			`SELECT 1 FROM graph_properties WHERE entity_id = ? AND key = ? AND value = ?`, id, k, v).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		if err != nil {
			return false, graph.NewQueryError(op, err)
		}
	}
	return true, nil
}

// MatchMultiLeg evaluates pat starting from seed, returning every path
// match (an ordered node list of length len(pat.Legs)+1), sorted
// stably by the node tuple. Intermediate duplicate paths are not
// deduplicated during traversal, matching SPEC_FULL.md §4.4.
func (m *Matcher) MatchMultiLeg(ctx context.Context, seed int64, pat MultiLeg) ([][]int64, error) {
	if pat.Root != nil {
		e, err := m.store.GetEntity(ctx, seed)
		if err != nil {
			return nil, err
		}
		if !pat.Root.satisfies(e) {
			return nil, nil
		}
	}

	paths := [][]int64{{seed}}
	for _, leg := range pat.Legs {
		var next [][]int64
		for _, p := range paths {
			tail := p[len(p)-1]
			var adj []graph.AdjacentEdge
			var err error
			if leg.Direction == graph.Outgoing {
				adj, err = m.store.FetchOutgoing(ctx, tail)
			} else {
				adj, err = m.store.FetchIncoming(ctx, tail)
			}
			if err != nil {
				return nil, err
			}
			for _, a := range adj {
				if leg.EdgeType != "" && a.EdgeType != leg.EdgeType {
					continue
				}
				e, err := m.store.GetEntity(ctx, a.NeighborID)
				if err != nil {
					return nil, err
				}
				if !leg.Constraint.satisfies(e) {
					continue
				}
				extended := make([]int64, len(p)+1)
				copy(extended, p)
				extended[len(p)] = a.NeighborID
				next = append(next, extended)
			}
		}
		paths = next
	}

	sort.Slice(paths, func(i, j int) bool {
		a, b := paths[i], paths[j]
		for k := 0; k < len(a) && k < len(b); k++ {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return len(a) < len(b)
	})
	return paths, nil
}

func dedupSorted(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	out := make([]int64, 0, len(ids))
	var prev int64
	for i, id := range ids {
		if i == 0 || id != prev {
			out = append(out, id)
		}
		prev = id
	}
	return out
}
