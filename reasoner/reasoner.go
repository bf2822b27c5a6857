// Package reasoner implements Reasoner (SPEC_FULL.md §4.7): pattern
// matches from a seed, each expanded by a k-hop walk from its terminal
// node, scored and ranked.
package reasoner

import (
	"context"
	"sort"

	"github.com/kestrelgraph/sqlitegraph/graph"
	"github.com/kestrelgraph/sqlitegraph/pattern"
)

// Config controls the k-hop expansion step applied to each pattern
// match's terminal node.
type Config struct {
	ExpansionDepth int
	Direction      graph.Direction
}

// Result is one ranked reasoning outcome.
type Result struct {
	PatternPath []int64
	Expansion   []int64
	Score       int
}

// Run computes every MultiLeg match of pat from seed, expands each
// match's terminal node by a k-hop walk per cfg, and returns the
// results ordered by score descending, then by pattern path
// lexicographically ascending.
func Run(ctx context.Context, store *graph.Store, seed int64, pat pattern.MultiLeg, cfg Config) ([]Result, error) {
	m := pattern.New(store)
	matches, err := m.MatchMultiLeg(ctx, seed, pat)
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(matches))
	for _, path := range matches {
		terminal := path[len(path)-1]
		expansion, err := store.KHopFiltered(ctx, terminal, cfg.ExpansionDepth, cfg.Direction, nil)
		if err != nil {
			return nil, err
		}
		results = append(results, Result{
			PatternPath: path,
			Expansion:   expansion,
			Score:       len(path)*10 + len(expansion),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return lexLess(a.PatternPath, b.PatternPath)
	})
	return results, nil
}

func lexLess(a, b []int64) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
