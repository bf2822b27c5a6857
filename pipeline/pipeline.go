// Package pipeline implements Pipeline (SPEC_FULL.md §4.5): an ordered
// list of Pattern/KHops/Filter/Score steps executed over a graph.Store,
// deterministic by construction — identical inputs always yield
// identical outputs.
package pipeline

import (
	"context"
	"sort"

	"github.com/kestrelgraph/sqlitegraph/graph"
	"github.com/kestrelgraph/sqlitegraph/pattern"
)

// Step is one stage of a Pipeline. Exactly one of the typed fields
// should be set; Run dispatches on which is non-nil.
type Step struct {
	Pattern *pattern.MultiLeg
	KHops   *KHopsConfig
	Filter  *Constraint
	Score   *ScoreConfig
}

// KHopsConfig parametrizes a KHops(d) step.
type KHopsConfig struct {
	Depth int
}

// Constraint is a Filter(c) predicate: keep entities whose kind and/or
// name prefix match, mirroring pattern.NodeConstraint's fields.
type Constraint struct {
	Kind       *string
	NamePrefix *string
}

func (c Constraint) satisfies(e graph.Entity) bool {
	if c.Kind != nil && e.Kind != *c.Kind {
		return false
	}
	if c.NamePrefix != nil && !hasPrefix(e.Name, *c.NamePrefix) {
		return false
	}
	return true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// ScoreConfig parametrizes a terminal Score(cfg) step.
type ScoreConfig struct {
	HopDepth    int
	DegreeWeight int
}

// Scored is one entry of a Score step's output.
type Scored struct {
	ID    int64
	Score int
}

// Run executes steps in order starting from an empty node set, over
// every entity in store for the first Pattern step (per SPEC_FULL.md
// §4.5's "seed entity in all_entity_ids" semantics). If the Pipeline
// ends in a Score step, Run returns its (id, score) list in scores and
// nodes is the pre-Score node list; otherwise scores is nil and nodes
// holds the final deduplicated, sorted node set.
func Run(ctx context.Context, store *graph.Store, steps []Step) (nodes []int64, scores []Scored, err error) {
	m := pattern.New(store)

	for i, step := range steps {
		switch {
		case step.Pattern != nil:
			nodes, err = runPattern(ctx, store, m, *step.Pattern)
		case step.KHops != nil:
			nodes, err = runKHops(ctx, store, nodes, step.KHops.Depth)
		case step.Filter != nil:
			nodes, err = runFilter(ctx, store, nodes, *step.Filter)
		case step.Score != nil:
			scores, err = runScore(ctx, store, nodes, *step.Score)
		}
		if err != nil {
			return nil, nil, err
		}
		if step.Score != nil && i != len(steps)-1 {
			// Score is terminal by this module's resolution of the
			// source's ambiguity (SPEC_FULL.md §9); later steps are
			// simply not reached.
			break
		}
	}
	return nodes, scores, nil
}

// runPattern is the Pattern(query) step: for every seed entity in the
// store, match query as a multi-leg chain and union every node along
// every returned path (not just each path's two ends), mirroring the
// original's pattern_nodes inserting every entry of m.nodes.
func runPattern(ctx context.Context, store *graph.Store, m *pattern.Matcher, q pattern.MultiLeg) ([]int64, error) {
	seeds, err := store.AllEntityIDs(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[int64]bool{}
	var out []int64
	for _, seed := range seeds {
		paths, err := m.MatchMultiLeg(ctx, seed, q)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			for _, node := range path {
				if !seen[node] {
					seen[node] = true
					out = append(out, node)
				}
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func runKHops(ctx context.Context, store *graph.Store, seedSet []int64, depth int) ([]int64, error) {
	seen := map[int64]bool{}
	var out []int64
	for _, s := range seedSet {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
		hop, err := store.KHopOutgoing(ctx, s, depth)
		if err != nil {
			return nil, err
		}
		for _, id := range hop {
			if !seen[id] {
				seen[id] = true
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func runFilter(ctx context.Context, store *graph.Store, nodes []int64, c Constraint) ([]int64, error) {
	out := make([]int64, 0, len(nodes))
	for _, id := range nodes {
		e, err := store.GetEntity(ctx, id)
		if err != nil {
			return nil, err
		}
		if c.satisfies(e) {
			out = append(out, id)
		}
	}
	return out, nil
}

func runScore(ctx context.Context, store *graph.Store, nodes []int64, cfg ScoreConfig) ([]Scored, error) {
	out := make([]Scored, 0, len(nodes))
	for _, id := range nodes {
		hop, err := store.KHopOutgoing(ctx, id, cfg.HopDepth)
		if err != nil {
			return nil, err
		}
		outDeg, err := store.OutgoingIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		inDeg, err := store.IncomingIDs(ctx, id)
		if err != nil {
			return nil, err
		}
		score := len(hop) + cfg.DegreeWeight*(len(outDeg)+len(inDeg))
		out = append(out, Scored{ID: id, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
