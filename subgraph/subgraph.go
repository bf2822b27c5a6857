// Package subgraph implements the extract operation (SPEC_FULL.md
// §4.6): a bounded BFS extraction of a node/edge neighborhood with
// optional type filters, plus the canonical structural_signature
// string format over the result.
package subgraph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/kestrelgraph/sqlitegraph/graph"
)

// EdgeRef identifies one edge in an extracted subgraph by endpoints and
// type (not by its own id — structural_signature and Edges are keyed on
// (from, to, type), matching SPEC_FULL.md §4.6).
type EdgeRef struct {
	From int64
	To   int64
	Type string
}

// Result is the output of Extract: sorted node ids and sorted edge
// references.
type Result struct {
	Nodes []int64
	Edges []EdgeRef
}

// Extract runs a BFS from root up to depth outgoing hops, filtering
// edges by allowedEdgeTypes and target nodes by allowedNodeTypes (an
// empty filter means unrestricted). Nodes are deduplicated by a single
// visited set; the result is sorted (nodes ascending; edges by (from,
// to, type) ascending).
func Extract(ctx context.Context, store *graph.Store, root int64, depth int, allowedEdgeTypes, allowedNodeTypes []string) (Result, error) {
	edgeFilter := toSet(allowedEdgeTypes)
	nodeFilter := toSet(allowedNodeTypes)

	visited := map[int64]bool{root: true}
	edgeSeen := map[EdgeRef]bool{}
	var edges []EdgeRef
	frontier := []int64{root}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []int64
		for _, n := range frontier {
			adj, err := store.FetchOutgoing(ctx, n)
			if err != nil {
				return Result{}, err
			}
			for _, a := range adj {
				if edgeFilter != nil && !edgeFilter[a.EdgeType] {
					continue
				}
				if nodeFilter != nil {
					target, err := store.GetEntity(ctx, a.NeighborID)
					if err != nil {
						return Result{}, err
					}
					if !nodeFilter[target.Kind] {
						continue
					}
				}
				ref := EdgeRef{From: n, To: a.NeighborID, Type: a.EdgeType}
				if !edgeSeen[ref] {
					edgeSeen[ref] = true
					edges = append(edges, ref)
				}
				if !visited[a.NeighborID] {
					visited[a.NeighborID] = true
					next = append(next, a.NeighborID)
				}
			}
		}
		frontier = next
	}

	nodes := make([]int64, 0, len(visited))
	for id := range visited {
		nodes = append(nodes, id)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Type < b.Type
	})

	return Result{Nodes: nodes, Edges: edges}, nil
}

func toSet(types []string) map[string]bool {
	if len(types) == 0 {
		return nil
	}
	out := make(map[string]bool, len(types))
	for _, t := range types {
		out[t] = true
	}
	return out
}

// StructuralSignature formats r as "N[n1,n2,...]|E[f→t:type,...]" over
// the already-sorted node and edge lists.
func StructuralSignature(r Result) string {
	nodeParts := make([]string, len(r.Nodes))
	for i, n := range r.Nodes {
		nodeParts[i] = fmt.Sprintf("%d", n)
	}
	edgeParts := make([]string, len(r.Edges))
	for i, e := range r.Edges {
		edgeParts[i] = fmt.Sprintf("%d→%d:%s", e.From, e.To, e.Type)
	}
	return fmt.Sprintf("N[%s]|E[%s]", strings.Join(nodeParts, ","), strings.Join(edgeParts, ","))
}
