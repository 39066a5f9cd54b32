package flow

import (
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
)

// Linearize returns the nodes of g in execution order.
//
// The walk starts at the first start node and is a pre-order depth-first
// traversal: a node is appended when first visited, then each outgoing edge is
// followed in edge-list order. Visited nodes are skipped, so merge points are
// emitted once and cycles terminate. Nodes unreachable from the start node are
// not returned. Edges that name unknown nodes are ignored.
//
// Returns a MISSING_START_NODE error, and no nodes, when g has no start node.
func Linearize(g Graph) ([]Node, error) {
	start, ok := g.Start()
	if !ok {
		return nil, ferrors.New(ferrors.ErrCodeMissingStartNode, "flow has no start node")
	}

	byID := make(map[string]Node, len(g.Nodes))
	for _, n := range g.Nodes {
		if _, dup := byID[n.ID]; !dup {
			byID[n.ID] = n
		}
	}
	children := make(map[string][]string)
	for _, e := range g.Edges {
		children[e.Source] = append(children[e.Source], e.Target)
	}

	visited := make(map[string]bool, len(g.Nodes))
	order := make([]Node, 0, len(g.Nodes))

	var dfs func(id string)
	dfs = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true

		n, ok := byID[id]
		if !ok {
			return
		}
		order = append(order, n)
		for _, child := range children[id] {
			dfs(child)
		}
	}

	dfs(start.ID)
	return order, nil
}
