// Package flow defines the graph model of a browser-automation flow and the
// linearization that turns it into an execution order.
//
// # Model
//
// A [Graph] is an ordered list of [Node] values plus an ordered list of [Edge]
// values. Node order is creation order and edge order is connection order;
// neither is execution order. Each node has a [Kind] from a closed catalog and
// declarative [Params]:
//
//	start → navigate(url) → click(selector) → type(selector, value) → end
//
// Positions and labels are layout data. They survive export and import but are
// never consulted by [Linearize] or by the script emitter.
//
// # Linearization
//
// [Linearize] performs a depth-first walk from the start node, following
// outgoing edges in the order they were created:
//
//	order, err := flow.Linearize(g)
//	if ferrors.Is(err, ferrors.ErrCodeMissingStartNode) {
//	    // nothing to generate
//	}
//
// A node reachable along several paths is emitted once, at its first position
// in DFS order. Unreachable nodes are dropped. Cycles terminate because
// visited nodes are skipped.
//
// # Concurrency
//
// Graph values are plain data. Functions in this package never mutate their
// input, so concurrent reads are safe; concurrent writes need external
// synchronization (see pkg/session).
package flow
