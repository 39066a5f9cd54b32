// Package render draws flows as node-link diagrams.
//
// # Overview
//
// [ToDOT] converts a flow into Graphviz DOT source: one rounded box per node,
// filled with its kind's editor color, and one arrow per edge in connection
// order. Nodes on the execution path are numbered in the order the script runs
// them; nodes the script never reaches are drawn dashed so dead branches stand
// out.
//
//	dot := render.ToDOT(g, render.Options{})
//	svg, err := render.RenderSVG(ctx, dot)
//
// [Render] dispatches on [Format] and returns DOT, SVG or PNG bytes.
//
// # Options
//
//   - Direction: Graphviz rankdir, "TB" (default) or "LR"
//   - Detailed: include the node's main parameter (URL, selector, code) in
//     its label
package render
