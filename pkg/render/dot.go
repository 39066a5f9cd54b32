package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/flowscript/pkg/flow"
)

// Options configures diagram generation.
type Options struct {
	// Direction is the Graphviz rankdir ("TB" or "LR"). Empty means "TB".
	Direction string

	// Detailed adds each node's main parameter to its label.
	Detailed bool
}

// maxDetail truncates long parameters in detailed labels.
const maxDetail = 40

// ToDOT converts a flow to Graphviz DOT source.
func ToDOT(g flow.Graph, opts Options) string {
	dir := strings.ToUpper(opts.Direction)
	if dir != "LR" {
		dir = "TB"
	}

	steps := map[string]int{}
	if order, err := flow.Linearize(g); err == nil {
		for i, n := range order {
			steps[n.ID] = i + 1
		}
	}

	var buf bytes.Buffer
	buf.WriteString("digraph flow {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"#9E9E9E\"];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		step, reached := steps[n.ID]
		attrs := []string{
			fmt.Sprintf("label=%q", fmtLabel(n, step, opts.Detailed)),
			fmt.Sprintf("fillcolor=%q", nodeColor(n.Kind)),
		}
		if !reached {
			attrs = append(attrs, "style=\"rounded,filled,dashed\"", "color=\"#424242\"")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n flow.Node, step int, detailed bool) string {
	label := n.DisplayLabel()
	if step > 0 {
		label = fmt.Sprintf("%d. %s", step, label)
	}
	if !detailed {
		return label
	}
	if d := Detail(n); d != "" {
		label += "\n" + truncate(d, maxDetail)
	}
	return label
}

// Detail returns the parameter that best identifies what a node does.
func Detail(n flow.Node) string {
	p := n.Params
	switch n.Kind {
	case flow.KindNavigate:
		return p.URL
	case flow.KindType, flow.KindSelect:
		if p.Value != "" {
			return p.Selector + " = " + p.Value
		}
		return p.Selector
	case flow.KindWait:
		if p.WaitsForTime() {
			return fmt.Sprintf("%d ms", p.WaitMillis)
		}
		return fmt.Sprintf("%s (%d ms)", p.Selector, p.Timeout())
	case flow.KindCode:
		line, _, _ := strings.Cut(strings.TrimSpace(p.Code), "\n")
		return line
	default:
		return p.Selector
	}
}

func nodeColor(k flow.Kind) string {
	if c := flow.Color(k); c != "" {
		return c
	}
	return "#9E9E9E"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
