package render

import (
	"context"
	"strings"
	"testing"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/flow"
)

func testGraph() flow.Graph {
	g := flow.New()
	g.Nodes = append(g.Nodes,
		flow.NewNode("nav", flow.KindNavigate, flow.Position{}, flow.Params{URL: "https://x.test"}),
		flow.NewNode("wait", flow.KindWait, flow.Position{}, flow.Params{WaitMode: flow.WaitTime, WaitMillis: 500}),
		flow.NewNode("orphan", flow.KindScreenshot, flow.Position{}, flow.Params{}),
	)
	g.Edges = append(g.Edges,
		flow.Edge{ID: "e1", Source: flow.StartNodeID, Target: "nav"},
		flow.Edge{ID: "e2", Source: "nav", Target: "wait"},
	)
	return g
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(testGraph(), Options{})

	for _, want := range []string{
		"digraph flow {",
		"rankdir=TB;",
		`"start-node" [label="1. Start", fillcolor="#4CAF50"]`,
		`"nav" [label="2. Navigate", fillcolor="#2196F3"]`,
		`"wait" [label="3. Wait", fillcolor="#607D8B"]`,
		`"start-node" -> "nav";`,
		`"nav" -> "wait";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}

	orphan := lineFor(dot, `"orphan" [`)
	if !strings.Contains(orphan, "dashed") || strings.Contains(orphan, "4.") {
		t.Errorf("unreachable node line = %q, want dashed and unnumbered", orphan)
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(testGraph(), Options{Detailed: true, Direction: "lr"})

	if !strings.Contains(dot, "rankdir=LR;") {
		t.Error("Direction not applied")
	}
	if !strings.Contains(dot, `label="2. Navigate\nhttps://x.test"`) {
		t.Errorf("detailed navigate label missing:\n%s", dot)
	}
	if !strings.Contains(dot, `label="3. Wait\n500 ms"`) {
		t.Errorf("detailed wait label missing:\n%s", dot)
	}
}

func TestToDOTWithoutStart(t *testing.T) {
	g := flow.Graph{Nodes: []flow.Node{flow.NewNode("a", flow.KindClick, flow.Position{}, flow.Params{})}}

	dot := ToDOT(g, Options{})
	if !strings.Contains(lineFor(dot, `"a" [`), "dashed") {
		t.Error("nodes of a flow without start should all be dashed")
	}
}

func TestDetail(t *testing.T) {
	tests := []struct {
		node flow.Node
		want string
	}{
		{flow.NewNode("a", flow.KindClick, flow.Position{}, flow.Params{Selector: "#go"}), "#go"},
		{flow.NewNode("a", flow.KindType, flow.Position{}, flow.Params{Selector: "#q", Value: "x"}), "#q = x"},
		{flow.NewNode("a", flow.KindWait, flow.Position{}, flow.Params{Selector: ".ok"}), ".ok (10000 ms)"},
		{flow.NewNode("a", flow.KindCode, flow.Position{}, flow.Params{Code: "\nfoo();\nbar();"}), "foo();"},
		{flow.NewNode("a", flow.KindEnd, flow.Position{}, flow.Params{}), ""},
	}
	for _, tt := range tests {
		if got := Detail(tt.node); got != tt.want {
			t.Errorf("Detail(%s) = %q, want %q", tt.node.Kind, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("abcdefghij", 5); got != "abcd…" {
		t.Errorf("truncate() = %q, want abcd…", got)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatSVG, "SVG": FormatSVG, "png": FormatPNG, "dot": FormatDOT} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("pdf"); !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("ParseFormat(pdf) error = %v", err)
	}
	if FormatPNG.ContentType() != "image/png" || FormatSVG.ContentType() != "image/svg+xml" {
		t.Error("ContentType mismatch")
	}
}

func TestRenderDOT(t *testing.T) {
	out, err := Render(context.Background(), testGraph(), FormatDOT, Options{})
	if err != nil {
		t.Fatalf("Render(dot) error: %v", err)
	}
	if !strings.HasPrefix(string(out), "digraph flow {") {
		t.Errorf("Render(dot) = %q", out)
	}

	if _, err := Render(context.Background(), testGraph(), Format("gif"), Options{}); !ferrors.Is(err, ferrors.ErrCodeUnsupported) {
		t.Errorf("Render(gif) error = %v", err)
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(testGraph(), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG() error: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") || !strings.Contains(string(svg), "Navigate") {
		t.Errorf("RenderSVG() output missing svg root or labels")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 100.00 50.00" width="100" height="50"`) {
		t.Errorf("normalizeViewBox() = %s", out)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Errorf("normalizeViewBox(no viewBox) = %s", got)
	}
}

func lineFor(dot, prefix string) string {
	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, prefix) {
			return line
		}
	}
	return ""
}
