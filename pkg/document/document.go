package document

import (
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/flow"
)

// Document is the persisted {nodes, edges} shape of a flow.
// A nil Nodes or Edges slice means the array was absent.
type Document struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Node is the persisted form of a flow node.
type Node struct {
	ID       string        `json:"id" yaml:"id"`
	Type     string        `json:"type" yaml:"type"`
	Position flow.Position `json:"position" yaml:"position"`
	Data     Data          `json:"data" yaml:"data"`
}

// Data holds a node's label and declarative parameters.
type Data struct {
	Label       string `json:"label,omitempty" yaml:"label,omitempty"`
	URL         string `json:"url,omitempty" yaml:"url,omitempty"`
	Selector    string `json:"selector,omitempty" yaml:"selector,omitempty"`
	Value       string `json:"value,omitempty" yaml:"value,omitempty"`
	Code        string `json:"code,omitempty" yaml:"code,omitempty"`
	ElementType string `json:"elementType,omitempty" yaml:"elementType,omitempty"`
	Wait        int    `json:"wait,omitempty" yaml:"wait,omitempty"`
	Timeout     int    `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DataOf returns the persisted data of n.
func DataOf(n flow.Node) Data {
	return Data{
		Label:       n.Label,
		URL:         n.Params.URL,
		Selector:    n.Params.Selector,
		Value:       n.Params.Value,
		Code:        n.Params.Code,
		ElementType: string(n.Params.WaitMode),
		Wait:        n.Params.WaitMillis,
		Timeout:     n.Params.TimeoutMillis,
	}
}

// Params returns the declarative parameters held in d. The label is not a
// parameter and is dropped.
func (d Data) Params() flow.Params {
	return flow.Params{
		URL:           d.URL,
		Selector:      d.Selector,
		Value:         d.Value,
		Code:          d.Code,
		WaitMode:      flow.WaitMode(d.ElementType),
		WaitMillis:    d.Wait,
		TimeoutMillis: d.Timeout,
	}
}

// Edge is the persisted form of a flow edge.
type Edge struct {
	ID     string `json:"id" yaml:"id"`
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Export snapshots g into a document. The result always has non-nil Nodes
// and Edges, so an exported empty graph re-imports cleanly.
func Export(g flow.Graph) Document {
	d := Document{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		d.Nodes[i] = Node{
			ID:       n.ID,
			Type:     string(n.Kind),
			Position: n.Position,
			Data:     DataOf(n),
		}
	}
	for i, e := range g.Edges {
		d.Edges[i] = Edge{ID: e.ID, Source: e.Source, Target: e.Target}
	}
	return d
}

// Import rebuilds a graph from d after validating its shape.
// Edges without an id get the conventional "edge-<source>-<target>" id.
func Import(d Document) (flow.Graph, error) {
	if d.Nodes == nil {
		return flow.Graph{}, ferrors.New(ferrors.ErrCodeInvalidDocument, "document has no nodes array")
	}
	if d.Edges == nil {
		return flow.Graph{}, ferrors.New(ferrors.ErrCodeInvalidDocument, "document has no edges array")
	}

	g := flow.Graph{
		Nodes: make([]flow.Node, len(d.Nodes)),
		Edges: make([]flow.Edge, len(d.Edges)),
	}
	for i, n := range d.Nodes {
		g.Nodes[i] = flow.Node{
			ID:       n.ID,
			Kind:     flow.Kind(n.Type),
			Label:    n.Data.Label,
			Position: n.Position,
			Params:   n.Data.Params(),
		}
	}
	for i, e := range d.Edges {
		id := e.ID
		if id == "" {
			id = flow.EdgeID(e.Source, e.Target)
		}
		g.Edges[i] = flow.Edge{ID: id, Source: e.Source, Target: e.Target}
	}

	if err := g.Validate(); err != nil {
		return flow.Graph{}, err
	}
	return g, nil
}

// Filename returns the export filename for a script name: whitespace runs
// become "-", the result is lower-cased and ".json" is appended.
//
//	Filename("My Selenium Script") == "my-selenium-script.json"
func Filename(scriptName string) string {
	return ferrors.SanitizeFilename(scriptName) + ".json"
}
