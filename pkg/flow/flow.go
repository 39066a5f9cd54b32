package flow

import (
	"slices"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
)

// StartNodeID is the id of the start node every new flow begins with.
const StartNodeID = "start-node"

// DefaultTimeoutMillis is the element-wait timeout used when none is set.
const DefaultTimeoutMillis = 10000

// WaitMode selects what a wait node waits for.
type WaitMode string

// Wait modes. The zero value behaves like WaitElement.
const (
	WaitElement WaitMode = "element"
	WaitTime    WaitMode = "time"
)

// Position is the canvas location of a node. It has no effect on generation.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Params holds the declarative parameters of a node. Which fields are used
// depends on the node's Kind; unused fields are ignored by the emitter.
type Params struct {
	URL           string
	Selector      string
	Value         string
	Code          string
	WaitMode      WaitMode
	WaitMillis    int
	TimeoutMillis int
}

// ParamsPatch is a partial update of Params, the change a node's form
// reports. Nil fields are left as they are; a set field replaces the current
// value even when it is empty, so a patch can clear a parameter.
type ParamsPatch struct {
	URL           *string
	Selector      *string
	Value         *string
	Code          *string
	WaitMode      *WaitMode
	WaitMillis    *int
	TimeoutMillis *int
}

// IsEmpty reports whether the patch changes nothing.
func (pp ParamsPatch) IsEmpty() bool {
	return pp == ParamsPatch{}
}

// Validate rejects unknown wait modes and negative durations.
func (pp ParamsPatch) Validate() error {
	if pp.WaitMode != nil {
		switch *pp.WaitMode {
		case "", WaitElement, WaitTime:
		default:
			return ferrors.New(ferrors.ErrCodeInvalidInput, "invalid wait mode %q (use element or time)", *pp.WaitMode)
		}
	}
	if (pp.WaitMillis != nil && *pp.WaitMillis < 0) || (pp.TimeoutMillis != nil && *pp.TimeoutMillis < 0) {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "wait and timeout must not be negative")
	}
	return nil
}

// Apply returns p with every set field of patch applied.
func (p Params) Apply(patch ParamsPatch) Params {
	if patch.URL != nil {
		p.URL = *patch.URL
	}
	if patch.Selector != nil {
		p.Selector = *patch.Selector
	}
	if patch.Value != nil {
		p.Value = *patch.Value
	}
	if patch.Code != nil {
		p.Code = *patch.Code
	}
	if patch.WaitMode != nil {
		p.WaitMode = *patch.WaitMode
	}
	if patch.WaitMillis != nil {
		p.WaitMillis = *patch.WaitMillis
	}
	if patch.TimeoutMillis != nil {
		p.TimeoutMillis = *patch.TimeoutMillis
	}
	return p
}

// Timeout returns TimeoutMillis, or DefaultTimeoutMillis when unset.
func (p Params) Timeout() int {
	if p.TimeoutMillis > 0 {
		return p.TimeoutMillis
	}
	return DefaultTimeoutMillis
}

// WaitsForTime reports whether a wait node sleeps instead of polling for an element.
func (p Params) WaitsForTime() bool {
	return p.WaitMode == WaitTime
}

// Node is one typed step of a flow.
type Node struct {
	ID       string
	Kind     Kind
	Label    string
	Position Position
	Params   Params
}

// NewNode creates a node with the default label for its kind.
func NewNode(id string, kind Kind, pos Position, params Params) Node {
	return Node{
		ID:       id,
		Kind:     kind,
		Label:    DefaultLabel(kind),
		Position: pos,
		Params:   params,
	}
}

// DisplayLabel returns the label if set, otherwise the default label for the kind.
func (n Node) DisplayLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return DefaultLabel(n.Kind)
}

// Edge is a directed connection establishing potential execution order.
type Edge struct {
	ID     string
	Source string
	Target string
}

// EdgeID returns the conventional id for an edge between source and target.
func EdgeID(source, target string) string {
	return "edge-" + source + "-" + target
}

// Graph is a flow: nodes in creation order and edges in connection order.
type Graph struct {
	Nodes []Node
	Edges []Edge
}

// New returns the initial graph: a single start node and no edges.
func New() Graph {
	return Graph{
		Nodes: []Node{NewNode(StartNodeID, KindStart, Position{X: 250, Y: 50}, Params{})},
		Edges: []Edge{},
	}
}

// Clone returns a deep copy of g.
func (g Graph) Clone() Graph {
	return Graph{
		Nodes: slices.Clone(g.Nodes),
		Edges: slices.Clone(g.Edges),
	}
}

// Node returns the node with the given id.
func (g Graph) Node(id string) (Node, bool) {
	i := g.nodeIndex(id)
	if i < 0 {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Start returns the first start node in node order.
func (g Graph) Start() (Node, bool) {
	for _, n := range g.Nodes {
		if n.Kind == KindStart {
			return n, true
		}
	}
	return Node{}, false
}

// Outgoing returns the edges leaving id, in edge-list order.
func (g Graph) Outgoing(id string) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Source == id {
			out = append(out, e)
		}
	}
	return out
}

// HasEdge reports whether an edge from source to target exists.
func (g Graph) HasEdge(source, target string) bool {
	return slices.ContainsFunc(g.Edges, func(e Edge) bool {
		return e.Source == source && e.Target == target
	})
}

func (g Graph) nodeIndex(id string) int {
	return slices.IndexFunc(g.Nodes, func(n Node) bool { return n.ID == id })
}

// Validate checks the structural invariants of g: non-empty unique node ids,
// known kinds, and edges whose endpoints exist. It does not require a start
// node; that precondition belongs to Linearize.
//
// Violations are reported as INVALID_DOCUMENT since the only way to obtain an
// invalid graph is to build one outside the editor.
func (g Graph) Validate() error {
	seen := make(map[string]struct{}, len(g.Nodes))
	for i, n := range g.Nodes {
		if n.ID == "" {
			return ferrors.New(ferrors.ErrCodeInvalidDocument, "node %d: missing id", i)
		}
		if _, dup := seen[n.ID]; dup {
			return ferrors.New(ferrors.ErrCodeInvalidDocument, "node %s: duplicate id", n.ID)
		}
		if !n.Kind.Valid() {
			return ferrors.New(ferrors.ErrCodeInvalidDocument, "node %s: unknown type %q", n.ID, n.Kind)
		}
		seen[n.ID] = struct{}{}
	}
	for i, e := range g.Edges {
		if _, ok := seen[e.Source]; !ok {
			return ferrors.New(ferrors.ErrCodeInvalidDocument, "edge %d (%s): unknown source %q", i, e.ID, e.Source)
		}
		if _, ok := seen[e.Target]; !ok {
			return ferrors.New(ferrors.ErrCodeInvalidDocument, "edge %d (%s): unknown target %q", i, e.ID, e.Target)
		}
	}
	return nil
}
