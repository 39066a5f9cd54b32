// Package session owns the editable state of one flow.
//
// A [Session] holds a graph exclusively: edits go through its methods and
// readers get copies. Node change handlers, the wiring a live editor calls when
// a node's form changes, are kept beside the graph in a map keyed by node id.
// They are never part of a node, so the graph and its persisted
// [document.Document] stay plain data. Whenever the graph is replaced (clear,
// import) every node gets a fresh handler.
//
// # Usage
//
//	s := session.New("Login flow")
//	nav, _ := s.AddNode(flow.KindNavigate, flow.Position{X: 250, Y: 150}, flow.Params{URL: "https://x.test"})
//	s.Connect(flow.StartNodeID, nav.ID)
//
//	for _, n := range s.Nodes() {
//	    sel := "#go"
//	    n.OnChange(flow.ParamsPatch{Selector: &sel}) // same as s.UpdateNode(n.ID, ...)
//	}
//
// # Persistence
//
// [Session.Record] snapshots a session into a [Record]; [FromRecord] restores
// it. Records are kept in a [Store]:
//   - [FileStore]: JSON files, used by the CLI (~/.config/flowscript/sessions/)
//   - [MemoryStore]: process-local, used by tests and single-node servers
//   - [RedisStore]: shared between server instances, with expiry
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowscript/pkg/document"
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/flow"
)

// ErrNotFound is returned by stores when a session does not exist.
var ErrNotFound = errors.New("not found")

// DefaultScriptName is the name a new session's script is saved under.
const DefaultScriptName = "My Selenium Script"

// DefaultTTL is how long idle sessions live in expiring stores.
const DefaultTTL = 7 * 24 * time.Hour

// ChangeHandler applies a partial params update to the node it is bound to.
type ChangeHandler func(patch flow.ParamsPatch) (flow.Node, error)

// BoundNode pairs a node with its session-scoped change handler.
type BoundNode struct {
	flow.Node
	OnChange ChangeHandler
}

// Session is one editor's exclusively owned flow. Methods are safe for
// concurrent use.
type Session struct {
	mu         sync.Mutex
	id         string
	scriptName string
	graph      flow.Graph
	handlers   map[string]ChangeHandler
	updatedAt  time.Time
}

// New creates a session with the initial single-start-node graph.
// An empty name selects DefaultScriptName.
func New(scriptName string) *Session {
	if scriptName == "" {
		scriptName = DefaultScriptName
	}
	s := &Session{
		id:         uuid.NewString(),
		scriptName: scriptName,
	}
	s.reset(flow.New())
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// ScriptName returns the name the script is saved and exported under.
func (s *Session) ScriptName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scriptName
}

// SetScriptName renames the script. Blank names are accepted here and
// rejected when saving.
func (s *Session) SetScriptName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scriptName = name
	s.touch()
}

// UpdatedAt returns the time of the last edit.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// Graph returns a copy of the current graph.
func (s *Session) Graph() flow.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.Clone()
}

// Nodes returns the nodes in creation order, each with its change handler.
func (s *Session) Nodes() []BoundNode {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]BoundNode, len(s.graph.Nodes))
	for i, n := range s.graph.Nodes {
		out[i] = BoundNode{Node: n, OnChange: s.handlers[n.ID]}
	}
	return out
}

// Handler returns the change handler bound to a node id.
func (s *Session) Handler(id string) (ChangeHandler, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handlers[id]
	return h, ok
}

// =============================================================================
// Node edits
// =============================================================================

// AddNode appends a node of the given kind with a fresh "<kind>-<id>" id and
// the kind's default label.
func (s *Session) AddNode(kind flow.Kind, pos flow.Position, params flow.Params) (flow.Node, error) {
	if !kind.Valid() {
		return flow.Node{}, ferrors.New(ferrors.ErrCodeInvalidKind, "unknown node kind %q", kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newNodeID(kind)
	n := flow.NewNode(id, kind, pos, params)
	s.graph.Nodes = append(s.graph.Nodes, n)
	s.bind(id)
	s.touch()
	return n, nil
}

// newNodeID returns an id not yet used in the graph.
func (s *Session) newNodeID(kind flow.Kind) string {
	for {
		id := fmt.Sprintf("%s-%s", kind, uuid.NewString()[:8])
		if _, taken := s.graph.Node(id); !taken {
			return id
		}
	}
}

// UpdateNode applies patch to a node's params. Fields the patch leaves nil
// keep their values; set fields replace them, empty values included.
func (s *Session) UpdateNode(id string, patch flow.ParamsPatch) (flow.Node, error) {
	if err := patch.Validate(); err != nil {
		return flow.Node{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.index(id)
	if err != nil {
		return flow.Node{}, err
	}
	s.graph.Nodes[i].Params = s.graph.Nodes[i].Params.Apply(patch)
	s.touch()
	return s.graph.Nodes[i], nil
}

// SetLabel changes a node's display label.
func (s *Session) SetLabel(id, label string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.graph.Nodes[i].Label = label
	s.touch()
	return nil
}

// MoveNode changes a node's canvas position.
func (s *Session) MoveNode(id string, pos flow.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.graph.Nodes[i].Position = pos
	s.touch()
	return nil
}

// RemoveNode deletes a node and every edge touching it.
func (s *Session) RemoveNode(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.index(id)
	if err != nil {
		return err
	}
	s.graph.Nodes = append(s.graph.Nodes[:i], s.graph.Nodes[i+1:]...)

	edges := s.graph.Edges[:0]
	for _, e := range s.graph.Edges {
		if e.Source != id && e.Target != id {
			edges = append(edges, e)
		}
	}
	s.graph.Edges = edges
	delete(s.handlers, id)
	s.touch()
	return nil
}

func (s *Session) index(id string) (int, error) {
	for i, n := range s.graph.Nodes {
		if n.ID == id {
			return i, nil
		}
	}
	return -1, ferrors.New(ferrors.ErrCodeUnknownNode, "no node %q", id)
}

// =============================================================================
// Edge edits
// =============================================================================

// Connect appends an edge from source to target. Connecting an already
// connected pair returns the existing edge and changes nothing.
func (s *Session) Connect(source, target string) (flow.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.graph.Node(source); !ok {
		return flow.Edge{}, ferrors.New(ferrors.ErrCodeInvalidInput, "cannot connect: no source node %q", source)
	}
	if _, ok := s.graph.Node(target); !ok {
		return flow.Edge{}, ferrors.New(ferrors.ErrCodeInvalidInput, "cannot connect: no target node %q", target)
	}
	for _, e := range s.graph.Edges {
		if e.Source == source && e.Target == target {
			return e, nil
		}
	}

	e := flow.Edge{ID: flow.EdgeID(source, target), Source: source, Target: target}
	s.graph.Edges = append(s.graph.Edges, e)
	s.touch()
	return e, nil
}

// Disconnect removes the edge with the given id.
func (s *Session) Disconnect(edgeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, e := range s.graph.Edges {
		if e.ID == edgeID {
			s.graph.Edges = append(s.graph.Edges[:i], s.graph.Edges[i+1:]...)
			s.touch()
			return nil
		}
	}
	return ferrors.New(ferrors.ErrCodeUnknownEdge, "no edge %q", edgeID)
}

// =============================================================================
// Whole-graph operations
// =============================================================================

// Clear resets the graph to a single start node.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(flow.New())
}

// Replace swaps in g after validating it and rebinds every node's handler.
// On error the current graph is kept.
func (s *Session) Replace(g flow.Graph) error {
	if err := g.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(g.Clone())
	return nil
}

// Import replaces the graph with the one described by d.
// An invalid document leaves the session untouched.
func (s *Session) Import(d document.Document) error {
	g, err := document.Import(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset(g)
	return nil
}

// Export snapshots the graph into a document.
func (s *Session) Export() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return document.Export(s.graph)
}

// reset installs g and binds fresh handlers. Callers hold s.mu.
func (s *Session) reset(g flow.Graph) {
	if g.Edges == nil {
		g.Edges = []flow.Edge{}
	}
	s.graph = g
	s.handlers = make(map[string]ChangeHandler, len(g.Nodes))
	for _, n := range g.Nodes {
		s.bind(n.ID)
	}
	s.touch()
}

// bind creates the handler for id. Callers hold s.mu.
func (s *Session) bind(id string) {
	s.handlers[id] = func(patch flow.ParamsPatch) (flow.Node, error) {
		return s.UpdateNode(id, patch)
	}
}

func (s *Session) touch() { s.updatedAt = time.Now().UTC() }
