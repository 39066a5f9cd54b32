package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/flowscript/pkg/document"
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/flow"
	"github.com/matzehuels/flowscript/pkg/library"
	"github.com/matzehuels/flowscript/pkg/session"
)

// setupHome points every flowscript directory at a temporary home and
// selects the dry runner.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, ".cache"))
	t.Setenv("FLOWSCRIPT_RUNNER_BACKEND", "dry")
	t.Chdir(home)
	return home
}

// execute runs the CLI with args and returns what commands wrote to their
// output stream.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := New(io.Discard, LogInfo).RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func mustExecute(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execute(t, args...)
	if err != nil {
		t.Fatalf("flowscript %s: %v", strings.Join(args, " "), err)
	}
	return out
}

// storedGraph reads a session straight from the file store.
func storedGraph(t *testing.T, id string) (flow.Graph, string) {
	t.Helper()
	store, err := session.NewFileStore("")
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	s, err := session.Load(context.Background(), store, id)
	if err != nil {
		t.Fatalf("Load(%s) error: %v", id, err)
	}
	return s.Graph(), s.ScriptName()
}

// lastNode returns the most recently added node.
func lastNode(t *testing.T, id string) flow.Node {
	t.Helper()
	g, _ := storedGraph(t, id)
	return g.Nodes[len(g.Nodes)-1]
}

// buildScenario creates start -> navigate -> click -> end in the default session.
func buildScenario(t *testing.T, name string) (nav, click flow.Node) {
	t.Helper()
	mustExecute(t, "new", name)
	mustExecute(t, "node", "add", "navigate", "--url", "https://x.test", "--after", flow.StartNodeID)
	nav = lastNode(t, defaultSession)
	mustExecute(t, "node", "add", "click", "--selector", "#go", "--after", nav.ID)
	click = lastNode(t, defaultSession)
	mustExecute(t, "node", "add", "end", "--after", click.ID)
	return nav, click
}

func TestNewSession(t *testing.T) {
	setupHome(t)

	mustExecute(t, "new", "Login flow")
	g, name := storedGraph(t, defaultSession)
	if name != "Login flow" {
		t.Errorf("script name = %q, want %q", name, "Login flow")
	}
	if len(g.Nodes) != 1 || g.Nodes[0].ID != flow.StartNodeID || len(g.Edges) != 0 {
		t.Errorf("new graph = %+v, want single start node", g)
	}

	mustExecute(t, "--session", "other", "new")
	_, name = storedGraph(t, "other")
	if name != session.DefaultScriptName {
		t.Errorf("default script name = %q, want %q", name, session.DefaultScriptName)
	}

	out := mustExecute(t, "sessions")
	if !strings.Contains(out, "default") || !strings.Contains(out, "other") {
		t.Errorf("sessions output = %q, want both sessions", out)
	}
}

func TestNodeEditing(t *testing.T) {
	setupHome(t)
	nav, click := buildScenario(t, "Edit")

	g, _ := storedGraph(t, defaultSession)
	if len(g.Nodes) != 4 || len(g.Edges) != 3 {
		t.Fatalf("graph has %d nodes and %d edges, want 4 and 3", len(g.Nodes), len(g.Edges))
	}
	if !strings.HasPrefix(nav.ID, "navigate-") {
		t.Errorf("node id = %q, want navigate- prefix", nav.ID)
	}
	if nav.Params.URL != "https://x.test" {
		t.Errorf("URL = %q, want %q", nav.Params.URL, "https://x.test")
	}
	if nav.Position.Y <= g.Nodes[0].Position.Y {
		t.Errorf("auto position %v not below start %v", nav.Position, g.Nodes[0].Position)
	}

	mustExecute(t, "node", "set", click.ID, "--timeout", "500", "--label", "Go")
	mustExecute(t, "node", "move", click.ID, "10", "20")
	g, _ = storedGraph(t, defaultSession)
	got, _ := g.Node(click.ID)
	if got.Params.Selector != "#go" || got.Params.TimeoutMillis != 500 {
		t.Errorf("params = %+v, want selector kept and timeout 500", got.Params)
	}
	if got.Label != "Go" {
		t.Errorf("label = %q, want %q", got.Label, "Go")
	}
	if got.Position != (flow.Position{X: 10, Y: 20}) {
		t.Errorf("position = %v, want (10, 20)", got.Position)
	}

	mustExecute(t, "node", "set", click.ID, "--selector", "", "--timeout", "0")
	g, _ = storedGraph(t, defaultSession)
	got, _ = g.Node(click.ID)
	if got.Params.Selector != "" || got.Params.TimeoutMillis != 0 || got.Label != "Go" {
		t.Errorf("after clearing: params = %+v, label = %q, want selector and timeout cleared", got.Params, got.Label)
	}

	mustExecute(t, "node", "rm", click.ID)
	g, _ = storedGraph(t, defaultSession)
	if len(g.Nodes) != 3 || len(g.Edges) != 1 {
		t.Errorf("after rm: %d nodes, %d edges, want 3 and 1", len(g.Nodes), len(g.Edges))
	}

	out := mustExecute(t, "node", "ls")
	if !strings.Contains(out, nav.ID) || !strings.Contains(out, "https://x.test") {
		t.Errorf("node ls output missing navigate row:\n%s", out)
	}
}

func TestNodeErrors(t *testing.T) {
	setupHome(t)
	mustExecute(t, "new")

	tests := []struct {
		name string
		args []string
		code ferrors.Code
	}{
		{"unknown kind", []string{"node", "add", "hover"}, ferrors.ErrCodeInvalidKind},
		{"bad wait mode", []string{"node", "add", "wait", "--wait-mode", "forever"}, ferrors.ErrCodeInvalidInput},
		{"set unknown node", []string{"node", "set", "ghost", "--url", "x"}, ferrors.ErrCodeUnknownNode},
		{"connect unknown", []string{"connect", flow.StartNodeID, "ghost"}, ferrors.ErrCodeInvalidInput},
		{"disconnect unknown", []string{"disconnect", "edge-x"}, ferrors.ErrCodeUnknownEdge},
		{"bad coordinate", []string{"node", "move", flow.StartNodeID, "left", "0"}, ferrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if !ferrors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestConnectDisconnect(t *testing.T) {
	setupHome(t)
	mustExecute(t, "new")
	mustExecute(t, "node", "add", "end")
	end := lastNode(t, defaultSession)

	mustExecute(t, "connect", flow.StartNodeID, end.ID)
	mustExecute(t, "connect", flow.StartNodeID, end.ID)
	g, _ := storedGraph(t, defaultSession)
	if len(g.Edges) != 1 {
		t.Fatalf("edges = %d after duplicate connect, want 1", len(g.Edges))
	}

	mustExecute(t, "disconnect", flow.StartNodeID, end.ID)
	g, _ = storedGraph(t, defaultSession)
	if len(g.Edges) != 0 {
		t.Errorf("edges = %d after disconnect, want 0", len(g.Edges))
	}
}

func TestGenerate(t *testing.T) {
	setupHome(t)
	buildScenario(t, "Gen")

	out := mustExecute(t, "generate")
	for _, want := range []string{
		`await driver.get("https://x.test");`,
		`await driver.findElement(By.css("#go")).click();`,
		"// options.addArguments('--headless');",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generate output missing %q", want)
		}
	}
	if strings.Index(out, "driver.get") > strings.Index(out, ".click()") {
		t.Error("navigate emitted after click")
	}

	out = mustExecute(t, "generate", "--headless")
	if strings.Contains(out, "// options.addArguments('--headless');") {
		t.Error("--headless left the sentinel commented")
	}

	mustExecute(t, "generate", "-o", "script.js")
	data, err := os.ReadFile("script.js")
	if err != nil {
		t.Fatalf("read script.js: %v", err)
	}
	if !strings.Contains(string(data), "driver.get") {
		t.Error("script.js does not contain the script")
	}
}

func TestGenerateMissingStart(t *testing.T) {
	setupHome(t)
	mustExecute(t, "new")
	mustExecute(t, "node", "rm", flow.StartNodeID)

	out, err := execute(t, "generate")
	if !ferrors.Is(err, ferrors.ErrCodeMissingStartNode) {
		t.Errorf("error = %v, want MISSING_START_NODE", err)
	}
	if out != "" {
		t.Errorf("output = %q, want no partial script", out)
	}
}

func TestSaveAndLibrary(t *testing.T) {
	home := setupHome(t)
	buildScenario(t, "Checkout")

	mustExecute(t, "save", "--name", "Checkout Flow")
	_, name := storedGraph(t, defaultSession)
	if name != "Checkout Flow" {
		t.Errorf("session name = %q, want renamed to %q", name, "Checkout Flow")
	}

	lib, err := library.NewFileStore(filepath.Join(home, ".config", "flowscript", "library"))
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	e, err := lib.Get(context.Background(), "Checkout Flow")
	if err != nil {
		t.Fatalf("library Get() error: %v", err)
	}
	if len(e.Document.Nodes) != 4 || !strings.Contains(e.Script, "driver.get") {
		t.Errorf("saved entry = %d nodes, script %q", len(e.Document.Nodes), e.Script)
	}

	out := mustExecute(t, "library", "ls")
	if !strings.Contains(out, "Checkout Flow") {
		t.Errorf("library ls output = %q, want entry", out)
	}
	out = mustExecute(t, "library", "show", "Checkout Flow")
	if out != e.Script {
		t.Error("library show did not print the saved script")
	}

	mustExecute(t, "--session", "copy", "library", "open", "Checkout Flow")
	g, name := storedGraph(t, "copy")
	if name != "Checkout Flow" || len(g.Nodes) != 4 {
		t.Errorf("opened session = %q with %d nodes", name, len(g.Nodes))
	}

	mustExecute(t, "library", "run", "Checkout Flow")

	mustExecute(t, "library", "rm", "Checkout Flow")
	_, err = execute(t, "library", "show", "Checkout Flow")
	if !ferrors.Is(err, ferrors.ErrCodeScriptNotFound) {
		t.Errorf("show after rm error = %v, want SCRIPT_NOT_FOUND", err)
	}
}

func TestSaveEmptyName(t *testing.T) {
	setupHome(t)
	mustExecute(t, "new")

	_, err := execute(t, "save", "--name", "  ")
	if !ferrors.Is(err, ferrors.ErrCodeEmptyScriptName) {
		t.Errorf("error = %v, want EMPTY_SCRIPT_NAME", err)
	}
}

func TestRun(t *testing.T) {
	setupHome(t)
	buildScenario(t, "Run")

	if _, err := execute(t, "run"); err != nil {
		t.Errorf("run error: %v", err)
	}
}

func TestExportImport(t *testing.T) {
	setupHome(t)
	buildScenario(t, "My Selenium Script")
	src, _ := storedGraph(t, defaultSession)

	mustExecute(t, "export")
	if _, err := os.Stat("my-selenium-script.json"); err != nil {
		t.Fatalf("default export file: %v", err)
	}
	mustExecute(t, "export", "-o", "flow.yaml")
	data, err := os.ReadFile("flow.yaml")
	if err != nil {
		t.Fatalf("read flow.yaml: %v", err)
	}
	if document.FormatFromPath("flow.yaml") != document.FormatYAML || bytes.HasPrefix(data, []byte("{")) {
		t.Errorf("flow.yaml is not YAML:\n%s", data)
	}

	out := mustExecute(t, "export", "-o", "-")
	if !strings.HasPrefix(out, "{") {
		t.Errorf("stdout export = %q, want JSON", out)
	}

	mustExecute(t, "--session", "imported", "import", "flow.yaml")
	got, _ := storedGraph(t, "imported")
	if len(got.Nodes) != len(src.Nodes) || len(got.Edges) != len(src.Edges) {
		t.Errorf("imported %d/%d, want %d/%d", len(got.Nodes), len(got.Edges), len(src.Nodes), len(src.Edges))
	}

	if err := os.WriteFile("bad.json", []byte(`{"nodes": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = execute(t, "--session", "imported", "import", "bad.json")
	if !ferrors.Is(err, ferrors.ErrCodeInvalidDocument) {
		t.Errorf("error = %v, want INVALID_DOCUMENT", err)
	}
	after, _ := storedGraph(t, "imported")
	if len(after.Nodes) != len(got.Nodes) {
		t.Error("failed import changed the session")
	}
}

func TestRenderDOT(t *testing.T) {
	home := setupHome(t)
	nav, _ := buildScenario(t, "Diagram")

	out := mustExecute(t, "render", "-f", "dot", "-d", "lr", "-o", "-")
	if !strings.Contains(out, "rankdir=LR") || !strings.Contains(out, nav.ID) {
		t.Errorf("dot output:\n%s", out)
	}

	mustExecute(t, "render", "-o", "flow.dot")
	if _, err := os.Stat("flow.dot"); err != nil {
		t.Errorf("flow.dot: %v", err)
	}

	entries, _ := os.ReadDir(filepath.Join(home, ".cache", "flowscript"))
	if len(entries) == 0 {
		t.Error("render did not populate the cache")
	}
	out = mustExecute(t, "cache", "path")
	if strings.TrimSpace(out) != filepath.Join(home, ".cache", "flowscript") {
		t.Errorf("cache path = %q", out)
	}
	mustExecute(t, "cache", "clear")
	entries, _ = os.ReadDir(filepath.Join(home, ".cache", "flowscript"))
	if len(entries) != 0 {
		t.Errorf("cache has %d entries after clear", len(entries))
	}

	_, err := execute(t, "render", "-f", "gif")
	if !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestKinds(t *testing.T) {
	setupHome(t)
	out := mustExecute(t, "kinds")
	for _, k := range flow.Kinds() {
		if !strings.Contains(out, flow.Description(k)) {
			t.Errorf("kinds output missing %s", k)
		}
	}
}

func TestConfigFlag(t *testing.T) {
	setupHome(t)
	if _, err := execute(t, "--config", "missing.toml", "kinds"); err == nil {
		t.Error("expected error for missing explicit config")
	}

	if err := os.WriteFile("flowscript.toml", []byte("[generate]\nheadless = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mustExecute(t, "new")
	out := mustExecute(t, "--config", "flowscript.toml", "generate")
	if strings.Contains(out, "// options.addArguments('--headless');") {
		t.Error("configured headless default not applied")
	}
}

func TestNextPosition(t *testing.T) {
	tests := []struct {
		name  string
		nodes []flow.Node
		want  flow.Position
	}{
		{"empty", nil, flow.Position{X: 250, Y: 50}},
		{"below start", []flow.Node{{Position: flow.Position{X: 250, Y: 50}}}, flow.Position{X: 250, Y: 150}},
		{"below lowest", []flow.Node{
			{Position: flow.Position{X: 250, Y: 50}},
			{Position: flow.Position{X: 400, Y: 300}},
			{Position: flow.Position{X: 100, Y: 200}},
		}, flow.Position{X: 400, Y: 400}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextPosition(flow.Graph{Nodes: tt.nodes}); got != tt.want {
				t.Errorf("nextPosition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{30 * 24 * time.Hour, "Feb 8, 2026"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("formatRelativeTime(-%s) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}

func TestCompletion(t *testing.T) {
	setupHome(t)
	nav, _ := buildScenario(t, "Complete me")
	mustExecute(t, "save")

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"node ids", []string{"__complete", "node", "rm", ""}, []string{flow.StartNodeID, nav.ID}},
		{"kinds", []string{"__complete", "node", "add", "nav"}, []string{"navigate"}},
		{"edges", []string{"__complete", "disconnect", flow.StartNodeID, ""}, []string{nav.ID}},
		{"sessions", []string{"__complete", "sessions", "rm", ""}, []string{defaultSession}},
		{"scripts", []string{"__complete", "library", "show", ""}, []string{"Complete me"}},
		{"render format", []string{"__complete", "render", "--format", ""}, []string{"svg", "png", "dot"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustExecute(t, tt.args...)
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("completions = %q, want %q", out, w)
				}
			}
		})
	}

	out := mustExecute(t, "completion", "bash")
	if !strings.Contains(out, "__start_"+appName) {
		t.Errorf("bash completion missing start function")
	}
}
