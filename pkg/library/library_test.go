package library

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/flowscript/pkg/document"
	"github.com/matzehuels/flowscript/pkg/flow"
)

func entry(name string) *Entry {
	g := flow.New()
	g.Nodes = append(g.Nodes, flow.NewNode("nav", flow.KindNavigate, flow.Position{}, flow.Params{URL: "https://x.test"}))
	g.Edges = append(g.Edges, flow.Edge{ID: "e", Source: flow.StartNodeID, Target: "nav"})
	return &Entry{
		Name:     name,
		Script:   "// script for " + name,
		Document: document.Export(g),
		SavedAt:  time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	defer store.Close()

	if _, err := store.Get(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	for _, name := range []string{"My Selenium Script", "Checkout"} {
		if err := store.Save(ctx, entry(name)); err != nil {
			t.Fatalf("Save(%q) error: %v", name, err)
		}
	}
	if m, _ := filepath.Glob(filepath.Join(store.Dir(), "my-selenium-script-*.json")); len(m) != 1 {
		t.Errorf("entry files = %v, want one named after the sanitized script name", m)
	}

	got, err := store.Get(ctx, "My Selenium Script")
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Script != "// script for My Selenium Script" || len(got.Document.Nodes) != 2 {
		t.Errorf("Get() = %+v", got)
	}
	if _, err := document.Import(got.Document); err != nil {
		t.Errorf("stored document does not import: %v", err)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Checkout" || list[1].Nodes != 2 {
		t.Errorf("List() = %+v", list)
	}

	replaced := entry("Checkout")
	replaced.Script = "// v2"
	store.Save(ctx, replaced)
	if got, _ := store.Get(ctx, "Checkout"); got.Script != "// v2" {
		t.Errorf("Save() should replace, got %q", got.Script)
	}

	if err := store.Delete(ctx, "Checkout"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := store.Delete(ctx, "Checkout"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete(missing) error = %v, want ErrNotFound", err)
	}
}

func TestFileStoreExactNames(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}

	for _, name := range []string{"My Script", "my  script"} {
		if err := store.Save(ctx, entry(name)); err != nil {
			t.Fatalf("Save(%q) error: %v", name, err)
		}
	}
	for _, name := range []string{"My Script", "my  script"} {
		got, err := store.Get(ctx, name)
		if err != nil {
			t.Fatalf("Get(%q) error: %v", name, err)
		}
		if got.Name != name {
			t.Errorf("Get(%q).Name = %q", name, got.Name)
		}
	}
	if _, err := store.Get(ctx, "my script"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(%q) error = %v, want ErrNotFound", "my script", err)
	}
	if list, _ := store.List(ctx); len(list) != 2 {
		t.Errorf("List() = %+v, want 2 entries", list)
	}
}

func TestFileStoreSkipsCorruptEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, _ := NewFileStore(dir)

	store.Save(ctx, entry("ok"))
	os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(list) != 1 || list[0].Name != "ok" {
		t.Errorf("List() = %+v, want only ok", list)
	}
}

func TestSummarize(t *testing.T) {
	s := entry("x").Summarize()
	if s.Name != "x" || s.Nodes != 2 || s.SavedAt.IsZero() {
		t.Errorf("Summarize() = %+v", s)
	}
}
