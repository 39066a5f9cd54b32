package session

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/matzehuels/flowscript/pkg/flow"
)

func testStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}

	s, _ := NewWithID("alpha", "Alpha")
	n, _ := s.AddNode(flow.KindNavigate, flow.Position{X: 3, Y: 4}, flow.Params{URL: "https://x.test"})
	s.Connect(flow.StartNodeID, n.ID)

	if err := Save(ctx, store, s); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	other, _ := NewWithID("beta", "")
	Save(ctx, store, other)

	loaded, err := Load(ctx, store, "alpha")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if loaded.ScriptName() != "Alpha" || !reflect.DeepEqual(loaded.Graph(), s.Graph()) {
		t.Errorf("Load() = %s %+v", loaded.ScriptName(), loaded.Graph())
	}

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"alpha", "beta"}) {
		t.Errorf("List() = %v, want [alpha beta]", ids)
	}

	if err := store.Delete(ctx, "alpha"); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, err := store.Get(ctx, "alpha"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete error = %v", err)
	}
	if err := store.Delete(ctx, "alpha"); err != nil {
		t.Errorf("Delete(missing) error = %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	testStore(t, store)
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	defer store.Close()
	testStore(t, store)
}

func TestFileStoreRejectsUnsafeIDs(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	ctx := context.Background()

	if _, err := store.Get(ctx, "../secrets"); err == nil {
		t.Error("Get(../secrets) should fail")
	}
	if err := store.Set(ctx, &Record{ID: "a/b"}); err == nil {
		t.Error("Set(a/b) should fail")
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	s, _ := NewWithID("iso", "")
	r := s.Record()
	store.Set(ctx, r)
	r.Document.Nodes[0].ID = "mutated"

	got, _ := store.Get(ctx, "iso")
	if got.Document.Nodes[0].ID != flow.StartNodeID {
		t.Error("MemoryStore shares memory with callers")
	}
}
