package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	NoopCompileHooks{}.OnCompileStart(ctx, 3)
	NoopCompileHooks{}.OnCompileComplete(ctx, 3, time.Millisecond, nil)
	NoopLibraryHooks{}.OnLibraryOp(ctx, "save", time.Millisecond, nil)
	NoopRunHooks{}.OnRunStart(ctx, "flow", true)
	NoopRunHooks{}.OnRunComplete(ctx, "flow", true, time.Second, nil)
	NoopCacheHooks{}.OnCacheHit(ctx, "diagram")
	NoopCacheHooks{}.OnCacheMiss(ctx, "diagram")
	NoopCacheHooks{}.OnCacheSet(ctx, "diagram", 1024)
}

type testCompileHooks struct{ NoopCompileHooks }
type testLibraryHooks struct{ NoopLibraryHooks }
type testRunHooks struct{ NoopRunHooks }
type testCacheHooks struct{ NoopCacheHooks }

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()
	defer Reset()

	if _, ok := Compile().(NoopCompileHooks); !ok {
		t.Error("Compile() should return NoopCompileHooks by default")
	}
	if _, ok := Library().(NoopLibraryHooks); !ok {
		t.Error("Library() should return NoopLibraryHooks by default")
	}
	if _, ok := Run().(NoopRunHooks); !ok {
		t.Error("Run() should return NoopRunHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}

	compile := &testCompileHooks{}
	library := &testLibraryHooks{}
	run := &testRunHooks{}
	cache := &testCacheHooks{}
	SetCompileHooks(compile)
	SetLibraryHooks(library)
	SetRunHooks(run)
	SetCacheHooks(cache)

	if Compile() != compile || Library() != library || Run() != run || Cache() != cache {
		t.Error("Set*Hooks should install custom hooks")
	}

	SetCompileHooks(nil)
	if Compile() != compile {
		t.Error("SetCompileHooks(nil) should be ignored")
	}

	Reset()
	if _, ok := Run().(NoopRunHooks); !ok {
		t.Error("Reset() should restore defaults")
	}
}
