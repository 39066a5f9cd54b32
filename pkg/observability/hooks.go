// Package observability provides hooks for metrics and tracing.
//
// Libraries emit events through registered hooks instead of depending on a
// metrics backend. The defaults do nothing; the HTTP server registers a
// Prometheus implementation at startup.
//
// # Usage
//
// Register hooks at application startup:
//
//	observability.SetCompileHooks(metrics)
//	observability.SetRunHooks(metrics)
//
// Libraries call hooks to emit events:
//
//	observability.Compile().OnCompileStart(ctx, len(g.Nodes))
//	// ... linearize and assemble ...
//	observability.Compile().OnCompileComplete(ctx, steps, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Compile Hooks
// =============================================================================

// CompileHooks receives events from script generation.
type CompileHooks interface {
	OnCompileStart(ctx context.Context, nodeCount int)
	OnCompileComplete(ctx context.Context, steps int, duration time.Duration, err error)
}

// =============================================================================
// Library Hooks
// =============================================================================

// LibraryHooks receives events from script library operations.
type LibraryHooks interface {
	// OnLibraryOp records a store operation ("save", "get", "list", "delete").
	OnLibraryOp(ctx context.Context, op string, duration time.Duration, err error)
}

// =============================================================================
// Run Hooks
// =============================================================================

// RunHooks receives events from script execution.
type RunHooks interface {
	OnRunStart(ctx context.Context, name string, headless bool)
	OnRunComplete(ctx context.Context, name string, success bool, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopCompileHooks is a no-op implementation of CompileHooks.
type NoopCompileHooks struct{}

func (NoopCompileHooks) OnCompileStart(context.Context, int)                            {}
func (NoopCompileHooks) OnCompileComplete(context.Context, int, time.Duration, error) {}

// NoopLibraryHooks is a no-op implementation of LibraryHooks.
type NoopLibraryHooks struct{}

func (NoopLibraryHooks) OnLibraryOp(context.Context, string, time.Duration, error) {}

// NoopRunHooks is a no-op implementation of RunHooks.
type NoopRunHooks struct{}

func (NoopRunHooks) OnRunStart(context.Context, string, bool)                            {}
func (NoopRunHooks) OnRunComplete(context.Context, string, bool, time.Duration, error) {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	compileHooks CompileHooks = NoopCompileHooks{}
	libraryHooks LibraryHooks = NoopLibraryHooks{}
	runHooks     RunHooks     = NoopRunHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	hooksMu      sync.RWMutex
)

// SetCompileHooks registers custom compile hooks. Nil is ignored.
func SetCompileHooks(h CompileHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		compileHooks = h
	}
}

// SetLibraryHooks registers custom library hooks. Nil is ignored.
func SetLibraryHooks(h LibraryHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		libraryHooks = h
	}
}

// SetRunHooks registers custom run hooks. Nil is ignored.
func SetRunHooks(h RunHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		runHooks = h
	}
}

// SetCacheHooks registers custom cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Compile returns the registered compile hooks.
func Compile() CompileHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return compileHooks
}

// Library returns the registered library hooks.
func Library() LibraryHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return libraryHooks
}

// Run returns the registered run hooks.
func Run() RunHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return runHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	compileHooks = NoopCompileHooks{}
	libraryHooks = NoopLibraryHooks{}
	runHooks = NoopRunHooks{}
	cacheHooks = NoopCacheHooks{}
}
