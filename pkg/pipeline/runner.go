package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscript/pkg/cache"
	"github.com/matzehuels/flowscript/pkg/document"
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/flow"
	"github.com/matzehuels/flowscript/pkg/library"
	"github.com/matzehuels/flowscript/pkg/observability"
	"github.com/matzehuels/flowscript/pkg/render"
	"github.com/matzehuels/flowscript/pkg/runner"
	"github.com/matzehuels/flowscript/pkg/script"
	"github.com/matzehuels/flowscript/pkg/session"
)

// Runner executes flowscript operations against its collaborators.
//
// The Runner holds no per-flow state; every operation takes the session it
// acts on. Multiple goroutines can share a Runner as long as each session is
// used by one goroutine at a time.
type Runner struct {
	Library  library.Store
	Executor runner.Executor
	Cache    cache.Cache
	Logger   *log.Logger

	// EscapeLiterals is passed to the script assembler.
	EscapeLiterals bool

	// RunTimeout bounds a single script run. Zero uses the executor default.
	RunTimeout time.Duration
}

// NewRunner creates a runner. A nil cache disables diagram caching and a nil
// logger uses log.Default(). Library and executor may be nil when the caller
// never saves or runs; those operations then fail with UNSUPPORTED.
func NewRunner(lib library.Store, exec runner.Executor, c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Library:  lib,
		Executor: exec,
		Cache:    c,
		Logger:   logger,
	}
}

// =============================================================================
// Compile
// =============================================================================

// Compile linearizes g and assembles the script. It is the only step that
// can fail before a collaborator is involved.
func (r *Runner) Compile(ctx context.Context, g flow.Graph, headless bool) (string, error) {
	hooks := observability.Compile()
	hooks.OnCompileStart(ctx, len(g.Nodes))
	start := time.Now()

	order, err := flow.Linearize(g)
	if err != nil {
		hooks.OnCompileComplete(ctx, 0, time.Since(start), err)
		return "", err
	}
	out := script.Assemble(order, script.Options{
		Headless:       headless,
		EscapeLiterals: r.EscapeLiterals,
	})

	hooks.OnCompileComplete(ctx, len(order), time.Since(start), nil)
	r.Logger.Debug("compiled flow",
		"nodes", len(g.Nodes),
		"steps", len(order),
		"headless", headless)
	return out, nil
}

// Generate compiles the session's flow. The session is not modified.
func (r *Runner) Generate(ctx context.Context, s *session.Session, headless bool) (string, error) {
	return r.Compile(ctx, s.Graph(), headless)
}

// =============================================================================
// Save and Run
// =============================================================================

// Save compiles the session's flow and stores it in the library under the
// session's script name. A blank name is EMPTY_SCRIPT_NAME and nothing is
// compiled. Store failures are STORE_FAILED wrapping the backend error.
func (r *Runner) Save(ctx context.Context, s *session.Session, headless bool) (*library.Entry, error) {
	name := s.ScriptName()
	if err := ferrors.ValidateScriptName(name); err != nil {
		return nil, err
	}
	if r.Library == nil {
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "no script library configured")
	}

	g := s.Graph()
	text, err := r.Compile(ctx, g, headless)
	if err != nil {
		return nil, err
	}

	entry := &library.Entry{
		Name:     strings.TrimSpace(name),
		Script:   text,
		Document: document.Export(g),
		SavedAt:  time.Now().UTC(),
	}

	start := time.Now()
	err = r.Library.Save(ctx, entry)
	observability.Library().OnLibraryOp(ctx, OpSave, time.Since(start), err)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeStoreFailed, err, "save %q", entry.Name)
	}

	r.Logger.Info("saved script", "name", entry.Name, "nodes", len(g.Nodes))
	return entry, nil
}

// Run compiles the session's flow and hands it to the executor. A script
// that ran and failed is a Result with Success false, not an error.
func (r *Runner) Run(ctx context.Context, s *session.Session, headless bool) (*runner.Result, error) {
	text, err := r.Generate(ctx, s, headless)
	if err != nil {
		return nil, err
	}
	return r.Execute(ctx, s.ScriptName(), text, headless)
}

// Execute hands finished script text to the executor.
func (r *Runner) Execute(ctx context.Context, name, text string, headless bool) (*runner.Result, error) {
	if r.Executor == nil {
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "no executor configured")
	}

	hooks := observability.Run()
	hooks.OnRunStart(ctx, name, headless)
	r.Logger.Info("running script", "name", name, "headless", headless)

	start := time.Now()
	res, err := r.Executor.Run(ctx, runner.Request{
		Name:     name,
		Script:   text,
		Headless: headless,
		Timeout:  r.RunTimeout,
	})
	if err == nil && res == nil {
		err = ferrors.New(ferrors.ErrCodeRunFailed, "executor returned no result")
	}
	hooks.OnRunComplete(ctx, name, err == nil && res.Success, time.Since(start), err)
	if err != nil {
		return res, fmt.Errorf("run %q: %w", name, err)
	}

	if res.Success {
		r.Logger.Info("script succeeded", "name", name, "duration", res.Duration)
	} else {
		r.Logger.Warn("script failed", "name", name, "message", res.Message, "exit_code", res.ExitCode)
	}
	return res, nil
}

// =============================================================================
// Export and Import
// =============================================================================

// Export serializes the session's flow. The filename is derived from the
// script name; YAML exports use a ".yaml" extension.
func (r *Runner) Export(s *session.Session, format document.Format) (*Export, error) {
	data, err := document.Marshal(s.Graph(), format)
	if err != nil {
		return nil, err
	}
	name := document.Filename(s.ScriptName())
	if format == document.FormatYAML {
		name = strings.TrimSuffix(name, ".json") + ".yaml"
	}
	return &Export{Filename: name, Format: format, Data: data}, nil
}

// Import replaces the session's flow with the document in data (JSON or
// YAML). On INVALID_DOCUMENT the session keeps its current flow.
func (r *Runner) Import(s *session.Session, data []byte) error {
	g, err := document.Decode(data)
	if err != nil {
		return err
	}
	if err := s.Replace(g); err != nil {
		return err
	}
	r.Logger.Info("imported flow", "nodes", len(g.Nodes), "edges", len(g.Edges))
	return nil
}

// =============================================================================
// Render
// =============================================================================

// Render draws the session's flow as a diagram, caching the result by the
// hash of the flow's document and the render options.
func (r *Runner) Render(ctx context.Context, s *session.Session, opts RenderOptions) (*Diagram, error) {
	return r.RenderGraph(ctx, s.Graph(), opts)
}

// RenderGraph is Render for a graph that is not held by a session.
func (r *Runner) RenderGraph(ctx context.Context, g flow.Graph, opts RenderOptions) (*Diagram, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	docData, err := document.Marshal(g, document.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("serialize flow for cache key: %w", err)
	}
	key := cache.DiagramKey(cache.Hash(docData), cache.DiagramKeyOpts{
		Format:    string(opts.Format),
		Direction: opts.Direction,
	})
	keyType := "diagram_" + string(opts.Format)
	hooks := observability.Cache()

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			hooks.OnCacheHit(ctx, keyType)
			return &Diagram{Format: opts.Format, Data: data, CacheHit: true}, nil
		}
	}
	hooks.OnCacheMiss(ctx, keyType)

	start := time.Now()
	data, err := render.Render(ctx, g, opts.Format, opts.renderOpts())
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("rendered diagram",
		"format", opts.Format,
		"bytes", len(data),
		"duration", time.Since(start))

	if err := r.Cache.Set(ctx, key, data, cache.DefaultTTL); err != nil {
		r.Logger.Warn("cache write failed", "error", err)
	} else {
		hooks.OnCacheSet(ctx, keyType, len(data))
	}
	return &Diagram{Format: opts.Format, Data: data}, nil
}

// =============================================================================
// Library
// =============================================================================

// Scripts lists the saved scripts.
func (r *Runner) Scripts(ctx context.Context) ([]library.Summary, error) {
	if r.Library == nil {
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "no script library configured")
	}
	start := time.Now()
	list, err := r.Library.List(ctx)
	observability.Library().OnLibraryOp(ctx, OpList, time.Since(start), err)
	if err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeStoreFailed, err, "list scripts")
	}
	return list, nil
}

// Script returns a saved script. A missing name is SCRIPT_NOT_FOUND.
func (r *Runner) Script(ctx context.Context, name string) (*library.Entry, error) {
	if r.Library == nil {
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "no script library configured")
	}
	start := time.Now()
	e, err := r.Library.Get(ctx, name)
	observability.Library().OnLibraryOp(ctx, OpGet, time.Since(start), err)
	if err != nil {
		return nil, libraryError(err, "get %q", name)
	}
	return e, nil
}

// DeleteScript removes a saved script. A missing name is SCRIPT_NOT_FOUND.
func (r *Runner) DeleteScript(ctx context.Context, name string) error {
	if r.Library == nil {
		return ferrors.New(ferrors.ErrCodeUnsupported, "no script library configured")
	}
	start := time.Now()
	err := r.Library.Delete(ctx, name)
	observability.Library().OnLibraryOp(ctx, OpDelete, time.Since(start), err)
	if err != nil {
		return libraryError(err, "delete %q", name)
	}
	r.Logger.Info("deleted script", "name", name)
	return nil
}

// Open loads a saved script's flow into s, replacing its graph and script name.
func (r *Runner) Open(ctx context.Context, s *session.Session, name string) error {
	e, err := r.Script(ctx, name)
	if err != nil {
		return err
	}
	if err := s.Import(e.Document); err != nil {
		return err
	}
	s.SetScriptName(e.Name)
	return nil
}

func libraryError(err error, format string, args ...any) error {
	if errors.Is(err, library.ErrNotFound) {
		return ferrors.Wrap(ferrors.ErrCodeScriptNotFound, err, format, args...)
	}
	return ferrors.Wrap(ferrors.ErrCodeStoreFailed, err, format, args...)
}

// Close releases the runner's collaborators.
func (r *Runner) Close() error {
	var errs []error
	if r.Library != nil {
		errs = append(errs, r.Library.Close())
	}
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	return errors.Join(errs...)
}
