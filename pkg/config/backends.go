package config

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscript/pkg/cache"
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/library"
	"github.com/matzehuels/flowscript/pkg/pipeline"
	"github.com/matzehuels/flowscript/pkg/runner"
	"github.com/matzehuels/flowscript/pkg/session"
)

// =============================================================================
// Backend Factories
// =============================================================================

// OpenLibrary connects the configured script library.
func (c *Config) OpenLibrary(ctx context.Context) (library.Store, error) {
	switch c.Library.Backend {
	case "", "file":
		return library.NewFileStore(c.Library.Dir)
	case "redis":
		return library.NewRedisStore(ctx, c.Library.RedisURL)
	case "mongo":
		return library.NewMongoStore(ctx, c.Library.MongoURI, c.Library.MongoDatabase)
	default:
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "unknown library backend %q", c.Library.Backend)
	}
}

// OpenSessions connects the configured session store.
func (c *Config) OpenSessions(ctx context.Context) (session.Store, error) {
	switch c.Sessions.Backend {
	case "", "file":
		return session.NewFileStore(c.Sessions.Dir)
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		return session.NewRedisStore(ctx, c.Sessions.RedisURL, c.Sessions.TTL)
	default:
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "unknown session backend %q", c.Sessions.Backend)
	}
}

// NewExecutor returns the configured script executor.
func (c *Config) NewExecutor() (runner.Executor, error) {
	switch c.Runner.Backend {
	case "", "node":
		return &runner.NodeExecutor{
			Binary:  c.Runner.NodeBinary,
			WorkDir: c.Runner.WorkDir,
			Timeout: c.Runner.Timeout,
		}, nil
	case "dry":
		return &runner.DryExecutor{}, nil
	default:
		return nil, ferrors.New(ferrors.ErrCodeUnsupported, "unknown runner backend %q", c.Runner.Backend)
	}
}

// OpenCache returns the diagram cache: disabled, shared redis, or files
// under Dir (default ~/.cache/flowscript). A file cache that cannot be
// created degrades to no caching.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	if c.Cache.Disabled {
		return cache.NewNullCache(), nil
	}
	if c.Cache.RedisURL != "" {
		return cache.NewRedisCache(ctx, c.Cache.RedisURL)
	}
	dir := c.Cache.Dir
	if dir == "" {
		d, err := CacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return fc, nil
}

// NewRunner opens the library, executor and cache and combines them into a
// pipeline runner. Resources opened before a failure are closed.
func (c *Config) NewRunner(ctx context.Context, logger *log.Logger) (*pipeline.Runner, error) {
	lib, err := c.OpenLibrary(ctx)
	if err != nil {
		return nil, fmt.Errorf("open library: %w", err)
	}
	exec, err := c.NewExecutor()
	if err != nil {
		lib.Close()
		return nil, err
	}
	dc, err := c.OpenCache(ctx)
	if err != nil {
		lib.Close()
		return nil, fmt.Errorf("open cache: %w", err)
	}

	r := pipeline.NewRunner(lib, exec, dc, logger)
	r.EscapeLiterals = c.Generate.EscapeLiterals
	r.RunTimeout = c.Runner.Timeout
	return r, nil
}
