package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowscript/pkg/cache"
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/runner"
	"github.com/matzehuels/flowscript/pkg/session"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default().Validate() = %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Library.Backend != "file" || cfg.Runner.Timeout != 2*time.Minute {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadExplicitMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("Load(absent) error = %v, want INVALID_INPUT", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
[generate]
headless = true
escape_literals = true

[library]
backend = "mongo"
mongo_uri = "mongodb://localhost:27017"

[runner]
backend = "dry"
timeout = "30s"

[server]
addr = "127.0.0.1:9000"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.Generate.Headless || !cfg.Generate.EscapeLiterals {
		t.Errorf("Generate = %+v", cfg.Generate)
	}
	if cfg.Library.Backend != "mongo" || cfg.Library.MongoDatabase != AppName {
		t.Errorf("Library = %+v", cfg.Library)
	}
	if cfg.Runner.Backend != "dry" || cfg.Runner.Timeout != 30*time.Second {
		t.Errorf("Runner = %+v", cfg.Runner)
	}
	if cfg.Server.Addr != "127.0.0.1:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Sessions.Backend != "file" {
		t.Errorf("Sessions.Backend = %q, want default file", cfg.Sessions.Backend)
	}
}

func TestLoadUnknownKey(t *testing.T) {
	path := writeFile(t, "[library]\nbakend = \"file\"\n")
	_, err := Load(path)
	if !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
		t.Errorf("Load error = %v, want INVALID_INPUT", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	path := writeFile(t, "[runner]\ntimeout = \"30s\"\n")
	t.Setenv("FLOWSCRIPT_RUNNER_TIMEOUT", "90s")
	t.Setenv("FLOWSCRIPT_SESSIONS_BACKEND", "memory")
	t.Setenv("FLOWSCRIPT_GENERATE_HEADLESS", "true")
	t.Setenv("FLOWSCRIPT_LIBRARY_REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("FLOWSCRIPT_LIBRARY_BACKEND", "redis")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Runner.Timeout != 90*time.Second {
		t.Errorf("Runner.Timeout = %v, want 90s", cfg.Runner.Timeout)
	}
	if cfg.Sessions.Backend != "memory" {
		t.Errorf("Sessions.Backend = %q, want memory", cfg.Sessions.Backend)
	}
	if !cfg.Generate.Headless {
		t.Error("Generate.Headless = false, want true")
	}
	if cfg.Library.Backend != "redis" || cfg.Library.RedisURL != "redis://localhost:6379/0" {
		t.Errorf("Library = %+v", cfg.Library)
	}
}

func TestEnvOverrideInvalid(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("FLOWSCRIPT_RUNNER_TIMEOUT", "soon")
	if _, err := Load(""); err == nil {
		t.Error("Load with malformed duration should fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"unknown library backend", func(c *Config) { c.Library.Backend = "s3" }, true},
		{"redis library without url", func(c *Config) { c.Library.Backend = "redis" }, true},
		{"redis library", func(c *Config) {
			c.Library.Backend = "redis"
			c.Library.RedisURL = "redis://localhost:6379"
		}, false},
		{"mongo without uri", func(c *Config) { c.Library.Backend = "mongo" }, true},
		{"mongo without database", func(c *Config) {
			c.Library.Backend = "mongo"
			c.Library.MongoURI = "mongodb://localhost"
			c.Library.MongoDatabase = ""
		}, true},
		{"unknown session backend", func(c *Config) { c.Sessions.Backend = "sqlite" }, true},
		{"negative ttl", func(c *Config) { c.Sessions.TTL = -time.Second }, true},
		{"unknown runner", func(c *Config) { c.Runner.Backend = "docker" }, true},
		{"node without binary", func(c *Config) { c.Runner.NodeBinary = "" }, true},
		{"dry without binary", func(c *Config) {
			c.Runner.Backend = "dry"
			c.Runner.NodeBinary = ""
		}, false},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"addr without port", func(c *Config) { c.Server.Addr = "localhost" }, true},
		{"bad cache url", func(c *Config) { c.Cache.RedisURL = "not a url" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !ferrors.Is(err, ferrors.ErrCodeInvalidInput) {
				t.Errorf("Validate() code = %s, want INVALID_INPUT", ferrors.GetCode(err))
			}
		})
	}
}

func TestWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Generate.Headless = true
	cfg.Runner.Timeout = 45 * time.Second
	cfg.Library.Dir = "/srv/scripts"

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := cfg.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *got != *cfg {
		t.Errorf("Load(Write(cfg)) = %+v, want %+v", got, cfg)
	}
}

func TestDirs(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")

	if d, _ := Dir(); d != "/xdg/config/flowscript" {
		t.Errorf("Dir() = %q", d)
	}
	if d, _ := CacheDir(); d != "/xdg/cache/flowscript" {
		t.Errorf("CacheDir() = %q", d)
	}
	if p, _ := DefaultPath(); p != "/xdg/config/flowscript/config.toml" {
		t.Errorf("DefaultPath() = %q", p)
	}
}

func TestFactories(t *testing.T) {
	ctx := context.Background()
	cfg := Default()
	cfg.Library.Dir = t.TempDir()
	cfg.Sessions.Backend = "memory"
	cfg.Runner.Backend = "dry"
	cfg.Cache.Dir = t.TempDir()

	sessions, err := cfg.OpenSessions(ctx)
	if err != nil {
		t.Fatalf("OpenSessions: %v", err)
	}
	if _, ok := sessions.(*session.MemoryStore); !ok {
		t.Errorf("OpenSessions() = %T, want *session.MemoryStore", sessions)
	}

	exec, err := cfg.NewExecutor()
	if err != nil {
		t.Fatalf("NewExecutor: %v", err)
	}
	if _, ok := exec.(*runner.DryExecutor); !ok {
		t.Errorf("NewExecutor() = %T, want *runner.DryExecutor", exec)
	}

	c, err := cfg.OpenCache(ctx)
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	if _, ok := c.(*cache.FileCache); !ok {
		t.Errorf("OpenCache() = %T, want *cache.FileCache", c)
	}

	cfg.Cache.Disabled = true
	c, _ = cfg.OpenCache(ctx)
	if _, ok := c.(*cache.NullCache); !ok {
		t.Errorf("disabled OpenCache() = %T, want *cache.NullCache", c)
	}

	r, err := cfg.NewRunner(ctx, log.New(io.Discard))
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	defer r.Close()
	if r.RunTimeout != cfg.Runner.Timeout {
		t.Errorf("RunTimeout = %v, want %v", r.RunTimeout, cfg.Runner.Timeout)
	}
}

func TestUnknownBackend(t *testing.T) {
	cfg := Default()
	cfg.Runner.Backend = "docker"
	if _, err := cfg.NewExecutor(); !ferrors.Is(err, ferrors.ErrCodeUnsupported) {
		t.Errorf("NewExecutor error = %v, want UNSUPPORTED", err)
	}
}
