// Package config loads flowscript settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Defaults ([Default])
//  2. A TOML file, ~/.config/flowscript/config.toml unless a path is given
//  3. Environment variables prefixed FLOWSCRIPT_, optionally read from a .env
//     file in the working directory
//
// Environment names follow the TOML layout: [library] redis_url becomes
// FLOWSCRIPT_LIBRARY_REDIS_URL. The merged result is checked with struct tag
// validation before use.
//
// Example config.toml:
//
//	[generate]
//	headless = true
//
//	[library]
//	backend = "mongo"
//	mongo_uri = "mongodb://localhost:27017"
//
//	[runner]
//	timeout = "5m"
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
)

// AppName names the configuration, data and cache directories.
const AppName = "flowscript"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "flowscript"

// Config is the complete flowscript configuration.
type Config struct {
	Generate GenerateConfig `toml:"generate"`
	Library  LibraryConfig  `toml:"library"`
	Sessions SessionsConfig `toml:"sessions"`
	Runner   RunnerConfig   `toml:"runner"`
	Server   ServerConfig   `toml:"server"`
	Cache    CacheConfig    `toml:"cache"`
}

// GenerateConfig controls script generation.
type GenerateConfig struct {
	Headless       bool `toml:"headless"`
	EscapeLiterals bool `toml:"escape_literals" split_words:"true"`
}

// LibraryConfig selects where saved scripts live.
type LibraryConfig struct {
	Backend       string `toml:"backend" validate:"oneof=file redis mongo"`
	Dir           string `toml:"dir"`
	RedisURL      string `toml:"redis_url" split_words:"true" validate:"required_if=Backend redis,omitempty,url"`
	MongoURI      string `toml:"mongo_uri" split_words:"true" validate:"required_if=Backend mongo,omitempty,url"`
	MongoDatabase string `toml:"mongo_database" split_words:"true" validate:"required_if=Backend mongo"`
}

// SessionsConfig selects where editor sessions live.
type SessionsConfig struct {
	Backend  string        `toml:"backend" validate:"oneof=file memory redis"`
	Dir      string        `toml:"dir"`
	RedisURL string        `toml:"redis_url" split_words:"true" validate:"required_if=Backend redis,omitempty,url"`
	TTL      time.Duration `toml:"ttl" validate:"gte=0"`
}

// RunnerConfig selects how scripts are executed.
type RunnerConfig struct {
	Backend    string        `toml:"backend" validate:"oneof=node dry"`
	NodeBinary string        `toml:"node_binary" split_words:"true" validate:"required_if=Backend node"`
	WorkDir    string        `toml:"work_dir" split_words:"true"`
	Timeout    time.Duration `toml:"timeout" validate:"gte=0"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `toml:"addr" validate:"required,hostname_port"`
}

// CacheConfig configures the diagram cache. A RedisURL selects a shared
// cache; otherwise files under Dir are used.
type CacheConfig struct {
	Disabled bool   `toml:"disabled"`
	Dir      string `toml:"dir"`
	RedisURL string `toml:"redis_url" split_words:"true" validate:"omitempty,url"`
}

// Default returns the built-in configuration: file-backed library and
// sessions, the node executor and a file cache.
func Default() *Config {
	return &Config{
		Library:  LibraryConfig{Backend: "file", MongoDatabase: AppName},
		Sessions: SessionsConfig{Backend: "file", TTL: 7 * 24 * time.Hour},
		Runner:   RunnerConfig{Backend: "node", NodeBinary: "node", Timeout: 2 * time.Minute},
		Server:   ServerConfig{Addr: ":8080"},
	}
}

var validate = validator.New()

// Validate checks the configuration's struct tags.
func (c *Config) Validate() error {
	return formatValidationError(validate.Struct(c))
}

// formatValidationError reports the first failing field in TOML terms.
func formatValidationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "invalid configuration")
	}
	e := verrs[0]
	return ferrors.New(ferrors.ErrCodeInvalidInput, "invalid configuration: %s failed %q (value %v)", e.Namespace(), e.Tag(), e.Value())
}

// Dir returns the configuration directory, ~/.config/flowscript, honoring
// XDG_CONFIG_HOME.
func Dir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName), nil
}

// CacheDir returns the diagram cache directory, ~/.cache/flowscript,
// honoring XDG_CACHE_HOME.
func CacheDir() (string, error) {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

// DefaultPath returns the location of config.toml inside [Dir].
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the configuration. An empty path uses [DefaultPath], which may
// be absent; an explicit path must exist. A .env file in the working
// directory is loaded before environment overrides are applied; variables
// already set in the environment are not replaced.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.loadFile(path, explicit); err != nil {
			return nil, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return nil
}

// Write stores c as TOML at path, creating parent directories.
func (c *Config) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := toml.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}
