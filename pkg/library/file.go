package library

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/matzehuels/flowscript/pkg/cache"
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
)

// FileStore keeps each entry in <dir>/<sanitized-name>-<hash>.json. The hash
// covers the exact name, so names are case and whitespace sensitive like the
// redis and mongo stores.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

// NewFileStore creates a file-based library.
// If dir is empty, defaults to ~/.config/flowscript/library/
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		dir = filepath.Join(home, ".config", "flowscript", "library")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create library dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, ferrors.SanitizeFilename(name)+"-"+cache.Hash([]byte(name))[:8]+".json")
}

func (s *FileStore) Save(ctx context.Context, e *Entry) error {
	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.path(e.Name), data, 0644); err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

func (s *FileStore) Get(ctx context.Context, name string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, err := readEntry(s.path(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e, err
}

func (s *FileStore) List(ctx context.Context) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read library dir: %w", err)
	}

	out := []Summary{}
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		e, err := readEntry(filepath.Join(s.dir, f.Name()))
		if err != nil {
			continue
		}
		out = append(out, e.Summarize())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *FileStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(name))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	if err != nil {
		return fmt.Errorf("remove entry: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// Dir returns the library directory.
func (s *FileStore) Dir() string { return s.dir }

func readEntry(path string) (*Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &e, nil
}

var _ Store = (*FileStore)(nil)
