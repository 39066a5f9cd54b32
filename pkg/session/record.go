package session

import (
	"context"
	"time"

	"github.com/matzehuels/flowscript/pkg/document"
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
)

// Record is the persisted form of a session.
type Record struct {
	ID         string            `json:"id"`
	ScriptName string            `json:"script_name"`
	Document   document.Document `json:"document"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Record snapshots the session.
func (s *Session) Record() *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Record{
		ID:         s.id,
		ScriptName: s.scriptName,
		Document:   document.Export(s.graph),
		UpdatedAt:  s.updatedAt,
	}
}

// FromRecord restores a session, validating the stored document and binding
// a handler to every node.
func FromRecord(r *Record) (*Session, error) {
	if err := ferrors.ValidateNodeID(r.ID); err != nil {
		return nil, err
	}
	g, err := document.Import(r.Document)
	if err != nil {
		return nil, err
	}

	s := &Session{id: r.ID, scriptName: r.ScriptName}
	s.reset(g)
	if !r.UpdatedAt.IsZero() {
		s.updatedAt = r.UpdatedAt
	}
	return s, nil
}

// NewWithID creates a fresh session under a caller-chosen id, as the CLI does
// for named sessions.
func NewWithID(id, scriptName string) (*Session, error) {
	if err := ferrors.ValidateNodeID(id); err != nil {
		return nil, err
	}
	s := New(scriptName)
	s.id = id
	return s, nil
}

// Store persists session records.
type Store interface {
	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)

	// Set stores a record under its ID.
	Set(ctx context.Context, r *Record) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the ids of all stored sessions, sorted.
	List(ctx context.Context) ([]string, error)

	// Close releases backend resources.
	Close() error
}

// Load fetches and restores a session from store.
func Load(ctx context.Context, store Store, id string) (*Session, error) {
	r, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromRecord(r)
}

// Save snapshots s into store.
func Save(ctx context.Context, store Store, s *Session) error {
	return store.Set(ctx, s.Record())
}
