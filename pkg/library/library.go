// Package library persists saved scripts.
//
// Saving a flow stores the generated script text together with the flow's
// document, so a script can be re-run as-is or reopened for editing. Entries
// are keyed by script name; saving under an existing name replaces it.
//
// Backends:
//   - [FileStore]: one JSON file per entry, used by the CLI
//   - [RedisStore]: entries as JSON strings plus a name index set
//   - [MongoStore]: one document per entry in the "scripts" collection
package library

import (
	"context"
	"errors"
	"time"

	"github.com/matzehuels/flowscript/pkg/document"
)

// ErrNotFound is returned when no script is saved under a name.
var ErrNotFound = errors.New("script not found")

// Entry is one saved script.
type Entry struct {
	Name     string            `json:"name" bson:"_id"`
	Script   string            `json:"script" bson:"script"`
	Document document.Document `json:"document" bson:"document"`
	SavedAt  time.Time         `json:"saved_at" bson:"saved_at"`
}

// Summary describes an entry without its payload.
type Summary struct {
	Name    string    `json:"name"`
	Nodes   int       `json:"nodes"`
	SavedAt time.Time `json:"saved_at"`
}

// Summarize returns the listing form of e.
func (e *Entry) Summarize() Summary {
	return Summary{Name: e.Name, Nodes: len(e.Document.Nodes), SavedAt: e.SavedAt}
}

// Store persists saved scripts.
type Store interface {
	// Save stores e, replacing any entry with the same name.
	Save(ctx context.Context, e *Entry) error

	// Get returns the entry saved under name, or ErrNotFound.
	Get(ctx context.Context, name string) (*Entry, error)

	// List returns summaries of all entries sorted by name.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes an entry, or returns ErrNotFound.
	Delete(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}
