// Package pipeline ties the flowscript compiler to its collaborators.
//
// The CLI and the HTTP server drive the same operations through a [Runner]:
// compile a session's flow, save it to the script library, hand it to an
// executor, export or import its document, and render a diagram. Keeping
// these steps here gives both entry points identical error behavior and
// caching.
//
// # Usage
//
//	r := pipeline.NewRunner(lib, &runner.NodeExecutor{}, cache.NewNullCache(), logger)
//	s := session.New("checkout")
//	// ... edit s ...
//	script, err := r.Generate(ctx, s, true)
//	entry, err := r.Save(ctx, s, true)
//	result, err := r.Run(ctx, s, false)
//
// # Failure
//
// Compilation errors (MISSING_START_NODE) are detected before any
// collaborator is called. Collaborator failures are wrapped with context and
// relayed; no operation other than [Runner.Import] ever modifies the session,
// and Import does so only after the document validated.
package pipeline

import (
	"strings"

	"github.com/matzehuels/flowscript/pkg/document"
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/render"
)

// Library operation names reported to observability hooks.
const (
	OpSave   = "save"
	OpGet    = "get"
	OpList   = "list"
	OpDelete = "delete"
)

// DefaultDiagramFormat is used when RenderOptions.Format is empty.
const DefaultDiagramFormat = render.FormatSVG

// ValidDirections is the set of supported diagram directions.
var ValidDirections = map[string]bool{
	"TB": true,
	"LR": true,
}

// =============================================================================
// Options - Diagram Configuration
// =============================================================================

// RenderOptions configures [Runner.Render]. It supports JSON for API requests.
type RenderOptions struct {
	Format    render.Format `json:"format,omitempty"`
	Direction string        `json:"direction,omitempty"`
	Detailed  bool          `json:"detailed,omitempty"`
	Refresh   bool          `json:"refresh,omitempty"` // Bypass the cache read.
}

// ValidateAndSetDefaults normalizes the options in place.
func (o *RenderOptions) ValidateAndSetDefaults() error {
	f, err := render.ParseFormat(string(o.Format))
	if err != nil {
		return err
	}
	o.Format = f

	o.Direction = strings.ToUpper(o.Direction)
	if o.Direction == "" {
		o.Direction = "TB"
	}
	if !ValidDirections[o.Direction] {
		return ferrors.New(ferrors.ErrCodeInvalidInput, "invalid direction %q (use TB or LR)", o.Direction)
	}
	return nil
}

func (o RenderOptions) renderOpts() render.Options {
	return render.Options{Direction: o.Direction, Detailed: o.Detailed}
}

// =============================================================================
// Results
// =============================================================================

// Export is a serialized flow ready to be written or downloaded.
type Export struct {
	Filename string
	Format   document.Format
	Data     []byte
}

// Diagram is a rendered flow diagram.
type Diagram struct {
	Format   render.Format
	Data     []byte
	CacheHit bool
}

// ContentType returns the MIME type of the diagram.
func (d *Diagram) ContentType() string { return d.Format.ContentType() }
