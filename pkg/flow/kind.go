package flow

import (
	"strings"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
)

// Kind identifies the action a node performs.
type Kind string

// Node kinds, in catalog order.
const (
	KindStart      Kind = "start"
	KindNavigate   Kind = "navigate"
	KindClick      Kind = "click"
	KindType       Kind = "type"
	KindSelect     Kind = "select"
	KindWait       Kind = "wait"
	KindScreenshot Kind = "screenshot"
	KindExtract    Kind = "extract"
	KindCondition  Kind = "condition"
	KindCode       Kind = "code"
	KindEnd        Kind = "end"
)

// kinds is the closed catalog. Order matters for listings.
var kinds = []Kind{
	KindStart,
	KindNavigate,
	KindClick,
	KindType,
	KindSelect,
	KindWait,
	KindScreenshot,
	KindExtract,
	KindCondition,
	KindCode,
	KindEnd,
}

// Kinds returns every supported kind in catalog order.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Valid reports whether k is part of the catalog.
func (k Kind) Valid() bool {
	_, ok := catalog[k]
	return ok
}

func (k Kind) String() string { return string(k) }

// ParseKind converts a string to a Kind, rejecting unknown values.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ferrors.New(ferrors.ErrCodeInvalidKind, "unknown node kind %q", s)
	}
	return k, nil
}

// =============================================================================
// Catalog - presentation metadata
// =============================================================================

type kindInfo struct {
	color       string
	description string
}

var catalog = map[Kind]kindInfo{
	KindStart:      {"#4CAF50", "Start the Selenium script"},
	KindNavigate:   {"#2196F3", "Navigate to a URL"},
	KindClick:      {"#FF9800", "Click on an element"},
	KindType:       {"#9C27B0", "Type text into an input"},
	KindSelect:     {"#00BCD4", "Select from a dropdown"},
	KindWait:       {"#607D8B", "Wait for an element or time"},
	KindScreenshot: {"#E91E63", "Take a screenshot"},
	KindExtract:    {"#673AB7", "Extract data from the page"},
	KindCondition:  {"#FF5722", "Conditional branching"},
	KindCode:       {"#795548", "Custom JavaScript code"},
	KindEnd:        {"#F44336", "End the Selenium script"},
}

// Color returns the editor color for k as a "#RRGGBB" string.
func Color(k Kind) string {
	return catalog[k].color
}

// Description returns the one-line palette description for k.
func Description(k Kind) string {
	return catalog[k].description
}

// DefaultLabel returns the label given to a freshly dropped node ("Navigate").
func DefaultLabel(k Kind) string {
	s := string(k)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
