package server

import (
	"time"

	"github.com/matzehuels/flowscript/pkg/document"
	"github.com/matzehuels/flowscript/pkg/flow"
	"github.com/matzehuels/flowscript/pkg/session"
)

type createSessionRequest struct {
	ScriptName string             `json:"script_name" validate:"max=256"`
	Document   *document.Document `json:"document,omitempty"`
}

type renameRequest struct {
	ScriptName string `json:"script_name" validate:"max=256"`
}

type addNodeRequest struct {
	Type     string        `json:"type" validate:"required"`
	Position flow.Position `json:"position"`
	Data     document.Data `json:"data"`
}

// updateNodeRequest is a partial update; nil fields are left unchanged.
type updateNodeRequest struct {
	Data     *nodeDataPatch `json:"data,omitempty"`
	Position *flow.Position `json:"position,omitempty"`
}

// nodeDataPatch mirrors document.Data with optional fields. A field sent as
// "" or 0 clears the parameter; an absent or null field keeps it.
type nodeDataPatch struct {
	Label       *string `json:"label,omitempty"`
	URL         *string `json:"url,omitempty"`
	Selector    *string `json:"selector,omitempty"`
	Value       *string `json:"value,omitempty"`
	Code        *string `json:"code,omitempty"`
	ElementType *string `json:"elementType,omitempty"`
	Wait        *int    `json:"wait,omitempty"`
	Timeout     *int    `json:"timeout,omitempty"`
}

func (d nodeDataPatch) params() flow.ParamsPatch {
	patch := flow.ParamsPatch{
		URL:           d.URL,
		Selector:      d.Selector,
		Value:         d.Value,
		Code:          d.Code,
		WaitMillis:    d.Wait,
		TimeoutMillis: d.Timeout,
	}
	if d.ElementType != nil {
		mode := flow.WaitMode(*d.ElementType)
		patch.WaitMode = &mode
	}
	return patch
}

type connectRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// compileRequest carries an optional headless preference for save and run.
type compileRequest struct {
	Headless *bool `json:"headless,omitempty"`
}

type generateRequest struct {
	Document document.Document `json:"document"`
	Headless bool              `json:"headless"`
}

type openRequest struct {
	Name string `json:"name" validate:"required,max=256"`
}

type sessionResponse struct {
	ID         string            `json:"id"`
	ScriptName string            `json:"script_name"`
	UpdatedAt  time.Time         `json:"updated_at"`
	Document   document.Document `json:"document"`
}

func newSessionResponse(s *session.Session) sessionResponse {
	r := s.Record()
	return sessionResponse{
		ID:         r.ID,
		ScriptName: r.ScriptName,
		UpdatedAt:  r.UpdatedAt,
		Document:   r.Document,
	}
}

type scriptResponse struct {
	Script   string `json:"script"`
	Headless bool   `json:"headless"`
}

type kindResponse struct {
	Kind        flow.Kind `json:"kind"`
	Label       string    `json:"label"`
	Color       string    `json:"color"`
	Description string    `json:"description"`
}

func kindCatalog() []kindResponse {
	kinds := flow.Kinds()
	out := make([]kindResponse, len(kinds))
	for i, k := range kinds {
		out[i] = kindResponse{
			Kind:        k,
			Label:       flow.DefaultLabel(k),
			Color:       flow.Color(k),
			Description: flow.Description(k),
		}
	}
	return out
}
