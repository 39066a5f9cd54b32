package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/flowscript/pkg/buildinfo"
	"github.com/matzehuels/flowscript/pkg/document"
	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/flow"
	"github.com/matzehuels/flowscript/pkg/library"
	"github.com/matzehuels/flowscript/pkg/pipeline"
	"github.com/matzehuels/flowscript/pkg/render"
	"github.com/matzehuels/flowscript/pkg/runner"
	"github.com/matzehuels/flowscript/pkg/session"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, kindCatalog())
}

// handleGenerate compiles a posted document without creating a session.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondError(w, err)
		return
	}
	g, err := document.Import(req.Document)
	if err != nil {
		s.respondError(w, err)
		return
	}
	text, err := s.runner.Compile(r.Context(), g, req.Headless)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, scriptResponse{Script: text, Headless: req.Headless})
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.respondError(w, err)
		return
	}

	sess := session.New(req.ScriptName)
	if req.Document != nil {
		if err := sess.Import(*req.Document); err != nil {
			s.respondError(w, err)
			return
		}
	}
	if err := session.Save(r.Context(), s.sessions, sess); err != nil {
		s.respondError(w, ferrors.Wrap(ferrors.ErrCodeStoreFailed, err, "store session"))
		return
	}
	s.logger.Info("created session", "id", sess.ID())
	s.respondJSON(w, http.StatusCreated, newSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	var resp sessionResponse
	err := s.withSession(r.Context(), chi.URLParam(r, "id"), false, func(sess *session.Session) error {
		resp = newSessionResponse(sess)
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	unlock := s.lock(id)
	defer unlock()

	if err := ferrors.ValidateNodeID(id); err != nil {
		s.respondError(w, err)
		return
	}
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		s.respondError(w, ferrors.Wrap(ferrors.ErrCodeStoreFailed, err, "delete session %q", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondError(w, err)
		return
	}
	s.editSession(w, r, func(sess *session.Session) error {
		sess.SetScriptName(req.ScriptName)
		return nil
	})
}

// editSession applies fn and responds with the updated session.
func (s *Server) editSession(w http.ResponseWriter, r *http.Request, fn func(*session.Session) error) {
	var resp sessionResponse
	err := s.withSession(r.Context(), chi.URLParam(r, "id"), true, func(sess *session.Session) error {
		if err := fn(sess); err != nil {
			return err
		}
		resp = newSessionResponse(sess)
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// =============================================================================
// Graph edits
// =============================================================================

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondError(w, err)
		return
	}
	kind, err := flow.ParseKind(req.Type)
	if err != nil {
		s.respondError(w, err)
		return
	}

	var node flow.Node
	err = s.withSession(r.Context(), chi.URLParam(r, "id"), true, func(sess *session.Session) error {
		n, err := sess.AddNode(kind, req.Position, req.Data.Params())
		if err != nil {
			return err
		}
		if req.Data.Label != "" {
			if err := sess.SetLabel(n.ID, req.Data.Label); err != nil {
				return err
			}
			n.Label = req.Data.Label
		}
		node = n
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, nodeResponse(node))
}

// handleUpdateNode routes a parameter change through the node's bound change
// handler, the same path the editor's forms use.
func (s *Server) handleUpdateNode(w http.ResponseWriter, r *http.Request) {
	var req updateNodeRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondError(w, err)
		return
	}
	nodeID := chi.URLParam(r, "nodeID")

	var node flow.Node
	err := s.withSession(r.Context(), chi.URLParam(r, "id"), true, func(sess *session.Session) error {
		onChange, ok := sess.Handler(nodeID)
		if !ok {
			return ferrors.New(ferrors.ErrCodeUnknownNode, "no node %q", nodeID)
		}
		if req.Data != nil {
			if patch := req.Data.params(); !patch.IsEmpty() {
				if _, err := onChange(patch); err != nil {
					return err
				}
			}
			if req.Data.Label != nil {
				if err := sess.SetLabel(nodeID, *req.Data.Label); err != nil {
					return err
				}
			}
		}
		if req.Position != nil {
			if err := sess.MoveNode(nodeID, *req.Position); err != nil {
				return err
			}
		}
		node, _ = sess.Graph().Node(nodeID)
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, nodeResponse(node))
}

func (s *Server) handleRemoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := chi.URLParam(r, "nodeID")
	s.editSession(w, r, func(sess *session.Session) error {
		return sess.RemoveNode(nodeID)
	})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondError(w, err)
		return
	}

	var edge flow.Edge
	err := s.withSession(r.Context(), chi.URLParam(r, "id"), true, func(sess *session.Session) error {
		e, err := sess.Connect(req.Source, req.Target)
		edge = e
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, document.Edge{ID: edge.ID, Source: edge.Source, Target: edge.Target})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	edgeID := chi.URLParam(r, "edgeID")
	s.editSession(w, r, func(sess *session.Session) error {
		return sess.Disconnect(edgeID)
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.editSession(w, r, func(sess *session.Session) error {
		sess.Clear()
		return nil
	})
}

func nodeResponse(n flow.Node) document.Node {
	return document.Node{
		ID:       n.ID,
		Type:     string(n.Kind),
		Position: n.Position,
		Data:     document.DataOf(n),
	}
}

// =============================================================================
// Compile, save, run
// =============================================================================

// handleScript previews the generated script. The headless query parameter
// overrides the server default.
func (s *Server) handleScript(w http.ResponseWriter, r *http.Request) {
	headless, err := queryBool(r, "headless", s.headless)
	if err != nil {
		s.respondError(w, err)
		return
	}

	var text string
	err = s.withSession(r.Context(), chi.URLParam(r, "id"), false, func(sess *session.Session) error {
		var err error
		text, err = s.runner.Generate(r.Context(), sess, headless)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	if r.URL.Query().Get("raw") == "true" {
		s.respondText(w, "text/javascript; charset=utf-8", []byte(text))
		return
	}
	s.respondJSON(w, http.StatusOK, scriptResponse{Script: text, Headless: headless})
}

func (s *Server) handleDiagram(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := pipeline.RenderOptions{
		Format:    render.Format(q.Get("format")),
		Direction: q.Get("direction"),
		Detailed:  q.Get("detailed") == "true",
	}

	var d *pipeline.Diagram
	err := s.withSession(r.Context(), chi.URLParam(r, "id"), false, func(sess *session.Session) error {
		var err error
		d, err = s.runner.Render(r.Context(), sess, opts)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondText(w, d.ContentType(), d.Data)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.respondError(w, err)
		return
	}
	headless := s.headless
	if req.Headless != nil {
		headless = *req.Headless
	}

	var summary any
	err := s.withSession(r.Context(), chi.URLParam(r, "id"), false, func(sess *session.Session) error {
		e, err := s.runner.Save(r.Context(), sess, headless)
		if err != nil {
			return err
		}
		summary = e.Summarize()
		return nil
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, summary)
}

// handleRun executes the session's script. Runs are visible unless the
// request asks for headless, matching the editor's run button.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req compileRequest
	if err := decodeJSON(r, &req, true); err != nil {
		s.respondError(w, err)
		return
	}
	headless := req.Headless != nil && *req.Headless

	var res *runner.Result
	err := s.withSession(r.Context(), chi.URLParam(r, "id"), false, func(sess *session.Session) error {
		var err error
		res, err = s.runner.Run(r.Context(), sess, headless)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

// =============================================================================
// Export, import, open
// =============================================================================

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := document.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	var exp *pipeline.Export
	err = s.withSession(r.Context(), chi.URLParam(r, "id"), false, func(sess *session.Session) error {
		var err error
		exp, err = s.runner.Export(sess, format)
		return err
	})
	if err != nil {
		s.respondError(w, err)
		return
	}

	contentType := "application/json"
	if format == document.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.Filename))
	s.respondText(w, contentType, exp.Data)
}

// handleImport replaces the session's flow with the posted document. An
// invalid document leaves the stored session unchanged.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.editSession(w, r, func(sess *session.Session) error {
		return s.runner.Import(sess, data)
	})
}

// handleOpen loads a saved script's flow into the session.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := decodeJSON(r, &req, false); err != nil {
		s.respondError(w, err)
		return
	}
	s.editSession(w, r, func(sess *session.Session) error {
		return s.runner.Open(r.Context(), sess, req.Name)
	})
}

// =============================================================================
// Library
// =============================================================================

func (s *Server) handleListScripts(w http.ResponseWriter, r *http.Request) {
	list, err := s.runner.Scripts(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	if list == nil {
		list = []library.Summary{}
	}
	s.respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetScript(w http.ResponseWriter, r *http.Request) {
	e, err := s.runner.Script(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteScript(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.DeleteScript(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func queryBool(r *http.Request, key string, def bool) (bool, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, ferrors.New(ferrors.ErrCodeInvalidInput, "%s: not a boolean: %q", key, v)
	}
	return b, nil
}
