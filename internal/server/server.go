// Package server exposes flowscript over HTTP.
//
// Sessions are kept in a [session.Store] and addressed by id. Each request
// loads the session, applies one operation and stores it again while holding
// a per-session lock, so concurrent requests to one session are serialized
// and no two sessions share a graph.
//
// Routes:
//
//	GET    /healthz
//	GET    /metrics
//	GET    /api/kinds
//	POST   /api/generate
//	POST   /api/sessions
//	GET    /api/sessions/{id}
//	DELETE /api/sessions/{id}
//	PUT    /api/sessions/{id}/name
//	POST   /api/sessions/{id}/nodes
//	PATCH  /api/sessions/{id}/nodes/{nodeID}
//	DELETE /api/sessions/{id}/nodes/{nodeID}
//	POST   /api/sessions/{id}/edges
//	DELETE /api/sessions/{id}/edges/{edgeID}
//	POST   /api/sessions/{id}/clear
//	GET    /api/sessions/{id}/script?headless=true
//	GET    /api/sessions/{id}/diagram?format=svg&direction=LR
//	POST   /api/sessions/{id}/save
//	POST   /api/sessions/{id}/run
//	GET    /api/sessions/{id}/export?format=json
//	POST   /api/sessions/{id}/import
//	POST   /api/sessions/{id}/open
//	GET    /api/scripts
//	GET    /api/scripts/{name}
//	DELETE /api/scripts/{name}
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	ferrors "github.com/matzehuels/flowscript/pkg/errors"
	"github.com/matzehuels/flowscript/pkg/pipeline"
	"github.com/matzehuels/flowscript/pkg/session"
)

// Options configures a Server.
type Options struct {
	Runner   *pipeline.Runner
	Sessions session.Store
	Logger   *log.Logger

	// Registry receives the server's metrics. Nil creates a private registry.
	Registry *prometheus.Registry

	// Headless is the default preference for script preview and save.
	// Runs default to a visible browser unless the request says otherwise.
	Headless bool
}

// Server is the flowscript HTTP API.
type Server struct {
	runner   *pipeline.Runner
	sessions session.Store
	logger   *log.Logger
	metrics  *Metrics
	headless bool
	router   chi.Router

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// sessionLock is a per-session mutex shared by the requests currently
// naming that session. It leaves the map when the last one releases it.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// New builds a server and registers its metrics as the global
// observability hooks.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		runner:   opts.Runner,
		sessions: opts.Sessions,
		logger:   logger,
		metrics:  NewMetrics(opts.Registry),
		headless: opts.Headless,
		locks:    make(map[string]*sessionLock),
	}
	s.metrics.Register()
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(s.metrics.middleware)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/kinds", s.handleKinds)
		r.Post("/generate", s.handleGenerate)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Put("/name", s.handleRename)
				r.Post("/nodes", s.handleAddNode)
				r.Patch("/nodes/{nodeID}", s.handleUpdateNode)
				r.Delete("/nodes/{nodeID}", s.handleRemoveNode)
				r.Post("/edges", s.handleConnect)
				r.Delete("/edges/{edgeID}", s.handleDisconnect)
				r.Post("/clear", s.handleClear)
				r.Get("/script", s.handleScript)
				r.Get("/diagram", s.handleDiagram)
				r.Post("/save", s.handleSave)
				r.Post("/run", s.handleRun)
				r.Get("/export", s.handleExport)
				r.Post("/import", s.handleImport)
				r.Post("/open", s.handleOpen)
			})
		})

		r.Route("/scripts", func(r chi.Router) {
			r.Get("/", s.handleListScripts)
			r.Get("/{name}", s.handleGetScript)
			r.Delete("/{name}", s.handleDeleteScript)
		})
	})

	return r
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// =============================================================================
// Session access
// =============================================================================

// lock serializes access to one session id.
func (s *Server) lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		s.locksMu.Lock()
		if l.refs--; l.refs == 0 {
			delete(s.locks, id)
		}
		s.locksMu.Unlock()
	}
}

// withSession loads session id, calls fn and, when persist is set and fn
// succeeded, stores the session again.
func (s *Server) withSession(ctx context.Context, id string, persist bool, fn func(*session.Session) error) error {
	unlock := s.lock(id)
	defer unlock()

	sess, err := session.Load(ctx, s.sessions, id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ferrors.Wrap(ferrors.ErrCodeSessionNotFound, err, "session %q", id)
		}
		if ferrors.GetCode(err) != "" {
			return err
		}
		return ferrors.Wrap(ferrors.ErrCodeStoreFailed, err, "load session %q", id)
	}

	if err := fn(sess); err != nil {
		return err
	}
	if !persist {
		return nil
	}
	if err := session.Save(ctx, s.sessions, sess); err != nil {
		return ferrors.Wrap(ferrors.ErrCodeStoreFailed, err, "store session %q", id)
	}
	return nil
}
