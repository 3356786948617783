// Package server implements the HTTP export API.
//
// The API is an internal service surface for the authoring application: it
// exports flows posted inline or fetched from the configured flow source.
// It carries no authentication; deploy it behind the authoring app's
// gateway.
//
// # Endpoints
//
//   - GET  /healthz                   - liveness probe
//   - POST /api/v1/export             - export an inline flow document
//   - GET  /api/v1/flows              - list flows from the configured source
//   - GET  /api/v1/flows/{id}/export  - export a flow from the source
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apperrors "github.com/mkessel/flowscribe/pkg/errors"
	"github.com/mkessel/flowscribe/pkg/export"
	flowio "github.com/mkessel/flowscribe/pkg/io"
	"github.com/mkessel/flowscribe/pkg/source"
)

// Request size and time limits. Flow documents are authored content, not
// uploads; anything bigger than maxBodyBytes is a client bug.
const (
	maxBodyBytes   = 8 << 20
	requestTimeout = 60 * time.Second
)

// Config configures the export API server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Runner executes exports. Required.
	Runner *export.Runner

	// Source provides flows for the /flows endpoints. Optional; without it
	// those endpoints return 404.
	Source source.FlowSource

	// Logger receives request and export logs.
	Logger *log.Logger
}

// Server is the HTTP export API.
type Server struct {
	cfg    Config
	router chi.Router
}

// New creates the server and mounts all routes.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{cfg: cfg}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/export", s.handleExport)
		r.Get("/flows", s.handleListFlows)
		r.Get("/flows/{id}/export", s.handleExportFlow)
	})

	s.router = r
	return s
}

// Handler returns the server's HTTP handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe runs the server until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.cfg.Logger.Info("export API listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// =============================================================================
// Handlers
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// exportRequest is the POST /export payload: a flow document plus run
// options.
type exportRequest struct {
	Document flowio.Document `json:"document"`
	Options  exportOptions   `json:"options"`
}

// exportOptions is the wire form of export.Options.
type exportOptions struct {
	Targets            []string `json:"targets,omitempty"`
	BaseName           string   `json:"base_name,omitempty"`
	Locales            []string `json:"locales,omitempty"`
	Metadata           bool     `json:"metadata,omitempty"`
	Strings            bool     `json:"strings,omitempty"`
	StripRichText      bool     `json:"strip_rich_text,omitempty"`
	FlattenMultiSelect bool     `json:"flatten_multi_select,omitempty"`
	StrictCoverage     bool     `json:"strict_coverage,omitempty"`
	Refresh            bool     `json:"refresh,omitempty"`
}

func (o exportOptions) runOptions() export.Options {
	opts := export.Options{
		Targets:        o.Targets,
		BaseName:       o.BaseName,
		Locales:        o.Locales,
		Metadata:       o.Metadata,
		Strings:        o.Strings,
		StrictCoverage: o.StrictCoverage,
		Refresh:        o.Refresh,
	}
	opts.Lossy.StripRichText = o.StripRichText
	opts.Lossy.FlattenMultiSelect = o.FlattenMultiSelect
	return opts
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest,
			apperrors.Wrap(apperrors.ErrCodeInvalidFlowDoc, err, "decode request body"))
		return
	}

	s.runExport(w, r, &req.Document, req.Options.runOptions())
}

func (s *Server) handleListFlows(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Source == nil {
		writeError(w, http.StatusNotFound,
			apperrors.New(apperrors.ErrCodeUnsupported, "no flow source configured"))
		return
	}

	flows, err := s.cfg.Source.List(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway,
			apperrors.Wrap(apperrors.ErrCodeInternal, err, "list flows"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flows": flows})
}

func (s *Server) handleExportFlow(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Source == nil {
		writeError(w, http.StatusNotFound,
			apperrors.New(apperrors.ErrCodeUnsupported, "no flow source configured"))
		return
	}

	id := chi.URLParam(r, "id")
	doc, err := s.cfg.Source.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, source.ErrNotFound) {
			writeError(w, http.StatusNotFound,
				apperrors.Wrap(apperrors.ErrCodeFlowNotFound, err, "flow %q", id))
			return
		}
		writeError(w, http.StatusBadGateway,
			apperrors.Wrap(apperrors.ErrCodeInternal, err, "fetch flow %q", id))
		return
	}

	s.runExport(w, r, doc, optionsFromQuery(r))
}

// optionsFromQuery maps GET query parameters onto run options. Boolean
// parameters are present/absent switches.
func optionsFromQuery(r *http.Request) export.Options {
	q := r.URL.Query()
	opts := export.Options{
		BaseName:       q.Get("base_name"),
		Metadata:       q.Has("metadata"),
		Strings:        q.Has("strings"),
		StrictCoverage: q.Has("strict"),
		Refresh:        q.Has("refresh"),
	}
	if targets, ok := q["target"]; ok {
		opts.Targets = targets
	}
	if locales, ok := q["locale"]; ok {
		opts.Locales = locales
	}
	opts.Lossy.StripRichText = q.Has("strip_rich_text")
	opts.Lossy.FlattenMultiSelect = q.Has("flatten_multi_select")
	return opts
}

// runExport executes the pipeline and writes the result. Fatal export errors
// map to 422: the document was readable but cannot be transpiled.
func (s *Server) runExport(w http.ResponseWriter, r *http.Request, doc *flowio.Document, opts export.Options) {
	result, err := s.cfg.Runner.Execute(r.Context(), doc, opts)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status,
			apperrors.Wrap(apperrors.ErrCodeMalformedGraph, err, "export flow %q", doc.Flow.ID))
		return
	}

	s.cfg.Logger.Info("export served",
		"run_id", result.RunID,
		"flow", result.FlowID,
		"targets", opts.Targets,
		"warnings", result.Stats.WarningCount)

	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// Response Helpers
// =============================================================================

// errorResponse is the JSON error body: a machine-readable code plus a
// human-readable message.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Code:    string(apperrors.GetCode(err)),
		Message: apperrors.UserMessage(err),
	})
}
