// Package server exposes the configuration store over HTTP. Documents
// travel as JSON on the wire and as YAML in the repository; the commit
// fingerprint rides in the ETag and If-Match headers.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	confgiterrors "confgit.dev/confgit/internal/errors"
	"confgit.dev/confgit/internal/metrics"
	"confgit.dev/confgit/internal/store"
	"confgit.dev/confgit/internal/validate"
)

// maxDocumentBytes bounds request bodies; config documents are small.
const maxDocumentBytes = 1 << 20

// Server holds the handlers' shared dependencies.
type Server struct {
	store        *store.Store
	schemas      *store.SchemaStore
	validator    *validate.Validator
	users        map[string]string
	validateDocs bool
	logger       *zap.Logger
}

// Options configures a Server.
type Options struct {
	Store     *store.Store
	Schemas   *store.SchemaStore
	Validator *validate.Validator
	// Users maps usernames to passwords for basic auth.
	Users map[string]string
	// ValidateDocs turns on schema validation of incoming documents.
	ValidateDocs bool
	Logger       *zap.Logger
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}
	if opts.Schemas == nil {
		return nil, fmt.Errorf("server: schema store is required")
	}
	if opts.ValidateDocs && opts.Validator == nil {
		return nil, fmt.Errorf("server: validation enabled without a validator")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Server{
		store:        opts.Store,
		schemas:      opts.Schemas,
		validator:    opts.Validator,
		users:        opts.Users,
		validateDocs: opts.ValidateDocs,
		logger:       opts.Logger,
	}, nil
}

// Routes builds the HTTP routing tree. Health and metrics endpoints are
// open; everything touching the repository sits behind basic auth.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observeRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.HandleHealth())
	r.Get("/readyz", s.HandleReady())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.basicAuth)
		r.Get("/config/{type}.json", s.HandleGetConfig())
		r.Put("/config/{type}.json", s.HandleSaveConfig())
		r.Post("/config/{type}.json", s.HandleSaveConfig())
		r.Get("/schemas", s.HandleListSchemas())
		r.Get("/schema/{type}.json", s.HandleGetSchema())
		r.Post("/sync", s.HandleSync())
	})

	return r
}

// observeRequests logs each request and feeds the duration histogram.
func (s *Server) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		elapsed := time.Since(start)
		metrics.ObserveHTTPRequest(r.Method, route, ww.Status(), elapsed)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

// HandleHealth reports process liveness.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// HandleReady reports whether the local clone is in place.
func (s *Server) HandleReady() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gitDir := filepath.Join(s.store.Client().LocalPath(), ".git")
		if _, err := os.Stat(gitDir); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "no local clone"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the error taxonomy onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, confgiterrors.ErrNotFound), errors.Is(err, confgiterrors.ErrInvalidType):
		status = http.StatusNotFound
	case errors.Is(err, confgiterrors.ErrConflict), errors.Is(err, confgiterrors.ErrSyncConflict):
		status = http.StatusConflict
	case errors.Is(err, confgiterrors.ErrTransport):
		status = http.StatusBadGateway
	case errors.Is(err, confgiterrors.ErrRepository):
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", status),
			zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
