// Package server exposes identifier resolution and RDF serialization over
// HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/export"
	"github.com/c360studio/anner-rdf/resolver"
)

const (
	// DefaultMaxBodyBytes bounds request bodies when no limit is configured.
	DefaultMaxBodyBytes = 10 << 20 // 10MB

	ReadHeaderTimeout      = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// Response headers of the resolve endpoint.
	HeaderDocumentID    = "X-Document-Id"
	HeaderReviewVersion = "X-Review-Version"
	HeaderProvenance    = "X-Provenance"
)

// Config configures the HTTP service.
type Config struct {
	Addr            string
	MaxBodyBytes    int64
	ShutdownTimeout time.Duration
}

// Server is the stateless conversion service. Each request decodes its own
// document; the resolver clock is the only shared state.
type Server struct {
	cfg      Config
	resolver *resolver.Resolver
	exporter *export.RDFExporter
	metrics  *Metrics
	logger   *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithResolver sets the identifier resolver.
func WithResolver(r *resolver.Resolver) Option {
	return func(s *Server) {
		if r != nil {
			s.resolver = r
		}
	}
}

// WithExporter sets the RDF exporter.
func WithExporter(e *export.RDFExporter) Option {
	return func(s *Server) {
		if e != nil {
			s.exporter = e
		}
	}
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Server. Without WithResolver the resolver uses a monotonic
// system clock so synthesized document ids never go backwards.
func New(cfg Config, opts ...Option) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	s := &Server{cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	if s.resolver == nil {
		s.resolver = resolver.New(
			resolver.WithClock(resolver.NewMonotonicClock(resolver.SystemClock{})),
			resolver.WithLogger(s.logger))
	}
	if s.exporter == nil {
		s.exporter = export.NewRDFExporter(export.WithLogger(s.logger))
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	return s
}

// Handler returns the service router.
func (s *Server) Handler() http.Handler {
	router := chi.NewRouter()
	router.Use(
		chiMiddleware.RequestID,
		chiMiddleware.Recoverer,
		s.observe,
		chiMiddleware.Heartbeat("/healthz"),
		chiMiddleware.RequestSize(s.cfg.MaxBodyBytes),
	)

	router.Handle("/metrics", s.metrics.Handler())
	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/resolve", s.handleResolve)
		r.Post("/rdf", s.handleRDF)
	})

	return router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP service listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("Shutting down HTTP service")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// observe logs every request and records its metrics.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := time.Now()
		resp := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := resp.Status()
			if status == 0 {
				status = http.StatusOK
			}
			s.metrics.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
			s.metrics.duration.WithLabelValues(route).Observe(time.Since(st).Seconds())

			s.logger.Debug("HTTP Request Served",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", chiMiddleware.GetReqID(r.Context()),
				"duration", time.Since(st),
				"status", status,
				"response_size", resp.BytesWritten())
		}()

		next.ServeHTTP(resp, r)
	})
}

// resolve decodes, validates and resolves the request body.
func (s *Server) resolve(r *http.Request) (*resolver.Resolved, error) {
	doc, err := annotation.Decode(r.Body)
	if err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return s.resolver.Resolve(doc)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	resolved, err := s.resolve(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.metrics.documents.WithLabelValues("resolve", string(resolved.Provenance)).Inc()

	data, err := json.Marshal(resolved.Document)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set(HeaderDocumentID, resolved.DocumentID)
	w.Header().Set(HeaderReviewVersion, strconv.Itoa(resolved.ReviewVersion))
	w.Header().Set(HeaderProvenance, string(resolved.Provenance))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleRDF(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	resolved, err := s.resolve(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	g, err := s.exporter.Build(resolved.DocumentID, resolved.Document)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	out, err := g.Encode(format)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.metrics.documents.WithLabelValues("rdf", string(resolved.Provenance)).Inc()
	s.metrics.triples.Add(float64(g.Triples()))

	info, _ := export.GetFormatInfo(format)
	w.Header().Set("Content-Type", info.MIMEType+"; charset=utf-8")
	w.Header().Set(HeaderDocumentID, resolved.DocumentID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, annotation.ErrInputFormat),
		errors.Is(err, resolver.ErrValidation),
		errors.Is(err, export.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, resolver.ErrParse),
		errors.Is(err, export.ErrUnknownLabel),
		errors.Is(err, export.ErrParagraphPosition):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	reqID := chiMiddleware.GetReqID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "request_id", reqID, "error", err)
	} else {
		s.logger.Debug("Request rejected", "request_id", reqID, "status", status, "error", err)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: err.Error(), RequestID: reqID}); err != nil {
		s.logger.Warn("Failed to write error response", "error", err)
	}
}
