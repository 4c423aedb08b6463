// Package server exposes rendering and verification over HTTP.
//
// Routes:
//
//	GET  /healthz
//	GET  /styles/{network}
//	GET  /render/{network}/{style}
//	GET  /splice/{network}/{collection}/{tokenid}?style=
//	GET  /seed/{collection}/{tokenid}
//	POST /validate
//	GET  /receipts
//	GET  /receipts/{id}
//	GET  /metrics
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/gate"
	"github.com/cod1ng-earth/splicenft/pkg/pipeline"
	"github.com/cod1ng-earth/splicenft/pkg/receipt"
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

// Defaults for the HTTP server.
const (
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 2 * time.Minute
	DefaultShutdownTimeout = 15 * time.Second

	// maxClaimBytes bounds POST /validate bodies.
	maxClaimBytes = 64 << 10
)

// Deps are the components served. Receipts and Metrics are optional.
type Deps struct {
	Registry *style.Registry
	Runner   *pipeline.Runner
	Gate     *gate.Gate
	Receipts receipt.Store
	Metrics  http.Handler

	// Dim is the size of preview and splice renders.
	Dim render.Dimensions

	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Logger *log.Logger
}

// Server is the HTTP front end.
type Server struct {
	deps   Deps
	logger *log.Logger
	router chi.Router
}

// New validates deps and builds the router.
func New(deps Deps) (*Server, error) {
	if deps.Registry == nil || deps.Runner == nil || deps.Gate == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "server requires a registry, a runner and a gate")
	}
	if deps.Dim.Width == 0 && deps.Dim.Height == 0 {
		deps.Dim = render.DefaultDimensions()
	}
	if err := errors.ValidateDimensions(deps.Dim.Width, deps.Dim.Height); err != nil {
		return nil, err
	}
	if deps.ReadTimeout <= 0 {
		deps.ReadTimeout = DefaultReadTimeout
	}
	if deps.WriteTimeout <= 0 {
		deps.WriteTimeout = DefaultWriteTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	s := &Server{deps: deps, logger: logger}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/styles/{network}", s.handleStyles)
	r.Get("/render/{network}/{style}", s.handleRender)
	r.Get("/splice/{network}/{collection}/{tokenid}", s.handleSplice)
	r.Get("/seed/{collection}/{tokenid}", s.handleSeed)
	r.Post("/validate", s.handleValidate)
	r.Route("/receipts", func(r chi.Router) {
		r.Get("/", s.handleListReceipts)
		r.Get("/{id}", s.handleGetReceipt)
	})
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, errors.New(errors.ErrCodeUnsupported, "%s not allowed on %s", r.Method, r.URL.Path))
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", addr)
	}
	return s.Serve(ctx, ln)
}

// Serve is like Run with an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadTimeout:       s.deps.ReadTimeout,
		ReadHeaderTimeout: s.deps.ReadTimeout,
		WriteTimeout:      s.deps.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return errors.Wrap(errors.ErrCodeNetwork, err, "serve")
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "shutdown")
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return errors.Wrap(errors.ErrCodeNetwork, err, "serve")
	}
	return nil
}
