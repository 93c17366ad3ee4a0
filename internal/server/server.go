// Package server exposes the simulator core over HTTP. It is a test
// harness: generated cases are returned with their hidden thresholds.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/audiotrainer/internal/response"
	"github.com/abhisek/audiotrainer/internal/store"
)

// Server routes requests to in-memory trainee sessions.
type Server struct {
	router   *chi.Mux
	engine   *response.Engine
	sessions *registry
	recorder *store.Recorder
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

// WithRecorder persists session events, measurements and progress.
func WithRecorder(r *store.Recorder) Option {
	return func(s *Server) { s.recorder = r }
}

// WithClock overrides time.Now for log timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds the router. A nil engine uses the default configuration.
func New(engine *response.Engine, opts ...Option) *Server {
	if engine == nil {
		engine = response.New(response.DefaultConfig())
	}
	s := &Server{
		router:   chi.NewRouter(),
		engine:   engine,
		sessions: newRegistry(),
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(requestLogger(s.log))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/profiles", s.handleProfiles)
	s.router.Post("/cases", s.handleGenerateCase)

	s.router.Post("/sessions", s.handleCreateSession)
	s.router.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Post("/evaluate", s.handleEvaluate)
		r.Post("/commit", s.handleCommit)
		r.Delete("/points", s.handleClearPoints)
		r.Get("/score", s.handleScore)
		r.Post("/finish", s.handleFinish)
		r.Get("/log.csv", s.handleLogCSV)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Run serves on addr until ctx is canceled, then shuts down within
// shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln, shutdownTimeout)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
