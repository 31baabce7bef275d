// Package server implements the development server: every request builds a
// fresh pack engine from the current configuration, streams known assets and
// falls back to static files for everything else.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	apperrors "github.com/conneroisu/assetpack/internal/errors"
	"github.com/conneroisu/assetpack/internal/logging"
	"github.com/conneroisu/assetpack/internal/middleware"
	"github.com/conneroisu/assetpack/internal/pack"
	"github.com/spf13/afero"
)

// Routes served by the dev server itself. They take precedence over assets.
const (
	IndexPath  = "/_assetpack/"
	HealthPath = "/_assetpack/health"
)

const shutdownTimeout = 5 * time.Second

// EngineFactory builds the engine for a single request. It is called once per
// request so configuration edits take effect without a restart.
type EngineFactory func(ctx context.Context) (*pack.Engine, error)

// Server is the development server.
type Server struct {
	addr    string
	factory EngineFactory
	fs      afero.Fs
	logger  logging.Logger
	metrics *pack.Metrics

	httpServer   *http.Server
	serverMutex  sync.Mutex
	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures a Server.
type Option func(*Server)

// WithFs sets the filesystem static files are served from.
func WithFs(fs afero.Fs) Option {
	return func(s *Server) {
		if fs != nil {
			s.fs = fs
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics shows m on the index page. It should be the collector the
// factory hands to every engine it builds.
func WithMetrics(m *pack.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a server listening on addr once started.
func New(addr string, factory EngineFactory, opts ...Option) *Server {
	s := &Server{
		addr:    addr,
		factory: factory,
		fs:      afero.NewOsFs(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithComponent("server")
	return s
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Handler returns the complete handler, middleware included.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(HealthPath, s.handleHealth)
	mux.HandleFunc(IndexPath, s.handleIndex)
	mux.HandleFunc("/", s.handleAsset)

	return middleware.NewChain(
		middleware.Recover(s.logger),
		middleware.Logging(s.logger),
		middleware.NoCache(),
	).Apply(mux)
}

// Start listens on the configured address and serves until ctx is canceled
// or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return apperrors.WrapIO(err, apperrors.ErrCodeListen, "cannot listen on "+s.addr)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is canceled or Shutdown is called.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.serverMutex.Lock()
	s.httpServer = srv
	s.serverMutex.Unlock()

	s.logger.Info(ctx, "Dev server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := s.Shutdown(shutdownCtx)
		<-errCh
		return err
	}
}

// Shutdown gracefully stops the server. Calls after the first return the
// first result.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(func() {
		s.serverMutex.Lock()
		srv := s.httpServer
		s.serverMutex.Unlock()
		if srv == nil {
			return
		}
		s.logger.Info(ctx, "Shutting down dev server")
		s.shutdownErr = srv.Shutdown(ctx)
	})
	return s.shutdownErr
}
