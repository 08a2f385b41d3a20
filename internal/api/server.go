// Package api serves the stage graph over HTTP: JSON snapshots, toggle and
// viewport commands, task detail lookups and a websocket scene stream.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/npratt/stagegraph/internal/config"
	"github.com/npratt/stagegraph/internal/graph"
	"github.com/npratt/stagegraph/internal/shutdown"
)

const (
	shutdownTimeout = 5 * time.Second
	writeWait       = 5 * time.Second
	pingInterval    = 30 * time.Second
)

// Server exposes one engine over HTTP.
type Server struct {
	engine   *graph.Engine
	cfg      config.ServerConfig
	logger   *slog.Logger
	version  string
	started  time.Time
	router   *gin.Engine
	upgrader websocket.Upgrader

	mu       sync.Mutex
	httpSrv  *http.Server
	done     chan struct{}
	doneOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion sets the version reported by /health.
func WithVersion(version string) Option {
	return func(s *Server) {
		s.version = version
	}
}

// New creates a server for engine.
func New(engine *graph.Engine, cfg config.ServerConfig, opts ...Option) *Server {
	s := &Server{
		engine:  engine,
		cfg:     cfg,
		logger:  slog.Default(),
		version: "dev",
		started: time.Now(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.logger))
	r.Use(requestLogger(s.logger))

	r.GET("/health", s.health)

	api := r.Group("/api")
	{
		api.GET("/graph", s.getGraph)
		api.GET("/graph/stream", s.stream)
		api.POST("/nodes/:id/toggle", s.toggle)
		api.PUT("/viewport", s.viewport)
		api.GET("/tasks/:id", s.openTask)
	}
	return r
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on the configured address until ctx is done or the process
// is signalled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
	s.mu.Lock()
	s.httpSrv = srv
	s.mu.Unlock()

	s.logger.Info("http server listening", "addr", ln.Addr().String())
	return shutdown.Run(ctx, s.logger, shutdownTimeout,
		func(context.Context) error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		s.shutdown,
	)
}

// shutdown ends open streams and stops the HTTP server.
func (s *Server) shutdown(ctx context.Context) error {
	s.doneOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	srv := s.httpSrv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
