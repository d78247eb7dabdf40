// Package server exposes the requirement catalogue and search over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/poiesic/reqmatch/core"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// Service is what the API serves.
type Service interface {
	ListRequirements(ctx context.Context) ([]*core.Requirement, error)
	ListStandards(ctx context.Context) ([]*core.Standard, error)
	GetRequirement(ctx context.Context, referenceID string) (*core.Requirement, error)
	GetStandard(ctx context.Context, id string) (*core.Standard, error)
	SearchRequirements(ctx context.Context, query string) ([]*core.StandardRequirement, error)
}

// Server is the HTTP API server.
type Server struct {
	service Service
	router  *gin.Engine
	server  *http.Server
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
	}
}

// New creates a server listening on addr. mode is a gin mode: debug,
// release or test.
func New(addr, mode string, service Service, opts ...Option) *Server {
	s := &Server{
		service: service,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "server")

	if mode != "" {
		gin.SetMode(mode)
	}
	s.router = gin.New()
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(loggingMiddleware(s.logger))
	s.setupRoutes()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	h := &handler{service: s.service, logger: s.logger}

	s.router.GET("/health", h.health)

	api := s.router.Group("/api/requirements")
	{
		api.GET("", h.listRequirements)
		api.GET("/standards", h.listStandards)
		api.GET("/standards/:id", h.getStandard)
		api.GET("/search", h.search)
		api.GET("/:id", h.getRequirement)
	}
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Stop is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the server gracefully.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping server")
	return s.server.Shutdown(ctx)
}

// requestIDMiddleware keeps a caller-supplied request ID or assigns one.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestId", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func loggingMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"requestId", c.GetString("requestId"),
		)
	}
}
