// Package server exposes conversion, templates, binding profiles and live
// documents over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/javajack/xlbind"
	"github.com/javajack/xlbind/store"
)

// Config holds HTTP server configuration
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxUpload    int64
	Debug        bool
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		MaxUpload:    32 << 20,
	}
}

// Server is the HTTP adapter over the conversion and projection engine.
type Server struct {
	config    Config
	router    *gin.Engine
	templates *store.TemplateRepository
	bindings  *store.BindingRepository
	documents *registry
	worker    *xlbind.Worker
	opts      []xlbind.Option
	logger    *zap.Logger
}

// New creates the server and registers its routes.
func New(cfg Config, templates *store.TemplateRepository, bindings *store.BindingRepository, logger *zap.Logger, opts ...xlbind.Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultConfig().MaxUpload
	}
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	opts = append(opts, xlbind.WithLogger(logger))
	s := &Server{
		config:    cfg,
		router:    gin.New(),
		templates: templates,
		bindings:  bindings,
		documents: newRegistry(),
		worker:    xlbind.NewWorker(opts...),
		opts:      opts,
		logger:    logger,
	}

	s.router.Use(gin.Recovery())
	s.router.Use(loggingMiddleware(logger))
	s.router.Use(corsMiddleware())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.health)

	api := s.router.Group("/api/v1")
	{
		api.POST("/convert/import", s.convertImport)
		api.POST("/convert/export", s.convertExport)

		api.GET("/templates", s.listTemplates)
		api.POST("/templates", s.createTemplate)
		api.GET("/templates/:id", s.getTemplate)
		api.DELETE("/templates/:id", s.deleteTemplate)

		api.GET("/bindings", s.listProfiles)
		api.POST("/bindings/validate", s.validateBindings)
		api.GET("/bindings/:profile", s.getBindings)
		api.PUT("/bindings/:profile", s.putBindings)

		api.POST("/documents", s.createDocument)
		api.GET("/documents/:id", s.getDocument)
		api.DELETE("/documents/:id", s.deleteDocument)
		api.POST("/documents/:id/load", s.loadDocument)
		api.PUT("/documents/:id/active", s.setActiveSheet)
		api.PUT("/documents/:id/cells/:sheet/:addr", s.setCell)
		api.POST("/documents/:id/reconcile", s.reconcile)
		api.GET("/documents/:id/export", s.exportDocument)
	}
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return nil
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Session-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
