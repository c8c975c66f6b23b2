// Package http exposes the billing workflow over a JSON API.
// Handlers translate requests into session, document and notification calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	Mode            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		Port:            8080,
		Mode:            gin.ReleaseMode,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	handlers   *Handlers
	logger     *zap.Logger
}

// NewServer creates a new HTTP server serving deps
func NewServer(config ServerConfig, deps Dependencies, logger *zap.Logger) *Server {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = 10 * time.Second
	}
	gin.SetMode(config.Mode)

	server := &Server{
		config:   config,
		router:   gin.New(),
		handlers: NewHandlers(deps, logger),
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware logs one line per request
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := s.handlers

	s.router.GET("/health", h.HealthCheck)

	api := s.router.Group("/api/v1")
	{
		api.POST("/tax/calculate", h.CalculateTax)
		api.GET("/companies", h.ListCompanies)

		api.GET("/preferences/company", h.GetLastCompany)
		api.PUT("/preferences/company", h.SetLastCompany)
		api.PUT("/preferences/token", h.SetAuthToken)

		api.GET("/notifications", h.ListNotifications)
		api.POST("/notifications/:id/read", h.MarkNotificationRead)

		drafts := api.Group("/drafts")
		{
			drafts.POST("", h.CreateDraft)
			drafts.GET("", h.ListDrafts)
			drafts.GET("/:id", h.GetDraft)
			drafts.PATCH("/:id", h.UpdateDraft)
			drafts.DELETE("/:id", h.DeleteDraft)
			drafts.PUT("/:id/customer", h.SetCustomer)
			drafts.GET("/:id/candidates", h.Candidates)
			drafts.POST("/:id/items", h.AddItem)
			drafts.PUT("/:id/items/:index", h.UpdateItem)
			drafts.DELETE("/:id/items/:index", h.RemoveItem)
			drafts.POST("/:id/save", h.SaveDraft)
			drafts.POST("/:id/cancel", h.CancelDraft)
			drafts.POST("/:id/document", h.ComposeDocument)
			drafts.POST("/:id/workbook", h.ExportWorkbook)
			drafts.POST("/:id/email", h.SendEmail)
		}

		api.POST("/bills/:id/open", h.OpenBill)
		api.POST("/bills/:id/edit", h.EditBill)
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server and the live searches it owns
func (s *Server) Stop() error {
	s.handlers.Close()
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
