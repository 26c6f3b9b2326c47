// Package api exposes the analysis service over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/justaddcoffee/LIRICAL/internal/config"
	"github.com/justaddcoffee/LIRICAL/internal/domain"
	"github.com/justaddcoffee/LIRICAL/internal/middleware"
	"github.com/justaddcoffee/LIRICAL/internal/service"
)

// Server is the HTTP API server.
type Server struct {
	cfg      *config.Config
	svc      *service.AnalysisService
	log      *logrus.Logger
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates the HTTP server around an analysis service.
func NewServer(cfg *config.Config, svc *service.AnalysisService, log *logrus.Logger) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		log:    log,
		router: router,
	}
	s.setupRoutes()
	return s
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	cfg := s.cfg.Server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Handler returns the underlying router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/analyze", s.handleAnalyze)
		v1.GET("/diseases/:id", s.handleGetDisease)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"diseases": s.svc.DiseaseCount(),
	})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var params service.AnalyzeCaseParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":          err.Error(),
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}

	result, err := s.svc.AnalyzeCase(c.Request.Context(), &params)
	if err != nil {
		s.log.WithError(err).WithField("correlation_id", c.GetString("correlation_id")).
			Error("Analysis request failed")
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) {
			status = http.StatusRequestTimeout
		}
		c.JSON(status, gin.H{
			"error":          err.Error(),
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetDisease(c *gin.Context) {
	d, err := s.svc.GetDisease(c.Param("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":          err.Error(),
				"correlation_id": c.GetString("correlation_id"),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":          err.Error(),
			"correlation_id": c.GetString("correlation_id"),
		})
		return
	}
	c.JSON(http.StatusOK, d)
}
