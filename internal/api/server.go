// Package api serves conversations, search and statistics as JSON over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/neilberkman/ccsearch/internal/models"
	"github.com/neilberkman/ccsearch/internal/search"
	"github.com/neilberkman/ccsearch/internal/service"
)

// Backend is the set of boundary calls the API exposes
type Backend interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
	ListConversations(ctx context.Context, projectID string) ([]*models.ConversationRecord, error)
	GetConversation(ctx context.Context, projectID, conversationID string) (*models.ConversationRecord, error)
	Search(ctx context.Context, req service.Request) (*service.Response, error)
	GetProjectStats(ctx context.Context, projectID string) (*models.ProjectStats, error)
	GetConversationStats(ctx context.Context, projectID, conversationID string) (*models.ConversationStats, error)
}

// Server provides HTTP endpoints for ccsearch.
type Server struct {
	echo    *echo.Echo
	backend Backend
	logger  *zap.Logger
	addr    string
}

// DefaultAddr is used when NewServer is given an empty address.
const DefaultAddr = "127.0.0.1:8787"

// NewServer creates a new HTTP server.
func NewServer(backend Backend, logger *zap.Logger, addr string) (*Server, error) {
	if backend == nil {
		return nil, fmt.Errorf("backend cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if addr == "" {
		addr = DefaultAddr
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewMetrics().Middleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Debug("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:    e,
		backend: backend,
		logger:  logger,
		addr:    addr,
	}
	s.registerRoutes()
	return s, nil
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/projects", s.handleProjects)
	api.GET("/projects/:project/conversations", s.handleConversations)
	api.GET("/projects/:project/conversations/:id", s.handleConversation)
	api.GET("/projects/:project/conversations/:id/stats", s.handleConversationStats)
	api.GET("/projects/:project/stats", s.handleProjectStats)
	api.GET("/search", s.handleSearch)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleProjects(c echo.Context) error {
	projects, err := s.backend.ListProjects(c.Request().Context())
	if err != nil {
		return s.toHTTPError(err)
	}
	return c.JSON(http.StatusOK, projects)
}

func (s *Server) handleConversations(c echo.Context) error {
	convs, err := s.backend.ListConversations(c.Request().Context(), c.Param("project"))
	if err != nil {
		return s.toHTTPError(err)
	}
	return c.JSON(http.StatusOK, convs)
}

func (s *Server) handleConversation(c echo.Context) error {
	conv, err := s.backend.GetConversation(c.Request().Context(), c.Param("project"), c.Param("id"))
	if err != nil {
		return s.toHTTPError(err)
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) handleConversationStats(c echo.Context) error {
	st, err := s.backend.GetConversationStats(c.Request().Context(), c.Param("project"), c.Param("id"))
	if err != nil {
		return s.toHTTPError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) handleProjectStats(c echo.Context) error {
	st, err := s.backend.GetProjectStats(c.Request().Context(), c.Param("project"))
	if err != nil {
		return s.toHTTPError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (s *Server) handleSearch(c echo.Context) error {
	req := service.Request{
		ProjectID: c.QueryParam("project"),
		Query:     c.QueryParam("q"),
		Mode:      c.QueryParam("mode"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a non-negative integer")
		}
		req.Limit = limit
	}

	resp, err := s.backend.Search(c.Request().Context(), req)
	if err != nil {
		return s.toHTTPError(err)
	}
	return c.JSON(http.StatusOK, resp)
}

// toHTTPError maps boundary errors onto status codes.
func (s *Server) toHTTPError(err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, search.ErrInvalidMode):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled):
		return echo.NewHTTPError(http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error("request failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

// Start starts the HTTP server. It returns http.ErrServerClosed after
// Shutdown.
func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.addr))
	return s.echo.Start(s.addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
