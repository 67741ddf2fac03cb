package server

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/marketscout/marketscout/config"
	"github.com/marketscout/marketscout/internal/agent/core"
	"github.com/marketscout/marketscout/internal/agent/telemetry"
	"github.com/marketscout/marketscout/internal/store"
)

// Server exposes the research pipeline over HTTP.
type Server struct {
	echo         *echo.Echo
	cfg          *config.Config
	logger       *log.Logger
	orchestrator *core.Orchestrator
	registry     *core.Registry
	store        store.ResultStore
	telemetry    *telemetry.Telemetry
}

// New wires routes and middleware around the orchestrator.
func New(cfg *config.Config, orch *core.Orchestrator, registry *core.Registry, st store.ResultStore, tel *telemetry.Telemetry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	}
	s := &Server{
		echo:         echo.New(),
		cfg:          cfg,
		logger:       logger,
		orchestrator: orch,
		registry:     registry,
		store:        st,
		telemetry:    tel,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
	s.echo.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}
		if code >= 500 {
			s.logger.Printf("%s %s -> %d: %v", c.Request().Method, c.Request().URL.Path, code, err)
		}
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]string{"error": err.Error()})
		}
	}

	s.echo.GET("/healthz", s.handleHealthz)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	if cfg.Server.JWTSecret != "" {
		api.Use(jwtMiddleware(cfg.Server.JWTSecret))
	}
	api.POST("/research", s.handleResearch)
	api.GET("/research/latest", s.handleLatest)
	api.GET("/research/history", s.handleHistory)
	api.GET("/research/:id/status", s.handleStatus)
	api.DELETE("/research/:id", s.handleCancel)
	api.GET("/tools", s.handleTools)
	api.GET("/telemetry", s.handleTelemetry)

	return s
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start(address string) error {
	s.logger.Printf("listening on %s", address)
	return s.echo.Start(address)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) handleHealthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type researchRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleResearch(c echo.Context) error {
	var req researchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	run, err := s.orchestrator.Research(c.Request().Context(), req.Query, userID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, run)
}

func (s *Server) handleLatest(c echo.Context) error {
	run, ok, err := s.store.Latest(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no research runs yet")
	}
	return c.JSON(http.StatusOK, run)
}

func (s *Server) handleHistory(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}
	runs, err := s.store.History(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"runs": runs, "count": len(runs)})
}

func (s *Server) handleStatus(c echo.Context) error {
	status, ok := s.orchestrator.GetStatus(c.Param("id"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown run")
	}
	return c.JSON(http.StatusOK, status)
}

func (s *Server) handleCancel(c echo.Context) error {
	if !s.orchestrator.CancelRun(c.Param("id")) {
		return echo.NewHTTPError(http.StatusNotFound, "run not in flight")
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

func (s *Server) handleTools(c echo.Context) error {
	names := s.registry.List()
	descriptors := make([]core.Descriptor, 0, len(names))
	for _, name := range names {
		d, err := s.registry.Describe(name)
		if err != nil {
			continue
		}
		descriptors = append(descriptors, d)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"tools": descriptors})
}

func (s *Server) handleTelemetry(c echo.Context) error {
	return c.JSON(http.StatusOK, s.telemetry.Snapshot())
}
