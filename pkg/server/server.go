package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/elonfeng/sentiboard/internal/metrics"
	"github.com/elonfeng/sentiboard/pkg/dashboard"
	"github.com/elonfeng/sentiboard/pkg/dataset"
	"github.com/elonfeng/sentiboard/pkg/filter"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the dashboard and its JSON API. It holds no dataset: every
// request loads and normalizes its own snapshot from the source.
type Server struct {
	echo    *echo.Echo
	source  dataset.Source
	images  dashboard.Images
	options dashboard.Options
	port    int
}

// New creates a new HTTP server.
func New(src dataset.Source, images dashboard.Images, opts dashboard.Options, port int) *Server {
	if port == 0 {
		port = 8080
	}
	if opts.PreviewLimit <= 0 {
		opts.PreviewLimit = filter.PreviewLimit
	}

	s := &Server{
		echo:    echo.New(),
		source:  src,
		images:  images,
		options: opts,
		port:    port,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger)
	e.HTTPErrorHandler = errorHandler

	e.GET("/", s.handleDashboard)
	e.GET("/health", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/feed.xml", s.handleFeed)

	api := e.Group("/api/v1")
	api.GET("/tweets", s.handleTweets)
	api.GET("/timeline", s.handleTimeline)
	api.GET("/summary", s.handleSummary)
	api.GET("/categories", s.handleCategories)

	e.GET(dashboard.DistributionPath, s.handleDistribution)
	e.GET(dashboard.WordcloudPath+":category", s.handleWordcloud)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.port)
}

// ListenAndServe starts the HTTP server. It returns http.ErrServerClosed
// after Shutdown.
func (s *Server) ListenAndServe() error {
	slog.Info("sentiboard server listening", "addr", s.Addr(), "source", s.source.Name())
	return s.echo.Start(s.Addr())
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// snapshot runs the load and normalize steps for one rendering pass.
func (s *Server) snapshot(ctx context.Context) (*dataset.Dataset, error) {
	start := time.Now()
	d, err := dataset.LoadSnapshot(ctx, s.source)
	status := "ok"
	if err != nil {
		status = errorKind(err)
	}
	metrics.RecordLoad(s.source.Name(), status, time.Since(start).Seconds())
	if err != nil {
		slog.Error("dataset load failed", "source", s.source.Name(), "error", err)
		return nil, err
	}
	return d, nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, dataset.ErrDatasetUnavailable):
		return "unavailable"
	case errors.Is(err, dataset.ErrDatasetMalformed):
		return "malformed"
	case errors.Is(err, dataset.ErrDateParse):
		return "date_parse"
	}
	return "error"
}

// datasetStatus maps a load error to an HTTP status.
func datasetStatus(err error) int {
	if errors.Is(err, dataset.ErrDatasetUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func datasetHeading(err error) string {
	switch errorKind(err) {
	case "unavailable":
		return "No se pudo abrir el dataset"
	case "malformed":
		return "El dataset no tiene el formato esperado"
	case "date_parse":
		return "El dataset contiene una fecha inválida"
	}
	return "No se pudo cargar el dataset"
}

func errorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	if !c.Response().Committed {
		_ = c.JSON(code, map[string]string{"error": msg})
	}
}

func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		req := c.Request()
		slog.Info("http request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", c.Response().Status,
			"latency", time.Since(start),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}
