// Package server exposes the detection pipeline over HTTP: single image and
// video sessions, enclosing region calculation and a WebSocket signaling
// relay for live drone video
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	cropwatch "github.com/swdee/go-cropwatch"
	"github.com/swdee/go-cropwatch/disease"
	"github.com/swdee/go-cropwatch/geo"
	"github.com/swdee/go-cropwatch/ledger"
	"github.com/swdee/go-cropwatch/metrics"
	"github.com/swdee/go-cropwatch/pipeline"
	"go.uber.org/zap"
)

// shutdownTimeout is how long in flight requests get to finish on shutdown
const shutdownTimeout = 10 * time.Second

// Config holds the shared collaborators of every session started by the
// server
type Config struct {
	// Listen address, eg: ":8080"
	Listen string
	// MaxBodyMB limits the request body size
	MaxBodyMB int
	// Detector is shared by all sessions, wrap it in a cropwatch.Pool if it
	// is not safe for concurrent use
	Detector  cropwatch.Detector
	Resolver  geo.Resolver
	Table     disease.Table
	Threshold float64
	// Codec is the FourCC of processed videos
	Codec string
	// Metrics and Gatherer may be nil, /metrics is only served with a
	// Gatherer
	Metrics  *metrics.Pipeline
	Gatherer prometheus.Gatherer
	// OnRecord is passed on to each session
	OnRecord func(session string, e ledger.Entry)
	Logger   *zap.Logger
}

// Server is the HTTP entry point of the pipeline
type Server struct {
	echo   *echo.Echo
	cfg    Config
	hub    *Hub
	logger *zap.Logger
}

// New returns a Server with all routes registered
func New(cfg Config) (*Server, error) {

	if cfg.Detector == nil {
		return nil, fmt.Errorf("server needs a detector")
	}

	if cfg.Resolver == nil {
		return nil, fmt.Errorf("server needs a location resolver")
	}

	if cfg.MaxBodyMB <= 0 {
		cfg.MaxBodyMB = 64
	}

	if cfg.Codec == "" {
		cfg.Codec = "mp4v"
	}

	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	logger := cfg.Logger.Named("server")

	s := &Server{
		echo:   echo.New(),
		cfg:    cfg,
		hub:    NewHub(logger),
		logger: logger,
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.Recover())
	s.echo.Use(s.requestLogger())

	s.routes()

	return s, nil
}

func (s *Server) routes() {

	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	if s.cfg.Gatherer != nil {
		s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := s.echo.Group("/api/v1")
	api.GET("/signal", s.hub.HandleSignal)

	limit := middleware.BodyLimit(fmt.Sprintf("%dM", s.cfg.MaxBodyMB))

	api.POST("/image", s.handleImage, limit)
	api.POST("/video", s.handleVideo, limit)
	api.POST("/region", s.handleRegion, limit)
}

// requestLogger logs each request at a level set by its status code
func (s *Server) requestLogger() echo.MiddlewareFunc {

	log := s.logger.Named("http")

	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogMethod:   true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {

			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("remote_ip", v.RemoteIP),
			}

			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
			}

			switch {
			case v.Status >= 500:
				log.Error("Request failed", fields...)
			case v.Status >= 400:
				log.Warn("Request rejected", fields...)
			default:
				log.Debug("Request", fields...)
			}

			return nil
		},
	})
}

// ServeHTTP lets the Server be used as an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start serves on the configured address until ctx is done, then shuts
// down gracefully
func (s *Server) Start(ctx context.Context) error {

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP server listening", zap.String("listen", s.cfg.Listen))
		errCh <- s.echo.Start(s.cfg.Listen)
	}()

	select {
	case err := <-errCh:
		s.hub.Close()
		return fmt.Errorf("http server: %w", err)

	case <-ctx.Done():
	}

	// the signaling connections are hijacked so Shutdown does not wait on
	// them
	s.hub.Close()

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(sctx); err != nil {
		return fmt.Errorf("error shutting down http server: %w", err)
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	s.logger.Info("HTTP server stopped")

	return nil
}

// newSession starts a session with the server wide collaborators
func (s *Server) newSession() (*pipeline.Session, error) {
	return pipeline.NewSession(pipeline.Config{
		Detector:  s.cfg.Detector,
		Resolver:  s.cfg.Resolver,
		Table:     s.cfg.Table,
		Threshold: s.cfg.Threshold,
		Metrics:   s.cfg.Metrics,
		Logger:    s.cfg.Logger,
		OnRecord:  s.cfg.OnRecord,
	})
}

// errorResponse is the JSON body of a failed request
type errorResponse struct {
	Error string `json:"error"`
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, errorResponse{Error: msg})
}
