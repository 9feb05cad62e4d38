// Package httpcontroller serves the upload form, runs uploads through the
// recommendation pipeline and renders the results page.
package httpcontroller

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tphakala/soilplanner/internal/conf"
	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/logger"
	"github.com/tphakala/soilplanner/internal/observability"
	"github.com/tphakala/soilplanner/internal/pipeline"
	"github.com/tphakala/soilplanner/internal/uploads"
)

const shutdownTimeout = 10 * time.Second

// Runner executes the recommendation pipeline; *pipeline.Pipeline implements it
type Runner interface {
	Run(ctx context.Context, img pipeline.Image) (*pipeline.Result, error)
}

// Server encapsulates Echo server and related configurations.
type Server struct {
	Echo     *echo.Echo
	Settings *conf.Settings

	pipeline Runner
	store    *uploads.Store
	metrics  *observability.Metrics // nil when metrics are disabled
	log      logger.Logger
}

// New initializes the echo server with middleware, templates and routes.
// metrics may be nil.
func New(settings *conf.Settings, runner Runner, store *uploads.Store, metrics *observability.Metrics, log logger.Logger) (*Server, error) {
	configureDefaultSettings(settings)
	if log == nil {
		log = logger.Global().Module("web")
	}

	s := &Server{
		Echo:     echo.New(),
		Settings: settings,
		pipeline: runner,
		store:    store,
		metrics:  metrics,
		log:      log,
	}

	if err := s.initializeServer(); err != nil {
		return nil, err
	}
	return s, nil
}

// initializeServer configures and initializes the server.
func (s *Server) initializeServer() error {
	s.Echo.HideBanner = true
	s.Echo.HidePort = true
	s.Echo.Server.ReadTimeout = s.Settings.WebServer.ReadTimeout
	s.initLogger()
	s.configureMiddleware()

	if err := s.setupTemplateRenderer(); err != nil {
		return err
	}
	s.initRoutes()
	return nil
}

// initRoutes registers the page, upload and operational routes
func (s *Server) initRoutes() {
	s.Echo.GET("/", s.handleUploadForm)
	s.Echo.POST("/upload", s.handleUpload, s.uploadBodyLimit())
	s.Echo.GET("/healthz", s.handleHealthz)

	if s.metrics != nil && s.Settings.Metrics.Enabled {
		s.Echo.GET(s.Settings.Metrics.Path, echo.WrapHandler(s.metrics.Handler(s.log.Module("metrics"))))
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	addr := s.Settings.ListenAddress()
	errChan := make(chan error, 1)

	go func() {
		errChan <- s.Echo.Start(addr)
	}()
	s.log.Info("HTTP server started", logger.String("address", addr))

	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.New(err).
				Component("web").
				Category(errors.CategoryNetwork).
				Context("address", addr).
				Build()
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Stopping HTTP server")
	return s.Shutdown()
}

// Shutdown gracefully stops the server, waiting for in-flight uploads.
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Echo.Shutdown(ctx)
}

// configureDefaultSettings sets default values for server settings.
func configureDefaultSettings(settings *conf.Settings) {
	if settings.WebServer.Port == "" {
		settings.WebServer.Port = "8080"
	}
	if settings.Metrics.Path == "" {
		settings.Metrics.Path = "/metrics"
	}
}
