// Package app builds the Soil Planner components from Settings and runs them,
// either as the web service or for a single image from the command line.
package app

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tphakala/soilplanner/internal/conf"
	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/gemini"
	"github.com/tphakala/soilplanner/internal/geolocation"
	"github.com/tphakala/soilplanner/internal/httpclient"
	"github.com/tphakala/soilplanner/internal/httpcontroller"
	"github.com/tphakala/soilplanner/internal/logger"
	"github.com/tphakala/soilplanner/internal/observability"
	"github.com/tphakala/soilplanner/internal/pipeline"
	"github.com/tphakala/soilplanner/internal/recommend"
	"github.com/tphakala/soilplanner/internal/soil"
	"github.com/tphakala/soilplanner/internal/suncalc"
	"github.com/tphakala/soilplanner/internal/uploads"
)

// App holds the wired components. Close releases them.
type App struct {
	Settings *conf.Settings
	Pipeline *pipeline.Pipeline
	Metrics  *observability.Metrics // nil when metrics are disabled

	httpClient *httpclient.Client
	log        logger.Logger
}

// Option configures New
type Option func(*options)

type options struct {
	transport http.RoundTripper
	clock     func() time.Time
}

// WithTransport sends all outbound traffic (ip-api and Gemini) through rt
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.transport = rt }
}

// WithClock replaces time.Now for the pipeline
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// New builds the pipeline and its collaborators
func New(ctx context.Context, settings *conf.Settings, log logger.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = logger.Global().Module("app")
	}

	a := &App{Settings: settings, log: log}

	if settings.Metrics.Enabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return nil, errors.New(err).
				Component("app").
				Category(errors.CategorySystem).
				Context("operation", "init_metrics").
				Build()
		}
		a.Metrics = m
	}

	a.httpClient = httpclient.New(&httpclient.Config{Transport: o.transport})
	if a.Metrics != nil {
		a.httpClient.SetAfterResponseHook(a.Metrics.HTTP.RecordOutbound)
	}

	geoOpts := []geolocation.Option{
		geolocation.WithEndpoint(settings.Geolocation.Endpoint),
		geolocation.WithTimeout(settings.Geolocation.Timeout),
		geolocation.WithCacheTTL(settings.Geolocation.CacheTTL),
		geolocation.WithRateLimit(settings.Geolocation.RateLimit),
	}
	if a.Metrics != nil {
		geoOpts = append(geoOpts, geolocation.WithObserver(a.Metrics.Pipeline))
	}
	locator := geolocation.NewResolver(a.httpClient, log.Module("geolocation"), geoOpts...)

	gen, err := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:  settings.Gemini.APIKey,
		BaseURL: settings.Gemini.BaseURL,
	}, a.httpClient)
	if err != nil {
		a.httpClient.Close()
		return nil, err
	}
	if a.Metrics != nil {
		gen = gemini.Instrument(gen, a.Metrics.Pipeline)
	}

	classifier := soil.NewClassifier(gen, settings.Gemini.ImageModel, settings.Gemini.Timeout, log.Module("soil"))
	recommender := recommend.NewGenerator(gen, settings.Gemini.TextModel,
		recommend.WithMaxAttempts(settings.Recommend.MaxAttempts),
		recommend.WithTimeout(settings.Gemini.Timeout),
		recommend.WithLogger(log.Module("recommend")))

	sc := suncalc.NewSunCalc(time.Local)
	pipeOpts := []pipeline.Option{
		pipeline.WithDaylight(sc),
		pipeline.WithLogger(log),
		pipeline.WithClock(o.clock),
	}
	if a.Metrics != nil {
		sc.SetObserver(a.Metrics.Pipeline)
		pipeOpts = append(pipeOpts, pipeline.WithRecorder(a.Metrics.Pipeline))
	}
	a.Pipeline = pipeline.New(locator, classifier, recommender, pipeOpts...)

	return a, nil
}

// Close releases idle connections
func (a *App) Close() {
	a.httpClient.Close()
}

// RecommendFile runs the pipeline once for an image on disk
func (a *App) RecommendFile(ctx context.Context, path string) (*pipeline.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.FileError(fmt.Errorf("failed to read image: %w", err), path, 0)
	}
	img := pipeline.Image{
		Data:     data,
		MIMEType: uploads.DetectMIMEType(mime.TypeByExtension(filepath.Ext(path)), data),
	}
	return a.Pipeline.Run(ctx, img)
}

// Serve runs the web service until ctx is cancelled
func (a *App) Serve(ctx context.Context) error {
	store, err := uploads.NewStore(a.Settings.Uploads.Dir, a.Settings.MaxUploadBytes(), a.log)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	server, err := httpcontroller.New(a.Settings, a.Pipeline, store, a.Metrics, a.log.Module("web"))
	if err != nil {
		return err
	}
	return server.Start(ctx)
}

// RunService builds an App and serves until SIGINT or SIGTERM. SIGHUP
// reopens the log file.
func RunService(settings *conf.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.Global().Module("app")
	go watchRotate(ctx, log)

	a, err := New(ctx, settings, log)
	if err != nil {
		return err
	}
	defer a.Close()

	log.Info("Starting Soil Planner",
		logger.String("version", settings.Version),
		logger.String("address", settings.ListenAddress()),
		logger.Bool("metrics", a.Metrics != nil))

	return a.Serve(ctx)
}

// watchRotate reopens the log file on SIGHUP, for logrotate's copy-and-signal flow
func watchRotate(ctx context.Context, log logger.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := logger.Global().Rotate(); err != nil {
				log.Warn("Log rotation failed", logger.Error(err))
			} else {
				log.Info("Log file reopened")
			}
		}
	}
}
