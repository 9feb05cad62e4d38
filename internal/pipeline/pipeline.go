// Package pipeline runs one upload through geolocation, season, soil
// classification and recommendation, producing the data for the results page.
package pipeline

import (
	"context"
	"time"

	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/geolocation"
	"github.com/tphakala/soilplanner/internal/logger"
	"github.com/tphakala/soilplanner/internal/observability/metrics"
	"github.com/tphakala/soilplanner/internal/recommend"
	"github.com/tphakala/soilplanner/internal/season"
	"github.com/tphakala/soilplanner/internal/soil"
	"github.com/tphakala/soilplanner/internal/suncalc"
)

// Locator resolves the server's location
type Locator interface {
	Resolve(ctx context.Context) (*geolocation.Location, error)
}

// SoilClassifier labels a soil image; it never fails
type SoilClassifier interface {
	Classify(ctx context.Context, image []byte, mimeType string) string
}

// Recommender produces plant recommendations
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (recommend.Outcome, error)
}

// DaylightCalculator computes sun events for the results page
type DaylightCalculator interface {
	Daylight(latitude, longitude float64, date time.Time) (suncalc.Daylight, error)
}

// Recorder receives pipeline measurements; implemented by metrics.PipelineMetrics
type Recorder interface {
	RecordPipelineRun(outcome string)
	RecordStage(stage, outcome string, duration time.Duration)
	RecordSoilClassification(outcome string)
	RecordRecommendation(plants, attempts int)
}

// Image is the uploaded soil picture
type Image struct {
	Data     []byte
	MIMEType string
}

// Result is everything the results page shows. It is built once per run.
type Result struct {
	Location geolocation.Location
	Date     time.Time
	Season   season.Season
	SoilType string
	Plants   []recommend.Plant
	Daylight *suncalc.Daylight // nil when unavailable
	Degraded bool
	Notice   string
}

// CurrentDate formats Date as YYYY-MM-DD
func (r *Result) CurrentDate() string {
	return r.Date.Format(time.DateOnly)
}

// LocationError is the only fatal pipeline failure
type LocationError struct {
	Err error
}

func (e *LocationError) Error() string { return "Error getting location: " + e.Err.Error() }

func (e *LocationError) Unwrap() error { return e.Err }

// ErrorCategory implements errors.CategorizedError
func (e *LocationError) ErrorCategory() errors.ErrorCategory { return errors.CategoryGeolocation }

// Pipeline wires the stages together. Safe for concurrent use when its
// collaborators are.
type Pipeline struct {
	locator     Locator
	classifier  SoilClassifier
	recommender Recommender
	daylight    DaylightCalculator
	recorder    Recorder
	now         func() time.Time
	log         logger.Logger
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithDaylight enables the daylight block on the results page
func WithDaylight(d DaylightCalculator) Option {
	return func(p *Pipeline) { p.daylight = d }
}

// WithRecorder registers a metrics recorder
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// New creates a Pipeline
func New(locator Locator, classifier SoilClassifier, recommender Recommender, opts ...Option) *Pipeline {
	p := &Pipeline{
		locator:     locator,
		classifier:  classifier,
		recommender: recommender,
		recorder:    nopRecorder{},
		now:         time.Now,
		log:         logger.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.log = p.log.Module("pipeline")
	return p
}

// Run executes the stages in order. A geolocation failure aborts the run
// with a *LocationError; every later stage degrades instead of failing.
func (p *Pipeline) Run(ctx context.Context, img Image) (*Result, error) {
	log := p.log.WithContext(ctx)
	runStart := time.Now()

	start := time.Now()
	loc, err := p.locator.Resolve(ctx)
	if err != nil {
		p.recorder.RecordStage(metrics.StageGeolocation, metrics.OutcomeError, time.Since(start))
		p.recorder.RecordPipelineRun(metrics.OutcomeError)
		return nil, errors.New(&LocationError{Err: err}).
			Component("pipeline").
			Context("stage", metrics.StageGeolocation).
			Build()
	}
	p.recorder.RecordStage(metrics.StageGeolocation, metrics.OutcomeSuccess, time.Since(start))

	now := p.now()
	result := &Result{
		Location: *loc,
		Date:     now,
		Season:   season.For(now),
	}

	start = time.Now()
	result.SoilType = p.classifier.Classify(ctx, img.Data, img.MIMEType)
	soilOutcome := metrics.OutcomeSuccess
	if result.SoilType == soil.Unknown {
		soilOutcome = metrics.OutcomeUnknown
	}
	p.recorder.RecordStage(metrics.StageSoil, soilOutcome, time.Since(start))
	p.recorder.RecordSoilClassification(soilOutcome)

	start = time.Now()
	outcome, err := p.recommender.Recommend(ctx, recommend.Request{
		Location: result.Location,
		Date:     result.Date,
		Season:   result.Season,
		SoilType: result.SoilType,
	})
	if err != nil {
		p.recorder.RecordStage(metrics.StageRecommend, metrics.OutcomeError, time.Since(start))
		p.recorder.RecordPipelineRun(metrics.OutcomeError)
		return nil, err
	}
	recOutcome := metrics.OutcomeSuccess
	if outcome.Degraded {
		recOutcome = metrics.OutcomeDegraded
	}
	p.recorder.RecordStage(metrics.StageRecommend, recOutcome, time.Since(start))
	p.recorder.RecordRecommendation(len(outcome.Plants), outcome.Attempts)

	result.Plants = outcome.Plants
	result.Degraded = outcome.Degraded
	result.Notice = outcome.Notice

	if p.daylight != nil {
		start = time.Now()
		d, err := p.daylight.Daylight(loc.Latitude, loc.Longitude, now)
		if err != nil {
			p.recorder.RecordStage(metrics.StageDaylight, metrics.OutcomeError, time.Since(start))
			log.Debug("Daylight unavailable", logger.Error(err))
		} else {
			p.recorder.RecordStage(metrics.StageDaylight, metrics.OutcomeSuccess, time.Since(start))
			result.Daylight = &d
		}
	}

	p.recorder.RecordPipelineRun(recOutcome)
	log.Info("Recommendation ready",
		logger.String("city", result.Location.City),
		logger.String("season", result.Season.String()),
		logger.String("soil_type", result.SoilType),
		logger.Int("plants", len(result.Plants)),
		logger.Bool("degraded", result.Degraded),
		logger.Duration("elapsed", time.Since(runStart)))

	return result, nil
}

type nopRecorder struct{}

func (nopRecorder) RecordPipelineRun(string)                  {}
func (nopRecorder) RecordStage(string, string, time.Duration) {}
func (nopRecorder) RecordSoilClassification(string)           {}
func (nopRecorder) RecordRecommendation(int, int)             {}
