// Package recommend asks the text model for plant recommendations and turns
// its reply into an ordered list of plant records.
package recommend

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/genai"

	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/gemini"
	"github.com/tphakala/soilplanner/internal/geolocation"
	"github.com/tphakala/soilplanner/internal/logger"
	"github.com/tphakala/soilplanner/internal/season"
)

// DefaultMaxAttempts is the total number of model calls per request
const DefaultMaxAttempts = 2

// DegradedNotice is shown on the results page when no list could be produced
const DegradedNotice = "Plant recommendations could not be generated right now. Please try again in a moment."

// Request carries the inputs embedded in the prompt
type Request struct {
	Location geolocation.Location
	Date     time.Time
	Season   season.Season
	SoilType string
}

// Outcome is the result of a recommendation run. Degraded is set, with an
// empty Plants list and a Notice, when every attempt failed.
type Outcome struct {
	Plants   []Plant
	Degraded bool
	Notice   string
	Attempts int
}

// Generator produces recommendations. Safe for concurrent use.
type Generator struct {
	gen         gemini.Generator
	model       string
	timeout     time.Duration
	maxAttempts int
	log         logger.Logger
}

// Option configures a Generator
type Option func(*Generator)

// WithMaxAttempts sets the total number of model calls. Values below one are ignored.
func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

// WithTimeout bounds each model call
func WithTimeout(d time.Duration) Option {
	return func(g *Generator) { g.timeout = d }
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// NewGenerator creates a Generator for model
func NewGenerator(gen gemini.Generator, model string, opts ...Option) *Generator {
	g := &Generator{
		gen:         gen,
		model:       model,
		maxAttempts: DefaultMaxAttempts,
		log:         logger.NewDiscardLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.log = g.log.Module("recommend")
	return g
}

// BuildPrompt renders the recommendation prompt for req
func BuildPrompt(req Request) string {
	loc := req.Location
	return fmt.Sprintf(`I am a plant scientist working with the United Nations to develop a recommendation tool to help people around the world grow plants to mitigate global warming.
Our mission is to recommend the best plants to grow based on location, current date, and soil type.
For example, recommend for someone who has %s soil in %s, %s, %s on %s during %s.
Recommend plants that can help solve global warming with the highest carbon absorption rates per tree per year.
Very important: only reply with JSON. Reply with a flat JSON list of recommended plants, with no wrapping object. Each plant is an object with the fields "name", "scientific_name" and "carbon_absorption_rate", all strings, with units for the rate.`,
		req.SoilType, loc.City, loc.Region, loc.Country, req.Date.Format(time.DateOnly), req.Season)
}

// Recommend calls the text model until its reply parses or the attempt
// budget is spent. Model failures and unparsable replies degrade the
// outcome instead of failing; only cancellation of ctx is returned as an
// error.
func (g *Generator) Recommend(ctx context.Context, req Request) (Outcome, error) {
	log := g.log.WithContext(ctx)
	contents := gemini.UserContent(&genai.Part{Text: BuildPrompt(req)})

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Outcome{}, errors.New(err).
				Component("recommend").
				Category(errors.CategoryCancellation).
				Context("attempt", attempt).
				Build()
		}

		plants, err := g.attempt(ctx, contents, log)
		if err == nil {
			log.Info("Plant recommendations parsed",
				logger.Int("count", len(plants)),
				logger.Int("attempt", attempt))
			return Outcome{Plants: plants, Attempts: attempt}, nil
		}

		lastErr = err
		log.Warn("Recommendation attempt failed",
			logger.Int("attempt", attempt),
			logger.Int("max_attempts", g.maxAttempts),
			logger.Error(err))
	}

	if err := ctx.Err(); err != nil {
		return Outcome{}, errors.New(err).
			Component("recommend").
			Category(errors.CategoryCancellation).
			Build()
	}

	// Built for categorisation and telemetry; the page only shows the notice
	enhanced := errors.New(lastErr).
		Component("recommend").
		Context("operation", "recommend_plants").
		Context("attempts", g.maxAttempts).
		Context("model", g.model).
		Build()
	log.Warn("Serving page without recommendations",
		logger.String("category", enhanced.GetCategory()),
		logger.Error(enhanced))

	return Outcome{
		Plants:   []Plant{},
		Degraded: true,
		Notice:   DegradedNotice,
		Attempts: g.maxAttempts,
	}, nil
}

func (g *Generator) attempt(ctx context.Context, contents []*genai.Content, log logger.Logger) ([]Plant, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.gen.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return nil, err
	}

	text, ok := gemini.FirstText(resp)
	if !ok {
		return nil, &ParseError{Detail: "model returned no text"}
	}
	log.Debug("Raw recommendation output", logger.String("raw", text))

	plants, dropped, err := Parse(StripFences(text))
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		log.Warn("Dropped plant records without a name", logger.Int("dropped", dropped))
	}
	return plants, nil
}
