// Package geolocation resolves the server's approximate location through an
// ip-api.com style JSON endpoint.
package geolocation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/tphakala/soilplanner/internal/errors"
	"github.com/tphakala/soilplanner/internal/httpclient"
	"github.com/tphakala/soilplanner/internal/logger"
)

const (
	// DefaultEndpoint is the free ip-api.com JSON endpoint for the caller's own address
	DefaultEndpoint = "http://ip-api.com/json/"

	// DefaultTimeout bounds a single lookup
	DefaultTimeout = 10 * time.Second

	// maxResponseBytes caps the body read; real responses are a few hundred bytes
	maxResponseBytes = 64 * 1024

	notAvailable = "N/A"
	cacheKey     = "self"
)

// Location is the server's approximate position. The postal code returned by
// the service is intentionally not carried.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Region    string  `json:"region"`
	Country   string  `json:"country"`
}

// ipAPIResponse mirrors the fields of the ip-api.com response we consume.
// Pointers distinguish absent fields from zero values.
type ipAPIResponse struct {
	Status     string   `json:"status"`
	Message    string   `json:"message"`
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	City       *string  `json:"city"`
	RegionName *string  `json:"regionName"`
	Country    *string  `json:"country"`
	Zip        string   `json:"zip"`
}

// Observer receives lookup outcomes; implemented by the metrics package.
type Observer interface {
	RecordLookup(outcome string, duration time.Duration)
}

// Resolver performs lookups. Safe for concurrent use.
type Resolver struct {
	client   *httpclient.Client
	endpoint string
	timeout  time.Duration
	cache    *cache.Cache  // nil when caching is disabled
	limiter  *rate.Limiter // nil when limiting is disabled
	log      logger.Logger
	observer Observer
}

// Option configures a Resolver
type Option func(*Resolver)

// WithEndpoint overrides the lookup URL
func WithEndpoint(endpoint string) Option {
	return func(r *Resolver) {
		if endpoint != "" {
			r.endpoint = endpoint
		}
	}
}

// WithTimeout sets the per-lookup timeout
func WithTimeout(timeout time.Duration) Option {
	return func(r *Resolver) {
		if timeout > 0 {
			r.timeout = timeout
		}
	}
}

// WithCacheTTL keeps a successful lookup for ttl. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.cache = cache.New(ttl, 2*ttl)
		}
	}
}

// WithRateLimit caps lookups to perMinute. The burst equals the quota so a
// cold resolver can serve a minute's worth of concurrent lookups at once,
// matching ip-api.com's per-minute window. Zero disables limiting.
func WithRateLimit(perMinute int) Option {
	return func(r *Resolver) {
		if perMinute > 0 {
			r.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
		}
	}
}

// WithObserver registers a lookup observer
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// NewResolver creates a Resolver using client for transport.
func NewResolver(client *httpclient.Client, log logger.Logger, opts ...Option) *Resolver {
	if client == nil {
		client = httpclient.New(nil)
	}
	if log == nil {
		log = logger.NewDiscardLogger()
	}

	r := &Resolver{
		client:   client,
		endpoint: DefaultEndpoint,
		timeout:  DefaultTimeout,
		log:      log.Module("geolocation"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve looks up the current location. It makes one request with no
// retries; failures are returned as *TransportError, *LookupFailedError,
// *ParseError or, when the local quota is spent, *RateLimitedError wrapped in
// an enhanced error.
func (r *Resolver) Resolve(ctx context.Context) (*Location, error) {
	if r.cache != nil {
		if cached, ok := r.cache.Get(cacheKey); ok {
			loc := *cached.(*Location)
			r.observe("cache_hit", 0)
			return &loc, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, r.fail(&RateLimitedError{Err: err}, 0)
		}
	}

	start := time.Now()
	loc, err := r.lookup(ctx)
	elapsed := time.Since(start)
	if err != nil {
		return nil, r.fail(err, elapsed)
	}

	r.observe("success", elapsed)
	r.log.Debug("Location resolved",
		logger.String("city", loc.City),
		logger.String("country", loc.Country),
		logger.Duration("elapsed", elapsed))

	if r.cache != nil {
		stored := *loc
		r.cache.SetDefault(cacheKey, &stored)
	}
	return loc, nil
}

func (r *Resolver) lookup(ctx context.Context) (*Location, error) {
	resp, err := r.client.Get(ctx, r.endpoint)
	if err != nil {
		return nil, &TransportError{Detail: err.Error(), Err: err}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			r.log.Debug("Failed to close response body", logger.Error(cerr))
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &TransportError{Detail: fmt.Sprintf("%d %s for url: %s", resp.StatusCode, http.StatusText(resp.StatusCode), r.endpoint)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Detail: "reading response body: " + err.Error(), Err: err}
	}

	var data ipAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &ParseError{Detail: err.Error(), Err: err}
	}

	if data.Status == "fail" {
		msg := data.Message
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, &LookupFailedError{Message: msg}
	}

	if data.Lat == nil || data.Lon == nil {
		return nil, &ParseError{Detail: "response is missing lat/lon"}
	}

	return &Location{
		Latitude:  *data.Lat,
		Longitude: *data.Lon,
		City:      orNA(data.City),
		Region:    orNA(data.RegionName),
		Country:   orNA(data.Country),
	}, nil
}

// fail logs and wraps a lookup error
func (r *Resolver) fail(err error, elapsed time.Duration) error {
	outcome := "transport_error"
	var lookupErr *LookupFailedError
	var parseErr *ParseError
	var limitErr *RateLimitedError
	switch {
	case errors.As(err, &lookupErr):
		outcome = "lookup_failed"
	case errors.As(err, &parseErr):
		outcome = "parse_error"
	case errors.As(err, &limitErr):
		outcome = "rate_limited"
	}
	r.observe(outcome, elapsed)

	r.log.Warn("Geolocation lookup failed",
		logger.String("outcome", outcome),
		logger.Error(err))

	return errors.New(err).
		Component("geolocation").
		Context("operation", "resolve_location").
		Context("outcome", outcome).
		NetworkContext(r.endpoint, r.timeout).
		Build()
}

func (r *Resolver) observe(outcome string, elapsed time.Duration) {
	if r.observer != nil {
		r.observer.RecordLookup(outcome, elapsed)
	}
}

func orNA(s *string) string {
	if s == nil || *s == "" {
		return notAvailable
	}
	return *s
}
