package datasource

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"weather-state/models"

	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a fetch could not get past the limiter
// before its context ended
var ErrRateLimited = errors.New("rate limited")

// slowWait is the limiter wait above which a fetch is logged
const slowWait = 10 * time.Millisecond

// RateLimitedForecastSource spaces out fetches against a ForecastSource.
// A user mashing retry waits in Loading instead of hitting the source.
type RateLimitedForecastSource struct {
	source  ForecastSource
	limiter *rate.Limiter
	name    string
	logger  *log.Logger
}

// RateLimitOption configures a RateLimitedForecastSource
type RateLimitOption func(*RateLimitedForecastSource)

// WithRateLimitLogger sets where limiter waits are logged
func WithRateLimitLogger(l *log.Logger) RateLimitOption {
	return func(r *RateLimitedForecastSource) { r.logger = l }
}

// NewRateLimitedForecastSource creates a new rate limited forecast source
// rps is the maximum requests per second allowed (can be fractional for less than 1 request per second)
// burst is the maximum burst size allowed
func NewRateLimitedForecastSource(source ForecastSource, rps float64, burst int, opts ...RateLimitOption) *RateLimitedForecastSource {
	r := &RateLimitedForecastSource{
		source:  source,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		name:    fmt.Sprintf("%s [Rate Limited]", source.Name()),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FetchForecast waits for the limiter, then fetches from the wrapped
// source. A wait that cannot finish before ctx ends fails with
// ErrRateLimited, so the screen shows why nothing was fetched.
func (r *RateLimitedForecastSource) FetchForecast(ctx context.Context) (models.Forecast, error) {
	start := time.Now()
	if err := r.limiter.Wait(ctx); err != nil {
		r.logger.Printf("%s: gave up waiting for the rate limiter after %s: %v", r.name, time.Since(start).Round(time.Millisecond), err)
		return models.Forecast{}, fmt.Errorf("%w: %s", ErrRateLimited, r.source.Name())
	}

	if waited := time.Since(start); waited >= slowWait {
		r.logger.Printf("%s: waited %s for the rate limiter", r.name, waited.Round(time.Millisecond))
	}

	return r.source.FetchForecast(ctx)
}

// Name returns the source name
func (r *RateLimitedForecastSource) Name() string {
	return r.name
}

var _ ForecastSource = (*RateLimitedForecastSource)(nil)
