package datasource

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"weather-state/models"
)

// Outcome is one candidate result the fake source may pick
type Outcome int

const (
	// OutcomeSuccess yields a freshly generated forecast
	OutcomeSuccess Outcome = iota
	// OutcomeTimeout yields ErrTimeout
	OutcomeTimeout
)

// String returns the config name of the outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// ParseOutcome parses "success" or "timeout"
func ParseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "success":
		return OutcomeSuccess, nil
	case "timeout":
		return OutcomeTimeout, nil
	default:
		return 0, fmt.Errorf("unknown outcome %q", s)
	}
}

// DefaultOutcomes mirrors the demo data: two good answers, one timeout
var DefaultOutcomes = []Outcome{OutcomeSuccess, OutcomeSuccess, OutcomeTimeout}

const (
	defaultFakeDelay = time.Second
	defaultFakeDays  = 7
)

// FakeSource simulates a slow forecast API with random data
type FakeSource struct {
	delay    time.Duration
	days     int
	outcomes []Outcome
	now      func() time.Time

	mu  sync.Mutex // guards rnd
	rnd *rand.Rand
}

// FakeOption configures a FakeSource
type FakeOption func(*FakeSource)

// WithDelay sets the simulated latency
func WithDelay(d time.Duration) FakeOption {
	return func(f *FakeSource) { f.delay = d }
}

// WithDays sets how many days a successful fetch returns; values below 1 are ignored
func WithDays(n int) FakeOption {
	return func(f *FakeSource) {
		if n >= 1 {
			f.days = n
		}
	}
}

// WithOutcomes replaces the candidate set. A single outcome makes the source deterministic.
func WithOutcomes(outcomes ...Outcome) FakeOption {
	return func(f *FakeSource) {
		if len(outcomes) > 0 {
			f.outcomes = append([]Outcome(nil), outcomes...)
		}
	}
}

// WithSeed seeds the random generator
func WithSeed(seed int64) FakeOption {
	return func(f *FakeSource) { f.rnd = rand.New(rand.NewSource(seed)) }
}

// WithClock overrides the source of "today"
func WithClock(now func() time.Time) FakeOption {
	return func(f *FakeSource) { f.now = now }
}

// NewFakeSource creates a fake source with a 1s delay, 7 days and DefaultOutcomes
func NewFakeSource(opts ...FakeOption) *FakeSource {
	f := &FakeSource{
		delay:    defaultFakeDelay,
		days:     defaultFakeDays,
		outcomes: DefaultOutcomes,
		now:      time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name returns the source name
func (f *FakeSource) Name() string {
	return "Fake"
}

// FetchForecast waits for the configured delay, then picks an outcome
func (f *FakeSource) FetchForecast(ctx context.Context) (models.Forecast, error) {
	if f.delay > 0 {
		timer := time.NewTimer(f.delay)
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-ctx.Done():
			return models.Forecast{}, fmt.Errorf("fake fetch canceled: %w", ctx.Err())
		}
	}

	f.mu.Lock()
	outcome := f.outcomes[f.rnd.Intn(len(f.outcomes))]
	var days []models.ForecastDay
	if outcome == OutcomeSuccess {
		days = Generate(f.now(), f.days, f.rnd)
	}
	f.mu.Unlock()

	if outcome == OutcomeTimeout {
		return models.Forecast{}, ErrTimeout
	}

	return models.Forecast{
		Provider: f.Name(),
		Days:     days,
		Updated:  f.now(),
	}, nil
}

var _ ForecastSource = (*FakeSource)(nil)
