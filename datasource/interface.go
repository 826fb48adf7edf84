package datasource

import (
	"context"
	"errors"

	"weather-state/models"
)

// ForecastSource is anything that can produce a multi-day forecast.
// A nil error means success; any error is a fetch failure whose text is the
// reason shown to the user.
type ForecastSource interface {
	// FetchForecast fetches a fresh forecast starting today
	FetchForecast(ctx context.Context) (models.Forecast, error)

	// Name returns the source's name
	Name() string
}

// ErrTimeout is the synthetic failure returned by the fake source
var ErrTimeout = errors.New("timeout")
