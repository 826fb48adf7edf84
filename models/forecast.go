package models

import (
	"errors"
	"fmt"
	"time"
)

// ForecastDay is the forecast for one calendar day
type ForecastDay struct {
	Date        time.Time `json:"date"`        // midnight of the day, local time
	Condition   Condition `json:"condition"`   // dominant condition
	MinTemp     int       `json:"minTemp"`     // in Celsius
	MaxTemp     int       `json:"maxTemp"`     // in Celsius
	CurrentTemp int       `json:"currentTemp"` // in Celsius
}

// NewForecastDay builds a ForecastDay, enforcing minTemp <= currentTemp <= maxTemp
func NewForecastDay(date time.Time, condition Condition, minTemp, maxTemp, currentTemp int) (ForecastDay, error) {
	if !condition.Valid() {
		return ForecastDay{}, fmt.Errorf("invalid condition %d", int(condition))
	}
	if minTemp > currentTemp || currentTemp > maxTemp {
		return ForecastDay{}, fmt.Errorf("temperatures out of order: min=%d current=%d max=%d", minTemp, currentTemp, maxTemp)
	}
	return ForecastDay{
		Date:        StartOfDay(date),
		Condition:   condition,
		MinTemp:     minTemp,
		MaxTemp:     maxTemp,
		CurrentTemp: currentTemp,
	}, nil
}

// StartOfDay truncates t to midnight in its own location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Forecast is a successful fetch: consecutive days, the first one being today
type Forecast struct {
	Provider string        `json:"provider"`
	Days     []ForecastDay `json:"days"`
	Updated  time.Time     `json:"updated"`
}

// ErrEmptyForecast is returned by Validate when a forecast has no days
var ErrEmptyForecast = errors.New("forecast has no days")

// Validate checks that the forecast is non-empty, chronologically strictly
// increasing and that every day honours its temperature ordering
func (f Forecast) Validate() error {
	if len(f.Days) == 0 {
		return ErrEmptyForecast
	}
	for i, day := range f.Days {
		if day.MinTemp > day.CurrentTemp || day.CurrentTemp > day.MaxTemp {
			return fmt.Errorf("day %d: temperatures out of order", i)
		}
		if i > 0 && !day.Date.After(f.Days[i-1].Date) {
			return fmt.Errorf("day %d: date %s not after %s", i, day.Date.Format(time.DateOnly), f.Days[i-1].Date.Format(time.DateOnly))
		}
	}
	return nil
}

// Today returns the first day of the forecast
func (f Forecast) Today() (ForecastDay, bool) {
	if len(f.Days) == 0 {
		return ForecastDay{}, false
	}
	return f.Days[0], true
}
