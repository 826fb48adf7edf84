// Package viewstate holds the forecast screen's state machine: a controller
// that starts in Loading, fetches from a datasource.ForecastSource and moves
// to Error or Success, with retry from Error and observer notifications.
package viewstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"weather-state/models"
)

// Status is the discriminator of a ViewState
type Status int

const (
	StatusLoading Status = iota
	StatusError
	StatusSuccess
)

// String returns "loading", "error" or "success"
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// ViewState is what the screen should currently show. Err is set only for
// StatusError and Days only for StatusSuccess. At is when the controller
// entered the state; it is zero until the state is published. Values are
// snapshots: the controller replaces them and never mutates one after
// publishing it.
type ViewState struct {
	Status Status
	Err    error
	Days   []models.ForecastDay
	At     time.Time
}

var errUnknown = errors.New("unknown error")

// Loading returns the initial state
func Loading() ViewState {
	return ViewState{Status: StatusLoading}
}

// Failed returns an Error state carrying err
func Failed(err error) ViewState {
	if err == nil {
		err = errUnknown
	}
	return ViewState{Status: StatusError, Err: err}
}

// Loaded returns a Success state owning a copy of days
func Loaded(days []models.ForecastDay) ViewState {
	return ViewState{Status: StatusSuccess, Days: append([]models.ForecastDay(nil), days...)}
}

// Reason is the text of the failure, empty unless Status is StatusError
func (v ViewState) Reason() string {
	if v.Status != StatusError || v.Err == nil {
		return ""
	}
	return v.Err.Error()
}

// Today is the day to show prominently on success
func (v ViewState) Today() (models.ForecastDay, bool) {
	if v.Status != StatusSuccess || len(v.Days) == 0 {
		return models.ForecastDay{}, false
	}
	return v.Days[0], true
}

// NextDays are the days listed after today
func (v ViewState) NextDays() []models.ForecastDay {
	if v.Status != StatusSuccess || len(v.Days) < 2 {
		return nil
	}
	return v.Days[1:]
}

type dayJSON struct {
	models.ForecastDay
	Description string `json:"description"`
}

type stateJSON struct {
	Status   string     `json:"status"`
	Reason   string     `json:"reason,omitempty"`
	At       *time.Time `json:"at,omitempty"`
	Today    *dayJSON   `json:"today,omitempty"`
	NextDays []dayJSON  `json:"next_days,omitempty"`
}

// MarshalJSON renders the state the way the API serves it
func (v ViewState) MarshalJSON() ([]byte, error) {
	out := stateJSON{Status: v.Status.String(), Reason: v.Reason()}
	if !v.At.IsZero() {
		at := v.At
		out.At = &at
	}
	if today, ok := v.Today(); ok {
		out.Today = &dayJSON{ForecastDay: today, Description: today.Condition.Description()}
		for _, d := range v.NextDays() {
			out.NextDays = append(out.NextDays, dayJSON{ForecastDay: d, Description: d.Condition.Description()})
		}
	}
	return json.Marshal(out)
}
