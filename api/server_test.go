package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"weather-state/journal"
	"weather-state/models"
	"weather-state/viewstate"
)

type result struct {
	forecast models.Forecast
	err      error
}

// chanSource returns whatever the test pushes, one result per fetch
type chanSource chan result

func (c chanSource) Name() string { return "Chan" }

func (c chanSource) FetchForecast(ctx context.Context) (models.Forecast, error) {
	select {
	case r := <-c:
		return r.forecast, r.err
	case <-ctx.Done():
		return models.Forecast{}, ctx.Err()
	}
}

func days() []models.ForecastDay {
	start := time.Date(2021, 3, 21, 0, 0, 0, 0, time.UTC)
	out := make([]models.ForecastDay, 0, 7)
	for i := 0; i < 7; i++ {
		out = append(out, models.ForecastDay{Date: start.AddDate(0, 0, i), Condition: models.Cloud, MinTemp: 2, MaxTemp: 12, CurrentTemp: 7})
	}
	return out
}

func newTestServer(t *testing.T, history journal.Store) (*Server, chanSource, *viewstate.Controller) {
	t.Helper()
	src := make(chanSource, 4)
	ctrl := viewstate.NewController(context.Background(), src, viewstate.WithLogger(log.New(io.Discard, "", 0)))
	t.Cleanup(ctrl.Close)
	return NewServer(ctrl, history, NewPreferenceStore(Preferences{}), 0), src, ctrl
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func waitForStatus(t *testing.T, ctrl *viewstate.Controller, want viewstate.Status) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if ctrl.State().Status == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("controller never reached %s, still %s", want, ctrl.State().Status)
}

func TestHealthCheck(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	rec := do(t, srv.Router(), http.MethodGet, "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on /api/health, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected an X-Request-ID header")
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestStateAndRetry(t *testing.T) {
	srv, src, ctrl := newTestServer(t, nil)
	h := srv.Router()

	var body map[string]interface{}
	rec := do(t, h, http.MethodGet, "/api/state")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if body["status"] != "loading" {
		t.Fatalf("expected loading, got %v", body["status"])
	}

	if rec := do(t, h, http.MethodPost, "/api/state/retry"); rec.Code != http.StatusConflict {
		t.Fatalf("retry while loading: expected 409, got %d", rec.Code)
	}

	src <- result{err: errors.New("timeout")}
	waitForStatus(t, ctrl, viewstate.StatusError)

	rec = do(t, h, http.MethodGet, "/api/state")
	body = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if body["status"] != "error" || body["reason"] != "timeout" {
		t.Fatalf("unexpected error state: %v", body)
	}

	if rec := do(t, h, http.MethodPost, "/api/state/retry"); rec.Code != http.StatusAccepted {
		t.Fatalf("retry from error: expected 202, got %d", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/state/retry"); rec.Code != http.StatusConflict {
		t.Fatalf("second retry: expected 409, got %d", rec.Code)
	}

	src <- result{forecast: models.Forecast{Days: days()}}
	waitForStatus(t, ctrl, viewstate.StatusSuccess)

	if rec := do(t, h, http.MethodGet, "/api/state/retry"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on retry: expected 405, got %d", rec.Code)
	}
}

func TestStream(t *testing.T) {
	srv, src, _ := newTestServer(t, nil)
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/state/stream", nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("stream request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %q", ct)
	}

	events := make(chan string, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if line := scanner.Text(); strings.HasPrefix(line, "data: ") {
				events <- strings.TrimPrefix(line, "data: ")
			}
		}
		close(events)
	}()

	readStatus := func() string {
		t.Helper()
		select {
		case data, ok := <-events:
			if !ok {
				t.Fatal("stream ended early")
			}
			var payload struct {
				Status string `json:"status"`
			}
			if err := json.Unmarshal([]byte(data), &payload); err != nil {
				t.Fatalf("decode event %q: %v", data, err)
			}
			return payload.Status
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for an event")
			return ""
		}
	}

	if got := readStatus(); got != "loading" {
		t.Fatalf("first event = %q, want loading", got)
	}
	src <- result{forecast: models.Forecast{Days: days()}}
	if got := readStatus(); got != "success" {
		t.Fatalf("second event = %q, want success", got)
	}
}

func TestHistory(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		srv, _, _ := newTestServer(t, nil)
		if rec := do(t, srv.Router(), http.MethodGet, "/api/history"); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("Enabled", func(t *testing.T) {
		store, err := journal.NewSQLite(filepath.Join(t.TempDir(), "history.db"))
		if err != nil {
			t.Fatalf("NewSQLite: %v", err)
		}
		defer store.Close()

		srv, src, ctrl := newTestServer(t, store)
		sub := ctrl.Subscribe(journal.Recorder(store, log.New(io.Discard, "", 0)))
		defer sub.Unsubscribe()

		src <- result{err: errors.New("timeout")}

		var body struct {
			Entries []journal.Entry `json:"entries"`
			Count   int             `json:"count"`
		}
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			rec := do(t, srv.Router(), http.MethodGet, "/api/history?limit=10")
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode history: %v", err)
			}
			if body.Count == 2 {
				break
			}
			time.Sleep(10 * time.Millisecond)
		}

		if body.Count != 2 {
			t.Fatalf("expected 2 journal entries, got %d", body.Count)
		}
		if body.Entries[0].Status != "error" || body.Entries[1].Status != "loading" {
			t.Errorf("unexpected entries: %+v", body.Entries)
		}
	})
}

func TestToggleDarkMode(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	h := srv.Router()

	var prefs Preferences
	rec := do(t, h, http.MethodGet, "/api/preferences")
	if err := json.Unmarshal(rec.Body.Bytes(), &prefs); err != nil {
		t.Fatalf("decode preferences: %v", err)
	}
	if prefs.DarkMode {
		t.Fatal("dark mode should start off")
	}

	rec = do(t, h, http.MethodPost, "/api/preferences/dark-mode/toggle")
	if err := json.Unmarshal(rec.Body.Bytes(), &prefs); err != nil {
		t.Fatalf("decode preferences: %v", err)
	}
	if !prefs.DarkMode {
		t.Fatal("toggle should turn dark mode on")
	}

	do(t, h, http.MethodPost, "/api/preferences/dark-mode/toggle")
	if srv.preferences.Get().DarkMode {
		t.Fatal("second toggle should turn dark mode off")
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t, nil)
	h := srv.Router()

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/state/retry", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/state", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/preferences/dark-mode/toggle", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/history", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			if rec := do(t, h, tt.method, tt.path); rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
