package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"weather-state/journal"
	"weather-state/viewstate"

	"github.com/gorilla/mux"
)

// Server represents the API server in front of one forecast controller
type Server struct {
	controller  *viewstate.Controller
	journal     journal.Store
	preferences *PreferenceStore
	router      *mux.Router
	server      *http.Server
}

// NewServer creates a new API server. history may be nil.
func NewServer(controller *viewstate.Controller, history journal.Store, preferences *PreferenceStore, port int) *Server {
	router := mux.NewRouter()

	s := &Server{
		controller:  controller,
		journal:     history,
		preferences: preferences,
		router:      router,
		server: &http.Server{
			Addr:        fmt.Sprintf(":%d", port),
			Handler:     router,
			ReadTimeout: 15 * time.Second,
			IdleTimeout: 60 * time.Second,
		},
	}

	router.Use(RequestID, logRequests)

	// Full paths on the root router so a method mismatch is a 405, not a 404
	router.HandleFunc("/api/health", s.handleHealthCheck).Methods(http.MethodGet)

	// View state
	router.HandleFunc("/api/state", s.handleGetState).Methods(http.MethodGet)
	router.HandleFunc("/api/state/retry", s.handleRetry).Methods(http.MethodPost)
	router.HandleFunc("/api/state/stream", s.handleStream).Methods(http.MethodGet)
	router.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)

	// Preferences
	router.HandleFunc("/api/preferences", s.handleGetPreferences).Methods(http.MethodGet)
	router.HandleFunc("/api/preferences/dark-mode/toggle", s.handleToggleDarkMode).Methods(http.MethodPost)

	return s
}

// Router exposes the handler, mostly for tests
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins the API server
func (s *Server) Start() error {
	log.Printf("Starting API server on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleGetState returns the current view state snapshot
func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.State())
}

// handleRetry asks the controller to fetch again; only accepted from the error state
func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	started := s.controller.Retry()

	status := http.StatusAccepted
	if !started {
		status = http.StatusConflict
	}
	writeJSON(w, status, map[string]interface{}{
		"retried": started,
		"state":   s.controller.State(),
	})
}

// handleStream pushes every state transition as a server-sent event
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := prepareSSE(w)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	for state := range s.controller.Watch(r.Context()) {
		if err := writeEvent(w, flusher, "state", state); err != nil {
			log.Printf("Error writing state event: %v", err)
			return
		}
	}
}

// handleHistory lists journaled transitions, newest first
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeError(w, http.StatusNotFound, "journal is disabled")
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
			if limit > 500 {
				limit = 500
			}
		}
	}

	entries, err := s.journal.List(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read journal: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.preferences.Get())
}

func (s *Server) handleToggleDarkMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.preferences.ToggleDarkMode())
}

// handleHealthCheck provides a simple health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
