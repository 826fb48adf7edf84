package api

import "sync"

// Preferences are the user's display settings. They live in memory only.
type Preferences struct {
	DarkMode bool `json:"dark_mode"`
}

// PreferenceStore holds the current preferences
type PreferenceStore struct {
	prefs Preferences
	mutex sync.RWMutex
}

// NewPreferenceStore creates a store starting from initial
func NewPreferenceStore(initial Preferences) *PreferenceStore {
	return &PreferenceStore{prefs: initial}
}

// Get returns a copy of the current preferences
func (s *PreferenceStore) Get() Preferences {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.prefs
}

// ToggleDarkMode flips dark mode and returns the new preferences
func (s *PreferenceStore) ToggleDarkMode() Preferences {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.prefs.DarkMode = !s.prefs.DarkMode
	return s.prefs
}
