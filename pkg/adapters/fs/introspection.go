package fs

import (
	"os"
	"time"

	"github.com/aretw0/introspection"
)

// StoreState exposes the session store for observability. Tokens are never included.
type StoreState struct {
	Path          string     `json:"path"`
	Exists        bool       `json:"exists"`
	WatcherActive bool       `json:"watcher_active"`
	LastSaved     *time.Time `json:"last_saved,omitempty"`
}

// State implements introspection.Introspectable.
func (s *SessionStore) State() any {
	_, err := os.Stat(s.path)

	s.mu.RLock()
	defer s.mu.RUnlock()
	return StoreState{
		Path:          s.path,
		Exists:        err == nil,
		WatcherActive: s.watcherActive,
		LastSaved:     s.lastSaved,
	}
}

// ComponentType implements introspection.Component.
func (s *SessionStore) ComponentType() string {
	return "session-store"
}

var _ introspection.Introspectable = (*SessionStore)(nil)
var _ introspection.Component = (*SessionStore)(nil)
