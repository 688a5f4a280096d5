// Package fs persists the notekeep session on the local filesystem.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/notekeep/pkg/core"
)

const (
	// DefaultSessionFile is the session path relative to the user config dir.
	DefaultSessionFile = "notekeep/session.yaml"

	sessionPerm = 0o600
	dirPerm     = 0o700
)

// SessionChange is reported by Watch when the session file changes on disk.
// Session is nil when the file was removed or emptied.
type SessionChange struct {
	Session *core.Session
	At      time.Time
}

func (c SessionChange) String() string {
	if c.Session == nil {
		return "session removed"
	}
	return fmt.Sprintf("session updated for %s", c.Session.User.Email)
}

// SessionStore keeps the session as a YAML document. Writes are atomic and
// readable only by the owner.
type SessionStore struct {
	path     string
	logger   *slog.Logger
	debounce time.Duration
	onError  func(error)

	mu            sync.RWMutex
	watcherActive bool
	lastSaved     *time.Time
}

// StoreOption configures a SessionStore.
type StoreOption func(*SessionStore)

// WithLogger sets the store logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *SessionStore) {
		s.logger = logger
	}
}

// WithDebounce sets how long the watcher waits for a burst of writes to settle.
func WithDebounce(d time.Duration) StoreOption {
	return func(s *SessionStore) {
		s.debounce = d
	}
}

// WithWatchErrorHandler receives watcher failures (fsnotify errors, unreadable files).
func WithWatchErrorHandler(fn func(error)) StoreOption {
	return func(s *SessionStore) {
		s.onError = fn
	}
}

// NewSessionStore creates a store at path.
func NewSessionStore(path string, opts ...StoreOption) *SessionStore {
	s := &SessionStore{
		path:     filepath.Clean(path),
		logger:   slog.Default(),
		debounce: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultSessionPath resolves DefaultSessionFile under the user config dir.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, DefaultSessionFile), nil
}

// Path returns the session file location.
func (s *SessionStore) Path() string {
	return s.path
}

// Load reads the stored session. A missing or empty file is no session.
func (s *SessionStore) Load() (*core.Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	return decodeSession(data)
}

func decodeSession(data []byte) (*core.Session, error) {
	var session core.Session
	if err := yaml.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if session.AccessToken == "" {
		return nil, nil
	}
	return &session, nil
}

// Save writes session, creating the parent directory. A nil session clears the file.
func (s *SessionStore) Save(session *core.Session) error {
	if session == nil {
		return s.Clear()
	}

	data, err := yaml.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := writeFileAtomic(s.path, data, sessionPerm); err != nil {
		return err
	}

	now := time.Now()
	s.mu.Lock()
	s.lastSaved = &now
	s.mu.Unlock()

	s.logger.Debug("session saved", "path", s.path, "user", session.User.Email)
	return nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (s *SessionStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	s.logger.Debug("session cleared", "path", s.path)
	return nil
}

// Watch reports changes made to the session file, including those of other
// processes. The watcher is supervised and restarted on failure; the channel is
// closed once ctx is done and the watcher has stopped.
func (s *SessionStore) Watch(ctx context.Context) (<-chan SessionChange, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), dirPerm); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}

	changes := make(chan SessionChange)
	sup := supervisor.New("session-watcher", supervisor.StrategyOneForOne, s.watchSpec(changes))
	if err := sup.Start(ctx); err != nil {
		return nil, fmt.Errorf("start session watcher: %w", err)
	}

	lifecycle.Go(context.WithoutCancel(ctx), func(context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sup.Stop(stopCtx); err != nil {
			s.logger.Warn("session watcher stop failed", "error", err)
		}
		close(changes)
		return nil
	})
	return changes, nil
}

func (s *SessionStore) watchSpec(changes chan<- SessionChange) supervisor.Spec {
	return supervisor.Spec{
		Name: "session-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return newWatchWorker(s, changes), nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			Multiplier:      2,
			ResetDuration:   time.Minute,
			MaxRestarts:     10,
			MaxDuration:     10 * time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}
}

func (s *SessionStore) setWatcherActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watcherActive = active
}

func (s *SessionStore) reportError(err error) {
	if s.onError != nil {
		s.onError(err)
		return
	}
	s.logger.Error("session watcher error", "error", err)
}
