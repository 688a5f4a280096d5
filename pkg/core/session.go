package core

import (
	"context"
	"log/slog"
	"sync"
)

// SessionController owns the current session and selects the top-level view.
type SessionController struct {
	auth   AuthGateway
	logger *slog.Logger

	mu      sync.RWMutex
	session *Session
	version uint64
	event   AuthEvent

	sub       Subscription
	observers listeners[func(View, *Session)]
}

// NewSessionController creates a controller over the given auth gateway.
func NewSessionController(auth AuthGateway, logger *slog.Logger) *SessionController {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionController{auth: auth, logger: logger}
}

// Start subscribes to auth changes and then queries the initial session once.
// A transition reported while the initial query is in flight wins over its result.
func (c *SessionController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.sub != nil {
		c.mu.Unlock()
		return nil
	}
	c.sub = c.auth.OnAuthChange(c.handleAuthChange)
	started := c.version
	c.mu.Unlock()

	session, err := c.auth.GetSession(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("initial session query failed", "error", err)
		session = nil
	}

	c.mu.Lock()
	if c.version != started {
		c.mu.Unlock()
		c.logger.Debug("initial session superseded by auth event")
		return nil
	}
	c.session = session
	c.event = AuthInitialSession
	c.version++
	c.mu.Unlock()

	c.notify(viewFor(session), session)
	return nil
}

func (c *SessionController) handleAuthChange(event AuthEvent, session *Session) {
	c.mu.Lock()
	c.session = session
	c.event = event
	c.version++
	c.mu.Unlock()

	c.logger.Debug("auth state changed", "event", event, "signed_in", session != nil)
	c.notify(viewFor(session), session)
}

// Current returns the active session, or nil.
func (c *SessionController) Current() *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// View returns the screen the session selects.
func (c *SessionController) View() View {
	return viewFor(c.Current())
}

// OnChange registers fn for every session transition.
func (c *SessionController) OnChange(fn func(View, *Session)) Subscription {
	return c.observers.add(fn)
}

// Close drops the auth subscription.
func (c *SessionController) Close() {
	c.mu.Lock()
	sub := c.sub
	c.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

func (c *SessionController) notify(view View, session *Session) {
	for _, fn := range c.observers.snapshot() {
		fn(view, session)
	}
}

func viewFor(s *Session) View {
	if s == nil {
		return ViewAuth
	}
	return ViewNotes
}
