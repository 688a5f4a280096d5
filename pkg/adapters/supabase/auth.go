package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/aretw0/notekeep/pkg/core"
)

func (c *Client) sessionFrom(resp types.Session) *core.Session {
	if resp.AccessToken == "" {
		return nil
	}
	s := &core.Session{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
	}
	switch {
	case resp.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(int64(resp.ExpiresAt), 0).UTC()
	case resp.ExpiresIn > 0:
		s.ExpiresAt = c.now().Add(time.Duration(resp.ExpiresIn) * time.Second).UTC()
	}
	if resp.User.ID != uuid.Nil {
		s.User = userFrom(resp.User)
	}

	if s.ExpiresAt.IsZero() || s.User.ID == "" {
		if claims, err := parseClaims(s.AccessToken); err == nil {
			if s.ExpiresAt.IsZero() && claims.ExpiresAt != nil {
				s.ExpiresAt = claims.ExpiresAt.UTC()
			}
			if s.User.ID == "" {
				s.User = core.User{ID: claims.Subject, Email: claims.Email}
			}
		} else {
			c.logger.Debug("access token claims unreadable", "error", err)
		}
	}
	return s
}

func userFrom(u types.User) core.User {
	return core.User{ID: u.ID.String(), Email: u.Email}
}

// OnAuthChange implements core.AuthGateway.
func (c *Client) OnAuthChange(fn func(core.AuthEvent, *core.Session)) core.Subscription {
	return c.observers.add(fn)
}

// GetSession returns the persisted session, refreshing it when the access
// token is about to expire. A session that can no longer be refreshed is
// dropped and reported as signed out.
func (c *Client) GetSession(ctx context.Context) (*core.Session, error) {
	session, err := c.current()
	if err != nil {
		return nil, err
	}
	if session == nil || !session.Expired(c.now(), c.leeway) {
		return session, nil
	}
	return c.refresh(ctx, session)
}

func (c *Client) current() (*core.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		session, err := c.store.Load()
		if err != nil {
			return nil, fmt.Errorf("load session: %w", err)
		}
		c.session = session
		c.loaded = true
	}
	return c.session, nil
}

// refresh exchanges the refresh token of stale for a new session.
func (c *Client) refresh(ctx context.Context, stale *core.Session) (*core.Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// Another caller may have refreshed while we waited.
	if session, err := c.current(); err != nil || session == nil || session.AccessToken != stale.AccessToken {
		return session, err
	}
	if stale.RefreshToken == "" {
		c.setSession(core.AuthSignedOut, nil)
		return nil, nil
	}

	resp, err := c.authFor(ctx, "").RefreshToken(stale.RefreshToken)
	if err = authError(err); err != nil {
		var gwErr *core.GatewayError
		if errors.As(err, &gwErr) && gwErr.IsAuthError() {
			c.logger.Info("session refresh rejected, signing out", "error", err)
			c.setSession(core.AuthSignedOut, nil)
			return nil, nil
		}
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	session := c.sessionFrom(resp.Session)
	if session != nil && session.User.ID == "" {
		session.User = stale.User
	}
	c.setSession(core.AuthTokenRefreshed, session)
	return session, nil
}

// setSession records, persists and announces a transition.
func (c *Client) setSession(event core.AuthEvent, session *core.Session) {
	c.mu.Lock()
	previous := c.session
	c.session = session
	c.loaded = true
	c.mu.Unlock()

	if previous != nil && (session == nil || previous.AccessToken != session.AccessToken) {
		c.users.Delete(previous.AccessToken)
	}
	if err := c.store.Save(session); err != nil {
		c.logger.Warn("persist session failed", "error", err)
	}
	c.observers.emit(event, session)
}

// SignInWithPassword implements core.AuthGateway.
func (c *Client) SignInWithPassword(ctx context.Context, creds core.Credentials) (*core.Session, error) {
	resp, err := c.authFor(ctx, "").SignInWithEmailPassword(creds.Email, creds.Password)
	if err = authError(err); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	session := c.sessionFrom(resp.Session)
	if session == nil {
		return nil, fmt.Errorf("sign in: %w", &core.GatewayError{Status: http.StatusBadGateway, Message: "no session in response"})
	}
	c.logger.Info("signed in", "user", session.User.Email)
	c.setSession(core.AuthSignedIn, session)
	return session, nil
}

// SignUp implements core.AuthGateway. The backend answers with the bare user
// while e-mail confirmation is pending, and with a session otherwise.
func (c *Client) SignUp(ctx context.Context, creds core.Credentials) (*core.Session, error) {
	resp, err := c.authFor(ctx, "").Signup(types.SignupRequest{
		Email:    creds.Email,
		Password: creds.Password,
	})
	if err = authError(err); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}

	session := c.sessionFrom(resp.Session)
	if session == nil {
		c.logger.Info("account created, confirmation pending", "email", creds.Email)
		return nil, nil
	}
	c.setSession(core.AuthSignedIn, session)
	return session, nil
}

// SignOut revokes the session remotely and forgets it locally. A token the
// backend no longer accepts is still forgotten; transport failures keep it.
func (c *Client) SignOut(ctx context.Context) error {
	session, err := c.current()
	if err != nil {
		return err
	}
	if session == nil {
		c.setSession(core.AuthSignedOut, nil)
		return nil
	}

	err = authError(c.authFor(ctx, session.AccessToken).Logout())
	var gwErr *core.GatewayError
	if err != nil && !errors.As(err, &gwErr) {
		return fmt.Errorf("sign out: %w", err)
	}
	if err != nil {
		c.logger.Debug("remote logout rejected", "error", err)
	}

	c.logger.Info("signed out", "user", session.User.Email)
	c.setSession(core.AuthSignedOut, nil)
	return nil
}

// GetUser implements core.AuthGateway. Results are cached per access token.
func (c *Client) GetUser(ctx context.Context) (core.User, error) {
	session, err := c.GetSession(ctx)
	if err != nil {
		return core.User{}, err
	}
	if session == nil {
		return core.User{}, core.ErrNoSession
	}
	if cached, ok := c.users.Get(session.AccessToken); ok {
		return cached.(core.User), nil
	}

	resp, err := c.authFor(ctx, session.AccessToken).GetUser()
	if err = authError(err); err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}

	u := userFrom(resp.User)
	c.users.Set(session.AccessToken, u, cache.DefaultExpiration)
	return u, nil
}

// ApplyStoredSession reconciles a session written by another process. Writes
// of this client come back identical and are ignored.
func (c *Client) ApplyStoredSession(stored *core.Session) {
	current, err := c.current()
	if err != nil {
		c.logger.Warn("reconcile stored session", "error", err)
		return
	}

	var event core.AuthEvent
	switch {
	case current == nil && stored == nil:
		return
	case stored == nil:
		event = core.AuthSignedOut
	case current == nil:
		event = core.AuthSignedIn
	case current.AccessToken == stored.AccessToken:
		return
	case current.User.ID == stored.User.ID:
		event = core.AuthTokenRefreshed
	default:
		event = core.AuthSignedIn
	}

	c.mu.Lock()
	c.session = stored
	c.loaded = true
	c.mu.Unlock()

	c.logger.Info("session changed externally", "event", event)
	c.observers.emit(event, stored)
}

// accessToken returns the bearer for data requests: the session token, or
// the anon key when signed out.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	session, err := c.GetSession(ctx)
	if err != nil {
		return "", err
	}
	if session == nil {
		return c.anonKey, nil
	}
	return session.AccessToken, nil
}
