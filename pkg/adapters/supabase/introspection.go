package supabase

import (
	"time"

	"github.com/aretw0/introspection"

	"github.com/aretw0/notekeep/pkg/core"
)

// ClientState exposes the gateway for observability. Tokens are never included.
type ClientState struct {
	BaseURL   string    `json:"base_url"`
	SignedIn  bool      `json:"signed_in"`
	UserID    string    `json:"user_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
	UserCache int       `json:"user_cache_entries"`
}

// State implements introspection.Introspectable.
func (c *Client) State() any {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()

	st := ClientState{BaseURL: c.baseURL.String(), UserCache: c.users.ItemCount()}
	if session != nil {
		st.SignedIn = true
		st.UserID = session.User.ID
		st.Email = session.User.Email
		st.ExpiresAt = session.ExpiresAt
	}
	return st
}

// ComponentType implements introspection.Component.
func (c *Client) ComponentType() string {
	return "gateway"
}

var _ core.Gateway = (*Client)(nil)
var _ introspection.Introspectable = (*Client)(nil)
var _ introspection.Component = (*Client)(nil)
