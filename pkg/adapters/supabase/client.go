// Package supabase implements the notekeep gateway on the Supabase Go SDKs:
// gotrue-go for the auth service (/auth/v1) and postgrest-go for the data
// service (/rest/v1).
package supabase

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"
	"github.com/supabase-community/gotrue-go"
	"github.com/supabase-community/postgrest-go"

	"github.com/aretw0/notekeep/pkg/core"
)

// RequestIDHeader carries a ULID per request for correlation in backend logs.
const RequestIDHeader = "X-Request-Id"

const (
	authPath = "/auth/v1"
	restPath = "/rest/v1"
	schema   = "public"
)

// SessionStore persists the session between runs.
type SessionStore interface {
	Load() (*core.Session, error)
	Save(session *core.Session) error
	Clear() error
}

// Client is safe for concurrent use. SDK clients are derived per call, so a
// token or context never leaks between concurrent requests.
type Client struct {
	baseURL *url.URL
	anonKey string
	http    *http.Client
	auth    gotrue.Client
	store   SessionStore
	logger  *slog.Logger
	leeway  time.Duration
	now     func() time.Time

	users *cache.Cache

	mu      sync.Mutex
	session *core.Session
	loaded  bool

	// refreshMu serializes token refreshes so concurrent callers share one.
	refreshMu sync.Mutex

	observers observers
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithSessionStore persists the session. Without it the session lives in memory.
func WithSessionStore(store SessionStore) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRefreshLeeway refreshes the access token this long before it expires.
func WithRefreshLeeway(d time.Duration) Option {
	return func(c *Client) {
		c.leeway = d
	}
}

// WithUserCacheTTL sets how long GetUser results are reused per access token.
func WithUserCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.users = cache.New(ttl, 2*ttl)
	}
}

// NewClient creates a client for the project at baseURL.
func NewClient(baseURL, anonKey string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("backend url is required")
	}
	if anonKey == "" {
		return nil, fmt.Errorf("anon key is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL: u,
		anonKey: anonKey,
		http:    &http.Client{Timeout: 15 * time.Second},
		store:   &MemoryStore{},
		logger:  slog.Default(),
		leeway:  30 * time.Second,
		now:     time.Now,
		users:   cache.New(5*time.Minute, 10*time.Minute),
	}
	for _, opt := range opts {
		opt(c)
	}

	// The project reference only builds the hosted URL, replaced right away.
	c.auth = gotrue.New(u.Hostname(), anonKey).WithCustomGoTrueURL(c.url(authPath))
	return c, nil
}

func (c *Client) url(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String()
}

// HealthURL is the endpoint probed for reachability.
func (c *Client) HealthURL() string {
	return c.url(authPath + "/health")
}

// HealthHeader carries the headers the health endpoint requires.
func (c *Client) HealthHeader() http.Header {
	h := http.Header{}
	h.Set("apikey", c.anonKey)
	return h
}

// authFor returns an auth client whose requests run under ctx. An empty
// token sends the anon key only.
func (c *Client) authFor(ctx context.Context, token string) gotrue.Client {
	hc := *c.http
	hc.Transport = &requestTransport{ctx: ctx, base: c.http.Transport, logger: c.logger}
	auth := c.auth.WithClient(hc)
	if token != "" {
		auth = auth.WithToken(token)
	}
	return auth
}

// restFor returns a data client bearing token, tagged with a fresh request id.
func (c *Client) restFor(token string) *postgrest.Client {
	return postgrest.NewClient(c.url(restPath), schema, map[string]string{
		"apikey":        c.anonKey,
		"Authorization": "Bearer " + token,
		RequestIDHeader: ulid.Make().String(),
	})
}

// await runs a context-unaware SDK call, returning early when ctx is done.
// The abandoned call finishes in the background and its result is dropped.
func await[T any](ctx context.Context, call func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := call()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// MemoryStore keeps the session for the life of the process.
type MemoryStore struct {
	mu      sync.Mutex
	session *core.Session
}

func (m *MemoryStore) Load() (*core.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session, nil
}

func (m *MemoryStore) Save(session *core.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session = session
	return nil
}

func (m *MemoryStore) Clear() error {
	return m.Save(nil)
}

type observers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(core.AuthEvent, *core.Session)
}

func (o *observers) add(fn func(core.AuthEvent, *core.Session)) core.Subscription {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fns == nil {
		o.fns = make(map[int]func(core.AuthEvent, *core.Session))
	}
	id := o.next
	o.next++
	o.fns[id] = fn
	return core.SubscriptionFunc(func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.fns, id)
	})
}

func (o *observers) emit(event core.AuthEvent, session *core.Session) {
	o.mu.Lock()
	fns := make([]func(core.AuthEvent, *core.Session), 0, len(o.fns))
	for i := 0; i < o.next; i++ {
		if fn, ok := o.fns[i]; ok {
			fns = append(fns, fn)
		}
	}
	o.mu.Unlock()
	for _, fn := range fns {
		fn(event, session)
	}
}
