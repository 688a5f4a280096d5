package supabase_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notekeep/internal/devserver"
	"github.com/aretw0/notekeep/pkg/adapters/supabase"
	"github.com/aretw0/notekeep/pkg/core"
)

// recorder remembers every request path and request id the backend saw.
type recorder struct {
	mu    sync.Mutex
	paths []string
	ids   []string
}

func (r *recorder) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.paths = append(r.paths, req.Method+" "+req.URL.Path)
		r.ids = append(r.ids, req.Header.Get(supabase.RequestIDHeader))
		r.mu.Unlock()
		next.ServeHTTP(w, req)
	})
}

func (r *recorder) count(entry string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, p := range r.paths {
		if p == entry {
			n++
		}
	}
	return n
}

func (r *recorder) requestIDs(prefix string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []string
	for i, p := range r.paths {
		if strings.Contains(p, prefix) {
			ids = append(ids, r.ids[i])
		}
	}
	return ids
}

type authEvents struct {
	mu     sync.Mutex
	events []core.AuthEvent
}

func (a *authEvents) record(e core.AuthEvent, _ *core.Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, e)
}

func (a *authEvents) all() []core.AuthEvent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]core.AuthEvent(nil), a.events...)
}

type fixture struct {
	backend  *devserver.Server
	requests *recorder
	store    *supabase.MemoryStore
	client   *supabase.Client
	events   *authEvents
	url      string
}

func newFixture(t *testing.T, cfg devserver.Config, opts ...supabase.Option) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	backend := devserver.New(cfg)
	requests := &recorder{}
	srv := httptest.NewServer(requests.wrap(backend.Handler()))
	t.Cleanup(srv.Close)

	f := &fixture{
		backend:  backend,
		requests: requests,
		store:    &supabase.MemoryStore{},
		events:   &authEvents{},
		url:      srv.URL,
	}
	opts = append([]supabase.Option{
		supabase.WithSessionStore(f.store),
	}, opts...)
	client, err := supabase.NewClient(srv.URL, backend.AnonKey(), opts...)
	require.NoError(t, err)
	client.OnAuthChange(f.events.record)
	f.client = client
	return f
}

func (f *fixture) signIn(t *testing.T, email string) *core.Session {
	t.Helper()
	ctx := context.Background()
	creds := core.Credentials{Email: email, Password: "secret"}
	_, err := f.client.SignUp(ctx, creds)
	require.NoError(t, err)
	session, err := f.client.SignInWithPassword(ctx, creds)
	require.NoError(t, err)
	return session
}

func TestNewClient_Validation(t *testing.T) {
	_, err := supabase.NewClient("", "key")
	assert.Error(t, err)
	_, err = supabase.NewClient("http://localhost", "")
	assert.Error(t, err)
	_, err = supabase.NewClient("localhost:8080", "key")
	assert.Error(t, err)
}

func TestClient_SignUpRequiresSeparateSignIn(t *testing.T) {
	f := newFixture(t, devserver.Config{})

	session, err := f.client.SignUp(context.Background(), core.Credentials{Email: "me@example.com", Password: "secret"})
	require.NoError(t, err)
	assert.Nil(t, session)
	assert.Empty(t, f.events.all())

	_, err = f.client.SignUp(context.Background(), core.Credentials{Email: "me@example.com", Password: "secret"})
	var gwErr *core.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusUnprocessableEntity, gwErr.Status)
	assert.Equal(t, "User already registered", core.ErrorMessage(err))
}

func TestClient_SignIn(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	session := f.signIn(t, "me@example.com")

	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, "me@example.com", session.User.Email)
	assert.NotEmpty(t, session.User.ID)
	assert.False(t, session.ExpiresAt.IsZero())
	assert.Equal(t, []core.AuthEvent{core.AuthSignedIn}, f.events.all())

	stored, err := f.store.Load()
	require.NoError(t, err)
	assert.Equal(t, session, stored)

	current, err := f.client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.AccessToken, current.AccessToken)

	state := f.client.State().(supabase.ClientState)
	assert.True(t, state.SignedIn)
	assert.Equal(t, "me@example.com", state.Email)
}

func TestClient_SignInFailure(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	_, err := f.client.SignInWithPassword(context.Background(), core.Credentials{Email: "nobody@example.com", Password: "x"})

	var gwErr *core.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.True(t, gwErr.IsAuthError())
	assert.Equal(t, "invalid_grant", gwErr.Code)
	assert.Equal(t, "Invalid login credentials", core.ErrorMessage(err))
	assert.Empty(t, f.events.all())
}

func TestClient_NotesRoundTrip(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	ctx := context.Background()
	f.signIn(t, "me@example.com")

	user, err := f.client.GetUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", user.Email)

	require.NoError(t, f.client.InsertNote(ctx, core.NoteInput{Title: "Groceries", Content: "", Owner: user.ID}))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, f.client.InsertNote(ctx, core.NoteInput{Title: "Ideas", Content: "ship it", Owner: user.ID}))

	notes, err := f.client.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "Ideas", notes[0].Title, "newest first")
	assert.Equal(t, "Groceries", notes[1].Title)
	assert.Equal(t, "", notes[1].Content)
	assert.Equal(t, user.ID, notes[1].Owner)

	require.NoError(t, f.client.UpdateNote(ctx, notes[1].ID, core.NotePatch{Title: "Groceries", Content: "milk"}))
	require.NoError(t, f.client.DeleteNote(ctx, notes[0].ID))

	notes, err = f.client.ListNotes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "milk", notes[0].Content)
}

func TestClient_InsertForeignOwnerRejected(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	f.signIn(t, "me@example.com")

	err := f.client.InsertNote(context.Background(), core.NoteInput{Title: "x", Owner: "someone-else"})
	var gwErr *core.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusForbidden, gwErr.Status)
	assert.Equal(t, "42501", gwErr.Code)
}

func TestClient_GetUserIsCached(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	f.signIn(t, "me@example.com")

	for range 3 {
		_, err := f.client.GetUser(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, 1, f.requests.count("GET /auth/v1/user"))
}

func TestClient_GetUserSignedOut(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	_, err := f.client.GetUser(context.Background())
	assert.ErrorIs(t, err, core.ErrNoSession)
}

func TestClient_RequestIDsAreULIDs(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	session := f.signIn(t, "me@example.com")
	ctx := context.Background()
	require.NoError(t, f.client.InsertNote(ctx, core.NoteInput{Title: "x", Owner: session.User.ID}))
	_, err := f.client.ListNotes(ctx)
	require.NoError(t, err)

	require.Len(t, f.requests.requestIDs("/auth/v1/"), 2, "sign up and sign in")
	require.Len(t, f.requests.requestIDs("/rest/v1/"), 2, "insert and list")

	seen := map[string]bool{}
	for _, id := range f.requests.requestIDs("/") {
		_, err := ulid.ParseStrict(id)
		assert.NoError(t, err, id)
		assert.False(t, seen[id], "request ids are unique")
		seen[id] = true
	}
}

func TestClient_RefreshesExpiringSession(t *testing.T) {
	f := newFixture(t, devserver.Config{TokenTTL: time.Hour}, supabase.WithRefreshLeeway(2*time.Hour))
	first := f.signIn(t, "me@example.com")

	refreshed, err := f.client.GetSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.NotEqual(t, first.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, first.User, refreshed.User)
	assert.Equal(t, []core.AuthEvent{core.AuthSignedIn, core.AuthTokenRefreshed}, f.events.all())
	assert.Equal(t, 1, f.requests.count("POST /auth/v1/token")-1, "one refresh request")
}

func TestClient_RevokedRefreshSignsOut(t *testing.T) {
	f := newFixture(t, devserver.Config{TokenTTL: time.Hour}, supabase.WithRefreshLeeway(2*time.Hour))
	session := f.signIn(t, "me@example.com")

	// Another device signs the session out.
	other, err := supabase.NewClient(f.url, f.backend.AnonKey(), supabase.WithSessionStore(&supabase.MemoryStore{}))
	require.NoError(t, err)
	other.ApplyStoredSession(session)
	require.NoError(t, other.SignOut(context.Background()))

	current, err := f.client.GetSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, current)
	assert.Equal(t, []core.AuthEvent{core.AuthSignedIn, core.AuthSignedOut}, f.events.all())
}

func TestClient_SignOut(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	ctx := context.Background()
	f.signIn(t, "me@example.com")

	require.NoError(t, f.client.SignOut(ctx))
	assert.Equal(t, []core.AuthEvent{core.AuthSignedIn, core.AuthSignedOut}, f.events.all())

	stored, err := f.store.Load()
	require.NoError(t, err)
	assert.Nil(t, stored)

	notes, err := f.client.ListNotes(ctx)
	require.NoError(t, err)
	assert.Empty(t, notes, "anonymous requests see no rows")
}

func TestClient_SignOutUnreachableKeepsSession(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	f.signIn(t, "me@example.com")

	dead, err := supabase.NewClient("http://127.0.0.1:1", "key", supabase.WithSessionStore(f.store))
	require.NoError(t, err)
	err = dead.SignOut(context.Background())
	require.Error(t, err)

	stored, _ := f.store.Load()
	assert.NotNil(t, stored)
}

func TestClient_ApplyStoredSession(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	session := f.signIn(t, "me@example.com")

	f.client.ApplyStoredSession(session)
	assert.Equal(t, []core.AuthEvent{core.AuthSignedIn}, f.events.all(), "own write is ignored")

	rotated := *session
	rotated.AccessToken = "rotated"
	f.client.ApplyStoredSession(&rotated)

	f.client.ApplyStoredSession(nil)
	f.client.ApplyStoredSession(nil)

	other := core.Session{AccessToken: "other", User: core.User{ID: "u2"}}
	f.client.ApplyStoredSession(&other)

	assert.Equal(t, []core.AuthEvent{
		core.AuthSignedIn,
		core.AuthTokenRefreshed,
		core.AuthSignedOut,
		core.AuthSignedIn,
	}, f.events.all())
}

func TestClient_HealthURL(t *testing.T) {
	f := newFixture(t, devserver.Config{})
	assert.True(t, strings.HasSuffix(f.client.HealthURL(), "/auth/v1/health"))
	assert.Equal(t, f.backend.AnonKey(), f.client.HealthHeader().Get("apikey"))

	resp, err := http.Get(f.client.HealthURL())
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
