package platform_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/notekeep/internal/devserver"
	"github.com/aretw0/notekeep/internal/platform"
	"github.com/aretw0/notekeep/pkg/adapters/fs"
	"github.com/aretw0/notekeep/pkg/adapters/supabase"
	"github.com/aretw0/notekeep/pkg/core"
)

func newBackend(t *testing.T) (*devserver.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	backend := devserver.New(devserver.Config{})
	srv := httptest.NewServer(backend.Handler())
	t.Cleanup(srv.Close)
	return backend, srv.URL
}

func testConfig(t *testing.T, url, key string) platform.Config {
	cfg := platform.DefaultConfig()
	cfg.URL = url
	cfg.AnonKey = key
	cfg.SessionFile = filepath.Join(t.TempDir(), "session.yaml")
	cfg.ProbeInterval = 20 * time.Millisecond
	return cfg
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := platform.New(platform.DefaultConfig())
	assert.ErrorContains(t, err, "invalid config")
}

func TestApp_EndToEnd(t *testing.T) {
	backend, url := newBackend(t)
	cfg := testConfig(t, url, backend.AnonKey())

	app, err := platform.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, app.Start(ctx))
	defer app.Close(context.Background())

	assert.Equal(t, core.ViewAuth, app.Session.View())
	assert.True(t, app.CheckConnectivity(ctx))

	_, err = app.Auth.SignUp(ctx, "me@example.com", "secret")
	require.NoError(t, err)
	notice, err := app.Auth.SignIn(ctx, "me@example.com", "secret")
	require.NoError(t, err)
	assert.Nil(t, notice)
	assert.Equal(t, core.ViewNotes, app.Session.View())

	vm := app.NewNoteList()
	require.NoError(t, vm.Start(ctx))
	defer vm.Close()

	require.NoError(t, vm.SetDraft("Groceries", ""))
	require.NoError(t, vm.SaveDraft(ctx))
	notes := vm.Snapshot().Notes
	require.Len(t, notes, 1)
	assert.Equal(t, "Groceries", notes[0].Title)

	require.NoError(t, vm.DeleteNote(ctx, notes[0].ID))
	assert.Empty(t, vm.Snapshot().Notes)

	status := app.Status()
	assert.Contains(t, status, "session-controller")
	assert.Contains(t, status, "gateway")
	assert.Contains(t, status, "session-store")
	assert.Contains(t, status, "connectivity-monitor")

	require.NoError(t, vm.SignOut(ctx))
	assert.Equal(t, core.ViewAuth, app.Session.View())
}

func TestApp_RestoresPersistedSession(t *testing.T) {
	backend, url := newBackend(t)
	cfg := testConfig(t, url, backend.AnonKey())
	ctx := context.Background()

	first, err := platform.New(cfg, platform.WithProbing(false), platform.WithSessionWatch(false))
	require.NoError(t, err)
	require.NoError(t, first.Start(ctx))
	_, err = first.Auth.SignUp(ctx, "me@example.com", "secret")
	require.NoError(t, err)
	_, err = first.Auth.SignIn(ctx, "me@example.com", "secret")
	require.NoError(t, err)
	require.NoError(t, first.Close(ctx))

	second, err := platform.New(cfg, platform.WithProbing(false), platform.WithSessionWatch(false))
	require.NoError(t, err)
	require.NoError(t, second.Start(ctx))
	defer second.Close(ctx)

	assert.Equal(t, core.ViewNotes, second.Session.View())
	assert.Equal(t, "me@example.com", second.Session.Current().User.Email)
}

func TestApp_FollowsOtherProcessSignOut(t *testing.T) {
	backend, url := newBackend(t)
	cfg := testConfig(t, url, backend.AnonKey())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher, err := platform.New(cfg, platform.WithProbing(false))
	require.NoError(t, err)
	require.NoError(t, watcher.Start(ctx))
	defer watcher.Close(context.Background())
	require.Eventually(t, func() bool {
		state, ok := watcher.Status()["session-store"].(fs.StoreState)
		return ok && state.WatcherActive
	}, 3*time.Second, 10*time.Millisecond)

	other, err := platform.New(cfg, platform.WithProbing(false), platform.WithSessionWatch(false))
	require.NoError(t, err)
	require.NoError(t, other.Start(ctx))
	_, err = other.Auth.SignUp(ctx, "me@example.com", "secret")
	require.NoError(t, err)
	_, err = other.Auth.SignIn(ctx, "me@example.com", "secret")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return watcher.Session.View() == core.ViewNotes
	}, 3*time.Second, 10*time.Millisecond, "sign-in in another process is picked up")

	require.NoError(t, other.Gateway.SignOut(ctx))
	require.Eventually(t, func() bool {
		return watcher.Session.View() == core.ViewAuth
	}, 3*time.Second, 10*time.Millisecond, "sign-out in another process is picked up")
}

func TestApp_InjectedGateway(t *testing.T) {
	backend, url := newBackend(t)
	gw, err := supabase.NewClient(url, backend.AnonKey())
	require.NoError(t, err)

	app, err := platform.New(platform.Config{}, platform.WithGateway(gw), platform.WithConnectivity(core.FixedConnectivity(true)))
	require.NoError(t, err, "an injected gateway needs no backend config")
	assert.True(t, app.CheckConnectivity(context.Background()))

	require.NoError(t, app.Start(context.Background()))
	defer app.Close(context.Background())

	status := app.Status()
	assert.Len(t, status, 1)
	assert.Contains(t, status, "session-controller")
}
