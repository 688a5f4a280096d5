package netprobe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type transitions struct {
	mu     sync.Mutex
	values []bool
}

func (r *transitions) record(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *transitions) all() []bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]bool(nil), r.values...)
}

func TestMonitor_ReportsTransitionsOnly(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	probe := func(context.Context) error {
		if healthy.Load() {
			return nil
		}
		return errors.New("unreachable")
	}

	m := NewMonitor(probe)
	rec := &transitions{}
	m.Subscribe(rec.record)

	ctx := context.Background()
	assert.True(t, m.Check(ctx))
	assert.True(t, m.Check(ctx))
	healthy.Store(false)
	assert.False(t, m.Check(ctx))
	assert.False(t, m.Check(ctx))
	healthy.Store(true)
	assert.True(t, m.Check(ctx))

	assert.Equal(t, []bool{true, false, true}, rec.all())
}

func TestMonitor_SubscribeReplaysKnownState(t *testing.T) {
	m := NewMonitor(func(context.Context) error { return errors.New("down") })

	rec := &transitions{}
	m.Subscribe(rec.record)
	assert.Empty(t, rec.all(), "nothing known before the first probe")

	m.Check(context.Background())
	late := &transitions{}
	sub := m.Subscribe(late.record)
	assert.Equal(t, []bool{false}, late.all())

	sub.Unsubscribe()
	sub.Unsubscribe()
	m.record(nil)
	assert.Equal(t, []bool{false}, late.all(), "unsubscribed listener not called")
	assert.Equal(t, []bool{false, true}, rec.all())
}

func TestMonitor_StartProbesPeriodically(t *testing.T) {
	var up atomic.Bool
	up.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		if up.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	header := http.Header{}
	header.Set("apikey", "anon")
	m := NewMonitor(HTTPProbe(srv.Client(), srv.URL, header), WithInterval(10*time.Millisecond))
	rec := &transitions{}
	m.Subscribe(rec.record)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, m.Start(ctx))
	assert.Error(t, m.Start(ctx), "double start")

	require.Eventually(t, m.Connected, 2*time.Second, 5*time.Millisecond)
	up.Store(false)
	require.Eventually(t, func() bool { return !m.Connected() }, 2*time.Second, 5*time.Millisecond)

	state := m.State().(MonitorState)
	assert.True(t, state.Running)
	assert.Contains(t, state.LastError, "503")
	assert.Equal(t, "connectivity-monitor", m.ComponentType())

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	require.NoError(t, m.Stop(stopCtx))
	assert.Equal(t, []bool{true, false}, rec.all())
}

func TestHTTPProbe_ClientErrorsCountAsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	assert.NoError(t, HTTPProbe(nil, srv.URL, nil)(context.Background()))

	srv.Close()
	assert.Error(t, HTTPProbe(nil, srv.URL, nil)(context.Background()))
}
