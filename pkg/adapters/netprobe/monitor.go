// Package netprobe tracks reachability of the notes backend by probing it on
// an interval. Subscribers hear about transitions only.
package netprobe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"

	"github.com/aretw0/notekeep/pkg/core"
)

// Probe reports whether the backend answered.
type Probe func(ctx context.Context) error

// HTTPProbe probes url with GET; any response below 500 counts as reachable.
func HTTPProbe(client *http.Client, url string, header http.Header) Probe {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		for k, v := range header {
			req.Header[k] = v
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("health check: status %d", resp.StatusCode)
		}
		return nil
	}
}

// Monitor is a core.Connectivity backed by a supervised probing worker.
type Monitor struct {
	probe    Probe
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger

	mu        sync.RWMutex
	known     bool
	connected bool
	lastCheck time.Time
	lastErr   error
	failures  int
	running   bool

	subs   map[int]func(bool)
	nextID int

	sup    runner
	cancel context.CancelFunc
}

type runner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithInterval sets the delay between probes.
func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithTimeout bounds a single probe.
func WithTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// WithLogger sets the monitor logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = logger
	}
}

// NewMonitor creates a monitor; call Start to begin probing.
func NewMonitor(probe Probe, opts ...Option) *Monitor {
	m := &Monitor{
		probe:    probe,
		interval: 5 * time.Second,
		timeout:  3 * time.Second,
		logger:   slog.Default(),
		subs:     make(map[int]func(bool)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Subscribe registers fn for reachability changes. Once the first probe has
// completed, fn is also called immediately with the current value.
func (m *Monitor) Subscribe(fn func(connected bool)) core.Subscription {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	known, connected := m.known, m.connected
	m.mu.Unlock()

	if known {
		fn(connected)
	}
	return core.SubscriptionFunc(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	})
}

// Connected returns the last observed value; false before the first probe.
func (m *Monitor) Connected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Check probes once and records the result. One-shot commands use it instead of Start.
func (m *Monitor) Check(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	err := m.probe(ctx)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		return m.Connected()
	}
	m.record(err)
	return err == nil
}

func (m *Monitor) record(err error) {
	connected := err == nil

	m.mu.Lock()
	m.lastCheck = time.Now()
	m.lastErr = err
	if connected {
		m.failures = 0
	} else {
		m.failures++
	}
	changed := !m.known || m.connected != connected
	m.known = true
	m.connected = connected
	var subs []func(bool)
	if changed {
		subs = make([]func(bool), 0, len(m.subs))
		for i := 0; i < m.nextID; i++ {
			if fn, ok := m.subs[i]; ok {
				subs = append(subs, fn)
			}
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	if connected {
		m.logger.Info("backend reachable")
	} else {
		m.logger.Warn("backend unreachable", "error", err)
	}
	for _, fn := range subs {
		fn(connected)
	}
}

// Start runs the probing worker under a supervisor that restarts it on failure.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("monitor already started")
	}
	m.running = true
	m.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	spec := supervisor.Spec{
		Name: "connectivity-probe",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return newProbeWorker(m), nil
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
	sup := supervisor.New("connectivity", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(runCtx); err != nil {
		cancel()
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
		return fmt.Errorf("start connectivity monitor: %w", err)
	}

	m.mu.Lock()
	m.sup = sup
	m.cancel = cancel
	m.mu.Unlock()
	return nil
}

// Stop halts probing. Subscribers keep their registration.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	sup, cancel := m.sup, m.cancel
	m.sup, m.cancel = nil, nil
	m.running = false
	m.mu.Unlock()

	if sup == nil {
		return nil
	}
	err := sup.Stop(ctx)
	cancel()
	return err
}

// MonitorState exposes the monitor for observability.
type MonitorState struct {
	Running   bool      `json:"running"`
	Known     bool      `json:"known"`
	Connected bool      `json:"connected"`
	Interval  string    `json:"interval"`
	LastCheck time.Time `json:"last_check,omitzero"`
	LastError string    `json:"last_error,omitempty"`
	Failures  int       `json:"consecutive_failures"`
}

// State implements introspection.Introspectable.
func (m *Monitor) State() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := MonitorState{
		Running:   m.running,
		Known:     m.known,
		Connected: m.connected,
		Interval:  m.interval.String(),
		LastCheck: m.lastCheck,
		Failures:  m.failures,
	}
	if m.lastErr != nil {
		st.LastError = m.lastErr.Error()
	}
	return st
}

// ComponentType implements introspection.Component.
func (m *Monitor) ComponentType() string {
	return "connectivity-monitor"
}

var _ core.Connectivity = (*Monitor)(nil)
var _ introspection.Introspectable = (*Monitor)(nil)
var _ introspection.Component = (*Monitor)(nil)
