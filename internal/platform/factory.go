package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/introspection"
	"github.com/aretw0/lifecycle"

	"github.com/aretw0/notekeep/pkg/adapters/fs"
	"github.com/aretw0/notekeep/pkg/adapters/netprobe"
	"github.com/aretw0/notekeep/pkg/adapters/supabase"
	"github.com/aretw0/notekeep/pkg/core"
)

// App is the composition root: one gateway, one session store, one
// connectivity source, shared by the session controller and view models.
type App struct {
	Config  Config
	Gateway core.Gateway
	Session *core.SessionController
	Auth    *core.AuthForm

	client  *supabase.Client
	store   *fs.SessionStore
	monitor *netprobe.Monitor
	conn    core.Connectivity
	logger  *slog.Logger
	opts    *options

	mu      sync.Mutex
	cancel  context.CancelFunc
	started bool
}

// New wires an App from cfg. Nothing runs until Start.
func New(cfg Config, opts ...Option) (*App, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	app := &App{Config: cfg, logger: o.logger, opts: o}

	if o.gateway != nil {
		app.Gateway = o.gateway
	} else {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		app.store = fs.NewSessionStore(cfg.SessionFile,
			fs.WithLogger(o.logger.With("component", "session-store")))

		clientOpts := []supabase.Option{
			supabase.WithSessionStore(app.store),
			supabase.WithLogger(o.logger.With("component", "gateway")),
		}
		if o.httpClient != nil {
			clientOpts = append(clientOpts, supabase.WithHTTPClient(o.httpClient))
		}
		client, err := supabase.NewClient(cfg.URL, cfg.AnonKey, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("create gateway: %w", err)
		}
		app.client = client
		app.Gateway = client
	}

	switch {
	case o.connectivity != nil:
		app.conn = o.connectivity
	case app.client != nil:
		app.monitor = netprobe.NewMonitor(
			netprobe.HTTPProbe(o.httpClient, app.client.HealthURL(), app.client.HealthHeader()),
			netprobe.WithInterval(cfg.ProbeInterval),
			netprobe.WithTimeout(cfg.ProbeTimeout),
			netprobe.WithLogger(o.logger.With("component", "connectivity")),
		)
		app.conn = app.monitor
	default:
		app.conn = core.FixedConnectivity(true)
	}

	app.Session = core.NewSessionController(app.Gateway, o.logger.With("component", "session"))
	app.Auth = core.NewAuthForm(app.Gateway, o.logger.With("component", "auth-form"))
	return app, nil
}

// Connectivity is the reachability source handed to view models.
func (a *App) Connectivity() core.Connectivity {
	return a.conn
}

// NewNoteList creates a note list view model bound to the app's gateway and
// connectivity. The caller starts and closes it.
func (a *App) NewNoteList(opts ...core.NoteListOption) *core.NoteList {
	opts = append([]core.NoteListOption{core.WithListLogger(a.logger.With("component", "note-list"))}, opts...)
	return core.NewNoteList(a.Gateway, a.conn, opts...)
}

// CheckConnectivity probes the backend once. Without a monitor it reports true.
func (a *App) CheckConnectivity(ctx context.Context) bool {
	if a.monitor == nil {
		return true
	}
	return a.monitor.Check(ctx)
}

// Start launches the background workers enabled by the options, then
// resolves the initial session.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return errors.New("app already started")
	}
	a.started = true
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()

	if a.opts.watchSession && a.store != nil && a.client != nil {
		changes, err := a.store.Watch(runCtx)
		if err != nil {
			a.logger.Warn("session watch unavailable", "error", err)
		} else {
			lifecycle.Go(runCtx, func(ctx context.Context) error {
				for change := range changes {
					a.client.ApplyStoredSession(change.Session)
				}
				return nil
			})
		}
	}

	if a.opts.probe && a.monitor != nil {
		if err := a.monitor.Start(runCtx); err != nil {
			cancel()
			return err
		}
	}

	if err := a.Session.Start(runCtx); err != nil {
		cancel()
		return fmt.Errorf("resolve session: %w", err)
	}
	return nil
}

// Close stops the workers started by Start.
func (a *App) Close(ctx context.Context) error {
	a.Session.Close()

	a.mu.Lock()
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	var err error
	if a.monitor != nil {
		err = a.monitor.Stop(ctx)
	}
	if cancel != nil {
		cancel()
	}
	return err
}

// Components lists the introspectable parts of the app, for status reports.
func (a *App) Components() []introspection.Component {
	var out []introspection.Component
	out = append(out, a.Session)
	if a.client != nil {
		out = append(out, a.client)
	}
	if a.store != nil {
		out = append(out, a.store)
	}
	if a.monitor != nil {
		out = append(out, a.monitor)
	}
	return out
}

// Status snapshots every component state keyed by component type.
func (a *App) Status() map[string]any {
	status := make(map[string]any)
	for _, c := range a.Components() {
		if in, ok := c.(introspection.Introspectable); ok {
			status[c.ComponentType()] = in.State()
		}
	}
	return status
}
