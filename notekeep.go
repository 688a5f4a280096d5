package notekeep

import (
	"log/slog"
	"net/http"

	"github.com/aretw0/notekeep/internal/platform"
	"github.com/aretw0/notekeep/pkg/core"
)

// --- Types ---

// App is the wired client: gateway, session controller, auth form and
// connectivity source.
type App = platform.App

// Config is the resolved client configuration.
type Config = platform.Config

// LoadOptions select where LoadConfig reads from.
type LoadOptions = platform.LoadOptions

// --- Configuration ---

// Option defines a functional option for configuring an App.
type Option = platform.Option

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithHTTPClient sets the HTTP client used for the backend.
func WithHTTPClient(hc *http.Client) Option {
	return platform.WithHTTPClient(hc)
}

// WithGateway injects a custom gateway.
func WithGateway(gw core.Gateway) Option {
	return platform.WithGateway(gw)
}

// WithConnectivity replaces the health-probing monitor.
func WithConnectivity(conn core.Connectivity) Option {
	return platform.WithConnectivity(conn)
}

// WithSessionWatch follows session changes made by other processes.
func WithSessionWatch(enabled bool) Option {
	return platform.WithSessionWatch(enabled)
}

// WithProbing runs the periodic health probe.
func WithProbing(enabled bool) Option {
	return platform.WithProbing(enabled)
}

// --- Factory ---

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return platform.DefaultConfig()
}

// LoadConfig resolves the configuration from file, .env and environment.
func LoadConfig(lo LoadOptions) (Config, error) {
	return platform.LoadConfig(lo)
}

// New wires a client App. Nothing runs until App.Start.
func New(cfg Config, opts ...Option) (*App, error) {
	return platform.New(cfg, opts...)
}
