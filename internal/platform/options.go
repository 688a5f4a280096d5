package platform

import (
	"log/slog"
	"net/http"

	"github.com/aretw0/notekeep/pkg/core"
)

// options holds the wiring overrides of an App.
type options struct {
	logger       *slog.Logger
	httpClient   *http.Client
	gateway      core.Gateway
	connectivity core.Connectivity
	watchSession bool
	probe        bool
}

// Option defines a functional option for configuring an App.
type Option func(*options)

// defaultOptions returns the default wiring.
func defaultOptions() *options {
	return &options{
		watchSession: true,
		probe:        true,
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHTTPClient sets the HTTP client of the gateway and the health probe.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) {
		o.httpClient = hc
	}
}

// WithGateway injects a gateway (e.g. a fake) instead of the HTTP client.
// Session persistence and watching are then up to the injected gateway.
func WithGateway(gw core.Gateway) Option {
	return func(o *options) {
		o.gateway = gw
	}
}

// WithConnectivity replaces the health-probing monitor.
func WithConnectivity(conn core.Connectivity) Option {
	return func(o *options) {
		o.connectivity = conn
	}
}

// WithSessionWatch follows session file changes made by other processes.
// Enabled by default; one-shot commands turn it off.
func WithSessionWatch(enabled bool) Option {
	return func(o *options) {
		o.watchSession = enabled
	}
}

// WithProbing runs the periodic health probe. Enabled by default; one-shot
// commands turn it off and call App.CheckConnectivity instead.
func WithProbing(enabled bool) Option {
	return func(o *options) {
		o.probe = enabled
	}
}
