package supabase

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

// requestTransport binds SDK requests to the caller's context and tags them
// with a request id.
type requestTransport struct {
	ctx    context.Context
	base   http.RoundTripper
	logger *slog.Logger
}

func (t *requestTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(t.ctx)
	if out.Header.Get(RequestIDHeader) == "" {
		out.Header.Set(RequestIDHeader, ulid.Make().String())
	}

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	start := time.Now()
	resp, err := base.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("backend request",
		"method", out.Method,
		"path", out.URL.Path,
		"status", resp.StatusCode,
		"request_id", out.Header.Get(RequestIDHeader),
		"duration", time.Since(start))
	return resp, nil
}
