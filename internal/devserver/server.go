// Package devserver is an in-memory stand-in for the hosted notes backend. It
// speaks the GoTrue and PostgREST subset the client uses, including row-level
// ownership of notes, so the client can be developed and tested offline.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Config configures the dev backend.
type Config struct {
	AnonKey   string
	JWTSecret string
	TokenTTL  time.Duration
	// AutoSignIn makes sign-up return a session instead of requiring a
	// separate sign-in.
	AutoSignIn bool
	Logger     *slog.Logger
	Now        func() time.Time
}

// DefaultConfig returns a config suitable for local use.
func DefaultConfig() Config {
	return Config{
		AnonKey:   "notekeep-dev-anon-key",
		JWTSecret: "notekeep-dev-jwt-secret",
		TokenTTL:  time.Hour,
	}
}

// Server is the dev backend.
type Server struct {
	cfg    Config
	store  *store
	tokens tokenIssuer
	logger *slog.Logger
	engine *gin.Engine
}

// New builds a server from cfg, filling unset fields from DefaultConfig.
func New(cfg Config) *Server {
	def := DefaultConfig()
	if cfg.AnonKey == "" {
		cfg.AnonKey = def.AnonKey
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = def.JWTSecret
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Server{
		cfg:    cfg,
		store:  newStore(cfg.Now),
		tokens: tokenIssuer{secret: []byte(cfg.JWTSecret), ttl: cfg.TokenTTL, now: cfg.Now},
		logger: cfg.Logger,
	}
	s.engine = s.router()
	return s
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// AnonKey is the key clients must present in the apikey header.
func (s *Server) AnonKey() string {
	return s.cfg.AnonKey
}

// Serve accepts connections on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.logger.Info("dev backend listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("dev backend stopped")
		return nil
	}
}

// ListenAndServe listens on addr and calls Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}
