package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/notekeep/internal/devserver"
)

var (
	devAddr       string
	devAnonKey    string
	devJWTSecret  string
	devTokenTTL   time.Duration
	devAutoSignIn bool
)

// devServerCmd represents the dev-server command
var devServerCmd = &cobra.Command{
	Use:   "dev-server",
	Short: "Run an in-memory auth and notes backend for local development",
	Long: `dev-server speaks the subset of the hosted auth and REST APIs that
notekeep uses. Accounts and notes live in memory and are lost on exit.

Point the client at it with:
  NOTEKEEP_URL=http://localhost:54321 NOTEKEEP_ANON_KEY=<anon-key> notekeep login`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		cfg := devserver.DefaultConfig()
		cfg.AnonKey = devAnonKey
		cfg.JWTSecret = devJWTSecret
		cfg.TokenTTL = devTokenTTL
		cfg.AutoSignIn = devAutoSignIn
		cfg.Logger = slog.Default().With("component", "dev-server")

		fmt.Fprintf(os.Stderr, "dev-server listening on %s (anon key %s)\n", devAddr, cfg.AnonKey)
		return devserver.New(cfg).ListenAndServe(ctx, devAddr)
	},
}

func init() {
	def := devserver.DefaultConfig()
	devServerCmd.Flags().StringVar(&devAddr, "addr", "localhost:54321", "Listen address")
	devServerCmd.Flags().StringVar(&devAnonKey, "anon-key", def.AnonKey, "Public API key clients must send")
	devServerCmd.Flags().StringVar(&devJWTSecret, "jwt-secret", def.JWTSecret, "HMAC secret for access tokens")
	devServerCmd.Flags().DurationVar(&devTokenTTL, "token-ttl", def.TokenTTL, "Access token lifetime")
	devServerCmd.Flags().BoolVar(&devAutoSignIn, "auto-sign-in", false, "Return a session from sign-up, as when email confirmation is off")
	rootCmd.AddCommand(devServerCmd)
}
