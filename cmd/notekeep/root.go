package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aretw0/notekeep"
)

var (
	verbose    bool
	logFile    string
	configPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "notekeep",
	Short: "Personal notes backed by a hosted auth and data service",
	Long: `notekeep signs you in to a Supabase-style backend and lets you list,
add, edit and delete your notes, from one-shot commands or an interactive
terminal UI. Every change is re-read from the backend, which remains the only
source of truth.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		var out io.Writer = os.Stderr
		if logFile != "" {
			out = &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
			}
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(out, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fatal(rootCmd.Name(), err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to a rotating file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: notekeep.yaml found upwards from the working directory)")
}

// signalContext is cancelled on interrupt or termination.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func loadConfig() (notekeep.Config, error) {
	cfg, err := notekeep.LoadConfig(notekeep.LoadOptions{File: configPath})
	if err != nil {
		return notekeep.Config{}, err
	}
	if cfg.Source != "" {
		slog.Debug("config loaded", "file", cfg.Source)
	}
	return cfg, nil
}

// openApp builds and starts an App for a one-shot command: no background
// probing and no session file watching.
func openApp(ctx context.Context) (*notekeep.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	app, err := notekeep.New(cfg,
		notekeep.WithLogger(slog.Default()),
		notekeep.WithProbing(false),
		notekeep.WithSessionWatch(false),
	)
	if err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func closeApp(app *notekeep.App) {
	if err := app.Close(context.Background()); err != nil {
		slog.Debug("close app", "error", err)
	}
}

func requireSession(app *notekeep.App) error {
	if app.Session.Current() == nil {
		return fmt.Errorf("not signed in, run `notekeep login` first")
	}
	return nil
}
