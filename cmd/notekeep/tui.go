package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/aretw0/notekeep"
	"github.com/aretw0/notekeep/pkg/core"
	"github.com/aretw0/notekeep/pkg/tui"
)

// tuiCmd represents the tui command
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive notes screen",
	Long: `tui shows the sign-in screen or your notes, following the session as it
changes, including sign-ins and sign-outs made from another terminal. The note
list is gated on backend reachability, probed in the background.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The alternate screen owns the terminal; only --log-file keeps logs.
		if logFile == "" {
			slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		app, err := notekeep.New(cfg, notekeep.WithLogger(slog.Default()))
		if err != nil {
			return err
		}
		if err := app.Start(ctx); err != nil {
			return err
		}
		defer closeApp(app)

		return tui.Run(ctx, tui.Deps{
			Session:     app.Session,
			Auth:        app.Auth,
			NewNoteList: func() *core.NoteList { return app.NewNoteList() },
			Logger:      slog.Default().With("component", "tui"),
		})
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
