package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of the session, gateway and connectivity as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		app.CheckConnectivity(ctx)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(app.Status())
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
