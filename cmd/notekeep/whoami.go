package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var whoamiJSON bool

// whoamiCmd represents the whoami command
var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		if app.Session.Current() == nil {
			return fmt.Errorf("not signed in")
		}
		user, err := app.Gateway.GetUser(ctx)
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		if whoamiJSON {
			return json.NewEncoder(os.Stdout).Encode(user)
		}
		fmt.Fprintf(os.Stdout, "%s (%s)\n", user.Email, dimColor.Sprint(user.ID))
		return nil
	},
}

func init() {
	whoamiCmd.Flags().BoolVar(&whoamiJSON, "json", false, "Print the user as JSON")
	rootCmd.AddCommand(whoamiCmd)
}
