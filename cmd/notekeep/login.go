package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var loginEmail string

// loginCmd represents the login command
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	Long: `Sign in and keep the session on disk so later commands and the TUI
start signed in. The password is read from NOTEKEEP_PASSWORD or prompted for.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials(loginEmail, "")
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		notice, err := app.Auth.SignIn(ctx, email, password)
		if err != nil {
			printNotice(os.Stderr, notice)
			return err
		}
		if s := app.Session.Current(); s != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", successColor.Sprint(s.User.Email))
		}
		return nil
	},
}

// signupCmd represents the signup command
var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		email, password, err := credentials(loginEmail, "")
		if err != nil {
			return err
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		notice, err := app.Auth.SignUp(ctx, email, password)
		printNotice(cmd.OutOrStdout(), notice)
		return err
	},
}

// logoutCmd represents the logout command
var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		app, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		if app.Session.Current() == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in.")
			return nil
		}
		if err := app.Gateway.SignOut(ctx); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (prompted when empty)")
	signupCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email (prompted when empty)")
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd)
}
