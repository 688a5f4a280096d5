package main

import "github.com/spf13/cobra"

// deleteCmd represents the delete command
var deleteCmd = &cobra.Command{
	Use:     "delete <id>...",
	Aliases: []string{"rm"},
	Short:   "Delete notes by id",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		s, err := openNotes(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		for _, id := range args {
			if err := s.done(cmd.OutOrStdout(), "Deleted "+id, s.vm.DeleteNote(ctx, id)); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
