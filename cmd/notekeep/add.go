package main

import (
	"strings"

	"github.com/spf13/cobra"
)

var (
	addTitle   string
	addContent string
)

// addCmd represents the add command
var addCmd = &cobra.Command{
	Use:   "add [content...]",
	Short: "Add a note",
	Example: `  notekeep add --title "Groceries" milk, eggs
  echo "long text" | notekeep add --title Draft --content -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		content := addContent
		if content == "-" {
			data, err := readAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			content = data
		} else if content == "" && len(args) > 0 {
			content = strings.Join(args, " ")
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		s, err := openNotes(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.vm.SetDraft(addTitle, content); err != nil {
			return err
		}
		return s.done(cmd.OutOrStdout(), "Note added.", s.vm.SaveDraft(ctx))
	},
}

func init() {
	addCmd.Flags().StringVarP(&addTitle, "title", "t", "", "Note title")
	addCmd.Flags().StringVarP(&addContent, "content", "c", "", "Note content ('-' reads stdin)")
	rootCmd.AddCommand(addCmd)
}
