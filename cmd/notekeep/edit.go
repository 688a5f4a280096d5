package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	editTitle   string
	editContent string
)

// editCmd represents the edit command
var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Update the title or content of a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		titleSet := cmd.Flags().Changed("title")
		contentSet := cmd.Flags().Changed("content")
		if !titleSet && !contentSet {
			return fmt.Errorf("nothing to change, pass --title and/or --content")
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		s, err := openNotes(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		note, err := s.findNote(ctx, args[0])
		if err != nil {
			return err
		}
		if err := s.vm.BeginEdit(note); err != nil {
			return err
		}

		title, content := note.Title, note.Content
		if titleSet {
			title = editTitle
		}
		if contentSet {
			content = editContent
			if content == "-" {
				if content, err = readAll(cmd.InOrStdin()); err != nil {
					return err
				}
			}
		}
		if err := s.vm.SetDraft(title, content); err != nil {
			return err
		}
		return s.done(cmd.OutOrStdout(), "Note updated.", s.vm.SaveDraft(ctx))
	},
}

func init() {
	editCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	editCmd.Flags().StringVarP(&editContent, "content", "c", "", "New content ('-' reads stdin)")
	rootCmd.AddCommand(editCmd)
}
