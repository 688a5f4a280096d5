package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/aretw0/notekeep/pkg/core"
)

var (
	listJSON  bool
	listMatch string
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your notes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		s, err := openNotes(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		if err := s.vm.Fetch(ctx); err != nil {
			return s.fail(err)
		}

		notes, err := filterNotes(s.vm.Snapshot().Notes, listMatch)
		if err != nil {
			return err
		}

		if listJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(notes)
		}
		renderNotes(cmd.OutOrStdout(), notes)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Print notes as JSON")
	listCmd.Flags().StringVarP(&listMatch, "match", "m", "", "Only notes whose title matches a glob (e.g. 'todo*')")
	rootCmd.AddCommand(listCmd)
}

// filterNotes keeps the notes whose display title matches pattern,
// case-insensitively. An empty pattern keeps everything.
func filterNotes(notes []core.Note, pattern string) ([]core.Note, error) {
	if pattern == "" {
		return notes, nil
	}
	pattern = strings.ToLower(pattern)
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid match pattern %q", pattern)
	}

	out := make([]core.Note, 0, len(notes))
	for _, n := range notes {
		ok, err := doublestar.Match(pattern, strings.ToLower(n.DisplayTitle()))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func renderNotes(w io.Writer, notes []core.Note) {
	if len(notes) == 0 {
		fmt.Fprintln(w, dimColor.Sprint("No notes yet. Add one with `notekeep add`."))
		return
	}
	for _, n := range notes {
		fmt.Fprintf(w, "%s  %s\n", titleColor.Sprint(n.DisplayTitle()), dimColor.Sprintf("[%s] %s", n.ID, n.CreatedAt.Local().Format("2006-01-02 15:04")))
		if n.Content != "" {
			for _, line := range strings.Split(n.Content, "\n") {
				fmt.Fprintf(w, "    %s\n", line)
			}
		}
	}
}
