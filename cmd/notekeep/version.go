package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/notekeep"
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of notekeep",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("notekeep v%s\n", strings.TrimSpace(notekeep.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
