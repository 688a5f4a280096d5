package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

func main() {
	Execute()
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s %s: %v\n", color.New(color.FgRed, color.Bold).Sprint("error:"), msg, err)
	os.Exit(1)
}
