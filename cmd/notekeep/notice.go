package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/aretw0/notekeep/pkg/core"
)

var (
	titleColor   = color.New(color.Bold)
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	dimColor     = color.New(color.Faint)
)

// printNotice renders a notice the way the app shows an alert: title, then message.
func printNotice(w io.Writer, n *core.Notice) {
	if n == nil {
		return
	}
	c := errorColor
	switch n.Kind {
	case core.NoticeSuccess:
		c = successColor
	case core.NoticeValidation:
		c = warnColor
	}
	fmt.Fprintf(w, "%s\n%s\n", c.Sprint(n.Title), n.Message)
}

// offlineNotice is shown instead of the list when the backend is unreachable.
var offlineNotice = &core.Notice{
	Kind:    core.NoticeError,
	Title:   "No Internet Connection",
	Message: "Please check your network and try again.",
}
