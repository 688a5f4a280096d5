package notekeep

import (
	_ "embed"
)

// Version is the release of the notekeep module.
//
//go:embed VERSION
var Version string
