package main

import (
	"fmt"
	"os"

	"github.com/tphakala/acousticvault/cmd"
	"github.com/tphakala/acousticvault/internal/buildinfo"
)

// Set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = buildinfo.UnknownValue
	buildDate = buildinfo.UnknownValue
)

func main() {
	info := buildinfo.NewContext(version, buildDate)

	if err := cmd.RootCommand(info).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
