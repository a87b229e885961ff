// SkyDrive CLI entry point.
package main

import (
	"os"

	"github.com/skydrive/skydrive-cli/internal/cli"
	"github.com/skydrive/skydrive-cli/internal/version"
)

// Version information, set by ldflags during build.
var (
	Version   = "v1.2.0"
	BuildTime = "unknown"
)

func main() {
	version.Version = Version
	version.BuildTime = BuildTime

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
