package main

import (
	"fmt"
	"runtime"
)

// Build metadata, overridden at build time with
// -ldflags "-X main.version=... -X main.commit=... -X main.date=..."
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	Execute()
}

// versionString returns the version string.
func versionString() string {
	return fmt.Sprintf("iwt %s (%s, %s, %s)", version, commit[:min(7, len(commit))], date, runtime.Version())
}
