// Package version holds build-time version metadata.
package version

import (
	"fmt"
	"runtime"
)

// Set with -ldflags "-X github.com/kahiteam/hwmond/internal/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// GoVersion returns the Go release the binary was built with.
func GoVersion() string {
	return runtime.Version()
}

// String returns a one-line version summary.
func String() string {
	return fmt.Sprintf("hwmond %s (commit %s, built %s, %s)", Version, Commit, Date, GoVersion())
}
