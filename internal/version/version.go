// Package version carries the build metadata stamped in by -ldflags.
package version

import "fmt"

var (
	// Version is the release, e.g. "v1.2.0". Builds without ldflags report "dev".
	Version = "dev"

	// Commit is the git short hash of the build.
	Commit = "unknown"

	// Date is the build timestamp.
	Date = "unknown"
)

// String formats the build metadata for `citesnet version`.
func String() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date)
}
