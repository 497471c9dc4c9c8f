package version

import "fmt"

// Build metadata, overridden with -ldflags "-X" at release time.
var (
	Version   = "0.1.0"
	Commit    = "none"
	BuildTime = "unknown"
)

// Full returns the version line printed by the version subcommand.
func Full() string {
	return fmt.Sprintf("snap-generator %s (commit %s, built %s)", Version, Commit, BuildTime)
}
