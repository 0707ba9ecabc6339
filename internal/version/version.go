// Package version holds build metadata injected at link time via -ldflags.
package version

var (
	// Version is the semantic version of the build, or "dev" for local builds.
	Version = "dev"

	// GitCommit is the short commit hash the binary was built from.
	GitCommit = "unknown"

	// BuildDate is the UTC build timestamp in RFC 3339 format.
	BuildDate = "unknown"
)
