// Package version carries the build identity stamped into the laserd
// binary at link time via -ldflags, e.g.
//
//	go build -ldflags "-X .../internal/version.Version=v0.3.0 \
//	    -X .../internal/version.GitSHA=$(git rev-parse --short HEAD)"
package version

import "fmt"

var (
	// Version is the release version, "dev" for unstamped builds.
	Version = "dev"
	// GitSHA is the git commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is the build timestamp.
	BuildTime = "unknown"
)

// String renders the full build identity for startup logs.
func String() string {
	return fmt.Sprintf("%s (%s, built %s)", Version, GitSHA, BuildTime)
}
