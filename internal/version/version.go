// Package version exposes build-time metadata of the libver binary, stamped via ldflags.
// The release identity of the library it manages lives in pkg/libversion.
package version

import "github.com/launchbynttdata/libversion/pkg/libversion"

const (
	defaultVersion   = "dev"
	defaultBuildDate = "unknown"
	defaultCommit    = "none"
)

var (
	// Version is the semantic version associated with this build.
	Version = defaultVersion
	// BuildDate is the UTC timestamp when the binary was built.
	BuildDate = defaultBuildDate
	// Commit is the source revision the binary was built from.
	Commit = defaultCommit
)

// Summary returns a human-readable description of the build metadata.
func Summary() string {
	return Version + " (built " + BuildDate + ", commit " + Commit + ")"
}

// Bundled returns the banner of the library release compiled into this binary.
func Bundled() string {
	return libversion.Banner() + " [" + libversion.Macro + "]"
}
