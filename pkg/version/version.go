// Package version holds build metadata injected with -ldflags.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set at build time, e.g. -ldflags "-X github.com/Sumatoshi-tech/crqscan/pkg/version.Version=v1.2.0".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Init fills Version and Commit from the module build info when they were not injected.
func Init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	if Commit != "none" {
		return
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			Commit = setting.Value
		}
	}
}

// String formats the build metadata for the version command.
func String() string {
	return fmt.Sprintf("crqscan %s (commit: %s, built: %s)", Version, Commit, Date)
}
