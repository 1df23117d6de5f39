// Package version carries build metadata for the flowfang binary.
package version

import "runtime/debug"

// Build metadata, overridden at link time via -ldflags.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the VCS revision the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// InitBinaryVersion fills unset build metadata from the embedded module
// build info, so go-install builds still report a revision.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" && Commit == "none" {
			Commit = setting.Value
		}

		if setting.Key == "vcs.time" && Date == "unknown" {
			Date = setting.Value
		}
	}
}
