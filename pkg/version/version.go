// Package version reports which mdindex build is running.
//
// Release builds stamp the variables below with -ldflags, e.g.
// -X github.com/Aman-CERP/mdindex/pkg/version.Version=v0.3.0. Builds made
// with 'go install' or 'go build' fall back to the module and VCS data the
// toolchain embeds.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// Version is the release tag, or "dev" for unversioned builds.
	Version = "dev"
	// Commit is the short git revision.
	Commit = "unknown"
	// Date is the build or commit time in RFC3339.
	Date = "unknown"
	// GoVersion is the toolchain that built the binary.
	GoVersion = runtime.Version()
)

func init() {
	fillFromBuildInfo(debug.ReadBuildInfo)
}

// fillFromBuildInfo replaces fields that ldflags left at their defaults.
func fillFromBuildInfo(read func() (*debug.BuildInfo, bool)) {
	info, ok := read()
	if !ok || info == nil {
		return
	}
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	dirty := false
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && s.Value != "" {
				Commit = s.Value[:min(len(s.Value), 12)]
			}
		case "vcs.time":
			if Date == "unknown" && s.Value != "" {
				Date = s.Value
			}
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty && Commit != "unknown" {
		Commit += "-dirty"
	}
}

// BuildInfo is the --json form of 'mdindex version'.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String is the one-line banner printed by 'mdindex version'.
func String() string {
	return fmt.Sprintf("mdindex %s (commit: %s, built: %s, go: %s, %s/%s)",
		Version, Commit, Date, GoVersion, runtime.GOOS, runtime.GOARCH)
}

// Short returns the bare version, as printed by 'mdindex version --short'.
func Short() string {
	return Version
}

// GetInfo returns the build as a struct.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
