// Package buildinfo derives the version string from Go build metadata, so
// release builds report their tag and source builds report their commit.
package buildinfo

import (
	"runtime/debug"
)

// Version returns the version string for the current build.
//
// Tagged releases (go install module@tag) report the tag. Source builds
// report "dev-<commit>" with a "-dirty" suffix when the tree had uncommitted
// changes, "dev" when no VCS metadata is embedded, and "unknown" when build
// info cannot be read at all.
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return devVersion(info)
}

func devVersion(info *debug.BuildInfo) string {
	var revision string
	dirty := false
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			dirty = setting.Value == "true"
		}
	}

	if revision == "" {
		return "dev"
	}
	if len(revision) > 12 {
		revision = revision[:12]
	}
	v := "dev-" + revision
	if dirty {
		v += "-dirty"
	}
	return v
}
