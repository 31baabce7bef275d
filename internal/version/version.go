// Package version reports the build identity of the assetpack binary.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Info describes the running binary.
type Info struct {
	Version   string    `json:"version" yaml:"version"`
	Commit    string    `json:"commit" yaml:"commit"`
	BuiltAt   time.Time `json:"built_at,omitempty" yaml:"built_at,omitempty"`
	GoVersion string    `json:"go_version" yaml:"go_version"`
	Platform  string    `json:"platform" yaml:"platform"`
}

// Set at link time, e.g.
//
//	-ldflags "-X github.com/conneroisu/assetpack/internal/version.Version=v1.2.0"
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = ""
)

// Get collects the build information, falling back to the module build
// settings when the link-time variables were not set.
func Get() Info {
	return Info{
		Version:   resolveVersion(),
		Commit:    resolveCommit(),
		BuiltAt:   parseTime(BuildTime),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// Short returns a one-line version such as "v1.2.0 (abc1234)".
func (i Info) Short() string {
	if i.Commit == "unknown" || len(i.Commit) < 7 {
		return i.Version
	}
	if i.Version == "dev" {
		return "dev-" + i.Commit[:7]
	}
	return fmt.Sprintf("%s (%s)", i.Version, i.Commit[:7])
}

// String renders every known field on its own line.
func (i Info) String() string {
	lines := []string{"Version: " + i.Version}
	if i.Commit != "unknown" {
		lines = append(lines, "Commit: "+i.Commit)
	}
	if !i.BuiltAt.IsZero() {
		lines = append(lines, "Built: "+i.BuiltAt.Format(time.RFC3339))
	}
	lines = append(lines, "Go: "+i.GoVersion, "Platform: "+i.Platform)
	return strings.Join(lines, "\n")
}

// IsRelease reports whether the binary carries a release version.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && !strings.HasPrefix(i.Version, "dev-")
}

func resolveVersion() string {
	if Version != "" && Version != "dev" {
		return Version
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return "dev"
}

func resolveCommit() string {
	if Commit != "" && Commit != "unknown" {
		return Commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}

func parseTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
