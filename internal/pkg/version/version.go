package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the semantic version (injected at build time via ldflags)
	Version = "dev"

	// GitCommit is the git commit hash (injected at build time via ldflags)
	GitCommit = "unknown"

	// BuildDate is the build date (injected at build time via ldflags)
	BuildDate = "unknown"
)

// Info is the build description printed by `pcapview version`.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	GitCommit string `json:"git_commit" yaml:"git_commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Get returns the build information of the running binary.
func Get() Info {
	return Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// String is the one-line form used by --version.
func (i Info) String() string {
	return fmt.Sprintf("pcapview %s (commit: %s, built: %s, %s %s)",
		i.Version, shortCommit(i.GitCommit), i.BuildDate, i.GoVersion, i.Platform)
}

func shortCommit(c string) string {
	if c != "unknown" && len(c) > 7 {
		return c[:7]
	}
	return c
}
