// Package version carries build information and compares releases.
package version

import (
	"fmt"
	"runtime"

	goversion "github.com/hashicorp/go-version"
)

// Set at build time with -ldflags.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

type Info struct {
	Version   string
	BuildDate string
	GitCommit string
	GoVersion string
	Platform  string
}

func Get() Info {
	return Info{
		Version:   Version,
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("neo-alchemist version %s (%s %s)", i.Version, i.Platform, i.GoVersion)
}

// FullString returns the multi-line form printed by the version command.
func (i Info) FullString() string {
	return fmt.Sprintf(`neo-alchemist version %s
Build Date: %s
Git Commit: %s
Platform: %s
Go Version: %s`, i.Version, i.BuildDate, i.GitCommit, i.Platform, i.GoVersion)
}

// Outdated reports whether latest is a newer release than the running one.
func (i Info) Outdated(latest string) (bool, error) {
	current, err := goversion.NewVersion(i.Version)
	if err != nil {
		return false, fmt.Errorf("invalid version format: %w", err)
	}
	l, err := goversion.NewVersion(latest)
	if err != nil {
		return false, fmt.Errorf("invalid latest version format: %w", err)
	}
	return current.LessThan(l), nil
}

// DownloadURL returns the release asset for the running platform.
func DownloadURL(release string) string {
	return fmt.Sprintf("https://github.com/jacerider/neo-alchemist/releases/download/v%s/neo-alchemist-%s-%s", release, runtime.GOOS, runtime.GOARCH)
}
