// Package version reports the sendpair build version.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time:
//
//	go build -ldflags="-X github.com/muurk/sendpair/internal/version.Version=v1.2.3 \
//	                   -X github.com/muurk/sendpair/internal/version.Commit=abc123"
//
// Unset values are taken from the embedded VCS build info, falling back to
// "dev" and "unknown".
var (
	// Version is the semantic version of the application
	Version = ""
	// Commit is the git commit hash
	Commit = ""
)

func init() {
	if Version == "" || Commit == "" {
		info, ok := debug.ReadBuildInfo()
		if ok {
			applyBuildInfo(info)
		}
	}
	if Version == "" {
		Version = "dev"
	}
	if Commit == "" {
		Commit = "unknown"
	}
}

// applyBuildInfo fills Version and Commit from VCS stamps.
func applyBuildInfo(info *debug.BuildInfo) {
	if Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	var revision, modified, vcsTime string
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			revision = setting.Value
		case "vcs.modified":
			modified = setting.Value
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	if Commit == "" && revision != "" {
		if len(revision) > 7 {
			revision = revision[:7]
		}
		Commit = revision
		if modified == "true" {
			Commit += "-dirty"
		}
	}

	if Version == "" && vcsTime != "" {
		if t, err := time.Parse(time.RFC3339, vcsTime); err == nil {
			Version = "dev-" + t.Format("20060102")
		}
	}
}

// Full returns the full version string including commit
func Full() string {
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

// Short returns the version without any leading "v", as advertised to peers.
func Short() string {
	return strings.TrimPrefix(Version, "v")
}

// UserAgent returns the product token used in HTTP headers.
func UserAgent() string {
	return fmt.Sprintf("sendpair/%s (%s/%s)", Short(), runtime.GOOS, runtime.GOARCH)
}
