// Package buildinfo holds version and build metadata stamped at compile time via ldflags:
//
//	go build -ldflags "-X github.com/nugget/chatty/internal/buildinfo.Version=v0.3.0"
package buildinfo

import (
	"fmt"
	"runtime"
)

// These variables are set at build time via -ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	GitBranch = "unknown"
	BuildTime = "unknown"
)

// Keys lists the [BuildInfo] keys in display order.
var Keys = []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"}

// BuildInfo returns build and runtime metadata keyed by [Keys].
func BuildInfo() map[string]string {
	return map[string]string{
		"version":    Version,
		"git_commit": GitCommit,
		"git_branch": GitBranch,
		"build_time": BuildTime,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
	}
}

// String returns a one-line summary for logging.
func String() string {
	return fmt.Sprintf("Chatty %s (%s@%s) built %s", Version, GitCommit, GitBranch, BuildTime)
}

// UserAgent is the User-Agent header sent on every outbound request.
func UserAgent() string {
	return fmt.Sprintf("chatty/%s (%s; %s)", Version, runtime.GOOS, runtime.GOARCH)
}
