package apigraph

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

var (
	// version and commit are set via ldflags for release builds
	version = "dev"
	commit  = ""
)

// Version returns the compiled version or 'dev' if run from source
func Version() string {
	return version
}

// Commit returns the VCS revision the binary was built from, or "unknown".
func Commit() string {
	if commit != "" {
		return commit
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				return s.Value[:7]
			}
		}
	}
	return "unknown"
}

// GoVersion returns the Go version the binary was built with.
func GoVersion() string {
	return runtime.Version()
}

// UserAgent returns the User-Agent string sent when fetching resources
func UserAgent() string {
	return fmt.Sprintf("apigraph/%s", version)
}
