// Package contracts holds the versioned identifiers shared by the trainer
// binary and the documents it writes.
package contracts

import (
	"fmt"
	"runtime"
)

const (
	// Version is the release of the trainer binary.
	Version = "0.3.0"

	// VersionPrerelease is appended to Version when set, e.g. "rc.1".
	VersionPrerelease = ""

	// RecordFormatVersion is the version of the stored run layout.
	// Bump it whenever a Record field is renamed or removed.
	RecordFormatVersion = "v1"
)

var (
	// BuildTime is set during build using ldflags
	BuildTime = "unknown"

	// GitCommit is set during build using ldflags
	GitCommit = "unknown"
)

// VersionInfo contains detailed version information
type VersionInfo struct {
	Version      string `json:"version"`
	BuildTime    string `json:"build_time"`
	GitCommit    string `json:"git_commit"`
	GoVersion    string `json:"go_version"`
	OS           string `json:"os"`
	Architecture string `json:"architecture"`
	RecordFormat string `json:"record_format"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:      Version,
		BuildTime:    BuildTime,
		GitCommit:    GitCommit,
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Architecture: runtime.GOARCH,
		RecordFormat: RecordFormatVersion,
	}
}

// GetVersionString returns the product name and version.
func GetVersionString() string {
	if IsPrerelease() {
		return fmt.Sprintf("mmm-trainer v%s-%s", Version, VersionPrerelease)
	}
	return fmt.Sprintf("mmm-trainer v%s", Version)
}

// GetFullVersionString adds build and platform details to GetVersionString.
func GetFullVersionString() string {
	info := GetVersionInfo()
	return fmt.Sprintf("%s (records %s, built %s, commit %s, %s %s/%s)",
		GetVersionString(), info.RecordFormat, info.BuildTime, info.GitCommit,
		info.GoVersion, info.OS, info.Architecture)
}

// IsPrerelease returns true if this is a pre-release version
func IsPrerelease() bool {
	return VersionPrerelease != ""
}
