package smfseek

import (
	"fmt"
	"runtime"
)

// Version is the release of the decoder. It changes when decoding behaviour,
// the event model or the public API changes.
const Version = "0.1.0"

// GetVersion returns Version.
func GetVersion() string {
	return Version
}

// VersionInfo identifies the build of smfseek a tool is running, so that a
// dump or render can be traced back to the decoder that produced it.
type VersionInfo struct {
	Version   string
	GitCommit string // -X github.com/simonhull/smfseek.gitCommit
	BuildTime string // -X github.com/simonhull/smfseek.buildTime
	GoVersion string
}

// GetVersionInfo reports the decoder release and the build stamps that the
// smf-dump and smf-render commands print for -version. Stamps not set with
// -ldflags read "unknown"; the Go version falls back to the running toolchain.
//
//	go build -ldflags="-X github.com/simonhull/smfseek.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/simonhull/smfseek.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" ./cmd/smf-dump
func GetVersionInfo() VersionInfo {
	goVer := goVersion
	if goVer == "unknown" {
		goVer = runtime.Version()
	}

	return VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: goVer,
	}
}

func (v VersionInfo) String() string {
	return fmt.Sprintf("smfseek %s (commit %s, built %s, %s)", v.Version, v.GitCommit, v.BuildTime, v.GoVersion)
}

var (
	gitCommit = "unknown"
	buildTime = "unknown"
	goVersion = "unknown"
)
