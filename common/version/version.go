// Package version exposes the build identity of the voicedeskd binary.
//
// The values below are placeholders; release builds override them:
//
//	go build -ldflags "-X github.com/bdobrica/voicedesk/common/version.Version=v1.2.3"
package version

var (
	// Version is the release tag of this build.
	Version = "v0.0.0-dev"

	// GitCommit is the commit the binary was built from.
	GitCommit = "unknown"

	// BuildTime is the timestamp of the build.
	BuildTime = "unknown"
)

// Info renders the build identity as one line for banners and logs.
func Info() string {
	return Version + " (" + GitCommit + ") built at " + BuildTime
}
