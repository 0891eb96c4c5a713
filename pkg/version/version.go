// Package version holds the build version, overridden at link time with
// -ldflags "-X poppybuddy/pkg/version.Version=...".
package version

// Version is the release version of the binaries.
var Version = "v0.4.0"
