// Package version holds the build version, set with -ldflags "-X downsub/internal/version.Version=...".
package version

// Version is the running build's version
var Version = "dev"
