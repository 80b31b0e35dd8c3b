// Package buildinfo holds the application identity constants.
package buildinfo

// Name is the canonical name of the application used for logging and help output.
const Name = "PGL-Sync"

// Version holds the application's version string.
// It's a `var` so it can be set at compile time using ldflags.
// Example: go build -ldflags="-X github.com/paulschiretz/pgl-sync/pkg/buildinfo.Version=1.0.0"
var Version = "dev"
