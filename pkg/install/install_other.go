//go:build !windows

// Package install adds the executable's directory to the user's environment
// PATH so the tool can be invoked from any terminal.
package install

import (
	"errors"
)

// AddToPath is only implemented on Windows, where the user PATH lives in the
// registry. On other systems the user is expected to install the binary into
// a directory already on the PATH.
func AddToPath(exeDir string) error {
	return errors.New("--add-to-path is only supported on Windows")
}
