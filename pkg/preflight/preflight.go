// Package preflight runs cheap sanity checks on the destination before the
// sync starts mutating it.
package preflight

import (
	"fmt"
	"os"

	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// CheckDestination verifies that the destination root either does not exist
// yet (it will be created) or is a directory, and reports the free space on
// its volume. Write permission on the directory is not tested.
func CheckDestination(dstRoot string) error {
	info, err := os.Stat(dstRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // Created by the run.
		}
		return fmt.Errorf("failed to stat destination %s: %w", dstRoot, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("destination %s exists but is not a directory", dstRoot)
	}

	free, err := platformFreeSpace(dstRoot)
	if err != nil {
		plog.Debug("Could not determine free space on destination volume", "path", dstRoot, "error", err)
		return nil
	}
	plog.Info("Destination volume free space", "path", dstRoot, "free", util.ByteCountIEC(int64(free)))
	return nil
}
