//go:build !windows

package preflight

import (
	"golang.org/x/sys/unix"
)

// platformFreeSpace returns the bytes available to the current user on the
// volume holding path.
func platformFreeSpace(path string) (uint64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0, err
	}
	return st.Bavail * uint64(st.Bsize), nil
}
