//go:build windows

package preflight

import (
	"golang.org/x/sys/windows"
)

// platformFreeSpace returns the bytes available to the current user on the
// volume holding path.
func platformFreeSpace(path string) (uint64, error) {
	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return 0, err
	}
	if err := windows.GetDiskFreeSpaceEx(p, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return 0, err
	}
	return freeBytesAvailable, nil
}
