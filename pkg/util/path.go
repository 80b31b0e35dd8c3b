package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Path identity comparison works on normalized keys: forward slashes, no
// trailing separators, and case-folded on hosts whose filesystems are
// case-insensitive. Two paths refer to the same filesystem object for the
// purposes of reservations, the ignore list, and the mirror pass iff their
// keys are equal. Keys are for comparison only; filesystem access always
// uses the original OS-native path.

// NormalizeKey converts a path into its canonical comparison key.
// The caseFold parameter makes the policy explicit so tests can exercise
// both behaviors regardless of the host filesystem.
func NormalizeKey(p string, caseFold bool) string {
	s := filepath.ToSlash(p)
	for len(s) > 1 && strings.HasSuffix(s, "/") {
		s = strings.TrimSuffix(s, "/")
	}
	if caseFold {
		s = strings.ToLower(s)
	}
	return s
}

// NormalizePath converts a path into its canonical comparison key using the
// host's case policy.
func NormalizePath(p string) string {
	return NormalizeKey(p, IsHostCaseInsensitiveFS())
}

// IsUnder reports whether the normalized path key is the normalized
// directory key itself or lies inside its subtree. Both arguments must
// already be normalized with the same case policy.
func IsUnder(dirKey, pathKey string) bool {
	if dirKey == "" {
		return false
	}
	if pathKey == dirKey {
		return true
	}
	return strings.HasPrefix(pathKey, dirKey+"/")
}

// NormalizedRelPath returns the normalized relative key of absPath below base.
func NormalizedRelPath(base, absPath string) (string, error) {
	relPath, err := filepath.Rel(base, absPath)
	if err != nil {
		return "", fmt.Errorf("failed to get relative path for %s: %w", absPath, err)
	}
	return NormalizePath(relPath), nil
}

// DenormalizedAbsPath joins a base directory and a relative key back into an
// OS-native absolute path for filesystem access.
func DenormalizedAbsPath(base, relKey string) string {
	return filepath.Join(base, filepath.FromSlash(relKey))
}
