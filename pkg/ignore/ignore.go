// Package ignore decides which paths are excluded from a sync run.
//
// The ignore list is expressed in terms of the source tree only: an entry
// covers itself and its whole subtree. The mirror pass must apply the same
// rules to destination entries, which is done by projecting the destination
// entry back to its source-side equivalent before matching.
package ignore

import (
	"path/filepath"

	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// Matcher matches paths against an ordered list of ignored source paths.
type Matcher struct {
	// entries holds the normalized keys of the configured ignore paths.
	entries []string
}

// NewMatcher builds a Matcher from the configured source-side ignore paths.
// Empty entries are dropped.
func NewMatcher(ignorePaths []string) *Matcher {
	m := &Matcher{}
	for _, p := range ignorePaths {
		key := util.NormalizePath(p)
		if key == "" {
			continue
		}
		m.entries = append(m.entries, key)
	}
	return m
}

// Len returns the number of active ignore entries.
func (m *Matcher) Len() int {
	return len(m.entries)
}

// SourceIgnored reports whether the given source-side path is covered by any
// ignore entry.
func (m *Matcher) SourceIgnored(absPath string) bool {
	key := util.NormalizePath(absPath)
	for _, e := range m.entries {
		if util.IsUnder(e, key) {
			return true
		}
	}
	return false
}

// DestEquivalentIgnored reports whether the source-side equivalent of a
// destination entry is ignored. It decomposes dstEntry relative to dstRoot
// and re-roots the remainder below srcRoot. An entry that cannot be made
// relative to the destination root is not considered ignored.
func (m *Matcher) DestEquivalentIgnored(dstRoot, dstEntry, srcRoot string) bool {
	rel, err := filepath.Rel(dstRoot, dstEntry)
	if err != nil {
		return false
	}
	return m.SourceIgnored(filepath.Join(srcRoot, rel))
}
