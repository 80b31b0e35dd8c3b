// Package fpindex maintains the destination fingerprint index: a multimap
// from content fingerprint to the destination paths currently known to hold
// that content. The reconciliation driver consults it to find move candidates
// and removes entries as they are claimed or displaced.
//
// The index is owned and mutated by the driver only; it needs no internal
// locking.
package fpindex

import (
	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// Index is the fingerprint → destination paths multimap.
type Index struct {
	entries map[string][]string
	size    int
}

// New creates an empty Index.
func New() *Index {
	return &Index{entries: make(map[string][]string)}
}

// Add records that the destination path currently holds content with the
// given fingerprint. Absent fingerprints (empty string) are never indexed.
func (ix *Index) Add(fp, destPath string) {
	if fp == "" {
		return
	}
	ix.entries[fp] = append(ix.entries[fp], destPath)
	ix.size++
}

// Find returns the destination paths recorded for a fingerprint, in
// insertion order. The returned slice is owned by the index; callers must
// not mutate it. An absent fingerprint matches nothing.
func (ix *Index) Find(fp string) []string {
	if fp == "" {
		return nil
	}
	return ix.entries[fp]
}

// Remove deletes a single (fingerprint, path) entry.
func (ix *Index) Remove(fp, destPath string) {
	paths, ok := ix.entries[fp]
	if !ok {
		return
	}
	for i, p := range paths {
		if p == destPath {
			ix.entries[fp] = append(paths[:i], paths[i+1:]...)
			ix.size--
			break
		}
	}
	if len(ix.entries[fp]) == 0 {
		delete(ix.entries, fp)
	}
}

// RemoveSubtree deletes every entry whose path lies under the given
// directory. Used after a directory-level move consumes a whole subtree.
func (ix *Index) RemoveSubtree(dir string) {
	dirKey := util.NormalizePath(dir)
	for fp, paths := range ix.entries {
		kept := paths[:0]
		for _, p := range paths {
			if util.IsUnder(dirKey, util.NormalizePath(p)) {
				ix.size--
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(ix.entries, fp)
		} else {
			ix.entries[fp] = kept
		}
	}
}

// Len returns the total number of indexed (fingerprint, path) entries.
func (ix *Index) Len() int {
	return ix.size
}
