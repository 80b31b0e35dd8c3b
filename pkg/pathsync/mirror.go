package pathsync

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/paulschiretz/pgl-sync/pkg/lockfile"
	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// mirrorVictim is one destination entry scheduled for deletion.
type mirrorVictim struct {
	absPath string
	key     string
	isDir   bool
}

// runMirror enumerates the destination and deletes entries that have no
// source equivalent, are not reserved by this run, and are not covered by
// the ignore rules projected onto the destination.
//
// Deletions happen in reverse-sorted path order so children go before their
// parents; a directory whose children survived (ignored or undeletable) is
// left in place rather than force-removed.
func (r *syncRun) runMirror() {
	plog.Info("Mirror mode enabled. Checking for entries to delete from destination...")

	var victims []mirrorVictim

	err := filepath.WalkDir(r.dst, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			plog.Warn("Error accessing destination path during mirror pass, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == r.dst {
			return nil
		}

		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		default:
		}

		name := d.Name()
		if name == lockfile.LockFileName {
			return nil // The run's own lock.
		}

		// Stale temporary files from crashed runs bypass every other rule:
		// the copy pipeline has drained by the time the mirror pass runs, so
		// any temp file found here is garbage.
		if !d.IsDir() && strings.HasPrefix(name, tempFilePrefix) && strings.HasSuffix(name, ".tmp") {
			victims = append(victims, mirrorVictim{absPath: path, key: util.NormalizePath(path), isDir: false})
			return nil
		}

		key := util.NormalizePath(path)
		if _, reserved := r.reservedPaths[key]; reserved {
			return nil
		}
		for dir := range r.reservedDirs {
			if util.IsUnder(dir, key) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		if r.matcher.DestEquivalentIgnored(r.dst, path, r.src) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(r.dst, path)
		if err != nil {
			return nil
		}
		srcEquivalent := filepath.Join(r.src, rel)
		if _, err := os.Lstat(srcEquivalent); err == nil {
			return nil // The source provides this entry.
		}
		if r.matcher.SourceIgnored(srcEquivalent) {
			return nil // Deliberately hidden from the sync; never delete.
		}

		victims = append(victims, mirrorVictim{absPath: path, key: key, isDir: d.IsDir()})
		return nil
	})
	if err != nil {
		plog.Warn("Mirror pass incomplete", "error", err)
		r.metrics.AddErrors(1)
	}

	if len(victims) == 0 {
		return
	}

	// Children before parents.
	sort.Slice(victims, func(i, j int) bool {
		return victims[i].key > victims[j].key
	})

	for _, v := range victims {
		if r.dryRun {
			plog.Info("[DRY-RUN] Would delete " + v.absPath)
			r.metrics.AddPlannedOps(1)
			continue
		}

		if err := os.Remove(v.absPath); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			// A directory that still holds surviving children must stay; it
			// is never force-removed.
			if v.isDir {
				plog.Debug("Directory removal skipped (not empty)", "path", v.absPath, "error", err)
				continue
			}
			plog.Warn("Failed to delete destination entry", "path", v.absPath, "error", err)
			r.metrics.AddErrors(1)
			continue
		}
		plog.Notice("Deleted: " + v.absPath)
		if v.isDir {
			r.metrics.AddDirsDeleted(1)
		} else {
			r.metrics.AddFilesDeleted(1)
		}
	}
}
