package pathsync

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// walkSource performs the single pre-order walk of the source tree and
// executes the per-entry decision tree. It returns an error only for
// critical failures (unreadable source root, cancellation); per-entry
// problems are logged and counted.
func (r *syncRun) walkSource() error {
	return filepath.WalkDir(r.src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if util.NormalizePath(path) == util.NormalizePath(r.src) {
				return err // Source root is unreadable, abort.
			}
			plog.Warn("Error accessing source path, skipping", "path", path, "error", err)
			r.metrics.AddErrors(1)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		select {
		case <-r.ctx.Done():
			return r.ctx.Err()
		default:
		}

		if path == r.src {
			return nil // The root itself needs no processing.
		}

		r.metrics.AddEntriesProcessed(1)
		entryKey := util.NormalizePath(path)

		// Pre-filter 1: the subtree was already provided at the destination
		// by a directory-level move.
		for _, root := range r.movedSrcRoots {
			if util.IsUnder(root, entryKey) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
		}

		// Pre-filter 2: the entry is covered by the ignore list.
		if r.matcher.SourceIgnored(path) {
			plog.Notice("Ignored: " + path)
			r.metrics.AddEntriesIgnored(1)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(r.src, path)
		if err != nil {
			plog.Warn("Could not get relative path, skipping", "path", path, "error", err)
			r.metrics.AddErrors(1)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(r.dst, rel)

		if d.IsDir() {
			return r.processDirectory(path, target, rel)
		}

		info, err := d.Info()
		if err != nil {
			plog.Warn("Failed to get file info, skipping", "path", path, "error", err)
			r.metrics.AddErrors(1)
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			r.processSymlink(path, target)
			return nil
		}
		if !info.Mode().IsRegular() {
			// Named pipes, sockets, devices. Opaque, not synced.
			plog.Notice("Skipped special file", "type", info.Mode().String(), "path", path)
			return nil
		}

		r.processFile(path, target, info)
		return nil
	})
}

// processDirectory handles a source directory entry: recurse when the target
// exists, otherwise attempt a directory-level move and fall back to creating
// the directory.
func (r *syncRun) processDirectory(path, target, rel string) error {
	tgtInfo, err := os.Lstat(target)
	if err == nil {
		if tgtInfo.IsDir() {
			return nil // Exists, recurse.
		}
		// Type conflict: a non-directory occupies the target path.
		if r.dryRun {
			plog.Info("[DRY-RUN] Would replace " + target + " with a directory")
			r.metrics.AddPlannedOps(1)
			r.reservedPaths[util.NormalizePath(target)] = struct{}{}
			return nil
		}
		plog.Warn("Destination exists but is not a directory, removing", "path", target, "type", tgtInfo.Mode().String())
		if err := os.RemoveAll(target); err != nil {
			plog.Error("[X] ERROR: failed to remove conflicting destination "+target, "error", err)
			r.metrics.AddErrors(1)
			return filepath.SkipDir
		}
	} else if !os.IsNotExist(err) {
		plog.Warn("Failed to stat destination directory, skipping subtree", "path", target, "error", err)
		r.metrics.AddErrors(1)
		return filepath.SkipDir
	}

	// Target does not exist. Under strong hashing, check whether a sibling
	// directory at the destination already holds this subtree's content.
	if r.strong {
		if moved := r.tryDirectoryMove(path, target, rel); moved {
			return filepath.SkipDir
		}
	}

	r.createDirectory(target)
	return nil
}

// createDirectory creates the target directory (or plans it) and reserves it.
func (r *syncRun) createDirectory(target string) {
	if r.dryRun {
		plog.Info("[DRY-RUN] Would create directory " + target)
		r.metrics.AddPlannedOps(1)
		r.reservedPaths[util.NormalizePath(target)] = struct{}{}
		return
	}
	if err := os.MkdirAll(target, util.UserWritableDirPerms); err != nil {
		plog.Error("[X] ERROR: failed to create directory "+target, "error", err)
		r.metrics.AddErrors(1)
		return
	}
	plog.Notice("Create Directory " + target)
	r.metrics.AddDirsCreated(1)
	r.reservedPaths[util.NormalizePath(target)] = struct{}{}
}

// processFile handles a regular source file: move detection when the target
// is missing, an overwrite decision when it exists.
func (r *syncRun) processFile(path, target string, srcInfo os.FileInfo) {
	tgtInfo, err := os.Lstat(target)
	if err != nil {
		if !os.IsNotExist(err) {
			plog.Warn("Failed to stat destination file, skipping", "path", target, "error", err)
			r.metrics.AddErrors(1)
			return
		}

		// Case A: the target does not exist. Try a file-level move first.
		if r.strong && r.index != nil && r.index.Len() > 0 {
			if moved := r.tryFileMove(path, target); moved {
				return
			}
		}
		r.reservedPaths[util.NormalizePath(target)] = struct{}{}
		r.dispatchCopy(path, target, srcInfo, false)
		return
	}

	// Case B: the target exists. It stays reserved no matter what.
	r.reservedPaths[util.NormalizePath(target)] = struct{}{}

	if tgtInfo.IsDir() {
		// Type conflict: the worker replaces the whole subtree.
		r.dispatchCopy(path, target, srcInfo, true)
		return
	}

	if r.needsOverwrite(path, target, srcInfo, tgtInfo) {
		r.dispatchCopy(path, target, srcInfo, true)
		return
	}
	r.metrics.AddFilesUpToDate(1)
}

// needsOverwrite decides whether an existing target must be overwritten.
//
// Strong mode compares sizes first; equal sizes are settled by fingerprints,
// where an absent fingerprint on either side forces the copy. A missing
// FileInfo on either side forces the copy; size and mtime come from the same
// FileInfo, so there is no separate mtime fallback. Fast mode copies when the
// source is newer.
func (r *syncRun) needsOverwrite(path, target string, srcInfo, tgtInfo os.FileInfo) bool {
	if !r.strong {
		return srcInfo.ModTime().After(tgtInfo.ModTime())
	}

	if srcInfo == nil || tgtInfo == nil {
		return true
	}
	if srcInfo.Size() != tgtInfo.Size() {
		return true
	}
	if srcInfo.Size() == 0 {
		// Two empty files are identical by definition. They carry no
		// fingerprint, and the absent-fingerprint rule below would otherwise
		// recopy them on every run.
		return false
	}

	sfp, err := r.fpr.File(path)
	if err != nil {
		plog.Warn("Failed to fingerprint source file", "path", path, "error", err)
	}
	tfp, err := r.fpr.File(target)
	if err != nil {
		plog.Warn("Failed to fingerprint destination file", "path", target, "error", err)
	}
	return sfp == "" || tfp == "" || sfp != tfp
}

// processSymlink recreates a source symlink at the destination. Links are
// opaque entries: never fingerprinted and never move candidates.
func (r *syncRun) processSymlink(path, target string) {
	linkTarget, err := os.Readlink(path)
	if err != nil {
		plog.Warn("Failed to read source symlink, skipping", "path", path, "error", err)
		r.metrics.AddErrors(1)
		return
	}

	tgtInfo, err := os.Lstat(target)
	if err == nil {
		r.reservedPaths[util.NormalizePath(target)] = struct{}{}
		if tgtInfo.Mode()&os.ModeSymlink != 0 {
			if existing, err := os.Readlink(target); err == nil && existing == linkTarget {
				r.metrics.AddFilesUpToDate(1)
				return
			}
		}
	} else if !os.IsNotExist(err) {
		plog.Warn("Failed to stat destination symlink, skipping", "path", target, "error", err)
		r.metrics.AddErrors(1)
		return
	} else {
		r.reservedPaths[util.NormalizePath(target)] = struct{}{}
	}

	if r.dryRun {
		plog.Info("[DRY-RUN] Would link " + target + " -> " + linkTarget)
		r.metrics.AddPlannedOps(1)
		return
	}

	if err := os.MkdirAll(filepath.Dir(target), util.UserWritableDirPerms); err != nil {
		plog.Error("[X] ERROR: failed to create parent for symlink "+target, "error", err)
		r.metrics.AddErrors(1)
		return
	}
	if err := os.RemoveAll(target); err != nil && !os.IsNotExist(err) {
		plog.Error("[X] ERROR: failed to replace destination "+target, "error", err)
		r.metrics.AddErrors(1)
		return
	}
	if err := os.Symlink(linkTarget, target); err != nil {
		plog.Error("[X] ERROR: failed to create symlink "+target, "error", err)
		r.metrics.AddErrors(1)
		return
	}
	plog.Notice("Linked " + target + " -> " + linkTarget)
	r.metrics.AddFilesCopied(1)
}
