package pathsync

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// tryFileMove searches the destination index for a file that already holds
// the source content and renames it into place. Returns true when the source
// entry has been satisfied by a move (or a planned move in dry-run).
func (r *syncRun) tryFileMove(path, target string) bool {
	fp, err := r.fpr.File(path)
	if err != nil {
		plog.Warn("Failed to fingerprint source file", "path", path, "error", err)
		return false
	}
	if fp == "" {
		return false // Absent fingerprints never match.
	}

	for _, candidate := range r.index.Find(fp) {
		if r.matcher.DestEquivalentIgnored(r.dst, candidate, r.src) {
			continue
		}
		candKey := util.NormalizePath(candidate)
		if _, reserved := r.reservedPaths[candKey]; reserved {
			continue
		}
		if _, err := os.Lstat(candidate); err != nil {
			continue // Vanished since the index was built.
		}

		if r.dryRun {
			plog.Info("[DRY-RUN] Would MOVE (rename) " + candidate + " -> " + target)
			r.reservedPaths[candKey] = struct{}{}
			r.reservedPaths[util.NormalizePath(target)] = struct{}{}
			r.index.Remove(fp, candidate)
			r.metrics.AddPlannedOps(1)
			return true
		}

		if err := r.moveFile(candidate, target); err != nil {
			plog.Error("[X] ERROR moving file: "+err.Error(), "from", candidate, "to", target)
			r.metrics.AddErrors(1)
			return false // Fall back to a plain copy.
		}
		r.index.Remove(fp, candidate)
		r.reservedPaths[util.NormalizePath(target)] = struct{}{}
		r.metrics.AddFilesRenamed(1)
		return true
	}
	return false
}

// moveFile renames a destination file into place, downgrading to
// copy-then-delete when the rename fails (e.g. across volumes).
func (r *syncRun) moveFile(candidate, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), util.UserWritableDirPerms); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", target, err)
	}
	if err := os.Rename(candidate, target); err == nil {
		plog.Notice("Renamed file " + candidate + " -> " + target)
		return nil
	}
	if err := r.copyFileContents(candidate, target); err != nil {
		return err
	}
	if err := os.Remove(candidate); err != nil {
		return fmt.Errorf("failed to delete move source %s: %w", candidate, err)
	}
	plog.Notice("Renamed file (cross-volume) " + candidate + " -> " + target)
	return nil
}

// tryDirectoryMove checks the destination siblings of the missing target for
// a directory whose content fingerprints overlap the source directory's by
// at least the match threshold, and renames it into place. Returns true when
// the whole source subtree has been satisfied.
func (r *syncRun) tryDirectoryMove(path, target, rel string) bool {
	srcFPs := r.dirFingerprints(path, true)
	if len(srcFPs) == 0 {
		return false
	}

	dstParent := filepath.Join(r.dst, filepath.Dir(rel))
	parentInfo, err := os.Lstat(dstParent)
	if err != nil || !parentInfo.IsDir() {
		return false
	}
	entries, err := os.ReadDir(dstParent)
	if err != nil {
		return false
	}

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		candidate := filepath.Join(dstParent, e.Name())
		candKey := util.NormalizePath(candidate)
		if _, reserved := r.reservedDirs[candKey]; reserved {
			continue
		}
		if r.matcher.DestEquivalentIgnored(r.dst, candidate, r.src) {
			continue
		}
		candFPs := r.dirFingerprints(candidate, false)
		if len(candFPs) == 0 {
			continue
		}

		common := 0
		for fp := range srcFPs {
			if _, ok := candFPs[fp]; ok {
				common++
			}
		}
		ratio := float64(common) / float64(len(srcFPs))
		if ratio < r.dirMatchThreshold {
			continue
		}

		// Same subtree, merely renamed.
		if r.dryRun {
			plog.Info("[DRY-RUN] Would MOVE (rename dir) " + candidate + " -> " + target)
			r.reservedDirs[candKey] = struct{}{}
			r.reservedDirs[util.NormalizePath(target)] = struct{}{}
			r.movedSrcRoots = append(r.movedSrcRoots, util.NormalizePath(path))
			r.index.RemoveSubtree(candidate)
			r.metrics.AddPlannedOps(1)
			return true
		}

		if err := r.moveDirectory(candidate, target); err != nil {
			plog.Error("[X] ERROR moving directory: "+err.Error(), "from", candidate, "to", target)
			r.metrics.AddErrors(1)
			return false // Fall back to creating the directory and copying.
		}
		r.reservedDirs[candKey] = struct{}{}
		r.reservedDirs[util.NormalizePath(target)] = struct{}{}
		r.movedSrcRoots = append(r.movedSrcRoots, util.NormalizePath(path))
		r.index.RemoveSubtree(candidate)
		r.metrics.AddDirsRenamed(1)
		return true
	}
	return false
}

// moveDirectory renames a destination directory into place, downgrading to a
// deep copy plus deletion when the rename fails (e.g. across volumes).
func (r *syncRun) moveDirectory(candidate, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), util.UserWritableDirPerms); err != nil {
		return fmt.Errorf("failed to create parent directory for %s: %w", target, err)
	}
	if err := os.Rename(candidate, target); err == nil {
		plog.Notice("Renamed directory " + candidate + " -> " + target)
		return nil
	}

	// Cross-volume fallback: deep copy, then delete the original.
	err := filepath.WalkDir(candidate, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(candidate, p)
		if err != nil {
			return err
		}
		dest := filepath.Join(target, rel)
		if err := os.MkdirAll(filepath.Dir(dest), util.UserWritableDirPerms); err != nil {
			return err
		}
		return r.copyFileContents(p, dest)
	})
	if err != nil {
		return fmt.Errorf("cross-volume directory copy failed: %w", err)
	}
	if err := os.RemoveAll(candidate); err != nil {
		return fmt.Errorf("failed to delete move source %s: %w", candidate, err)
	}
	plog.Notice("Renamed directory (cross-volume) " + candidate + " -> " + target)
	return nil
}

// dirFingerprints computes the fingerprint set of all non-ignored regular
// files below dir, memoized per normalized directory path. sourceSide
// selects the ignore rule applied to descendants.
func (r *syncRun) dirFingerprints(dir string, sourceSide bool) map[string]struct{} {
	key := util.NormalizePath(dir)
	if cached, ok := r.dirFPCache[key]; ok {
		return cached
	}

	set := make(map[string]struct{})
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			plog.Warn("Error accessing path while fingerprinting directory, skipping", "path", p, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if sourceSide {
			if r.matcher.SourceIgnored(p) {
				return nil
			}
		} else if r.matcher.DestEquivalentIgnored(r.dst, p, r.src) {
			return nil
		}
		fp, err := r.fpr.File(p)
		if err != nil {
			plog.Warn("Failed to fingerprint file in directory comparison", "path", p, "error", err)
			return nil
		}
		if fp != "" {
			set[fp] = struct{}{}
		}
		return nil
	})
	if err != nil {
		plog.Warn("Directory fingerprinting incomplete", "path", dir, "error", err)
	}

	r.dirFPCache[key] = set
	return set
}

// copyFileContents performs a synchronous, atomic content copy used by the
// cross-volume move fallbacks. It shares the buffer pool with the copy
// workers.
func (r *syncRun) copyFileContents(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.CreateTemp(filepath.Dir(dst), tempFilePrefix+"*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", filepath.Dir(dst), err)
	}
	tempPath := out.Name()
	defer func() {
		if tempPath != "" {
			os.Remove(tempPath)
		}
	}()

	buf := r.bufPool.Get()
	defer r.bufPool.Put(buf)

	written, err := io.CopyBuffer(out, in, buf)
	if err != nil {
		out.Close()
		return fmt.Errorf("failed to copy content from %s to %s: %w", src, tempPath, err)
	}
	r.metrics.AddBytesWritten(written)

	if err := out.Chmod(util.WithUserWritePermission(info.Mode())); err != nil {
		out.Close()
		return fmt.Errorf("failed to set permissions on %s: %w", tempPath, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %s: %w", tempPath, err)
	}
	if err := os.Chtimes(tempPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set timestamps on %s: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, dst); err != nil {
		return err
	}
	tempPath = ""
	return nil
}
