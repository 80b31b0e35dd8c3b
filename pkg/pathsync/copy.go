package pathsync

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// dispatchCopy hands a file copy to the worker pool. The driver blocks on
// the semaphore when all workers are busy, which bounds the pipeline by
// back-pressure. The target must already be reserved by the caller.
func (r *syncRun) dispatchCopy(src, target string, srcInfo os.FileInfo, targetExists bool) {
	if r.dryRun {
		if targetExists {
			plog.Info("[DRY-RUN] Would DELETE and then COPY " + src + " -> " + target)
		} else {
			plog.Info("[DRY-RUN] Would copy " + src + " -> " + target)
		}
		r.metrics.AddPlannedOps(1)
		return
	}

	if err := r.sem.Acquire(r.ctx, 1); err != nil {
		// Shutdown requested; stop accepting new work.
		return
	}
	r.copyWg.Add(1)
	go func() {
		defer r.copyWg.Done()
		defer r.sem.Release(1)

		if err := r.copyFileTask(src, target, srcInfo); err != nil {
			plog.Error("[X] ERROR copying file: " + err.Error() + " [" + src + "] [" + target + "]")
			r.copyErrs.Store(util.NormalizePath(target), err)
			r.metrics.AddErrors(1)
			return
		}
		plog.Notice("Copied " + src + " -> " + target)
		r.metrics.AddFilesCopied(1)
	}()
}

// copyFileTask is the worker body for one copy: ensure the parent directory
// exists, clear the target, then replace it atomically via a temporary file.
// Failed attempts are retried per the engine configuration.
func (r *syncRun) copyFileTask(src, target string, srcInfo os.FileInfo) error {
	var lastErr error
	for i := 0; i <= r.retryCount; i++ {
		if i > 0 {
			plog.Warn("Retrying file copy", "file", src, "attempt", fmt.Sprintf("%d/%d", i, r.retryCount), "after", r.retryWait)
			time.Sleep(r.retryWait)
		}

		lastErr = func() error {
			targetDir := filepath.Dir(target)
			if err := os.MkdirAll(targetDir, util.UserWritableDirPerms); err != nil {
				return fmt.Errorf("failed to ensure destination directory %s exists: %w", targetDir, err)
			}

			// Clear whatever occupies the target (regular file, symlink, or a
			// whole directory on a type conflict).
			if err := os.RemoveAll(target); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove existing destination %s: %w", target, err)
			}

			in, err := os.Open(src)
			if err != nil {
				return fmt.Errorf("failed to open source file %s: %w", src, err)
			}
			defer in.Close()

			out, err := os.CreateTemp(targetDir, tempFilePrefix+"*.tmp")
			if err != nil {
				return fmt.Errorf("failed to create temporary file in %s: %w", targetDir, err)
			}
			tempPath := out.Name()
			// If the rename succeeds, tempPath is cleared and this is a no-op.
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

			if err := out.Chmod(util.WithUserWritePermission(srcInfo.Mode())); err != nil {
				out.Close()
				return fmt.Errorf("failed to set permissions on temporary file %s: %w", tempPath, err)
			}

			// Close flushes data to disk. It MUST happen before Chtimes,
			// because closing can update the modification time.
			if err := out.Close(); err != nil {
				return fmt.Errorf("failed to close temporary file %s: %w", tempPath, err)
			}
			if err := os.Chtimes(tempPath, srcInfo.ModTime(), srcInfo.ModTime()); err != nil {
				return fmt.Errorf("failed to set timestamps on %s: %w", tempPath, err)
			}

			if err := os.Rename(tempPath, target); err != nil {
				return err
			}
			tempPath = ""
			return nil
		}()

		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to copy file from '%s' to '%s' after %d attempts: %w", src, target, r.retryCount+1, lastErr)
}
