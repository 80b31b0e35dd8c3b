package pathsync

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/paulschiretz/pgl-sync/pkg/fingerprint"
	"github.com/paulschiretz/pgl-sync/pkg/ignore"
	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/pool"
	"github.com/paulschiretz/pgl-sync/pkg/sharded"
)

// syncFile synchronizes a single source file into the destination directory,
// using the same overwrite decision as the directory walk.
func (s *PathSyncer) syncFile(ctx context.Context) error {
	cfg := s.cfg

	absSrc, err := filepath.Abs(cfg.Source)
	if err != nil {
		return fmt.Errorf("failed to resolve source path: %w", err)
	}
	absDst, err := filepath.Abs(cfg.Dest)
	if err != nil {
		return fmt.Errorf("failed to resolve destination path: %w", err)
	}

	srcInfo, err := os.Lstat(absSrc)
	if err != nil {
		return fmt.Errorf("source file missing: %s: %w", absSrc, err)
	}
	if !srcInfo.Mode().IsRegular() {
		return fmt.Errorf("source is not a regular file: %s", absSrc)
	}

	r := &syncRun{
		ctx:        ctx,
		src:        filepath.Dir(absSrc),
		dst:        absDst,
		dryRun:     cfg.DryRun,
		strong:     cfg.HashMode == fingerprint.Strong,
		matcher:    ignore.NewMatcher(cfg.IgnorePaths),
		fpr:        fingerprint.New(cfg.HashMode),
		metrics:    s.metrics,
		sem:        semaphore.NewWeighted(1),
		bufPool:    pool.New(int64(cfg.Engine.CopyBufferSizeKB) * 1024),
		retryCount: cfg.Engine.RetryCount,
		retryWait:  time.Duration(cfg.Engine.RetryWaitSeconds) * time.Second,
		copyErrs:   sharded.NewShardedMap(),
	}

	if err := r.ensureDestRoot(); err != nil {
		return err
	}

	target := filepath.Join(absDst, filepath.Base(absSrc))
	tgtInfo, err := os.Lstat(target)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat destination file %s: %w", target, err)
		}
		r.dispatchCopy(absSrc, target, srcInfo, false)
	} else if tgtInfo.IsDir() || r.needsOverwrite(absSrc, target, srcInfo, tgtInfo) {
		r.dispatchCopy(absSrc, target, srcInfo, true)
	} else {
		r.metrics.AddFilesUpToDate(1)
	}

	r.copyWg.Wait()
	r.reportCopyErrors()

	if r.dryRun && r.metrics.PlannedOps() == 0 {
		plog.Info("[DRY-RUN] Source and destination are already in sync. No changes needed.")
	}
	return nil
}
