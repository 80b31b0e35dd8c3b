// Package lockfile guards a destination directory against concurrent sync
// runs. Two processes mirroring into the same destination at once would race
// each other's deletions and copies, so the run takes an exclusive lock file
// in the destination root for its duration.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// LockFileName is the name of the lock file created in the destination root.
// The '~' prefix marks it as temporary.
const LockFileName = ".~pgl-sync.lock"

// staleTimeout is the age after which an existing lock is assumed to belong
// to a crashed run and may be taken over.
var staleTimeout = 15 * time.Minute

// lockContent is the structure written into the lock file.
type lockContent struct {
	PID      int64     `json:"pid"`
	Hostname string    `json:"hostname"`
	Started  time.Time `json:"started"`
}

// ErrLockActive is returned when another live run holds the lock.
type ErrLockActive struct {
	PID      int64
	Hostname string
	Age      time.Duration
}

// Error implements the error interface for ErrLockActive.
func (e *ErrLockActive) Error() string {
	return fmt.Sprintf("destination is locked by PID %d on host '%s', started %s ago",
		e.PID, e.Hostname, e.Age.Truncate(time.Second))
}

// Lock is a held destination lock.
type Lock struct {
	path string
	held bool
}

// Acquire takes the destination lock, creating the destination root if
// needed. A stale lock (older than staleTimeout, or unreadable) is replaced.
func Acquire(dstRoot string) (*Lock, error) {
	if err := os.MkdirAll(dstRoot, util.UserWritableDirPerms); err != nil {
		return nil, fmt.Errorf("failed to create destination root %s: %w", dstRoot, err)
	}
	absLockPath := filepath.Join(dstRoot, LockFileName)

	for attempt := 0; attempt < 2; attempt++ {
		lock, err := tryAcquire(absLockPath)
		if err == nil {
			return lock, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to access lock file: %w", err)
		}

		content, age, readErr := readLock(absLockPath)
		if readErr == nil && age < staleTimeout {
			return nil, &ErrLockActive{PID: content.PID, Hostname: content.Hostname, Age: age}
		}
		if readErr != nil {
			plog.Warn("Found unreadable lock file, treating as stale", "path", absLockPath, "error", readErr)
		} else {
			plog.Warn("Found stale lock, taking over", "pid", content.PID, "age", age.Truncate(time.Second))
		}
		if err := os.Remove(absLockPath); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lock file: %w", err)
		}
	}
	return nil, errors.New("failed to acquire destination lock (contention)")
}

// tryAcquire attempts atomic creation using O_EXCL.
func tryAcquire(absLockPath string) (*Lock, error) {
	f, err := os.OpenFile(absLockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, util.UserWritableFilePerms)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	hostname, _ := os.Hostname()
	content := lockContent{
		PID:      int64(os.Getpid()),
		Hostname: hostname,
		Started:  time.Now().UTC(),
	}
	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock content: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		os.Remove(absLockPath)
		return nil, fmt.Errorf("failed to write lock content: %w", err)
	}
	return &Lock{path: absLockPath, held: true}, nil
}

// Release removes the lock file. Safe to call more than once.
func (l *Lock) Release() {
	if l == nil || !l.held {
		return
	}
	l.held = false
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		plog.Warn("Failed to remove lock file", "path", l.path, "error", err)
	} else {
		plog.Debug("Lock released", "path", l.path)
	}
}

// readLock reads the lock file and reports its content and age.
func readLock(absLockPath string) (lockContent, time.Duration, error) {
	f, err := os.Open(absLockPath)
	if err != nil {
		return lockContent{}, 0, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return lockContent{}, 0, err
	}
	var content lockContent
	if err := json.Unmarshal(data, &content); err != nil {
		return lockContent{}, 0, fmt.Errorf("lock file is corrupt: %w", err)
	}
	return content, time.Since(content.Started), nil
}
