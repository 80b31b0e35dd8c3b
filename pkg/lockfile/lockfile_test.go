package lockfile

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/paulschiretz/pgl-sync/pkg/plog"
)

func TestMain(m *testing.M) {
	plog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestAcquireAndRelease(t *testing.T) {
	dst := t.TempDir()

	lock, err := Acquire(dst)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	lockPath := filepath.Join(dst, LockFileName)
	if _, err := os.Stat(lockPath); err != nil {
		t.Fatalf("lock file missing: %v", err)
	}

	lock.Release()
	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Fatalf("lock file not removed: %v", err)
	}

	// Release is idempotent.
	lock.Release()
}

func TestSecondAcquireFails(t *testing.T) {
	dst := t.TempDir()

	first, err := Acquire(dst)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	defer first.Release()

	_, err = Acquire(dst)
	var active *ErrLockActive
	if !errors.As(err, &active) {
		t.Fatalf("second Acquire error = %v, want ErrLockActive", err)
	}
	if active.PID != int64(os.Getpid()) {
		t.Errorf("lock holder PID = %d, want %d", active.PID, os.Getpid())
	}
}

func TestStaleLockTakenOver(t *testing.T) {
	dst := t.TempDir()

	oldTimeout := staleTimeout
	staleTimeout = 50 * time.Millisecond
	defer func() { staleTimeout = oldTimeout }()

	first, err := Acquire(dst)
	if err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}
	_ = first // Simulate a crash: the lock is never released.

	time.Sleep(80 * time.Millisecond)

	second, err := Acquire(dst)
	if err != nil {
		t.Fatalf("takeover Acquire failed: %v", err)
	}
	second.Release()
}

func TestCorruptLockTakenOver(t *testing.T) {
	dst := t.TempDir()
	lockPath := filepath.Join(dst, LockFileName)
	if err := os.WriteFile(lockPath, []byte("not json"), 0644); err != nil {
		t.Fatalf("failed to plant corrupt lock: %v", err)
	}

	lock, err := Acquire(dst)
	if err != nil {
		t.Fatalf("Acquire over corrupt lock failed: %v", err)
	}
	lock.Release()
}

func TestAcquireCreatesDestination(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "not", "yet", "there")
	lock, err := Acquire(dst)
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer lock.Release()
	info, err := os.Stat(dst)
	if err != nil || !info.IsDir() {
		t.Fatalf("destination root not created: %v", err)
	}
}
