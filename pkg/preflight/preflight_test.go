package preflight

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulschiretz/pgl-sync/pkg/plog"
)

func TestMain(m *testing.M) {
	plog.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func TestMissingDestinationPasses(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "not-yet-created")
	if err := CheckDestination(dst); err != nil {
		t.Errorf("CheckDestination on a missing destination = %v, want nil", err)
	}
}

func TestExistingDirectoryPasses(t *testing.T) {
	if err := CheckDestination(t.TempDir()); err != nil {
		t.Errorf("CheckDestination on an existing directory = %v, want nil", err)
	}
}

func TestNonDirectoryDestinationFails(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "a-file")
	if err := os.WriteFile(dst, []byte("occupied"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	if err := CheckDestination(dst); err == nil {
		t.Error("CheckDestination accepted a regular file as destination")
	}
}

func TestPlatformFreeSpace(t *testing.T) {
	free, err := platformFreeSpace(t.TempDir())
	if err != nil {
		t.Fatalf("platformFreeSpace failed: %v", err)
	}
	if free == 0 {
		t.Error("platformFreeSpace reported zero bytes available on a writable volume")
	}
}
