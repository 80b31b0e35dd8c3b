package config

import (
	"path/filepath"
	"testing"

	"github.com/paulschiretz/pgl-sync/pkg/fingerprint"
)

func TestMergeWithFlags(t *testing.T) {
	base := NewDefault()
	merged := MergeWithFlags(base, map[string]any{
		"mode":    ModeDir,
		"src":     "/src",
		"dst":     "/dst",
		"ignore":  []string{"/src/a", "/src/b"},
		"delete":  true,
		"dry-run": true,
		"sha256":  true,
		"workers": 16,
	})

	if merged.Mode != ModeDir || merged.Source != "/src" || merged.Dest != "/dst" {
		t.Errorf("mode/src/dst = %v/%v/%v", merged.Mode, merged.Source, merged.Dest)
	}
	if len(merged.IgnorePaths) != 2 {
		t.Errorf("ignore = %v", merged.IgnorePaths)
	}
	if !merged.Mirror || !merged.DryRun {
		t.Errorf("mirror/dry-run = %v/%v", merged.Mirror, merged.DryRun)
	}
	if merged.HashMode != fingerprint.Strong {
		t.Errorf("hash mode = %v", merged.HashMode)
	}
	if merged.Engine.MaxCopyWorkers != 16 {
		t.Errorf("workers = %d", merged.Engine.MaxCopyWorkers)
	}

	// Untouched base fields survive the merge.
	if merged.DirMatchThreshold != base.DirMatchThreshold {
		t.Errorf("threshold changed: %v", merged.DirMatchThreshold)
	}
}

func TestValidate(t *testing.T) {
	srcDir := t.TempDir()

	valid := NewDefault()
	valid.Mode = ModeDir
	valid.Source = srcDir
	valid.Dest = filepath.Join(t.TempDir(), "out")
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	noMode := valid
	noMode.Mode = ""
	if err := noMode.Validate(); err == nil {
		t.Error("missing mode accepted")
	}

	noSrc := valid
	noSrc.Source = ""
	if err := noSrc.Validate(); err == nil {
		t.Error("missing source accepted")
	}

	ghostSrc := valid
	ghostSrc.Source = filepath.Join(srcDir, "does-not-exist")
	if err := ghostSrc.Validate(); err == nil {
		t.Error("nonexistent source accepted")
	}

	badWorkers := valid
	badWorkers.Engine.MaxCopyWorkers = 0
	if err := badWorkers.Validate(); err == nil {
		t.Error("zero workers accepted")
	}

	badThreshold := valid
	badThreshold.DirMatchThreshold = 1.5
	if err := badThreshold.Validate(); err == nil {
		t.Error("out-of-range threshold accepted")
	}
}

func TestParseSyncMode(t *testing.T) {
	if m, err := ParseSyncMode("dir"); err != nil || m != ModeDir {
		t.Errorf("ParseSyncMode(dir) = %v, %v", m, err)
	}
	if m, err := ParseSyncMode("file"); err != nil || m != ModeFile {
		t.Errorf("ParseSyncMode(file) = %v, %v", m, err)
	}
	if _, err := ParseSyncMode("both"); err == nil {
		t.Error("ParseSyncMode(both) should fail")
	}
}
