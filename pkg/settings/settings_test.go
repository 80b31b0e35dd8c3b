package settings

import (
	"path/filepath"
	"testing"

	"github.com/paulschiretz/pgl-sync/pkg/config"
	"github.com/paulschiretz/pgl-sync/pkg/fingerprint"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)

	cfg := config.NewDefault()
	cfg.Mode = config.ModeDir
	cfg.Source = "/data/src"
	cfg.Dest = "/backup/dst"
	cfg.Mirror = true
	cfg.Verbose = true
	cfg.HashMode = fingerprint.Strong

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, ok, err := Load(path, config.NewDefault())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !ok {
		t.Fatal("Load reported missing file")
	}
	if loaded.Mode != config.ModeDir || loaded.Source != "/data/src" || loaded.Dest != "/backup/dst" {
		t.Errorf("loaded mode/src/dst = %v/%v/%v", loaded.Mode, loaded.Source, loaded.Dest)
	}
	if !loaded.Mirror || !loaded.Verbose {
		t.Errorf("loaded mirror/verbose = %v/%v", loaded.Mirror, loaded.Verbose)
	}
	if loaded.HashMode != fingerprint.Strong {
		t.Errorf("loaded hash mode = %v", loaded.HashMode)
	}
}

func TestLoadMissingFile(t *testing.T) {
	base := config.NewDefault()
	loaded, ok, err := Load(filepath.Join(t.TempDir(), FileName), base)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if ok {
		t.Error("Load reported a file that does not exist")
	}
	if loaded.Source != base.Source {
		t.Error("missing file must leave the base config unchanged")
	}
}
