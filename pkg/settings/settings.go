// Package settings persists the last used run arguments to a flat key/value
// document next to the working directory, so the tool can be re-invoked
// without arguments. Only the mode, source, destination, mirror, verbose and
// hash-mode settings are stored; ignore paths, dry-run and worker count are
// not.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/paulschiretz/pgl-sync/pkg/config"
	"github.com/paulschiretz/pgl-sync/pkg/fingerprint"
)

// FileName is the name of the settings document.
const FileName = "pgl-sync.settings.json"

// Save writes the persistable fields of the configuration as a flat
// key/value JSON document.
func Save(path string, cfg config.Config) error {
	kv := map[string]string{
		"mode":    string(cfg.Mode),
		"src":     cfg.Source,
		"dst":     cfg.Dest,
		"mirror":  strconv.FormatBool(cfg.Mirror),
		"verbose": strconv.FormatBool(cfg.Verbose),
		"sha256":  strconv.FormatBool(cfg.HashMode == fingerprint.Strong),
	}

	data, err := json.MarshalIndent(kv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", path, err)
	}
	return nil
}

// Load reads a settings document and overlays it onto the given base
// configuration. A missing file returns the base unchanged with ok=false.
func Load(path string, base config.Config) (config.Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return base, false, nil
		}
		return base, false, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	var kv map[string]string
	if err := json.Unmarshal(data, &kv); err != nil {
		return base, false, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	cfg := base
	if v, ok := kv["mode"]; ok {
		if mode, err := config.ParseSyncMode(v); err == nil {
			cfg.Mode = mode
		}
	}
	if v, ok := kv["src"]; ok {
		cfg.Source = v
	}
	if v, ok := kv["dst"]; ok {
		cfg.Dest = v
	}
	if v, ok := kv["mirror"]; ok {
		cfg.Mirror = v == "true"
	}
	if v, ok := kv["verbose"]; ok && v == "true" {
		cfg.Verbose = true
	}
	if v, ok := kv["sha256"]; ok && v == "true" {
		cfg.HashMode = fingerprint.Strong
	}
	return cfg, true, nil
}
