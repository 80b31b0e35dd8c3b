// Package config defines the run configuration record consumed by the
// reconciliation engine and the helpers to assemble it from defaults,
// persisted settings and command-line flags.
package config

import (
	"fmt"
	"os"

	"github.com/paulschiretz/pgl-sync/pkg/fingerprint"
	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// SyncMode selects between directory-tree and single-file synchronization.
type SyncMode string

const (
	// ModeDir synchronizes a whole directory tree.
	ModeDir SyncMode = "dir"
	// ModeFile synchronizes a single file into a destination directory.
	ModeFile SyncMode = "file"
)

// ParseSyncMode parses a string and returns the corresponding SyncMode.
func ParseSyncMode(s string) (SyncMode, error) {
	switch SyncMode(s) {
	case ModeDir:
		return ModeDir, nil
	case ModeFile:
		return ModeFile, nil
	}
	return "", fmt.Errorf("invalid sync mode: %q. Must be 'dir' or 'file'", s)
}

// EngineConfig carries the tuning knobs of the copy pipeline.
type EngineConfig struct {
	// MaxCopyWorkers bounds the number of concurrent bulk file copies.
	MaxCopyWorkers int `json:"maxCopyWorkers"`
	// CopyBufferSizeKB is the I/O buffer size in kilobytes for file copies.
	CopyBufferSizeKB int `json:"copyBufferSizeKB"`
	// RetryCount is the number of retries for failed file copies.
	RetryCount int `json:"retryCount"`
	// RetryWaitSeconds is the wait between retries.
	RetryWaitSeconds int `json:"retryWaitSeconds"`
}

// Config is the full configuration record for a sync run.
type Config struct {
	Mode   SyncMode `json:"mode"`
	Source string   `json:"src"`
	Dest   string   `json:"dst"`
	// IgnorePaths is the ordered list of source-side paths excluded from the
	// run. Entries cover their whole subtree.
	IgnorePaths []string `json:"ignore"`
	// Mirror deletes destination entries without a source equivalent.
	Mirror bool `json:"mirror"`
	// DryRun computes and logs the plan without touching the filesystem.
	DryRun  bool `json:"dryRun"`
	Verbose bool `json:"verbose"`
	// HashMode selects the fingerprint scheme. Move detection only operates
	// under the strong mode.
	HashMode fingerprint.Mode `json:"hashMode"`
	// DirMatchThreshold is the minimum fingerprint overlap ratio for a
	// destination directory to be treated as a renamed source directory.
	DirMatchThreshold float64 `json:"dirMatchThreshold"`

	Engine EngineConfig `json:"engine"`

	// Console/sink options handled by the CLI layer.
	Color        bool `json:"-"`
	SaveLog      bool `json:"-"`
	SaveSettings bool `json:"-"`
}

// NewDefault creates a Config with the default values.
func NewDefault() Config {
	return Config{
		Mode:              ModeDir,
		HashMode:          fingerprint.Fast,
		DirMatchThreshold: 0.85, // Tolerates a renamed directory that gained or lost a few files.
		Engine: EngineConfig{
			MaxCopyWorkers:   4,   // Safe for HDDs (prevents thrashing), decent for SSDs.
			CopyBufferSizeKB: 256, // Keep it between 64KB-4MB.
			RetryCount:       0,
			RetryWaitSeconds: 2,
		},
	}
}

// MergeWithFlags overlays the values of explicitly set flags onto a base
// configuration and returns the result.
func MergeWithFlags(base Config, flagMap map[string]any) Config {
	merged := base

	if v, ok := flagMap["mode"].(SyncMode); ok {
		merged.Mode = v
	}
	if v, ok := flagMap["src"].(string); ok {
		merged.Source = v
	}
	if v, ok := flagMap["dst"].(string); ok {
		merged.Dest = v
	}
	if v, ok := flagMap["ignore"].([]string); ok {
		merged.IgnorePaths = append(merged.IgnorePaths, v...)
	}
	if v, ok := flagMap["delete"].(bool); ok {
		merged.Mirror = v
	}
	if v, ok := flagMap["dry-run"].(bool); ok {
		merged.DryRun = v
	}
	if v, ok := flagMap["verbose"].(bool); ok {
		merged.Verbose = v
	}
	if v, ok := flagMap["sha256"].(bool); ok && v {
		merged.HashMode = fingerprint.Strong
	}
	if v, ok := flagMap["workers"].(int); ok {
		merged.Engine.MaxCopyWorkers = v
	}
	if v, ok := flagMap["color"].(bool); ok {
		merged.Color = v
	}
	if v, ok := flagMap["save-log"].(bool); ok {
		merged.SaveLog = v
	}
	if v, ok := flagMap["save-settings"].(bool); ok {
		merged.SaveSettings = v
	}
	return merged
}

// Validate checks the configuration for fatal errors. Validation failures
// abort the run before any filesystem mutation.
func (c *Config) Validate() error {
	if c.Mode != ModeDir && c.Mode != ModeFile {
		return fmt.Errorf("no valid operation specified: use --dir or --file")
	}
	if c.Source == "" {
		return fmt.Errorf("source path is required")
	}
	if c.Dest == "" {
		return fmt.Errorf("destination path is required")
	}
	if _, err := os.Lstat(c.Source); err != nil {
		return fmt.Errorf("source does not exist: %s: %w", c.Source, err)
	}
	if c.Engine.MaxCopyWorkers < 1 {
		return fmt.Errorf("max copy workers must be a positive integer, got %d", c.Engine.MaxCopyWorkers)
	}
	if c.DirMatchThreshold <= 0 || c.DirMatchThreshold > 1 {
		return fmt.Errorf("directory match threshold must be in (0, 1], got %v", c.DirMatchThreshold)
	}
	return nil
}

// ExpandPaths expands tilde prefixes on the source, destination and ignore
// paths.
func (c *Config) ExpandPaths() error {
	var err error
	if c.Source, err = util.ExpandPath(c.Source); err != nil {
		return err
	}
	if c.Dest, err = util.ExpandPath(c.Dest); err != nil {
		return err
	}
	for i, p := range c.IgnorePaths {
		if c.IgnorePaths[i], err = util.ExpandPath(p); err != nil {
			return err
		}
	}
	return nil
}

// LogSummary logs the effective configuration of the run.
func (c *Config) LogSummary() {
	plog.Info("Run configuration",
		"mode", string(c.Mode),
		"src", c.Source,
		"dst", c.Dest,
		"ignore_entries", len(c.IgnorePaths),
		"mirror", c.Mirror,
		"dry_run", c.DryRun,
		"hash_mode", c.HashMode.String(),
		"copy_workers", c.Engine.MaxCopyWorkers,
	)
}
