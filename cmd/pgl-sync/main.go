package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/paulschiretz/pgl-sync/pkg/buildinfo"
	"github.com/paulschiretz/pgl-sync/pkg/config"
	"github.com/paulschiretz/pgl-sync/pkg/flagparse"
	"github.com/paulschiretz/pgl-sync/pkg/install"
	"github.com/paulschiretz/pgl-sync/pkg/lockfile"
	"github.com/paulschiretz/pgl-sync/pkg/pathsync"
	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/preflight"
	"github.com/paulschiretz/pgl-sync/pkg/settings"
)

// run encapsulates the main application logic and returns an error if
// something goes wrong, allowing main to handle exit codes.
func run(ctx context.Context) error {
	command, flagMap, err := flagparse.Parse(os.Args[1:])
	if err != nil {
		return err
	}

	switch command {
	case flagparse.None:
		return nil
	case flagparse.Version:
		fmt.Printf("%s version %s\n", buildinfo.Name, buildinfo.Version)
		return nil
	case flagparse.AddToPath:
		exe, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to locate executable: %w", err)
		}
		return install.AddToPath(filepath.Dir(exe))
	}

	cfg := config.NewDefault()

	// When invoked without a mode, fall back to the persisted settings of
	// the previous run.
	if _, hasMode := flagMap["mode"]; !hasMode {
		loaded, ok, err := settings.Load(settings.FileName, cfg)
		if err != nil {
			return err
		}
		if !ok {
			flagparse.PrintUsage(os.Stdout)
			return nil
		}
		plog.Info("Using settings from " + settings.FileName)
		cfg = loaded
	}

	cfg = config.MergeWithFlags(cfg, flagMap)
	if err := cfg.ExpandPaths(); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.SaveLog {
		if err := plog.SetLogFile("pgl-sync.log"); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer plog.SetLogFile("")
	}
	if cfg.Color {
		plog.SetColor(true)
	}
	if cfg.Verbose || cfg.DryRun {
		plog.SetLevel(plog.LevelNotice)
	}

	cfg.LogSummary()

	if err := preflight.CheckDestination(cfg.Dest); err != nil {
		return err
	}

	// Guard the destination against concurrent runs. Dry runs mutate
	// nothing, so they neither need nor take the lock.
	if !cfg.DryRun && cfg.Mode == config.ModeDir {
		lock, err := lockfile.Acquire(cfg.Dest)
		if err != nil {
			return err
		}
		defer lock.Release()
	}

	metrics := pathsync.NewSyncMetrics()
	syncer := pathsync.NewPathSyncer(cfg, metrics)

	startTime := time.Now()
	err = syncer.Sync(ctx)
	duration := time.Since(startTime).Round(time.Millisecond)
	if err != nil {
		return err
	}

	metrics.LogSummary("All tasks finished")
	if cfg.Verbose {
		printSummaryTable(metrics)
	}
	plog.Info("Sync completed", "duration", duration)

	if cfg.SaveSettings {
		if err := settings.Save(settings.FileName, cfg); err != nil {
			return err
		}
		plog.Info("Settings saved to " + settings.FileName)
	}
	return nil
}

// printSummaryTable renders the run counters as a table on stdout.
func printSummaryTable(m *pathsync.SyncMetrics) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Operation", "Count"})
	t.AppendRows([]table.Row{
		{"Entries processed", m.EntriesProcessed.Load()},
		{"Directories created", m.DirsCreated.Load()},
		{"Files copied", m.FilesCopied.Load()},
		{"Files renamed", m.FilesRenamed.Load()},
		{"Directories renamed", m.DirsRenamed.Load()},
		{"Files deleted", m.FilesDeleted.Load()},
		{"Directories deleted", m.DirsDeleted.Load()},
		{"Up to date", m.FilesUpToDate.Load()},
		{"Ignored", m.EntriesIgnored.Load()},
		{"Errors", m.Errors.Load()},
	})
	t.Render()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx); err != nil {
		plog.Error(buildinfo.Name+" exited with error", "error", err)
		os.Exit(1)
	}
}
