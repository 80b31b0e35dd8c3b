package main

import (
	"testing"

	"github.com/paulschiretz/pgl-sync/pkg/pathsync"
)

func TestPrintSummaryTable(t *testing.T) {
	// Smoke test: rendering must not panic on zero and non-zero counters.
	m := pathsync.NewSyncMetrics()
	printSummaryTable(m)

	m.AddFilesCopied(3)
	m.AddDirsCreated(1)
	m.AddFilesRenamed(2)
	printSummaryTable(m)
}
