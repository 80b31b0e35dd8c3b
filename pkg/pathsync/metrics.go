package pathsync

import (
	"sync/atomic"
	"time"

	"github.com/paulschiretz/pgl-sync/pkg/plog"
	"github.com/paulschiretz/pgl-sync/pkg/util"
)

// Metrics defines the interface for collecting and reporting synchronization
// statistics.
type Metrics interface {
	AddEntriesProcessed(n int64)
	AddDirsCreated(n int64)
	AddFilesCopied(n int64)
	AddFilesRenamed(n int64)
	AddDirsRenamed(n int64)
	AddFilesDeleted(n int64)
	AddDirsDeleted(n int64)
	AddFilesUpToDate(n int64)
	AddEntriesIgnored(n int64)
	AddBytesWritten(n int64)
	AddErrors(n int64)
	AddPlannedOps(n int64)
	PlannedOps() int64
	LogSummary(msg string)
}

// SyncMetrics holds the atomic counters for tracking a sync run.
// It is the concrete implementation of the Metrics interface.
type SyncMetrics struct {
	EntriesProcessed atomic.Int64
	DirsCreated      atomic.Int64
	FilesCopied      atomic.Int64
	FilesRenamed     atomic.Int64
	DirsRenamed      atomic.Int64
	FilesDeleted     atomic.Int64
	DirsDeleted      atomic.Int64
	FilesUpToDate    atomic.Int64
	EntriesIgnored   atomic.Int64
	BytesWritten     atomic.Int64
	Errors           atomic.Int64
	Planned          atomic.Int64

	startTime time.Time
}

// NewSyncMetrics creates a SyncMetrics with the run clock started.
func NewSyncMetrics() *SyncMetrics {
	return &SyncMetrics{startTime: time.Now()}
}

func (m *SyncMetrics) AddEntriesProcessed(n int64) { m.EntriesProcessed.Add(n) }
func (m *SyncMetrics) AddDirsCreated(n int64)      { m.DirsCreated.Add(n) }
func (m *SyncMetrics) AddFilesCopied(n int64)      { m.FilesCopied.Add(n) }
func (m *SyncMetrics) AddFilesRenamed(n int64)     { m.FilesRenamed.Add(n) }
func (m *SyncMetrics) AddDirsRenamed(n int64)      { m.DirsRenamed.Add(n) }
func (m *SyncMetrics) AddFilesDeleted(n int64)     { m.FilesDeleted.Add(n) }
func (m *SyncMetrics) AddDirsDeleted(n int64)      { m.DirsDeleted.Add(n) }
func (m *SyncMetrics) AddFilesUpToDate(n int64)    { m.FilesUpToDate.Add(n) }
func (m *SyncMetrics) AddEntriesIgnored(n int64)   { m.EntriesIgnored.Add(n) }
func (m *SyncMetrics) AddBytesWritten(n int64)     { m.BytesWritten.Add(n) }
func (m *SyncMetrics) AddErrors(n int64)           { m.Errors.Add(n) }
func (m *SyncMetrics) AddPlannedOps(n int64)       { m.Planned.Add(n) }
func (m *SyncMetrics) PlannedOps() int64           { return m.Planned.Load() }

// LogSummary prints a one-line summary of the run so far.
func (m *SyncMetrics) LogSummary(msg string) {
	duration := time.Duration(0)
	if !m.startTime.IsZero() {
		duration = time.Since(m.startTime)
	}

	plog.Info(msg,
		"entries_processed", m.EntriesProcessed.Load(),
		"dirs_created", m.DirsCreated.Load(),
		"files_copied", m.FilesCopied.Load(),
		"files_renamed", m.FilesRenamed.Load(),
		"dirs_renamed", m.DirsRenamed.Load(),
		"files_deleted", m.FilesDeleted.Load(),
		"dirs_deleted", m.DirsDeleted.Load(),
		"files_uptodate", m.FilesUpToDate.Load(),
		"ignored", m.EntriesIgnored.Load(),
		"bytes_written", util.ByteCountIEC(m.BytesWritten.Load()),
		"errors", m.Errors.Load(),
		"duration", duration.Round(time.Millisecond),
	)
}

// NoopMetrics is an implementation of the Metrics interface that performs no
// operations, for library callers that do not want counters.
type NoopMetrics struct{}

func (m *NoopMetrics) AddEntriesProcessed(n int64) {}
func (m *NoopMetrics) AddDirsCreated(n int64)      {}
func (m *NoopMetrics) AddFilesCopied(n int64)      {}
func (m *NoopMetrics) AddFilesRenamed(n int64)     {}
func (m *NoopMetrics) AddDirsRenamed(n int64)      {}
func (m *NoopMetrics) AddFilesDeleted(n int64)     {}
func (m *NoopMetrics) AddDirsDeleted(n int64)      {}
func (m *NoopMetrics) AddFilesUpToDate(n int64)    {}
func (m *NoopMetrics) AddEntriesIgnored(n int64)   {}
func (m *NoopMetrics) AddBytesWritten(n int64)     {}
func (m *NoopMetrics) AddErrors(n int64)           {}
func (m *NoopMetrics) AddPlannedOps(n int64)       {}
func (m *NoopMetrics) PlannedOps() int64           { return 0 }
func (m *NoopMetrics) LogSummary(msg string)       {}

// Statically assert that our types implement the interface.
var _ Metrics = (*SyncMetrics)(nil)
var _ Metrics = (*NoopMetrics)(nil)
