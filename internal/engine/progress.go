package engine

import (
	"fmt"
	"sync"

	"go.uber.org/atomic"
)

// Progress aggregates per-worker atomic counters for the progress line
// (§4.8, §2): one set of counters per stage. Counters are cumulative
// across every AG's worker for that stage. They are read by Line and
// Summary on demand; the scheduler has no periodic monitor loop that
// samples them while the workers run.
type Progress struct {
	BlocksScanned   atomic.Uint64
	DirsFound       atomic.Uint64
	FilesFound      atomic.Uint64
	InodesAnalyzed  atomic.Uint64
	FilesWritten    atomic.Uint64
	ReadErrors      atomic.Uint64

	mu       sync.Mutex
	failedAGs map[uint32]error
}

// NewProgress returns a zeroed counter set.
func NewProgress() *Progress {
	return &Progress{failedAGs: make(map[uint32]error)}
}

// RecordAGFailure records that AG agNum's scanner aborted, for the final
// summary (§7).
func (p *Progress) RecordAGFailure(agNum uint32, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failedAGs[agNum] = err
}

// FailedAGs returns a snapshot of every AG whose scanner aborted.
func (p *Progress) FailedAGs() map[uint32]error {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[uint32]error, len(p.failedAGs))
	for k, v := range p.failedAGs {
		out[k] = v
	}
	return out
}

// Line renders the current counters as a single human-readable progress
// line, in the spirit of the reference implementation's twice-a-second
// status print.
func (p *Progress) Line() string {
	return fmt.Sprintf(
		"scanned=%d blocks dirs=%d files=%d analyzed=%d written=%d read-errors=%d",
		p.BlocksScanned.Load(),
		p.DirsFound.Load(),
		p.FilesFound.Load(),
		p.InodesAnalyzed.Load(),
		p.FilesWritten.Load(),
		p.ReadErrors.Load(),
	)
}

// Summary renders the final, one-shot report (§7): blocks scanned,
// directory/file inodes found, files written, and any AGs that failed.
func (p *Progress) Summary() string {
	failed := p.FailedAGs()
	s := fmt.Sprintf(
		"recovery summary: %d blocks scanned, %d directory inodes, %d file inodes, %d files written",
		p.BlocksScanned.Load(), p.DirsFound.Load(), p.FilesFound.Load(), p.FilesWritten.Load(),
	)
	if len(failed) > 0 {
		s += fmt.Sprintf(", %d AG(s) aborted on read errors", len(failed))
	}
	return s
}
