package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressRecordAGFailureSnapshot(t *testing.T) {
	p := NewProgress()
	p.RecordAGFailure(1, errors.New("boom"))
	p.RecordAGFailure(2, errors.New("bang"))

	failed := p.FailedAGs()
	assert.Len(t, failed, 2)
	assert.EqualError(t, failed[1], "boom")

	// Mutating the returned map must not affect internal state (defensive copy).
	delete(failed, 1)
	assert.Len(t, p.FailedAGs(), 2)
}

func TestProgressSummaryReportsFailures(t *testing.T) {
	p := NewProgress()
	p.BlocksScanned.Store(10)
	p.FilesWritten.Store(3)
	p.RecordAGFailure(0, errors.New("fail"))

	summary := p.Summary()
	assert.Contains(t, summary, "10 blocks scanned")
	assert.Contains(t, summary, "3 files written")
	assert.Contains(t, summary, "1 AG(s) aborted")
}
