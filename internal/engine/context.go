// Package engine holds the explicit, passed-around state that replaces the
// reference implementation's process-wide mutable globals (§4.12, §9):
// the immutable superblock array, derived geometry, the resume start
// block, the structured logger, and the progress aggregator.
package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/deploymenttheory/xfs-undelete/internal/xfsfmt"
)

// Context is constructed once at startup and handed explicitly to every
// pipeline stage constructor; nothing in the core packages consults
// package-level mutable state.
type Context struct {
	Superblocks []*xfsfmt.Superblock

	BlockSize     uint32
	AGSizeBlocks  uint32
	AGCount       uint32
	FullDiskBlocks uint64

	// StartBlock overrides the scan start point (the -s / --start-block
	// flag, §6): the AG containing it, and later AGs, are scanned;
	// earlier AGs are skipped.
	StartBlock uint64

	Log *logrus.Entry

	Progress *Progress
}

// New builds a Context from the AG superblock array already read at
// startup. superblocks[0]'s geometry fields are authoritative for the
// whole device (§3: geometry is immutable once read).
func New(superblocks []*xfsfmt.Superblock, startBlock uint64, log *logrus.Logger) *Context {
	ctx := &Context{
		Superblocks: superblocks,
		StartBlock:  startBlock,
		Log:         logrus.NewEntry(log),
		Progress:    NewProgress(),
	}
	if len(superblocks) > 0 {
		sb := superblocks[0]
		ctx.BlockSize = sb.BlockSize
		ctx.AGSizeBlocks = sb.AGSize
		ctx.AGCount = sb.AGCount
		ctx.FullDiskBlocks = sb.FullDiskBlocks()
	}
	return ctx
}

// StartAGForBlock returns the index of the AG containing block, used to
// translate a resume start-block into the first AG the scheduler should
// still visit.
func (c *Context) StartAGForBlock(block uint64) uint32 {
	if c.AGSizeBlocks == 0 {
		return 0
	}
	return uint32(block / uint64(c.AGSizeBlocks))
}

// AGStartBlock returns the first absolute block of AG agNum, honoring
// StartBlock when it falls inside that AG.
func (c *Context) AGStartBlock(agNum uint32) uint64 {
	base := uint64(agNum) * uint64(c.AGSizeBlocks)
	if c.StartBlock > base && c.StartBlock < base+uint64(c.AGSizeBlocks) {
		return c.StartBlock
	}
	return base
}

// WithFields returns a logger entry scoped to a worker by its AG and
// stage; no separate worker field is attached.
func (c *Context) WithFields(ag uint32, stage string) *logrus.Entry {
	return c.Log.WithFields(logrus.Fields{"ag": ag, "stage": stage})
}
