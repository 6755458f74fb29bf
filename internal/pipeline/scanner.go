package pipeline

import (
	"context"

	"github.com/deploymenttheory/xfs-undelete/internal/device"
	"github.com/deploymenttheory/xfs-undelete/internal/engine"
	"github.com/deploymenttheory/xfs-undelete/internal/queue"
	"github.com/deploymenttheory/xfs-undelete/internal/recovererr"
	"github.com/deploymenttheory/xfs-undelete/internal/xfsfmt"
)

// Scanner walks one allocation group's block range, step by inode size,
// looking for deleted or live-directory inode candidates (§4.9).
type Scanner struct {
	ctx    *engine.Context
	agNum  uint32
	source *device.Source
	q      *queue.Dual
}

// NewScanner builds the scanner for AG agNum. source must already be
// open; the scanner reads from it but does not close it (the caller owns
// the descriptor's lifetime).
func NewScanner(ctx *engine.Context, agNum uint32, source *device.Source, q *queue.Dual) *Scanner {
	return &Scanner{ctx: ctx, agNum: agNum, source: source, q: q}
}

// Run scans [startBlock, endBlock) of the AG, pushing accepted candidates
// onto q. It returns ReadErrors if three consecutive block reads failed,
// and otherwise nil once the AG is exhausted, gctx is cancelled, or ctl
// is told to stop.
func (s *Scanner) Run(gctx context.Context, ctl *Control) error {
	const op = "pipeline.Scanner.Run"

	if !ctl.Wait() {
		return nil
	}

	sb := s.ctx.Superblocks[s.agNum]
	log := s.ctx.WithFields(s.agNum, "scan")

	startBlock := uint64(s.agNum) * uint64(sb.AGSize)
	endBlock := startBlock + uint64(sb.AGSize)
	if resume := s.ctx.AGStartBlock(s.agNum); resume > startBlock {
		startBlock = resume
	}

	agUUID := sb.UUID
	inodeSize := int(sb.InodeSize)
	if inodeSize <= 0 {
		return recovererr.New(recovererr.BadGeometry, op, nil)
	}

	probe := func(physicalBlock uint64) ([]byte, error) {
		return s.source.ReadAtBlock(physicalBlock, sb.BlockSize, 32)
	}

	consecutiveFailures := 0
	for block := startBlock; block < endBlock; block++ {
		if ctl.Stopped() || gctx.Err() != nil {
			return nil
		}

		buf, err := s.source.ReadBlock(block, sb.BlockSize)
		if err != nil {
			consecutiveFailures++
			s.ctx.Progress.ReadErrors.Inc()
			if consecutiveFailures >= 3 {
				log.WithError(err).Error("three consecutive read errors, aborting AG")
				return recovererr.New(recovererr.ReadErrors, op, err)
			}
			continue
		}
		consecutiveFailures = 0
		s.ctx.Progress.BlocksScanned.Inc()

		for off := 0; off+inodeSize <= len(buf); off += inodeSize {
			if ctl.Stopped() || gctx.Err() != nil {
				return nil
			}

			candidate := buf[off : off+inodeSize]
			in, err := xfsfmt.ParseInode(candidate, agUUID, sb.FullDiskBlocks(), sb.BlockSize, probe)
			if err != nil {
				continue
			}

			item := queue.Item{AGNum: s.agNum, Block: block, Offset: off, InodeID: in.InodeID, Inode: in}
			switch in.FileType {
			case xfsfmt.FileTypeDir:
				s.ctx.Progress.DirsFound.Inc()
				s.q.PushDir(item)
			case xfsfmt.FileTypeFile:
				s.ctx.Progress.FilesFound.Inc()
				s.q.PushFile(item)
			default:
				// Other reconstructed types (symlink, fifo, etc.) are out
				// of scope for this revision's writer and are dropped.
			}
		}
	}
	return nil
}
