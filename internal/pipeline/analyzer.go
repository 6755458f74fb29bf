package pipeline

import (
	"context"
	"time"

	"github.com/deploymenttheory/xfs-undelete/internal/device"
	"github.com/deploymenttheory/xfs-undelete/internal/engine"
	"github.com/deploymenttheory/xfs-undelete/internal/queue"
	"github.com/deploymenttheory/xfs-undelete/internal/xfsfmt"
)

// pollInterval is how often the analyzer rechecks an empty queue while the
// scanner feeding it is still running (§4.7: "wait on external progress
// signals" rather than treat a momentarily empty queue as exhausted).
const pollInterval = 5 * time.Millisecond

// Analyzer drains one AG's directory queue, then its file queue,
// validating each candidate and turning it into a RecoveryJob (§4.10). It
// holds its own read descriptor on the source device, separate from the
// scanner's.
type Analyzer struct {
	ctx    *engine.Context
	agNum  uint32
	source *device.Source
	q      *queue.Dual
}

// NewAnalyzer builds the analyzer for AG agNum.
func NewAnalyzer(ctx *engine.Context, agNum uint32, source *device.Source, q *queue.Dual) *Analyzer {
	return &Analyzer{ctx: ctx, agNum: agNum, source: source, q: q}
}

// Run drains directory candidates first, then file candidates, emitting
// validated jobs to out. A queue that is momentarily empty while the
// scanner feeding it is still running is not exhausted: drain keeps
// polling until the scanner reports finished (ctl.IsFinished) and one
// final pop still comes back empty, so the analyzer never races the
// scanner's first (slow) positional read to a premature return. It
// returns once both queues are genuinely drained, the context is
// cancelled, or ctl is told to stop.
func (a *Analyzer) Run(gctx context.Context, ctl *Control, out chan<- RecoveryJob) {
	if !ctl.Wait() {
		return
	}

	log := a.ctx.WithFields(a.agNum, "analyze")
	sb := a.ctx.Superblocks[a.agNum]

	drain := func(pop func() (queue.Item, bool)) {
		for {
			if ctl.Stopped() || gctx.Err() != nil {
				return
			}
			item, ok := pop()
			if !ok {
				if ctl.IsFinished() {
					// Scanner is done; check once more to close the window
					// between this pop and the scanner's last push.
					if item, ok = pop(); !ok {
						return
					}
				} else {
					select {
					case <-time.After(pollInterval):
						continue
					case <-gctx.Done():
						return
					}
				}
			}
			a.ctx.Progress.InodesAnalyzed.Inc()
			job, err := a.validate(item, sb)
			if err != nil {
				log.WithError(err).WithField("inode", item.InodeID).Warn("dropping candidate")
				continue
			}
			select {
			case out <- job:
			case <-gctx.Done():
				return
			}
		}
	}

	drain(a.q.PopDir)
	drain(a.q.PopFile)
}

// validate re-checks extent bounds against the device's total block count
// (as derived from the AG's superblock), clamps the reported file size to block-count × block-size (the
// true size was destroyed along with the inode for deleted candidates),
// and builds the job the writer will consume.
func (a *Analyzer) validate(item queue.Item, sb *xfsfmt.Superblock) (RecoveryJob, error) {
	in := item.Inode

	for _, ex := range in.DataExtents {
		if !ex.Valid(sb.FullDiskBlocks()) {
			return RecoveryJob{}, errInvalidExtent
		}
	}

	clamped := in.FileBlocks * uint64(sb.BlockSize)
	size := in.FileSize
	if in.Deleted || size > clamped {
		size = clamped
	}

	job := RecoveryJob{
		AGNum:       item.AGNum,
		InodeID:     item.InodeID,
		Kind:        in.FileType,
		FileSize:    size,
		DataExtents: in.DataExtents,
		LocalData:   in.LocalData,
		Directory:   in.Directory,
	}
	if in.LocalXattrs != nil {
		job.Xattrs = in.LocalXattrs
	}
	return job, nil
}
