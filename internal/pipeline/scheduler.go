package pipeline

import (
	"context"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/multierr"

	"github.com/deploymenttheory/xfs-undelete/internal/collab"
	"github.com/deploymenttheory/xfs-undelete/internal/device"
	"github.com/deploymenttheory/xfs-undelete/internal/engine"
	"github.com/deploymenttheory/xfs-undelete/internal/queue"
)

// Scheduler runs the scanner/analyzer/writer trio across every AG under
// one of two parallelism policies, chosen from source and target media
// class (§4.8).
type Scheduler struct {
	ctx           *engine.Context
	sourcePath    string
	outDir        string
	restoreXattrs bool
	media         collab.MediaProbe
}

// NewScheduler builds a scheduler bound to an already-populated engine
// context.
func NewScheduler(ctx *engine.Context, sourcePath, outDir string, restoreXattrs bool, media collab.MediaProbe) *Scheduler {
	return &Scheduler{ctx: ctx, sourcePath: sourcePath, outDir: outDir, restoreXattrs: restoreXattrs, media: media}
}

// Run executes the full recovery pass and returns an aggregated error
// (via go.uber.org/multierr) covering every AG whose worker set aborted;
// a nil return means every AG completed, though individual inodes may
// still have been dropped (logged, not fatal — §7).
func (s *Scheduler) Run(gctx context.Context) error {
	sourceSSD := s.media.Classify(s.sourcePath) == collab.MediaSolidState
	targetSSD := s.media.Classify(s.outDir) == collab.MediaSolidState

	if sourceSSD {
		return s.runConcurrent(gctx, targetSSD)
	}
	return s.runSequential(gctx)
}

// runConcurrent scans and analyzes every AG in parallel (one pool slot
// per AG), writing concurrently too when the target is also solid-state,
// otherwise funneling every AG's analyzer output through one writer.
func (s *Scheduler) runConcurrent(gctx context.Context, targetSSD bool) error {
	startAG := s.ctx.StartAGForBlock(s.ctx.StartBlock)

	var sharedOut chan RecoveryJob
	var sharedWriterErrs *pool.ErrorPool
	if !targetSSD {
		sharedOut = make(chan RecoveryJob, 64)
		sharedWriterErrs = pool.New().WithErrors()
		sharedWriterErrs.Go(func() error {
			src, err := device.Open(s.sourcePath)
			if err != nil {
				return err
			}
			defer src.Close()
			w := NewWriter(s.ctx, 0, src, s.outDir, s.restoreXattrs)
			ctl := NewControl()
			ctl.Start()
			w.Run(gctx, ctl, sharedOut)
			return nil
		})
	}

	p := pool.New().WithErrors()
	for ag := startAG; ag < s.ctx.AGCount; ag++ {
		ag := ag
		p.Go(func() error {
			return s.runAG(gctx, ag, sharedOut)
		})
	}
	err := p.Wait()

	if sharedOut != nil {
		close(sharedOut)
		err = multierr.Append(err, sharedWriterErrs.Wait())
	}
	return err
}

// runSequential processes AGs one at a time: a single scanner walks each
// AG's blocks in order, and the next AG starts only once the current AG's
// workers have all returned (§4.8, §4.9). Within one AG the scanner,
// analyzer and writer are released together by runAG, so the analyzer and
// writer consume candidates while the scanner is still reading; they do
// not wait for the scanner to finish first.
func (s *Scheduler) runSequential(gctx context.Context) error {
	var combined error
	startAG := s.ctx.StartAGForBlock(s.ctx.StartBlock)
	for ag := startAG; ag < s.ctx.AGCount; ag++ {
		if gctx.Err() != nil {
			break
		}
		if err := s.runAG(gctx, ag, nil); err != nil {
			combined = multierr.Append(combined, err)
		}
	}
	return combined
}

// runAG runs one AG's scanner, analyzer and (unless sharedOut is set, in
// which case a shared writer elsewhere drains it) its own writer.
func (s *Scheduler) runAG(gctx context.Context, ag uint32, sharedOut chan RecoveryJob) error {
	scanSrc, err := device.Open(s.sourcePath)
	if err != nil {
		s.ctx.Progress.RecordAGFailure(ag, err)
		return err
	}
	defer scanSrc.Close()

	analyzeSrc, err := device.Open(s.sourcePath)
	if err != nil {
		s.ctx.Progress.RecordAGFailure(ag, err)
		return err
	}
	defer analyzeSrc.Close()

	q := queue.New()
	defer q.Clear()
	scanner := NewScanner(s.ctx, ag, scanSrc, q)
	analyzer := NewAnalyzer(s.ctx, ag, analyzeSrc, q)

	out := sharedOut
	var writeSrc *device.Source
	if out == nil {
		out = make(chan RecoveryJob, 64)
		writeSrc, err = device.Open(s.sourcePath)
		if err != nil {
			s.ctx.Progress.RecordAGFailure(ag, err)
			return err
		}
		defer writeSrc.Close()
	}

	// Every worker below is launched suspended behind ctl's condition
	// variable; none does any work until ctl.Start() releases them all
	// together (§4.8).
	ctl := NewControl()

	wp := pool.New().WithErrors()
	wp.Go(func() error {
		ctl.SetRunning(true)
		defer ctl.SetFinished(true)
		return scanner.Run(gctx, ctl)
	})

	analyzeDone := make(chan struct{})
	go func() {
		analyzer.Run(gctx, ctl, out)
		close(analyzeDone)
	}()

	var writeDone chan struct{}
	if writeSrc != nil {
		writer := NewWriter(s.ctx, ag, writeSrc, s.outDir, s.restoreXattrs)
		writeDone = make(chan struct{})
		go func() {
			writer.Run(gctx, ctl, out)
			close(writeDone)
		}()
	}

	ctl.Start()

	if writeSrc != nil {
		err := wp.Wait()
		<-analyzeDone
		close(out)
		<-writeDone
		if err != nil {
			s.ctx.Progress.RecordAGFailure(ag, err)
		}
		return err
	}

	err = wp.Wait()
	<-analyzeDone
	if err != nil {
		s.ctx.Progress.RecordAGFailure(ag, err)
	}
	return err
}
