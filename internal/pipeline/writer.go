package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/deploymenttheory/xfs-undelete/internal/device"
	"github.com/deploymenttheory/xfs-undelete/internal/engine"
	"github.com/deploymenttheory/xfs-undelete/internal/recovererr"
	"github.com/deploymenttheory/xfs-undelete/internal/xfsfmt"
)

// Writer materializes RecoveryJobs under an output directory (§4.11). It
// holds its own read descriptor on the source device, independent of the
// scanner's and analyzer's.
type Writer struct {
	ctx           *engine.Context
	agNum         uint32
	source        *device.Source
	outDir        string
	restoreXattrs bool
}

// NewWriter builds the writer for AG agNum, writing under outDir.
func NewWriter(ctx *engine.Context, agNum uint32, source *device.Source, outDir string, restoreXattrs bool) *Writer {
	return &Writer{ctx: ctx, agNum: agNum, source: source, outDir: outDir, restoreXattrs: restoreXattrs}
}

// Run consumes jobs from in until it is closed, gctx is cancelled, or ctl
// is told to stop.
func (w *Writer) Run(gctx context.Context, ctl *Control, in <-chan RecoveryJob) {
	if !ctl.Wait() {
		return
	}

	log := w.ctx.WithFields(w.agNum, "write")
	sb := w.ctx.Superblocks[w.agNum]

	for {
		if ctl.Stopped() || gctx.Err() != nil {
			return
		}
		select {
		case job, ok := <-in:
			if !ok {
				return
			}
			if err := w.writeOne(gctx, ctl, job, sb.BlockSize); err != nil {
				log.WithError(err).WithField("inode", job.InodeID).Warn("write failed, partial output left in place")
			} else {
				w.ctx.Progress.FilesWritten.Inc()
			}
		case <-gctx.Done():
			return
		}
	}
}

func (w *Writer) writeOne(gctx context.Context, ctl *Control, job RecoveryJob, blockSize uint32) error {
	const op = "pipeline.Writer.writeOne"

	path := filepath.Join(w.outDir, job.OutputName())
	f, err := os.Create(path)
	if err != nil {
		return recovererr.New(recovererr.WriteError, op, err)
	}
	defer f.Close()

	switch job.Kind {
	case xfsfmt.FileTypeDir:
		if err := writeManifest(f, job.Directory); err != nil {
			return recovererr.New(recovererr.WriteError, op, err)
		}
	default:
		if err := w.writeExtents(gctx, ctl, f, job, blockSize); err != nil {
			return err
		}
	}

	if w.restoreXattrs {
		for _, x := range job.Xattrs {
			// Best-effort: a failing xattr write is logged, never fatal
			// (§6: "skipped with a logged warning otherwise").
			if err := syscall.Setxattr(path, string(x.Name), x.Value, 0); err != nil {
				w.ctx.WithFields(w.agNum, "write").WithError(err).
					WithField("xattr", string(x.Name)).Warn("could not restore extended attribute, skipped")
			}
		}
	}
	return nil
}

func (w *Writer) writeExtents(gctx context.Context, ctl *Control, f *os.File, job RecoveryJob, blockSize uint32) error {
	const op = "pipeline.Writer.writeExtents"

	if job.LocalData != nil {
		if _, err := f.Write(job.LocalData); err != nil {
			return recovererr.New(recovererr.WriteError, op, err)
		}
		return nil
	}

	written := uint64(0)
	for _, ex := range job.DataExtents {
		if ctl.Stopped() || gctx.Err() != nil {
			return nil
		}
		length := uint64(ex.Length) * uint64(blockSize)
		buf, err := w.source.ReadAtBlock(ex.PhysicalStart, blockSize, int(length))
		if err != nil {
			return recovererr.New(recovererr.WriteError, op, err)
		}
		if remaining := job.FileSize - written; remaining < uint64(len(buf)) && job.FileSize > written {
			// Trim only the final extent to the clamped file size; interior
			// extents and any zero-filled tail within the last block are
			// preserved as-is (§4.11).
			buf = buf[:remaining]
		}
		if _, err := f.Write(buf); err != nil {
			return recovererr.New(recovererr.WriteError, op, err)
		}
		written += uint64(len(buf))
	}
	return nil
}

func writeManifest(f *os.File, dir *xfsfmt.Directory) error {
	if dir == nil {
		return nil
	}
	bw := bufio.NewWriter(f)
	for _, e := range dir.Entries {
		if _, err := fmt.Fprintf(bw, "%s\t%d\t%d\n", e.Name, e.Type, e.Address); err != nil {
			return err
		}
	}
	return bw.Flush()
}
