// Package pipeline implements the recovery pipeline's scanner, analyzer,
// writer stages and the scheduler that wires them together under the
// two-policy concurrency model (§4.8, §4.9, §4.10, §4.11).
package pipeline

import (
	"fmt"

	"github.com/deploymenttheory/xfs-undelete/internal/xfsfmt"
)

// RecoveryJob is the analyzer's output and the writer's input: everything
// needed to materialize one recovered inode without re-reading its inode
// record.
type RecoveryJob struct {
	AGNum   uint32
	InodeID uint64
	Kind    xfsfmt.FileType

	FileSize   uint64
	DataExtents []xfsfmt.Extent
	LocalData   []byte

	Directory *xfsfmt.Directory
	Xattrs    []xfsfmt.XattrEntry
}

// OutputName is the `<inode-id>.<kind>` naming rule from §6.
func (j RecoveryJob) OutputName() string {
	kind := "file"
	if j.Kind == xfsfmt.FileTypeDir {
		kind = "dir"
	}
	return fmt.Sprintf("%d.%s", j.InodeID, kind)
}
