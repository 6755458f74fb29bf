package collab

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/deploymenttheory/xfs-undelete/internal/recovererr"
)

// SysBlockProbe classifies a device node by reading its
// /sys/block/<dev>/queue/rotational flag (§4.14). Partition nodes (e.g.
// sda1) are resolved back to their parent device (sda) since the
// rotational flag is only published at the whole-disk level.
type SysBlockProbe struct{}

// Classify returns MediaRotational, MediaSolidState, or MediaUnknown when
// the sysfs entry is unreadable — e.g. a loopback or file-backed device
// used in tests, per §4.14's documented fallback.
func (SysBlockProbe) Classify(devicePath string) MediaClass {
	dev := filepath.Base(devicePath)
	dev = strings.TrimRight(dev, "0123456789")
	if dev == "" {
		return MediaUnknown
	}

	b, err := os.ReadFile(filepath.Join("/sys/block", dev, "queue", "rotational"))
	if err != nil {
		return MediaUnknown
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return MediaUnknown
	}
	if n == 0 {
		return MediaSolidState
	}
	return MediaRotational
}

// OSPathCreator creates output directory trees with os.MkdirAll (§4.14).
type OSPathCreator struct{}

// MkdirAll creates path and any missing parents, matching the
// permissions the reference implementation used for its output tree.
func (OSPathCreator) MkdirAll(path string) error {
	const op = "collab.OSPathCreator.MkdirAll"
	if err := os.MkdirAll(path, 0o755); err != nil {
		return recovererr.New(recovererr.WriteError, op, err)
	}
	return nil
}
