package collab

import (
	"bufio"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/deploymenttheory/xfs-undelete/internal/recovererr"
)

// ProcMounts answers mount-status queries by parsing /proc/mounts, the
// same source the reference implementation's mount-check shells out to
// `mount` for.
type ProcMounts struct{}

// Status reports whether devicePath appears as a mounted source in
// /proc/mounts, its mount point, and whether that mount is currently
// read-only.
func (ProcMounts) Status(devicePath string) (MountInfo, error) {
	const op = "collab.ProcMounts.Status"

	f, err := os.Open("/proc/mounts")
	if err != nil {
		return MountInfo{}, recovererr.New(recovererr.DeviceError, op, err)
	}
	defer f.Close()

	target, err := os.Readlink(devicePath)
	if err != nil {
		target = devicePath
	}

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		if fields[0] != devicePath && fields[0] != target {
			continue
		}
		opts := strings.Split(fields[3], ",")
		ro := false
		for _, o := range opts {
			if o == "ro" {
				ro = true
			}
		}
		return MountInfo{Mounted: true, MountPoint: fields[1], ReadOnly: ro}, nil
	}
	return MountInfo{}, nil
}

// UnixRemounter issues a read-only remount via unix.Mount and, on
// teardown, remounts read-write (§4.14). The prior mount's other options
// are not recorded, so Restore does not reapply them. Restore is best-effort:
// a failure here is logged by the caller, never fatal, since the process
// is already tearing down.
type UnixRemounter struct{}

// RemountReadOnly issues MS_REMOUNT|MS_RDONLY against mountPoint.
func (r UnixRemounter) RemountReadOnly(mountPoint string) error {
	const op = "collab.UnixRemounter.RemountReadOnly"
	if err := unix.Mount("", mountPoint, "", unix.MS_REMOUNT|unix.MS_RDONLY, ""); err != nil {
		return recovererr.New(recovererr.DeviceError, op, err)
	}
	return nil
}

// Restore reverts mountPoint to read-write. The reference implementation
// never tracked the prior mount's full option set either; it only ever
// toggled the read-only bit back off, which is what this does too.
func (r UnixRemounter) Restore(mountPoint string) error {
	const op = "collab.UnixRemounter.Restore"
	if err := unix.Mount("", mountPoint, "", unix.MS_REMOUNT, ""); err != nil {
		return recovererr.New(recovererr.DeviceError, op, err)
	}
	return nil
}
