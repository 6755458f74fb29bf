// Package collab implements the narrow external-collaborator interfaces
// the core pipeline consumes (§6, §4.14): mount-table inspection and
// read-only remount, rotational-vs-solid-state media probing, and output
// path creation. xfsfmt and engine do not import this package; pipeline
// imports it only for the MediaProbe interface and MediaClass values. The
// interfaces live here alongside their sole implementation so the wiring
// stays in one place.
package collab

// MountInfo describes where, if anywhere, a device is mounted.
type MountInfo struct {
	Mounted    bool
	MountPoint string
	ReadOnly   bool
}

// MountStatus answers whether and where a device is mounted.
type MountStatus interface {
	Status(devicePath string) (MountInfo, error)
}

// Remounter requests a mount point go read-only, and can restore the
// prior state on teardown.
type Remounter interface {
	RemountReadOnly(mountPoint string) error
	Restore(mountPoint string) error
}

// MediaClass is a coarse classification of block device seek behavior,
// driving the scheduler's §4.8 parallelism policy.
type MediaClass int

const (
	MediaUnknown MediaClass = iota
	MediaRotational
	MediaSolidState
)

// MediaProbe classifies a device node's underlying storage medium.
type MediaProbe interface {
	Classify(devicePath string) MediaClass
}

// PathCreator creates all missing components of a directory path.
type PathCreator interface {
	MkdirAll(path string) error
}

// Collaborators bundles the four adapters the pipeline setup code wires
// once at startup.
type Collaborators struct {
	Mounts  MountStatus
	Remount Remounter
	Media   MediaProbe
	Paths   PathCreator
}

// New returns the default, OS-backed collaborator set.
func New() Collaborators {
	return Collaborators{
		Mounts:  ProcMounts{},
		Remount: UnixRemounter{},
		Media:   SysBlockProbe{},
		Paths:   OSPathCreator{},
	}
}
