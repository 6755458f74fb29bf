// Package queue implements the dual inode work queue (§4.7): two
// independent FIFOs, one carrying directory inodes and one carrying file
// inodes, each guarded by its own lock. A pop on an empty queue returns
// immediately rather than blocking, since callers coordinate progress
// through the pipeline's own wake/stop signals, not the queue.
package queue

import (
	"container/list"
	"sync"

	"github.com/deploymenttheory/xfs-undelete/internal/xfsfmt"
)

// Item is one queued candidate: the decoded inode plus the AG and on-disk
// location it was found at, carried along so the analyzer and writer never
// need to re-derive it.
type Item struct {
	AGNum    uint32
	Block    uint64
	Offset   int
	InodeID  uint64
	Inode    *xfsfmt.Inode
}

// Dual holds the directory-inode and file-inode FIFOs. The zero value is
// not ready for use; construct with New.
type Dual struct {
	dirMu   sync.Mutex
	dirList *list.List

	fileMu   sync.Mutex
	fileList *list.List
}

// New returns an empty dual queue.
func New() *Dual {
	return &Dual{
		dirList:  list.New(),
		fileList: list.New(),
	}
}

// PushDir appends a directory-inode candidate to the directory queue.
func (d *Dual) PushDir(item Item) {
	d.dirMu.Lock()
	defer d.dirMu.Unlock()
	d.dirList.PushBack(item)
}

// PopDir removes and returns the oldest directory-inode candidate. ok is
// false when the queue is empty; PopDir never blocks.
func (d *Dual) PopDir() (Item, bool) {
	d.dirMu.Lock()
	defer d.dirMu.Unlock()
	return popFront(d.dirList)
}

// PushFile appends a file-inode candidate to the file queue.
func (d *Dual) PushFile(item Item) {
	d.fileMu.Lock()
	defer d.fileMu.Unlock()
	d.fileList.PushBack(item)
}

// PopFile removes and returns the oldest file-inode candidate. ok is false
// when the queue is empty; PopFile never blocks.
func (d *Dual) PopFile() (Item, bool) {
	d.fileMu.Lock()
	defer d.fileMu.Unlock()
	return popFront(d.fileList)
}

// DirLen and FileLen report queue depth.
func (d *Dual) DirLen() int {
	d.dirMu.Lock()
	defer d.dirMu.Unlock()
	return d.dirList.Len()
}

func (d *Dual) FileLen() int {
	d.fileMu.Lock()
	defer d.fileMu.Unlock()
	return d.fileList.Len()
}

// Clear drains both queues, discarding all residual inodes. Invoked during
// teardown, once an AG's workers have all returned (Scheduler.runAG).
func (d *Dual) Clear() {
	d.dirMu.Lock()
	d.dirList.Init()
	d.dirMu.Unlock()

	d.fileMu.Lock()
	d.fileList.Init()
	d.fileMu.Unlock()
}

func popFront(l *list.List) (Item, bool) {
	front := l.Front()
	if front == nil {
		return Item{}, false
	}
	l.Remove(front)
	return front.Value.(Item), true
}
