package pipeline

import (
	"sync"

	"go.uber.org/atomic"
)

// Control is one worker's start/stop signaling surface (§4.8): a worker
// goroutine is launched immediately but blocks on Wait until the
// scheduler calls Start, and can be told to exit without doing any work
// at all via Stop called before Start.
type Control struct {
	mu         sync.Mutex
	cond       *sync.Cond
	doStart    bool
	doStop     bool
	isRunning  atomic.Bool
	isFinished atomic.Bool
}

// NewControl returns a Control ready for a worker to Wait on.
func NewControl() *Control {
	c := &Control{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Wait blocks the calling worker until the scheduler signals either Start
// or Stop. It returns true when the worker should proceed with its body,
// false when it should exit immediately without doing any work.
func (c *Control) Wait() bool {
	c.mu.Lock()
	for !c.doStart && !c.doStop {
		c.cond.Wait()
	}
	proceed := c.doStart && !c.doStop
	c.mu.Unlock()
	return proceed
}

// Start wakes the worker to begin its body.
func (c *Control) Start() {
	c.mu.Lock()
	c.doStart = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Stop wakes the worker (if still waiting) to exit without work, and is
// also the signal a running worker polls at its per-block/per-inode/
// per-extent checkpoints (§5).
func (c *Control) Stop() {
	c.mu.Lock()
	c.doStop = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Stopped reports whether Stop has been called, the cooperative
// cancellation check each worker makes at its checkpoints.
func (c *Control) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doStop
}

// SetRunning and SetFinished are atomic lifecycle flags. Scheduler.runAG
// sets them around the scanner's body, and the analyzer sharing the same
// Control reads IsFinished to learn that no more candidates are coming;
// no periodic monitor samples them.
func (c *Control) SetRunning(v bool)  { c.isRunning.Store(v) }
func (c *Control) SetFinished(v bool) { c.isFinished.Store(v) }
func (c *Control) IsRunning() bool    { return c.isRunning.Load() }
func (c *Control) IsFinished() bool   { return c.isFinished.Load() }
