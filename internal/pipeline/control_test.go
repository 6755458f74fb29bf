package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestControlWaitBlocksUntilStart(t *testing.T) {
	c := NewControl()
	done := make(chan bool, 1)

	go func() {
		done <- c.Wait()
	}()

	select {
	case <-done:
		t.Fatal("Wait returned before Start/Stop was called")
	case <-time.After(20 * time.Millisecond):
	}

	c.Start()
	select {
	case proceed := <-done:
		assert.True(t, proceed)
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after Start")
	}
}

func TestControlStopBeforeStartMeansDoNotProceed(t *testing.T) {
	c := NewControl()
	c.Stop()
	assert.False(t, c.Wait())
	assert.True(t, c.Stopped())
}

func TestControlRunningFinishedFlags(t *testing.T) {
	c := NewControl()
	assert.False(t, c.IsRunning())
	c.SetRunning(true)
	assert.True(t, c.IsRunning())

	assert.False(t, c.IsFinished())
	c.SetFinished(true)
	assert.True(t, c.IsFinished())
}
