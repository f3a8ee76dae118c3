package workflow

import "sync"

// Target runs functions handed to it. Targets model the execution
// queues of the host application: the workflow dispatches operation
// starts and delegate notifications to targets rather than spawning
// goroutines behind the caller's back, so a host can route main-thread
// work onto its own run loop.
type Target interface {
	// Async schedules fn to run and returns without waiting for it.
	Async(fn func())
}

// BackgroundTarget returns a target that runs every function on its own
// goroutine. It is the default background target of a workflow.
func BackgroundTarget() Target {
	return goTarget{}
}

type goTarget struct{}

func (goTarget) Async(fn func()) {
	go fn()
}

// SerialTarget runs functions one at a time, in submission order, on a
// single goroutine. It stands in for a main thread or any other serial
// queue; a host with a real main loop can implement Target on top of
// that loop instead.
type SerialTarget struct {
	queue   chan func()
	closing sync.Once
}

// NewSerialTarget creates a serial target and starts its goroutine.
// Close it when no more work will be submitted.
func NewSerialTarget() *SerialTarget {
	t := &SerialTarget{queue: make(chan func(), 64)}
	go t.run()
	return t
}

func (t *SerialTarget) run() {
	for fn := range t.queue {
		fn()
	}
}

// Async schedules fn after all previously submitted functions. It may
// block briefly when the backlog is full. Submitting to a closed target
// panics.
func (t *SerialTarget) Async(fn func()) {
	t.queue <- fn
}

// Close stops the target once previously submitted functions have run.
// It does not wait for the drain and is safe to call from a function
// running on the target itself.
func (t *SerialTarget) Close() {
	t.closing.Do(func() { close(t.queue) })
}
