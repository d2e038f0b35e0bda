// Package threadmgr wraps OS real-time scheduling: it sets SCHED_FIFO
// policy/priority/affinity, creates one-shot and periodic goroutines
// pinned to an OS thread, and reports periodic deadline misses to a
// caller-supplied handler. Grounded on the priority-band model in the
// original ThreadManager and on the teacher's internal/queue/runner.go,
// which pins its I/O loop to an OS thread with runtime.LockOSThread and
// sets CPU affinity with golang.org/x/sys/unix before entering its loop.
package threadmgr

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Affinity selects which CPU core a new thread is pinned to.
type Affinity uint8

const (
	CoreAny Affinity = iota
	Core0
	Core1
	CoreAll
)

func (a Affinity) valid() bool {
	return a == CoreAny || a == Core0 || a == Core1 || a == CoreAll
}

// Priority bands, smaller number = lower priority. These mirror the
// original platform's fixed real-time priority layout: the hardware IRQ
// band and the kernel software-timer IRQ band sit above every thread this
// package creates, and the FSW init thread sits one rung above the new
// thread ceiling.
const (
	HWIRQPriority        = 50
	KTimerSoftdPriority  = 49
	FSWInitThreadPriority = 48
	MaxNewThreadPriority  = 47
	MinNewThreadPriority  = 1
)

// ThreadFunc is the body a created thread runs. A non-nil return is
// treated as a failure by the periodic dispatcher's err handler.
type ThreadFunc func() error

// ErrHandler is invoked by a periodic thread's dispatcher whenever the
// body returns an error or a deadline is missed. Its return value becomes
// the thread's exit error.
type ErrHandler func(err error) error

// Manager is the process-wide real-time thread manager. The zero value is
// not usable; construct with New.
type Manager struct{}

// New constructs a Manager. There is exactly one real instantiation per
// process by convention (the control-node boot sequence constructs it
// once), but nothing here enforces a singleton beyond that convention —
// unlike the original platform, Go's init ordering gives no natural place
// to hide a lazily-constructed global.
func New() *Manager {
	return &Manager{}
}

// Handle represents a created thread; Wait blocks until it exits.
type Handle struct {
	done chan error
}

// Wait blocks until the thread represented by h exits and returns its
// terminal error (nil on a clean one-shot return).
func (h *Handle) Wait() error {
	return <-h.done
}

// CreateThread runs fn on a new goroutine pinned to an OS thread with
// SCHED_FIFO policy, the given priority, and the given affinity.
func (m *Manager) CreateThread(fn ThreadFunc, priority int, affinity Affinity) (*Handle, error) {
	if fn == nil {
		return nil, fmt.Errorf("threadmgr: CreateThread: nil thread function")
	}
	if priority < MinNewThreadPriority || priority > MaxNewThreadPriority {
		return nil, fmt.Errorf("threadmgr: CreateThread: priority %d out of range [%d,%d]", priority, MinNewThreadPriority, MaxNewThreadPriority)
	}
	if !affinity.valid() {
		return nil, fmt.Errorf("threadmgr: CreateThread: invalid affinity %d", affinity)
	}

	h := &Handle{done: make(chan error, 1)}
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		applyRealtimeAttrs(priority, affinity)
		h.done <- fn()
	}()
	return h, nil
}

// applyRealtimeAttrs sets SCHED_FIFO scheduling policy and CPU affinity on
// the calling OS thread. Failures are non-fatal — a missing CAP_SYS_NICE
// (common off flight hardware, e.g. in CI) degrades to best-effort
// scheduling rather than aborting the node, matching the teacher's
// "continue without affinity — not fatal" posture in its own ioLoop.
func applyRealtimeAttrs(priority int, affinity Affinity) {
	param := &unix.SchedParam{Priority: int32(priority)}
	_ = unix.SchedSetscheduler(0, unix.SCHED_FIFO, param)

	if affinity == CoreAny || affinity == CoreAll {
		return
	}
	var mask unix.CPUSet
	mask.Zero()
	switch affinity {
	case Core0:
		mask.Set(0)
	case Core1:
		mask.Set(1)
	}
	_ = unix.SchedSetaffinity(0, &mask)
}
