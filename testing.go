package fsw

import (
	"sync"

	"github.com/flightos/fsw/internal/interfaces"
)

// FakeClock is a settable interfaces.Clock for deterministic tests: NowNs
// returns whatever was last Set or Advanced, never the real wall clock.
type FakeClock struct {
	mu  sync.RWMutex
	now uint64
}

// NewFakeClock creates a FakeClock starting at startNs.
func NewFakeClock(startNs uint64) *FakeClock {
	return &FakeClock{now: startNs}
}

// NowNs implements interfaces.Clock.
func (c *FakeClock) NowNs() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set pins the clock to an exact reading.
func (c *FakeClock) Set(nowNs uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = nowNs
}

// Advance moves the clock forward by deltaNs.
func (c *FakeClock) Advance(deltaNs uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += deltaNs
}

var _ interfaces.Clock = (*FakeClock)(nil)

// FakeObserver records every event it receives, for tests that exercise
// ControlNode's loop without a real metrics backend. Safe for concurrent
// use since the periodic loop thread and a test goroutine may both touch
// it.
type FakeObserver struct {
	mu sync.Mutex

	LoopCalls       int
	LoopErrors      int
	SendCalls       map[string]int
	SendFailures    map[string]int
	RecvCalls       map[string]int
	RecvMisses      map[string]int
	MissedDeadlines int
}

// NewFakeObserver creates a FakeObserver with its maps initialized.
func NewFakeObserver() *FakeObserver {
	return &FakeObserver{
		SendCalls:    make(map[string]int),
		SendFailures: make(map[string]int),
		RecvCalls:    make(map[string]int),
		RecvMisses:   make(map[string]int),
	}
}

func (f *FakeObserver) ObserveLoop(durationNs uint64, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.LoopCalls++
	if !success {
		f.LoopErrors++
	}
}

func (f *FakeObserver) ObserveSend(node string, bytes uint64, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SendCalls[node]++
	if !success {
		f.SendFailures[node]++
	}
}

func (f *FakeObserver) ObserveRecv(node string, bytes uint64, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RecvCalls[node]++
	if !success {
		f.RecvMisses[node]++
	}
}

func (f *FakeObserver) ObserveMissedDeadline() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MissedDeadlines++
}

var _ interfaces.Observer = (*FakeObserver)(nil)

// FakeController is a minimal Runner for tests that need to populate a
// ControlNode's controller list without a real domain controller: it
// counts calls and returns a configurable error.
type FakeController struct {
	mu       sync.Mutex
	Err      error
	RunCalls int
}

// Run implements Runner.
func (f *FakeController) Run() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RunCalls++
	return f.Err
}

// Calls returns the number of times Run has been called.
func (f *FakeController) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.RunCalls
}

var _ Runner = (*FakeController)(nil)
