// Package clock provides the process-wide monotonic-ish wall clock the
// rest of the runtime depends on. It reads CLOCK_REALTIME (via time.Now,
// which on Linux is backed by the same vDSO path), not CLOCK_MONOTONIC:
// the network layer's wire format assumes all nodes share a roughly
// NTP-disciplined wall clock, and clock-sync (internal/clocksync) is
// expected to have run before Init is called.
package clock

import (
	"sync"
	"time"

	"github.com/flightos/fsw/internal/interfaces"
)

// secondsAwayFromOverflowToInit is the minimum number of seconds the clock
// must be from the 31-bit seconds-field maximum for Init to succeed — one
// year, matching the margin used at boot by the original platform.
const secondsAwayFromOverflowToInit = int64(365 * 24 * 60 * 60)

// maxSeconds31Bit is the largest value a 31-bit seconds-since-epoch field
// can hold.
const maxSeconds31Bit = int64(1<<31 - 1)

// Clock is a NowNs() source; internal/clock.Default satisfies it, and so
// does any test double.
type Clock = interfaces.Clock

// Wall is the process-wide singleton clock.
type Wall struct {
	initNs uint64
}

var (
	defaultOnce  sync.Once
	defaultClock *Wall
	defaultErr   error
)

// Init constructs (once) and returns the process-wide clock, failing with
// an overflow error if the current reading is within a year of the 31-bit
// seconds-field rollover.
func Init() (*Wall, error) {
	defaultOnce.Do(func() {
		now := uint64(time.Now().UnixNano())
		nowSeconds := int64(now / 1_000_000_000)
		if maxSeconds31Bit-nowSeconds < secondsAwayFromOverflowToInit {
			defaultErr = overflowError()
			return
		}
		defaultClock = &Wall{initNs: now}
	})
	return defaultClock, defaultErr
}

// Default returns the already-initialized singleton; it panics if Init was
// never called successfully, since every boot sequence must call Init
// before any component reads the clock.
func Default() *Wall {
	if defaultClock == nil {
		panic("clock: Default called before a successful Init")
	}
	return defaultClock
}

// NowNs returns the current wall-clock reading in nanoseconds. Two calls
// from the same goroutine never observe a decrease.
func (w *Wall) NowNs() uint64 {
	return uint64(time.Now().UnixNano())
}

func overflowError() error {
	return &overflowImminentError{}
}

type overflowImminentError struct{}

func (e *overflowImminentError) Error() string {
	return "clock: current time is within one year of 31-bit seconds-field overflow"
}
