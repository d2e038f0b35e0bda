package threadmgr

import (
	"fmt"
	"runtime"
	"time"
	"unsafe"

	"github.com/flightos/fsw/internal/clock"
	"golang.org/x/sys/unix"
)

// CreatePeriodicThread creates a thread whose body runs every periodNs
// nanoseconds, dispatched off a Linux timerfd so re-arming never
// accumulates wake-up skew. If body returns a non-nil error, or if the
// dispatcher detects a deadline miss (body still running at the next
// period boundary, or the timerfd's expiration counter shows more than
// one period elapsed), errHandler is invoked and its return value becomes
// the thread's terminal error.
func (m *Manager) CreatePeriodicThread(body ThreadFunc, priority int, affinity Affinity, periodNs uint64, errHandler ErrHandler) (*Handle, error) {
	if body == nil || errHandler == nil {
		return nil, fmt.Errorf("threadmgr: CreatePeriodicThread: nil body or err handler")
	}
	if priority < MinNewThreadPriority || priority > MaxNewThreadPriority {
		return nil, fmt.Errorf("threadmgr: CreatePeriodicThread: priority %d out of range [%d,%d]", priority, MinNewThreadPriority, MaxNewThreadPriority)
	}
	if !affinity.valid() {
		return nil, fmt.Errorf("threadmgr: CreatePeriodicThread: invalid affinity %d", affinity)
	}
	if periodNs == 0 {
		return nil, fmt.Errorf("threadmgr: CreatePeriodicThread: period must be > 0")
	}

	h := &Handle{done: make(chan error, 1)}
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		applyRealtimeAttrs(priority, affinity)
		h.done <- runPeriodic(body, periodNs, errHandler)
	}()
	return h, nil
}

// runPeriodic owns the timerfd-based dispatch loop: arm once with the
// period as both the initial expiration and the interval, then block on
// a read of the fd before each invocation of body. The 8-byte value read
// back is the number of periods that elapsed since the last read; a
// value greater than 1 means the dispatcher itself was scheduled late
// and at least one period was skipped outright.
func runPeriodic(body ThreadFunc, periodNs uint64, errHandler ErrHandler) error {
	fd, err := timerfdCreate()
	if err != nil {
		return errHandler(fmt.Errorf("threadmgr: timerfd create failed: %w", err))
	}
	defer unix.Close(fd)

	spec := period(periodNs)
	if err := timerfdSetTime(fd, spec); err != nil {
		return errHandler(fmt.Errorf("threadmgr: timerfd settime failed: %w", err))
	}

	for {
		expirations, err := timerfdRead(fd)
		if err != nil {
			return errHandler(fmt.Errorf("threadmgr: timerfd read failed: %w", err))
		}

		deadline := clock.Default().NowNs() + periodNs
		bodyErr := body()
		missed := expirations > 1 || clock.Default().NowNs() > deadline

		if bodyErr != nil {
			return errHandler(bodyErr)
		}
		if missed {
			return errHandler(errMissedDeadline)
		}
	}
}

var errMissedDeadline = fmt.Errorf("threadmgr: missed deadline")

// ErrMissedDeadline reports whether err is the sentinel passed to an
// err_handler when a periodic body overran its period.
func ErrMissedDeadline(err error) bool {
	return err == errMissedDeadline
}

type timespec struct {
	sec  int64
	nsec int64
}

type itimerspec struct {
	interval timespec
	value    timespec
}

func period(periodNs uint64) itimerspec {
	d := time.Duration(periodNs)
	ts := timespec{sec: int64(d / time.Second), nsec: int64(d % time.Second)}
	return itimerspec{interval: ts, value: ts}
}

func timerfdCreate() (int, error) {
	fd, _, errno := unix.Syscall(unix.SYS_TIMERFD_CREATE, unix.CLOCK_MONOTONIC, 0, 0)
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}

func timerfdSetTime(fd int, spec itimerspec) error {
	_, _, errno := unix.Syscall6(unix.SYS_TIMERFD_SETTIME, uintptr(fd), 0, uintptr(unsafe.Pointer(&spec)), 0, 0, 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// timerfdRead blocks until the timer next expires and returns the number
// of periods that elapsed since the previous read (1 in the common case).
func timerfdRead(fd int) (uint64, error) {
	var buf [8]byte
	n, err := unix.Read(fd, buf[:])
	if err != nil {
		return 0, err
	}
	if n != 8 {
		return 0, fmt.Errorf("threadmgr: short timerfd read: %d bytes", n)
	}
	return nativeEndianUint64(buf[:]), nil
}

func nativeEndianUint64(b []byte) uint64 {
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}
