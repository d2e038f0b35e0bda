package datavector

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
)

// reentrantMutex behaves like a PTHREAD_MUTEX_ERRORCHECK mutex: it
// provides true mutual exclusion between distinct goroutines (a contending
// goroutine blocks until the holder releases), but a second Lock from the
// goroutine that already holds it fails fast with errAlreadyLocked instead
// of deadlocking, and an Unlock from a goroutine that isn't the holder
// fails with errNotHeld.
//
// Ownership is tracked by goroutine id rather than by a dedicated token
// because nothing in the standard library or the available third-party
// stack exposes goroutine-local storage; the id is parsed once per call
// from runtime.Stack.
type reentrantMutex struct {
	mu       sync.Mutex
	holderID atomic.Int64
}

func (m *reentrantMutex) Lock() error {
	gid := goroutineID()
	if m.holderID.Load() == gid {
		return errAlreadyLocked
	}
	m.mu.Lock()
	m.holderID.Store(gid)
	return nil
}

func (m *reentrantMutex) Unlock() error {
	gid := goroutineID()
	if m.holderID.Load() != gid {
		return errNotHeld
	}
	m.holderID.Store(0)
	m.mu.Unlock()
	return nil
}

// goroutineID extracts the calling goroutine's id from its stack trace
// header ("goroutine 123 [running]:"). Real goroutine ids start at 1, so 0
// is safe to use as the "unheld" sentinel.
func goroutineID() int64 {
	buf := make([]byte, 64)
	buf = buf[:runtime.Stack(buf, false)]
	buf = bytes.TrimPrefix(buf, []byte("goroutine "))
	if i := bytes.IndexByte(buf, ' '); i >= 0 {
		buf = buf[:i]
	}
	id, err := strconv.ParseInt(string(buf), 10, 64)
	if err != nil {
		return -1
	}
	return id
}
