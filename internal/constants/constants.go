// Package constants collects the fixed, dense numeric parameters that
// tie the Thread Manager, Network Manager, and control loop together:
// priority bands, the loop period, comms timeouts, and port bounds.
package constants

import "time"

// LoopPeriodNs is the Control-Node loop's fixed cadence: once every 10ms,
// per the periodic dispatch contract.
const LoopPeriodNs = uint64(10 * time.Millisecond)

// CommsTimeoutNs bounds how long one loop iteration's recv_many call may
// wait for peer datagrams before giving up on that tick. Chosen well
// under LoopPeriodNs so a silent peer never causes a missed deadline on
// its own.
const CommsTimeoutNs = uint64(2 * time.Millisecond)

// Thread Manager priority bands; see internal/threadmgr for the full
// rationale. These repeat the values internal/threadmgr declares for
// itself; the two sets are separate declarations kept equal by hand.
const (
	HWIRQPriority         = 50
	KTimerSoftdPriority   = 49
	FSWInitThreadPriority = 48
	MaxNewThreadPriority  = 47
	MinNewThreadPriority  = 1

	// ControlLoopPriority is the priority the single periodic thread
	// running the Control-Node loop is installed at: the max allowed for
	// an application thread, since it is the one hard-real-time path in
	// the process.
	ControlLoopPriority = MaxNewThreadPriority
)

// Network Manager port bounds and reserved noop port, repeating the
// values internal/netmgr declares for itself, so non-netmgr callers
// (boot-sequence config validation) don't need to import the
// socket-handling package just to see these numbers.
const (
	MinPort  = 2200
	MaxPort  = 2299
	NoopPort = MinPort - 1
)
