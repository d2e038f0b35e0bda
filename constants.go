package fsw

import "github.com/flightos/fsw/internal/constants"

// Re-export constants for public API
const (
	LoopPeriodNs          = constants.LoopPeriodNs
	CommsTimeoutNs        = constants.CommsTimeoutNs
	HWIRQPriority         = constants.HWIRQPriority
	KTimerSoftdPriority   = constants.KTimerSoftdPriority
	FSWInitThreadPriority = constants.FSWInitThreadPriority
	MaxNewThreadPriority  = constants.MaxNewThreadPriority
	MinNewThreadPriority  = constants.MinNewThreadPriority
	ControlLoopPriority   = constants.ControlLoopPriority
	MinPort               = constants.MinPort
	MaxPort               = constants.MaxPort
	NoopPort              = constants.NoopPort
)
