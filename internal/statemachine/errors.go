package statemachine

import "fmt"

// kindError mirrors the datavector/netmgr packages' approach: a minimal
// error whose Kind string matches the root package's ErrorCode values
// verbatim, so the root package can translate without statemachine
// importing the root package (which would cycle).
type kindError struct {
	kind string
	msg  string
}

func (e *kindError) Error() string { return fmt.Sprintf("statemachine: %s: %s", e.kind, e.msg) }
func (e *kindError) Kind() string  { return e.kind }

func newConfigError(msg string) error { return &kindError{kind: "invalid config", msg: msg} }
func newNoStatesError() error         { return &kindError{kind: "no states", msg: "config has no states"} }

func newStateNotFoundError(id uint32) error {
	return &kindError{kind: "state not found", msg: fmt.Sprintf("state id %d not configured", id)}
}

func newInvalidTimeError(now, last uint64) error {
	return &kindError{
		kind: "invalid time",
		msg:  fmt.Sprintf("step time %d precedes last step time %d within the current state", now, last),
	}
}
