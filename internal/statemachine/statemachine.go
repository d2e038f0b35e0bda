// Package statemachine implements the time-driven State Machine: named
// states, each with an entry-timed batch of Data Vector writes and a
// priority-ordered list of guarded transitions, stepped once per control
// loop iteration against the current Data Vector. Grounded loosely on the
// named-state-map shape of the original StateMachine/State classes, but
// the transition and action model here is the later, DV-element-driven
// design: conditions and writes reference Data Vector elements directly
// instead of calling out to registered function pointers.
package statemachine

import (
	"fmt"

	"github.com/flightos/fsw/internal/datavector"
	"github.com/flightos/fsw/internal/elements"
)

// CompareOp is the closed set of comparison operators a transition
// condition may use.
type CompareOp uint8

const (
	OpEQ CompareOp = iota
	OpNE
	OpLT
	OpLE
	OpGT
	OpGE
)

// Action is one write applied a fixed offset after a state is entered.
// Value is the write's operand as a 64-bit bit pattern reinterpreted to
// Type, the same convention used for a Data Vector element's configured
// initial value.
type Action struct {
	OffsetNs uint64
	Elem     elements.Elem
	Type     elements.Type
	Value    uint64
}

// Transition fires when the named element's current value compares true
// against Value under Op.
type Transition struct {
	Elem     elements.Elem
	Type     elements.Type
	Op       CompareOp
	Value    uint64
	TargetID uint32
}

// State is one named node of the machine: an ordered action batch list
// (by ascending OffsetNs — batches executed together if they share an
// offset) and a priority-ordered (declaration order) transition list.
type State struct {
	ID          uint32
	Actions     []Action
	Transitions []Transition
}

// Config is the immutable construction config for a Machine.
type Config struct {
	States       []State
	StateElem    elements.Elem // the DV element holding the current state id
	InitialState uint32
}

// Machine is a time-driven state machine stepped once per loop iteration.
type Machine struct {
	dv        *datavector.DataVector
	stateElem elements.Elem
	states    map[uint32]*State
	current   *State
	enteredAt uint64
	lastStep  uint64
	cursor    int // index into current.Actions of the next unexecuted batch
}

// New validates cfg against dv and constructs a Machine whose current
// state is read from dv's configured state element.
//
// Validation:
//  1. at least one state,
//  2. state ids are unique,
//  3. every transition target resolves to a configured state,
//  4. no action writes to the state-id element (a state cannot
//     self-transition via an action write),
//  5. the state read from dv's state element is one of the configured
//     states.
func New(cfg Config, dv *datavector.DataVector, nowNs uint64) (*Machine, error) {
	if len(cfg.States) == 0 {
		return nil, newNoStatesError()
	}

	states := make(map[uint32]*State, len(cfg.States))
	for i := range cfg.States {
		s := &cfg.States[i]
		if _, dup := states[s.ID]; dup {
			return nil, newConfigError(fmt.Sprintf("duplicate state id %d", s.ID))
		}
		states[s.ID] = s
	}

	for _, s := range cfg.States {
		for _, a := range s.Actions {
			if a.Elem == cfg.StateElem {
				return nil, newConfigError(fmt.Sprintf("state %d has an action writing to the state element", s.ID))
			}
		}
		for _, tr := range s.Transitions {
			if _, ok := states[tr.TargetID]; !ok {
				return nil, newConfigError(fmt.Sprintf("state %d has a transition to undefined target %d", s.ID, tr.TargetID))
			}
		}
	}

	initialBits, _, err := dv.ReadBits(cfg.StateElem)
	if err != nil {
		return nil, err
	}
	current, ok := states[uint32(initialBits)]
	if !ok {
		return nil, newStateNotFoundError(uint32(initialBits))
	}

	return &Machine{
		dv:        dv,
		stateElem: cfg.StateElem,
		states:    states,
		current:   current,
		enteredAt: nowNs,
		lastStep:  nowNs,
	}, nil
}

// Step advances the machine by one tick. now_ns must not precede the last
// Step call within the current state (InvalidTime otherwise). Transitions
// are evaluated before actions, so a transition triggered by the previous
// tick's actions can still fire before this tick's actions execute.
func (m *Machine) Step(nowNs uint64) error {
	if nowNs < m.lastStep {
		return newInvalidTimeError(nowNs, m.lastStep)
	}
	m.lastStep = nowNs

	for _, tr := range m.current.Transitions {
		fire, err := m.evalTransition(tr)
		if err != nil {
			return err
		}
		if fire {
			return m.switchTo(tr.TargetID, nowNs)
		}
	}

	offsetSinceEntry := nowNs - m.enteredAt
	for m.cursor < len(m.current.Actions) && m.current.Actions[m.cursor].OffsetNs <= offsetSinceEntry {
		a := m.current.Actions[m.cursor]
		if err := m.dv.WriteBits(a.Elem, a.Value); err != nil {
			return err
		}
		m.cursor++
	}
	return nil
}

// ForceSwitch sets the current state directly and resets the action
// cursor, for test injection.
func (m *Machine) ForceSwitch(targetID uint32, nowNs uint64) error {
	return m.switchTo(targetID, nowNs)
}

// CurrentStateID returns the machine's current state id.
func (m *Machine) CurrentStateID() uint32 {
	return m.current.ID
}

func (m *Machine) switchTo(targetID uint32, nowNs uint64) error {
	target, ok := m.states[targetID]
	if !ok {
		return newStateNotFoundError(targetID)
	}
	if err := m.dv.WriteBits(m.stateElem, uint64(targetID)); err != nil {
		return err
	}
	m.current = target
	m.enteredAt = nowNs
	m.cursor = 0
	return nil
}

func (m *Machine) evalTransition(tr Transition) (bool, error) {
	bits, typ, err := m.dv.ReadBits(tr.Elem)
	if err != nil {
		return false, err
	}
	if typ != tr.Type {
		return false, newConfigError(fmt.Sprintf("transition elem %s is %s, condition declared %s", tr.Elem, typ, tr.Type))
	}
	return compare(typ, bits, tr.Value, tr.Op), nil
}
