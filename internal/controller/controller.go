// Package controller implements the Controller protocol: a polymorphic
// unit whose run() dispatches to RunEnabled or RunSafed based on a Data
// Vector mode element, validated once at construction. Grounded on
// Controller.hpp's createNew<T_Controller,T_Config> factory, realized
// with a Go generic function and a Capability interface rather than
// virtual dispatch.
package controller

import (
	"fmt"

	"github.com/flightos/fsw/internal/datavector"
	"github.com/flightos/fsw/internal/elements"
)

// Mode is the Data Vector-encoded value selecting which run method a
// controller's Run dispatches to.
type Mode uint8

const (
	Safed   Mode = 0
	Enabled Mode = 1
)

// Capability is the behavior every controller implements. Neither
// RunEnabled nor RunSafed may block or loop — each is a single step of
// work, interacting with the outside world only through dv reads/writes.
type Capability interface {
	RunEnabled(dv *datavector.DataVector) error
	RunSafed(dv *datavector.DataVector) error
	VerifyConfig() error
}

// Controller wraps a Capability with the shared mode-dispatch machinery
// every controller needs: a handle to the Data Vector and the element
// that encodes its mode.
type Controller[C Capability] struct {
	impl     C
	dv       *datavector.DataVector
	modeElem elements.Elem
}

// New validates and constructs the controller the same way Create does,
// for callers that already hold a built capability (e.g. tests). Most
// callers should use Create.
func New[C Capability](impl C, dv *datavector.DataVector, modeElem elements.Elem) (*Controller[C], error) {
	if dv == nil {
		return nil, newDVNullError()
	}
	if !dv.ElementExists(modeElem) {
		return nil, newInvalidElemError(modeElem)
	}
	if err := impl.VerifyConfig(); err != nil {
		return nil, err
	}
	return &Controller[C]{impl: impl, dv: dv, modeElem: modeElem}, nil
}

// Create is the factory entry point: it validates dv and modeElem, builds
// a C from cfg via build, then verifies the built controller's config.
// On any failure the partially-built controller is discarded.
func Create[C Capability, Cfg any](cfg Cfg, dv *datavector.DataVector, modeElem elements.Elem, build func(Cfg, *datavector.DataVector, elements.Elem) C) (*Controller[C], error) {
	if dv == nil {
		return nil, newDVNullError()
	}
	if !dv.ElementExists(modeElem) {
		return nil, newInvalidElemError(modeElem)
	}

	impl := build(cfg, dv, modeElem)
	if err := impl.VerifyConfig(); err != nil {
		return nil, err
	}
	return &Controller[C]{impl: impl, dv: dv, modeElem: modeElem}, nil
}

// Run reads the mode element and dispatches to RunEnabled or RunSafed.
func (c *Controller[C]) Run() error {
	bits, typ, err := c.dv.ReadBits(c.modeElem)
	if err != nil {
		return err
	}
	if typ != elements.TypeU8 {
		return newInvalidModeError(fmt.Sprintf("mode elem has type %s, expected u8", typ))
	}

	switch Mode(bits) {
	case Safed:
		return c.impl.RunSafed(c.dv)
	case Enabled:
		return c.impl.RunEnabled(c.dv)
	default:
		return newInvalidModeError(fmt.Sprintf("unknown mode value %d", bits))
	}
}

// Mode returns the controller's current mode.
func (c *Controller[C]) Mode() (Mode, error) {
	bits, typ, err := c.dv.ReadBits(c.modeElem)
	if err != nil {
		return 0, err
	}
	if typ != elements.TypeU8 {
		return 0, newInvalidModeError(fmt.Sprintf("mode elem has type %s, expected u8", typ))
	}
	return Mode(bits), nil
}

// Impl returns the wrapped capability, for tests that need to assert on
// controller-specific state.
func (c *Controller[C]) Impl() C {
	return c.impl
}
