package datavector

import (
	"fmt"

	"github.com/flightos/fsw/internal/elements"
)

// kindError is a minimal structured error carrying the abstract error kind
// the Data Vector operation failed with. The Kind string matches the root
// package's ErrorCode values verbatim so callers can translate without
// datavector importing the root package (which would cycle).
type kindError struct {
	kind string
	msg  string
}

func (e *kindError) Error() string { return fmt.Sprintf("datavector: %s: %s", e.kind, e.msg) }
func (e *kindError) Kind() string  { return e.kind }

func newConfigError(msg string) error {
	return &kindError{kind: "invalid config", msg: msg}
}

func newDuplicateRegionError(r elements.Region) error {
	return &kindError{kind: "duplicate region", msg: fmt.Sprintf("region %s already configured", r)}
}

func newDuplicateElemError(e elements.Elem) error {
	return &kindError{kind: "duplicate elem", msg: fmt.Sprintf("elem %s already configured", e)}
}

func newInvalidRegionError(r elements.Region) error {
	return &kindError{kind: "invalid region", msg: fmt.Sprintf("region %s not configured", r)}
}

func newInvalidElemError(e elements.Elem) error {
	return &kindError{kind: "invalid elem", msg: fmt.Sprintf("elem %s not configured", e)}
}

func newTypeMismatchError(e elements.Elem, want, got elements.Type) error {
	return &kindError{
		kind: "type mismatch",
		msg:  fmt.Sprintf("elem %s is %s, access requested %s", e, want, got),
	}
}

func newSizeMismatchError(want, got int) error {
	return &kindError{kind: "size mismatch", msg: fmt.Sprintf("want %d bytes, got %d", want, got)}
}
