package controller

import (
	"fmt"

	"github.com/flightos/fsw/internal/elements"
)

// kindError mirrors the sibling internal packages' cross-package error
// translation approach: a Kind string matching the root package's
// ErrorCode values verbatim, without importing the root package.
type kindError struct {
	kind string
	msg  string
}

func (e *kindError) Error() string { return fmt.Sprintf("controller: %s: %s", e.kind, e.msg) }
func (e *kindError) Kind() string  { return e.kind }

func newDVNullError() error { return &kindError{kind: "dv null", msg: "data vector is nil"} }

func newInvalidElemError(elem elements.Elem) error {
	return &kindError{kind: "invalid elem", msg: fmt.Sprintf("mode elem %s not configured in data vector", elem)}
}

func newInvalidModeError(msg string) error { return &kindError{kind: "invalid mode", msg: msg} }
