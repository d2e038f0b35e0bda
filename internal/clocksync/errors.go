package clocksync

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

func (e *kindError) Error() string { return fmt.Sprintf("clocksync: %s: %s", e.kind, e.msg) }
func (e *kindError) Kind() string  { return e.kind }

func newConfigError(msg string) error { return &kindError{kind: "invalid config", msg: msg} }

func newTimeoutError(node elements.Node) error {
	return &kindError{kind: "timeout too large", msg: fmt.Sprintf("no sync reply from %s before deadline", node)}
}

func newSyncFailedError(node elements.Node) error {
	return &kindError{kind: "invalid config", msg: fmt.Sprintf("%s reported CLIENT_SYNC_FAIL", node)}
}

func newUnexpectedByteError(node elements.Node, got byte) error {
	return &kindError{kind: "invalid enum", msg: fmt.Sprintf("%s sent unrecognized handshake byte 0x%02x", node, got)}
}
