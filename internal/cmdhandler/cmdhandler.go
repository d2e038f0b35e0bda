// Package cmdhandler implements the ground-command ingestion step of the
// control loop: a single request slot in the Data Vector is published to
// an accepted-command slot once per new sequence number, with an optional
// side-write and replay rejection by sequence comparison.
package cmdhandler

import (
	"github.com/flightos/fsw/internal/datavector"
	"github.com/flightos/fsw/internal/elements"
)

// CmdType is the closed set of command kinds a request slot can carry.
// WRITE additionally applies the side-write of (write_elem, write_val);
// any other value is published as-is with no side effect.
type CmdType = uint32

const (
	CmdNone  CmdType = 0
	CmdWrite CmdType = 1
)

// Config names the six Data Vector slots the Command Handler reads from
// and writes to.
type Config struct {
	ReqElem          elements.Elem // cmd_req: the requested command
	ReqSeqElem       elements.Elem // cmd_req_seq: sequence number of the request
	WriteElemElem    elements.Elem // cmd_write_elem: target elem for a WRITE command
	WriteValElem     elements.Elem // cmd_write_val: value for a WRITE command
	CmdElem          elements.Elem // cmd: the published, accepted command
	ProcessedSeqElem elements.Elem // cmd_processed_seq: sequence number last applied
}

// Handler holds no state beyond its config; the Data Vector is the only
// state that persists between Step calls.
type Handler struct {
	cfg Config
}

// New constructs a Handler. No validation beyond what datavector.Elem
// access already performs at Step time: the spec leaves slot existence to
// be caught as InvalidElem on first use, matching the rest of this
// runtime's "fail at the operation, not at construction" elements.
func New(cfg Config) *Handler {
	return &Handler{cfg: cfg}
}

// Step reads cmd_req_seq; if it differs from cmd_processed_seq it
// publishes cmd_req into cmd, applies the side-write for a WRITE command,
// and advances cmd_processed_seq to match. A repeated sequence number
// (replay) is a no-op.
func (h *Handler) Step(dv *datavector.DataVector) error {
	reqSeq, err := datavector.Read[uint32](dv, h.cfg.ReqSeqElem)
	if err != nil {
		return err
	}
	processedSeq, err := datavector.Read[uint32](dv, h.cfg.ProcessedSeqElem)
	if err != nil {
		return err
	}
	if reqSeq == processedSeq {
		return nil
	}

	cmd, err := datavector.Read[uint32](dv, h.cfg.ReqElem)
	if err != nil {
		return err
	}
	if err := datavector.Write[uint32](dv, h.cfg.CmdElem, cmd); err != nil {
		return err
	}

	if cmd == CmdWrite {
		writeElem, err := datavector.Read[uint32](dv, h.cfg.WriteElemElem)
		if err != nil {
			return err
		}
		// cmd_write_val carries the new value as a 64-bit bit pattern,
		// the same convention used for a Data Vector element's configured
		// initial value, since the target element's type is only known
		// at runtime here.
		writeVal, err := datavector.Read[uint64](dv, h.cfg.WriteValElem)
		if err != nil {
			return err
		}
		if err := dv.WriteBits(elements.Elem(writeElem), writeVal); err != nil {
			return err
		}
	}

	return datavector.Write[uint32](dv, h.cfg.ProcessedSeqElem, reqSeq)
}
