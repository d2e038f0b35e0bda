// Package clocksync implements the boot-time clock-sync handshake: the
// control node issues SERVER_READY to every device node and blocks until
// each has answered CLIENT_SYNC_SUCCESS, before Time may be initialized.
// Grounded on the teacher's internal/ctrl package's handshake shape —
// open a control channel, exchange typed commands synchronously, treat
// failure as fatal — with the ublk-specific ADD_DEV/START_DEV command
// structs replaced by the single-byte messages below.
package clocksync

import (
	"github.com/flightos/fsw/internal/elements"
	"github.com/flightos/fsw/internal/netmgr"
)

// The clock-sync channel sub-protocol: a single byte per message.
const (
	serverReady       byte = 0x00
	clientSyncSuccess byte = 0x01
	clientSyncFail    byte = 0x02
)

// Config names the device nodes the control node must sync with and the
// bound on how long it will wait for every reply.
type Config struct {
	DeviceNodes []elements.Node
	TimeoutNs   uint64
}

// SyncServer runs the control-node side of the handshake: send
// SERVER_READY to every device node in cfg.DeviceNodes over nm, then
// block (bounded by cfg.TimeoutNs) until each has answered
// CLIENT_SYNC_SUCCESS. Any CLIENT_SYNC_FAIL or non-response by the
// deadline is a terminal error — the caller's boot sequence must not
// proceed to initialize Time.
func SyncServer(nm *netmgr.Manager, cfg Config) error {
	if len(cfg.DeviceNodes) == 0 {
		return newConfigError("no device nodes configured for clock sync")
	}

	for _, node := range cfg.DeviceNodes {
		if err := nm.Send(node, []byte{serverReady}); err != nil {
			return err
		}
	}

	bufs := make([][]byte, len(cfg.DeviceNodes))
	counts := make([]uint32, len(cfg.DeviceNodes))
	for i := range bufs {
		bufs[i] = make([]byte, 1)
	}

	if err := nm.RecvMany(cfg.TimeoutNs, cfg.DeviceNodes, bufs, counts); err != nil {
		return err
	}

	for i, node := range cfg.DeviceNodes {
		if counts[i] == 0 {
			return newTimeoutError(node)
		}
		switch bufs[i][0] {
		case clientSyncSuccess:
			// fine
		case clientSyncFail:
			return newSyncFailedError(node)
		default:
			return newUnexpectedByteError(node, bufs[i][0])
		}
	}

	return nil
}

// SyncClient runs a device node's side of the handshake: block
// (unbounded, matching the control node's role as the sole timing
// authority) until SERVER_READY arrives from server, then reply
// CLIENT_SYNC_SUCCESS.
func SyncClient(nm *netmgr.Manager, server elements.Node) error {
	buf := make([]byte, 1)
	if err := nm.RecvBlock(server, buf); err != nil {
		return err
	}
	if buf[0] != serverReady {
		return newUnexpectedByteError(server, buf[0])
	}
	return nm.Send(server, []byte{clientSyncSuccess})
}
