// Package netmgr implements the Network Manager: a (node, node) UDP
// channel abstraction with per-channel sockets, typed send, blocking and
// non-blocking receive, and an epoll-backed multi-channel bounded-timeout
// receive. Grounded on the original platform's NetworkManager — one
// socket per channel, a send immediately followed by a zero-length noop
// datagram to work around a NIC erratum, and recv_many's drain-all,
// keep-latest-per-channel semantics.
package netmgr

import (
	"github.com/flightos/fsw/internal/datavector"
	"github.com/flightos/fsw/internal/elements"
	"golang.org/x/sys/unix"
)

// channel is one bound UDP socket with a precomputed send destination.
type channel struct {
	peer     elements.Node
	fd       int
	peerIP   uint32
	peerPort uint16
}

// Manager is a node's Network Manager: one socket per configured channel
// involving this node, plus the Data Vector counters it increments on
// successful send/receive.
type Manager struct {
	dv          *datavector.DataVector
	me          elements.Node
	meIP        uint32
	channels    map[elements.Node]*channel
	txElem      elements.Elem
	rxElem      elements.Elem
	disableNoop bool
}

// New validates cfg, creates one bound UDP socket per channel involving
// cfg.Me, and returns the Manager. dv must be non-nil and must already
// have cfg.TxCounterElem and cfg.RxCounterElem configured.
func New(cfg Config, dv *datavector.DataVector) (*Manager, error) {
	if dv == nil {
		return nil, newConfigError("data vector is nil")
	}
	if err := verifyConfig(cfg, dv.ElementExists); err != nil {
		return nil, err
	}

	meIP, err := ipToUint32(cfg.NodeToIP[cfg.Me])
	if err != nil {
		return nil, err
	}

	m := &Manager{
		dv:          dv,
		me:          cfg.Me,
		meIP:        meIP,
		channels:    make(map[elements.Node]*channel),
		txElem:      cfg.TxCounterElem,
		rxElem:      cfg.RxCounterElem,
		disableNoop: cfg.DisableNoop,
	}

	for _, ch := range cfg.Channels {
		var peer elements.Node
		switch cfg.Me {
		case ch.Node1:
			peer = ch.Node2
		case ch.Node2:
			peer = ch.Node1
		default:
			continue
		}

		peerIP, err := ipToUint32(cfg.NodeToIP[peer])
		if err != nil {
			m.closeAll()
			return nil, err
		}

		fd, err := createSocket(meIP, ch.Port)
		if err != nil {
			m.closeAll()
			return nil, err
		}

		m.channels[peer] = &channel{peer: peer, fd: fd, peerIP: peerIP, peerPort: ch.Port}
	}

	return m, nil
}

func (m *Manager) closeAll() {
	for _, ch := range m.channels {
		_ = unix.Close(ch.fd)
	}
}

// Close releases every channel's socket.
func (m *Manager) Close() {
	m.closeAll()
}

func createSocket(meIP uint32, port uint16) (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return -1, newCreateSocketError(err.Error())
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, newSetSockOptError(err.Error())
	}

	addr := &unix.SockaddrInet4{Port: int(port)}
	addr.Addr = ipBytes(meIP)
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return -1, newBindError(err.Error())
	}

	return fd, nil
}

func ipBytes(ip uint32) [4]byte {
	return [4]byte{byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip)}
}

// Send transmits buf in full to peer in a single UDP datagram, then
// (unless disabled) a zero-length noop datagram to NoopPort on the same
// peer IP to clear a potentially stuck NIC RX FIFO entry. On success
// TxCounterElem is incremented.
func (m *Manager) Send(peer elements.Node, buf []byte) error {
	if len(buf) == 0 {
		return newEmptyBufferError("send buffer is empty")
	}
	ch, ok := m.channels[peer]
	if !ok {
		return newUnknownNodeError("no channel for peer")
	}

	dest := &unix.SockaddrInet4{Port: int(ch.peerPort), Addr: ipBytes(ch.peerIP)}
	if err := unix.Sendto(ch.fd, buf, 0, dest); err != nil {
		return newSendError(err.Error())
	}

	if !m.disableNoop {
		noopDest := &unix.SockaddrInet4{Port: NoopPort, Addr: ipBytes(ch.peerIP)}
		_ = unix.Sendto(ch.fd, nil, 0, noopDest)
	}

	return m.dv.Increment(m.txElem)
}

// RecvBlock blocks until a datagram arrives on peer's channel and fills
// buf, whose length must equal the expected payload size exactly.
func (m *Manager) RecvBlock(peer elements.Node, buf []byte) error {
	ch, err := m.verifyRecvParams(peer, buf)
	if err != nil {
		return err
	}
	return m.recvInto(ch, buf)
}

// RecvNonBlock attempts to receive a datagram on peer's channel without
// blocking; received reports whether one was available.
func (m *Manager) RecvNonBlock(peer elements.Node, buf []byte) (received bool, err error) {
	ch, err := m.verifyRecvParams(peer, buf)
	if err != nil {
		return false, err
	}

	if err := unix.SetNonblock(ch.fd, true); err != nil {
		return false, newRecvError(err.Error())
	}
	defer unix.SetNonblock(ch.fd, false)

	n, _, err := unix.Recvfrom(ch.fd, buf, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return false, nil
		}
		return false, newRecvError(err.Error())
	}
	if n != len(buf) {
		return false, newUnexpectedSizeError("received datagram length did not match buffer length")
	}
	if err := m.dv.Increment(m.rxElem); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Manager) recvInto(ch *channel, buf []byte) error {
	n, _, err := unix.Recvfrom(ch.fd, buf, 0)
	if err != nil {
		return newRecvError(err.Error())
	}
	if n != len(buf) {
		return newUnexpectedSizeError("received datagram length did not match buffer length")
	}
	return m.dv.Increment(m.rxElem)
}

func (m *Manager) verifyRecvParams(peer elements.Node, buf []byte) (*channel, error) {
	if len(buf) == 0 {
		return nil, newEmptyBufferError("recv buffer is empty")
	}
	if len(buf) > MaxRecvBytes {
		return nil, newUnexpectedSizeError("expected recv size exceeds MaxRecvBytes")
	}
	ch, ok := m.channels[peer]
	if !ok {
		return nil, newUnknownNodeError("no channel for peer")
	}
	return ch, nil
}
