package netmgr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/flightos/fsw/internal/elements"
)

// MinPort and MaxPort bound the permitted channel port range. Chosen, per
// the original flight network's survey of /etc/services, to avoid
// colliding with anything already registered on the target boards.
const (
	MinPort = 2200
	MaxPort = 2299

	// NoopPort is the reserved port a zero-length "unstick" datagram is
	// sent to after every real send, working around a NIC erratum where a
	// datagram can sit in the RX FIFO until the next frame arrives. It
	// sits just below the channel port range so it can never collide with
	// a configured channel.
	NoopPort = MinPort - 1

	// MaxRecvBytes bounds a single datagram's payload.
	MaxRecvBytes = 1500

	// MaxTimeoutNs bounds a single recv_many call's timeout (100 seconds,
	// matching the underlying select/epoll timeout granularity).
	MaxTimeoutNs = 100_000_000_000
)

// ChannelConfig describes one bidirectional UDP channel between two nodes.
type ChannelConfig struct {
	Node1 elements.Node
	Node2 elements.Node
	Port  uint16
}

// Config is the Network Manager's full construction config.
type Config struct {
	NodeToIP      map[elements.Node]string
	Channels      []ChannelConfig
	Me            elements.Node
	TxCounterElem elements.Elem
	RxCounterElem elements.Elem

	// DisableNoop, when true, stops Send from following the real datagram
	// with the zero-length noop datagram described for NoopPort. The zero
	// value (false) keeps the noop on, matching the original flight
	// network's behavior; tests and non-flight deployments without the
	// Zynq NIC erratum can set it.
	DisableNoop bool
}

func verifyConfig(cfg Config, dvHasElem func(elements.Elem) bool) error {
	if len(cfg.NodeToIP) == 0 {
		return newConfigError("empty node-to-ip map")
	}
	if len(cfg.Channels) == 0 {
		return newConfigError("empty channel list")
	}
	if !cfg.Me.Valid() {
		return newEnumError(fmt.Sprintf("invalid me node %d", cfg.Me))
	}
	if !dvHasElem(cfg.TxCounterElem) {
		return newConfigError("tx counter elem not present in data vector")
	}
	if !dvHasElem(cfg.RxCounterElem) {
		return newConfigError("rx counter elem not present in data vector")
	}

	seenIPs := make(map[string]elements.Node)
	for node, ip := range cfg.NodeToIP {
		if !node.Valid() {
			return newEnumError(fmt.Sprintf("invalid node %d in node-to-ip map", node))
		}
		if _, err := ipToUint32(ip); err != nil {
			return err
		}
		if prior, dup := seenIPs[ip]; dup {
			return newConfigError(fmt.Sprintf("ip %s used by both %s and %s", ip, prior, node))
		}
		seenIPs[ip] = node
	}

	if _, ok := cfg.NodeToIP[cfg.Me]; !ok {
		return newUnknownNodeError("me node not present in node-to-ip map")
	}

	seenPairs := make(map[[2]elements.Node]bool)
	for _, ch := range cfg.Channels {
		if !ch.Node1.Valid() || !ch.Node2.Valid() {
			return newEnumError("channel references an invalid node")
		}
		if _, ok := cfg.NodeToIP[ch.Node1]; !ok {
			return newUnknownNodeError(fmt.Sprintf("channel node %s not in node-to-ip map", ch.Node1))
		}
		if _, ok := cfg.NodeToIP[ch.Node2]; !ok {
			return newUnknownNodeError(fmt.Sprintf("channel node %s not in node-to-ip map", ch.Node2))
		}
		if ch.Port < MinPort || ch.Port > MaxPort {
			return newConfigError(fmt.Sprintf("port %d outside [%d,%d]", ch.Port, MinPort, MaxPort))
		}

		pair := normalizedPair(ch.Node1, ch.Node2)
		if seenPairs[pair] {
			return newConfigError(fmt.Sprintf("duplicate channel for node pair (%s,%s)", ch.Node1, ch.Node2))
		}
		seenPairs[pair] = true
	}

	return nil
}

func normalizedPair(a, b elements.Node) [2]elements.Node {
	if a < b {
		return [2]elements.Node{a, b}
	}
	return [2]elements.Node{b, a}
}

// ipToUint32 parses a dotted-quad string with each octet in [0,255] into
// its big-endian uint32 representation.
func ipToUint32(ip string) (uint32, error) {
	octets := strings.Split(ip, ".")
	if len(octets) != 4 {
		return 0, newConfigError(fmt.Sprintf("ip %q: expected 4 dotted octets, got %d", ip, len(octets)))
	}

	var out uint32
	for _, o := range octets {
		if len(o) == 0 || len(o) > 3 {
			return 0, newConfigError(fmt.Sprintf("ip %q: invalid octet %q", ip, o))
		}
		for _, c := range o {
			if c < '0' || c > '9' {
				return 0, newConfigError(fmt.Sprintf("ip %q: non-numeric character in octet %q", ip, o))
			}
		}
		v, err := strconv.Atoi(o)
		if err != nil || v < 0 || v > 255 {
			return 0, newConfigError(fmt.Sprintf("ip %q: octet %q out of [0,255]", ip, o))
		}
		out = out<<8 | uint32(v)
	}
	return out, nil
}
