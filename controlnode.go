package fsw

import (
	"fmt"

	"github.com/flightos/fsw/internal/clock"
	"github.com/flightos/fsw/internal/clocksync"
	"github.com/flightos/fsw/internal/cmdhandler"
	"github.com/flightos/fsw/internal/constants"
	"github.com/flightos/fsw/internal/datavector"
	"github.com/flightos/fsw/internal/elements"
	"github.com/flightos/fsw/internal/interfaces"
	"github.com/flightos/fsw/internal/netmgr"
	"github.com/flightos/fsw/internal/statemachine"
	"github.com/flightos/fsw/internal/threadmgr"
)

// Runner is the behavior a controller contributes to the loop: a single
// non-blocking step. Every *controller.Controller[C] satisfies this, for
// any capability C, without ControlNode needing to know C.
type Runner interface {
	Run() error
}

// requiredRegions and requiredElements mirror ControlNode.cpp's
// verifyDvConfig: the fixed set every deployment's Data Vector config must
// contain, regardless of what domain-specific elements a build adds.
var requiredRegions = []elements.Region{
	elements.RegionCN,
	elements.RegionCNtoDN0,
	elements.RegionCNtoDN1,
	elements.RegionCNtoDN2,
	elements.RegionDN0toCN,
	elements.RegionDN1toCN,
	elements.RegionDN2toCN,
	elements.RegionGroundToCN,
}

var requiredElements = []elements.Elem{
	elements.ElemState,
	elements.ElemCNLoopCount,
	elements.ElemCNErrorCount,
	elements.ElemDN0RxMissCount,
	elements.ElemDN1RxMissCount,
	elements.ElemDN2RxMissCount,
	elements.ElemCNTimeNs,
}

// requiredChannelPairs mirrors verifyNmConfig: a channel to every device
// node and to ground is mandatory.
var requiredChannelPairs = [][2]elements.Node{
	{elements.NodeControl, elements.NodeDevice0},
	{elements.NodeControl, elements.NodeDevice1},
	{elements.NodeControl, elements.NodeDevice2},
	{elements.NodeControl, elements.NodeGround},
}

// Params is everything a ControlNode needs at process start. There is no
// file format — every field is a Go struct literal built by the process
// entry point.
type Params struct {
	NmConfig netmgr.Config
	DvConfig datavector.Config
	ChConfig cmdhandler.Config
	SmConfig statemachine.Config

	// ClockSyncTimeoutNs bounds the boot-time handshake; see internal/clocksync.
	ClockSyncTimeoutNs uint64

	// InitControllers builds every domain controller against the
	// constructed Data Vector, mirroring fInitializeControllers_t.
	InitControllers func(dv *datavector.DataVector) ([]Runner, error)

	// Observer optionally receives loop/send/recv/deadline-miss events. A
	// MetricsObserver backed by a fresh LoopMetrics is installed if nil.
	Observer interfaces.Observer
}

// ControlNode owns every subsystem and the per-tick scratch buffers used to
// shuttle Data Vector regions over the network each loop iteration.
// Grounded line for line on original_source/fsw/src/ControlNode.cpp's
// file-scope globals, entry(), and loop().
type ControlNode struct {
	dv  *datavector.DataVector
	nm  *netmgr.Manager
	ch  *cmdhandler.Handler
	sm  *statemachine.Machine
	tm  *threadmgr.Manager
	clk *clock.Wall

	controllers []Runner
	observer    interfaces.Observer
	metrics     *LoopMetrics

	recvNodes       []elements.Node
	recvRegions     map[elements.Node]elements.Region
	missCounterElem map[elements.Node]elements.Elem

	cnToDn0Buf []byte
	cnToDn1Buf []byte
	cnToDn2Buf []byte
	cnToGndBuf []byte
	recvBufs   map[elements.Node][]byte

	errorCounterElem elements.Elem
	loopCounterElem  elements.Elem
	timeElem         elements.Elem
}

// New runs the full boot sequence: verify topology, bring up the Thread
// Manager, Data Vector, Network Manager, clock sync, Command Handler,
// controllers, and the State Machine, in that order — mirroring
// ControlNode::entry's numbered steps. Any failure here is terminal; the
// caller (cmd/controlnode/main.go) treats a non-nil error as fatal.
func New(p Params) (*ControlNode, error) {
	if err := verifyNmConfig(p.NmConfig); err != nil {
		return nil, WrapError("ControlNode.New", err)
	}
	if err := verifyDvConfig(p.DvConfig); err != nil {
		return nil, WrapError("ControlNode.New", err)
	}

	// Init the Thread Manager first so the real-time scheduling
	// environment is established before anything else runs.
	tm := threadmgr.New()

	dv, err := datavector.New(p.DvConfig)
	if err != nil {
		return nil, WrapError("ControlNode.New", err)
	}

	cn := &ControlNode{
		dv:        dv,
		tm:        tm,
		metrics:   NewLoopMetrics(),
		recvNodes: []elements.Node{elements.NodeDevice0, elements.NodeDevice1, elements.NodeDevice2, elements.NodeGround},
		recvRegions: map[elements.Node]elements.Region{
			elements.NodeDevice0: elements.RegionDN0toCN,
			elements.NodeDevice1: elements.RegionDN1toCN,
			elements.NodeDevice2: elements.RegionDN2toCN,
			elements.NodeGround:  elements.RegionGroundToCN,
		},
		missCounterElem: map[elements.Node]elements.Elem{
			elements.NodeDevice0: elements.ElemDN0RxMissCount,
			elements.NodeDevice1: elements.ElemDN1RxMissCount,
			elements.NodeDevice2: elements.ElemDN2RxMissCount,
		},
		errorCounterElem: elements.ElemCNErrorCount,
		loopCounterElem:  elements.ElemCNLoopCount,
		timeElem:         elements.ElemCNTimeNs,
	}
	if p.Observer != nil {
		cn.observer = p.Observer
	} else {
		cn.observer = NewMetricsObserver(cn.metrics)
	}

	if err := cn.initBuffers(); err != nil {
		return nil, WrapError("ControlNode.New", err)
	}

	nm, err := netmgr.New(p.NmConfig, dv)
	if err != nil {
		return nil, WrapError("ControlNode.New", err)
	}
	cn.nm = nm

	// Synchronize device-node clocks. This must happen before Time is
	// initialized.
	if err := clocksync.SyncServer(nm, clocksync.Config{
		DeviceNodes: elements.DeviceNodes[:],
		TimeoutNs:   p.ClockSyncTimeoutNs,
	}); err != nil {
		nm.Close()
		return nil, WrapError("ControlNode.New", err)
	}

	cn.ch = cmdhandler.New(p.ChConfig)

	if p.InitControllers != nil {
		controllers, err := p.InitControllers(dv)
		if err != nil {
			nm.Close()
			return nil, WrapError("ControlNode.New", err)
		}
		cn.controllers = controllers
	}

	clk, err := clock.Init()
	if err != nil {
		nm.Close()
		return nil, WrapError("ControlNode.New", err)
	}
	cn.clk = clk

	nowNs := clk.NowNs()
	if err := datavector.Write[uint64](dv, cn.timeElem, nowNs); err != nil {
		nm.Close()
		return nil, WrapError("ControlNode.New", err)
	}

	// Initialize the State Machine last so the periodic loop begins right
	// after, which starts counting time-in-state from the same instant.
	sm, err := statemachine.New(p.SmConfig, dv, nowNs)
	if err != nil {
		nm.Close()
		return nil, WrapError("ControlNode.New", err)
	}
	cn.sm = sm

	return cn, nil
}

func (cn *ControlNode) initBuffers() error {
	dn0Size, err := cn.dv.RegionSizeBytes(elements.RegionCNtoDN0)
	if err != nil {
		return err
	}
	dn1Size, err := cn.dv.RegionSizeBytes(elements.RegionCNtoDN1)
	if err != nil {
		return err
	}
	dn2Size, err := cn.dv.RegionSizeBytes(elements.RegionCNtoDN2)
	if err != nil {
		return err
	}

	cn.cnToDn0Buf = make([]byte, dn0Size)
	cn.cnToDn1Buf = make([]byte, dn1Size)
	cn.cnToDn2Buf = make([]byte, dn2Size)
	cn.cnToGndBuf = make([]byte, cn.dv.TotalSizeBytes())

	cn.recvBufs = make(map[elements.Node][]byte, len(cn.recvNodes))
	for _, node := range cn.recvNodes {
		size, err := cn.dv.RegionSizeBytes(cn.recvRegions[node])
		if err != nil {
			return err
		}
		cn.recvBufs[node] = make([]byte, size)
	}
	return nil
}

func verifyNmConfig(cfg netmgr.Config) error {
	required := []elements.Node{elements.NodeControl, elements.NodeDevice0, elements.NodeDevice1, elements.NodeDevice2, elements.NodeGround}
	for _, node := range required {
		if _, ok := cfg.NodeToIP[node]; !ok {
			return NewError("verifyNmConfig", InvalidConfig, fmt.Sprintf("missing ip for required node %s", node))
		}
	}

	seen := make(map[[2]elements.Node]bool, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		seen[normalizedPair(ch.Node1, ch.Node2)] = true
	}
	for _, pair := range requiredChannelPairs {
		if !seen[normalizedPair(pair[0], pair[1])] {
			return NewError("verifyNmConfig", InvalidConfig, fmt.Sprintf("missing channel for (%s,%s)", pair[0], pair[1]))
		}
	}
	return nil
}

func normalizedPair(a, b elements.Node) [2]elements.Node {
	if a < b {
		return [2]elements.Node{a, b}
	}
	return [2]elements.Node{b, a}
}

func verifyDvConfig(cfg datavector.Config) error {
	seenRegions := make(map[elements.Region]bool)
	seenElems := make(map[elements.Elem]bool)
	for _, rc := range cfg.Regions {
		seenRegions[rc.ID] = true
		for _, ec := range rc.Elements {
			seenElems[ec.ID] = true
		}
	}
	for _, r := range requiredRegions {
		if !seenRegions[r] {
			return NewError("verifyDvConfig", InvalidConfig, fmt.Sprintf("missing required region %s", r))
		}
	}
	for _, e := range requiredElements {
		if !seenElems[e] {
			return NewError("verifyDvConfig", InvalidConfig, fmt.Sprintf("missing required element %s", e))
		}
	}
	return nil
}

// Run installs step as a periodic thread at the fixed loop period and
// priority, then blocks waiting on it. On success this call never
// returns: a loop thread returning cleanly is itself the unexpected
// condition the original platform treats as a process-exit failure.
func (cn *ControlNode) Run() error {
	handle, err := cn.tm.CreatePeriodicThread(cn.step, constants.ControlLoopPriority, threadmgr.Core0,
		constants.LoopPeriodNs, cn.onLoopError)
	if err != nil {
		return WrapError("ControlNode.Run", err)
	}
	if err := handle.Wait(); err != nil {
		return WrapError("ControlNode.Run", err)
	}
	return NewError("ControlNode.Run", InvalidConfig, "loop thread returned without error, which should never happen")
}

// Close releases the Network Manager's sockets.
func (cn *ControlNode) Close() {
	cn.nm.Close()
}

// Metrics returns a point-in-time snapshot of the loop's operational
// counters. They are fed only through the default MetricsObserver; when
// Params.Observer is set, that observer receives the events instead and
// these counters are not updated.
func (cn *ControlNode) Metrics() LoopMetricsSnapshot {
	return cn.metrics.Snapshot()
}

// onLoopError is the periodic thread's err_handler: it records a missed
// deadline as an error-counter increment and an observer event, then lets
// the thread exit (the default flight policy for any periodic-loop
// failure).
func (cn *ControlNode) onLoopError(err error) error {
	if threadmgr.ErrMissedDeadline(err) {
		cn.observer.ObserveMissedDeadline()
	}
	_ = cn.dv.Increment(cn.errorCounterElem)
	return err
}

// step is one control-loop iteration: send, receive, stamp time, process
// a ground command, step the State Machine, run every controller,
// increment the loop counter. Runtime failures inside a step are
// observational — they increment error_counter and the loop proceeds;
// step itself returns nil so the periodic dispatcher never treats an
// ordinary domain-level failure as a reason to exit.
func (cn *ControlNode) step() error {
	start := cn.clk.NowNs()
	hadError := false

	if err := cn.sendDataVectorData(); err != nil {
		cn.incrementError()
		hadError = true
	}

	if err := cn.recvDataVectorData(); err != nil {
		cn.incrementError()
		hadError = true
	}

	nowNs := cn.clk.NowNs()
	if err := datavector.Write[uint64](cn.dv, cn.timeElem, nowNs); err != nil {
		cn.incrementError()
		hadError = true
	}

	// The Command Handler must run before the State Machine, since some
	// transitions depend on a just-accepted ground command.
	if err := cn.ch.Step(cn.dv); err != nil {
		cn.incrementError()
		hadError = true
	}

	if err := cn.sm.Step(nowNs); err != nil {
		cn.incrementError()
		hadError = true
	}

	for _, ctrl := range cn.controllers {
		if err := ctrl.Run(); err != nil {
			cn.incrementError()
			hadError = true
		}
	}

	if err := cn.dv.Increment(cn.loopCounterElem); err != nil {
		cn.incrementError()
		hadError = true
	}

	cn.observer.ObserveLoop(cn.clk.NowNs()-start, !hadError)
	return nil
}

func (cn *ControlNode) incrementError() {
	_ = cn.dv.Increment(cn.errorCounterElem)
}

// sendDataVectorData copies the CN→DNx regions and the whole Data Vector
// (CN→GROUND) into their scratch buffers and sends each to its peer. This
// send doubles as the loop synchronizer: every device node begins its own
// loop on receiving this message.
func (cn *ControlNode) sendDataVectorData() error {
	if err := cn.dv.ReadRegion(elements.RegionCNtoDN0, cn.cnToDn0Buf); err != nil {
		return err
	}
	if err := cn.dv.ReadRegion(elements.RegionCNtoDN1, cn.cnToDn1Buf); err != nil {
		return err
	}
	if err := cn.dv.ReadRegion(elements.RegionCNtoDN2, cn.cnToDn2Buf); err != nil {
		return err
	}
	if err := cn.dv.ReadAll(cn.cnToGndBuf); err != nil {
		return err
	}

	sends := []struct {
		node elements.Node
		buf  []byte
	}{
		{elements.NodeDevice0, cn.cnToDn0Buf},
		{elements.NodeDevice1, cn.cnToDn1Buf},
		{elements.NodeDevice2, cn.cnToDn2Buf},
		{elements.NodeGround, cn.cnToGndBuf},
	}

	var firstErr error
	for _, s := range sends {
		err := cn.nm.Send(s.node, s.buf)
		cn.observer.ObserveSend(s.node.String(), uint64(len(s.buf)), err == nil)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// recvDataVectorData waits up to the comms budget for a datagram from
// each device node and ground, writing whatever arrived into the Data
// Vector and incrementing a per-device miss counter for any device node
// that stayed silent. Ground staying silent is expected absent a pending
// command, so it has no miss counter.
func (cn *ControlNode) recvDataVectorData() error {
	bufs := make([][]byte, len(cn.recvNodes))
	counts := make([]uint32, len(cn.recvNodes))
	for i, node := range cn.recvNodes {
		bufs[i] = cn.recvBufs[node]
	}

	if err := cn.nm.RecvMany(constants.CommsTimeoutNs, cn.recvNodes, bufs, counts); err != nil {
		return err
	}

	var firstErr error
	for i, node := range cn.recvNodes {
		received := counts[i] > 0
		cn.observer.ObserveRecv(node.String(), uint64(len(bufs[i])), received)

		if received {
			if err := cn.dv.WriteRegion(cn.recvRegions[node], bufs[i]); err != nil && firstErr == nil {
				firstErr = err
			}
			continue
		}

		if missElem, ok := cn.missCounterElem[node]; ok {
			if err := cn.dv.Increment(missElem); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
