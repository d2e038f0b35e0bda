package fsw

import (
	"testing"
	"time"

	"github.com/flightos/fsw/internal/clock"
	"github.com/flightos/fsw/internal/clocksync"
	"github.com/flightos/fsw/internal/cmdhandler"
	"github.com/flightos/fsw/internal/datavector"
	"github.com/flightos/fsw/internal/elements"
	"github.com/flightos/fsw/internal/netmgr"
	"github.com/flightos/fsw/internal/statemachine"
)

func init() {
	if _, err := clock.Init(); err != nil {
		panic(err)
	}
}

func testDvConfig() datavector.Config {
	return datavector.Config{
		Regions: []datavector.RegionConfig{
			{
				ID: elements.RegionCN,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemState, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemCNLoopCount, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemCNErrorCount, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemCNTimeNs, Type: elements.TypeU64, InitialBits: 0},
					{ID: elements.ElemMsgTxCount, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemMsgRxCount, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemDN0RxMissCount, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemDN1RxMissCount, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemDN2RxMissCount, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemCmd, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemCmdProcessedSeq, Type: elements.TypeU32, InitialBits: 0},
				},
			},
			{
				ID: elements.RegionCNtoDN0,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemDN0Cmd, Type: elements.TypeU32, InitialBits: 0},
				},
			},
			{
				ID: elements.RegionCNtoDN1,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemDN1Cmd, Type: elements.TypeU32, InitialBits: 0},
				},
			},
			{
				ID: elements.RegionCNtoDN2,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemDN2Cmd, Type: elements.TypeU32, InitialBits: 0},
				},
			},
			{
				ID: elements.RegionDN0toCN,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemDN0Status, Type: elements.TypeU32, InitialBits: 0},
				},
			},
			{
				ID: elements.RegionDN1toCN,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemDN1Status, Type: elements.TypeU32, InitialBits: 0},
				},
			},
			{
				ID: elements.RegionDN2toCN,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemDN2Status, Type: elements.TypeU32, InitialBits: 0},
				},
			},
			{
				ID: elements.RegionGroundToCN,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemCmdReq, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemCmdReqSeq, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemCmdWriteElem, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemCmdWriteVal, Type: elements.TypeU64, InitialBits: 0},
				},
			},
		},
	}
}

func testDvConfigMissingRequired() datavector.Config {
	cfg := testDvConfig()
	cfg.Regions = cfg.Regions[1:] // drop RegionCN, which carries ElemState etc.
	return cfg
}

// loopbackNmConfig assigns each node a distinct loopback address (so one
// test process can bind a socket per node) and wires the four channels
// ControlNode requires.
func loopbackNmConfig(me elements.Node, basePort uint16) netmgr.Config {
	return netmgr.Config{
		NodeToIP: map[elements.Node]string{
			elements.NodeControl: "127.0.0.1",
			elements.NodeDevice0: "127.0.0.2",
			elements.NodeDevice1: "127.0.0.3",
			elements.NodeDevice2: "127.0.0.4",
			elements.NodeGround:  "127.0.0.5",
		},
		Channels: []netmgr.ChannelConfig{
			{Node1: elements.NodeControl, Node2: elements.NodeDevice0, Port: basePort},
			{Node1: elements.NodeControl, Node2: elements.NodeDevice1, Port: basePort + 1},
			{Node1: elements.NodeControl, Node2: elements.NodeDevice2, Port: basePort + 2},
			{Node1: elements.NodeControl, Node2: elements.NodeGround, Port: basePort + 3},
		},
		Me:            me,
		TxCounterElem: elements.ElemMsgTxCount,
		RxCounterElem: elements.ElemMsgRxCount,
		DisableNoop:   true,
	}
}

func testChConfig() cmdhandler.Config {
	return cmdhandler.Config{
		ReqElem:          elements.ElemCmdReq,
		ReqSeqElem:       elements.ElemCmdReqSeq,
		WriteElemElem:    elements.ElemCmdWriteElem,
		WriteValElem:     elements.ElemCmdWriteVal,
		CmdElem:          elements.ElemCmd,
		ProcessedSeqElem: elements.ElemCmdProcessedSeq,
	}
}

func testSmConfig() statemachine.Config {
	return statemachine.Config{
		States: []statemachine.State{
			{ID: 1},
		},
		StateElem:    elements.ElemState,
		InitialState: 1,
	}
}

func TestNewRejectsIncompleteNmConfig(t *testing.T) {
	nmCfg := loopbackNmConfig(elements.NodeControl, 2210)
	nmCfg.Channels = nmCfg.Channels[:2] // drop the DEVICE2 and GROUND channels

	_, err := New(Params{
		NmConfig: nmCfg,
		DvConfig: testDvConfig(),
		ChConfig: testChConfig(),
		SmConfig: testSmConfig(),
	})
	if err == nil {
		t.Fatal("expected error for a Network Manager config missing required channels")
	}
}

func TestNewRejectsIncompleteDvConfig(t *testing.T) {
	_, err := New(Params{
		NmConfig: loopbackNmConfig(elements.NodeControl, 2214),
		DvConfig: testDvConfigMissingRequired(),
		ChConfig: testChConfig(),
		SmConfig: testSmConfig(),
	})
	if err == nil {
		t.Fatal("expected error for a Data Vector config missing required elements")
	}
}

// simulatedPeer stands in for one peer node: a real Network Manager bound
// on that node's loopback address. It only answers what the test drives
// through it (the device peers' clock-sync handshake); it never replies to
// the CN's loop-tick broadcast.
type simulatedPeer struct {
	nm   *netmgr.Manager
	self elements.Node
}

func newSimulatedPeer(t *testing.T, self elements.Node, basePort uint16) *simulatedPeer {
	t.Helper()
	dv, err := datavector.New(testDvConfig())
	if err != nil {
		t.Fatalf("peer dv failed: %v", err)
	}
	nm, err := netmgr.New(loopbackNmConfig(self, basePort), dv)
	if err != nil {
		t.Fatalf("peer netmgr failed: %v", err)
	}
	return &simulatedPeer{nm: nm, self: self}
}

// TestBootAndOneLoopTick exercises the full boot sequence over real
// loopback sockets, with one simulated peer per device node and ground,
// then runs a single manual loop tick and asserts the loop counter and
// error counter moved as expected.
func TestBootAndOneLoopTick(t *testing.T) {
	const basePort = 2220

	dn0 := newSimulatedPeer(t, elements.NodeDevice0, basePort)
	dn1 := newSimulatedPeer(t, elements.NodeDevice1, basePort)
	dn2 := newSimulatedPeer(t, elements.NodeDevice2, basePort)
	ground := newSimulatedPeer(t, elements.NodeGround, basePort)
	defer dn0.nm.Close()
	defer dn1.nm.Close()
	defer dn2.nm.Close()
	defer ground.nm.Close()

	syncDone := make(chan error, 3)
	for _, peer := range []*simulatedPeer{dn0, dn1, dn2} {
		p := peer
		go func() {
			syncDone <- clocksync.SyncClient(p.nm, elements.NodeControl)
		}()
	}

	observer := NewFakeObserver()
	ctrl := &FakeController{}

	cn, err := New(Params{
		NmConfig:           loopbackNmConfig(elements.NodeControl, basePort),
		DvConfig:           testDvConfig(),
		ChConfig:           testChConfig(),
		SmConfig:           testSmConfig(),
		ClockSyncTimeoutNs: uint64(2 * time.Second),
		Observer:           observer,
		InitControllers: func(dv *datavector.DataVector) ([]Runner, error) {
			return []Runner{ctrl}, nil
		},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer cn.Close()

	for i := 0; i < 3; i++ {
		if err := <-syncDone; err != nil {
			t.Fatalf("device clock sync failed: %v", err)
		}
	}

	loopCountBefore, _ := datavector.Read[uint32](cn.dv, elements.ElemCNLoopCount)
	errCountBefore, _ := datavector.Read[uint32](cn.dv, elements.ElemCNErrorCount)

	if err := cn.step(); err != nil {
		t.Fatalf("step returned an error, which should never happen: %v", err)
	}

	loopCountAfter, _ := datavector.Read[uint32](cn.dv, elements.ElemCNLoopCount)
	if loopCountAfter != loopCountBefore+1 {
		t.Errorf("expected loop count to advance by 1, got %d -> %d", loopCountBefore, loopCountAfter)
	}
	errCountAfter, _ := datavector.Read[uint32](cn.dv, elements.ElemCNErrorCount)
	if errCountAfter != errCountBefore {
		t.Errorf("expected error count unchanged by a clean tick, got %d -> %d", errCountBefore, errCountAfter)
	}
	if calls := ctrl.Calls(); calls != 1 {
		t.Errorf("expected the controller to run exactly once, got %d", calls)
	}
	if observer.LoopCalls != 1 {
		t.Errorf("expected exactly one ObserveLoop call, got %d", observer.LoopCalls)
	}
}
