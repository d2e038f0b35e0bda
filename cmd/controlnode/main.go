package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/flightos/fsw"
	"github.com/flightos/fsw/internal/cmdhandler"
	"github.com/flightos/fsw/internal/datavector"
	"github.com/flightos/fsw/internal/elements"
	"github.com/flightos/fsw/internal/logging"
	"github.com/flightos/fsw/internal/netmgr"
	"github.com/flightos/fsw/internal/statemachine"
)

func main() {
	var (
		controlIP = flag.String("control-ip", "127.0.0.1", "this node's own IP address")
		dn0IP     = flag.String("dn0-ip", "127.0.0.2", "DEVICE0's IP address")
		dn1IP     = flag.String("dn1-ip", "127.0.0.3", "DEVICE1's IP address")
		dn2IP     = flag.String("dn2-ip", "127.0.0.4", "DEVICE2's IP address")
		groundIP  = flag.String("ground-ip", "127.0.0.5", "GROUND's IP address")
		basePort  = flag.Int("base-port", 2200, "first of four consecutive channel ports (DN0, DN1, DN2, GROUND)")
		syncMs    = flag.Int("clock-sync-timeout-ms", 2000, "how long to wait at boot for every device node's clock-sync reply")
		verbose   = flag.Bool("v", false, "verbose (debug-level) logging")
	)
	flag.Parse()

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	nmConfig := netmgr.Config{
		NodeToIP: map[elements.Node]string{
			elements.NodeControl: *controlIP,
			elements.NodeDevice0: *dn0IP,
			elements.NodeDevice1: *dn1IP,
			elements.NodeDevice2: *dn2IP,
			elements.NodeGround:  *groundIP,
		},
		Channels: []netmgr.ChannelConfig{
			{Node1: elements.NodeControl, Node2: elements.NodeDevice0, Port: uint16(*basePort)},
			{Node1: elements.NodeControl, Node2: elements.NodeDevice1, Port: uint16(*basePort + 1)},
			{Node1: elements.NodeControl, Node2: elements.NodeDevice2, Port: uint16(*basePort + 2)},
			{Node1: elements.NodeControl, Node2: elements.NodeGround, Port: uint16(*basePort + 3)},
		},
		Me:            elements.NodeControl,
		TxCounterElem: elements.ElemMsgTxCount,
		RxCounterElem: elements.ElemMsgRxCount,
	}

	params := fsw.Params{
		NmConfig:           nmConfig,
		DvConfig:           defaultDvConfig(),
		ChConfig:           defaultChConfig(),
		SmConfig:           defaultSmConfig(),
		ClockSyncTimeoutNs: uint64(*syncMs) * uint64(time.Millisecond),
		// Mission-specific controllers (attitude, propulsion, telemetry,
		// ...) are wired by a downstream build that imports this package's
		// fsw.New and supplies its own InitControllers; the generic runtime
		// entry point here boots with none.
	}

	logger.Info("booting control node",
		"control_ip", *controlIP, "dn0_ip", *dn0IP, "dn1_ip", *dn1IP, "dn2_ip", *dn2IP, "ground_ip", *groundIP,
		"base_port", *basePort, "clock_sync_timeout_ms", *syncMs)

	cn, err := fsw.New(params)
	if err != nil {
		logger.Error("boot failed", "error", err)
		os.Exit(1)
	}
	defer cn.Close()

	logger.Info("boot complete, entering control loop")

	stackDumpCh := make(chan os.Signal, 1)
	signal.Notify(stackDumpCh, syscall.SIGUSR1)
	go func() {
		for range stackDumpCh {
			buf := make([]byte, 1024*1024)
			n := runtime.Stack(buf, true)
			fmt.Fprintf(os.Stderr, "\n=== GOROUTINE STACK DUMP ===\n%s\n=== END ===\n\n", buf[:n])

			filename := fmt.Sprintf("fsw-stacks-%d.txt", time.Now().Unix())
			if f, err := os.Create(filename); err == nil {
				fmt.Fprintf(f, "Goroutine stack dump, pid %d\n\n", os.Getpid())
				f.Write(buf[:n])
				fmt.Fprintf(f, "\n\n=== GOROUTINE PROFILE ===\n")
				pprof.Lookup("goroutine").WriteTo(f, 2)
				f.Close()
				logger.Info("stack trace written to file", "file", filename)
			}
		}
	}()

	// The control loop is a hard-real-time periodic thread with no
	// graceful-stop path: a SIGINT/SIGTERM here can only end the process,
	// the same way pulling power on an embedded flight computer would.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runErr := make(chan error, 1)
	go func() { runErr <- cn.Run() }()

	select {
	case <-sigCh:
		logger.Info("received shutdown signal")
		cn.Close()
		os.Exit(0)
	case err := <-runErr:
		logger.Error("control loop exited", "error", err)
		os.Exit(1)
	}
}

func defaultDvConfig() datavector.Config {
	return datavector.Config{
		Regions: []datavector.RegionConfig{
			{
				ID: elements.RegionCN,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemState, Type: elements.TypeU32},
					{ID: elements.ElemCNLoopCount, Type: elements.TypeU32},
					{ID: elements.ElemCNErrorCount, Type: elements.TypeU32},
					{ID: elements.ElemCNTimeNs, Type: elements.TypeU64},
					{ID: elements.ElemMsgTxCount, Type: elements.TypeU32},
					{ID: elements.ElemMsgRxCount, Type: elements.TypeU32},
					{ID: elements.ElemDN0RxMissCount, Type: elements.TypeU32},
					{ID: elements.ElemDN1RxMissCount, Type: elements.TypeU32},
					{ID: elements.ElemDN2RxMissCount, Type: elements.TypeU32},
					{ID: elements.ElemCmd, Type: elements.TypeU32},
					{ID: elements.ElemCmdProcessedSeq, Type: elements.TypeU32},
				},
			},
			{ID: elements.RegionCNtoDN0, Elements: []datavector.ElementConfig{{ID: elements.ElemDN0Cmd, Type: elements.TypeU32}}},
			{ID: elements.RegionCNtoDN1, Elements: []datavector.ElementConfig{{ID: elements.ElemDN1Cmd, Type: elements.TypeU32}}},
			{ID: elements.RegionCNtoDN2, Elements: []datavector.ElementConfig{{ID: elements.ElemDN2Cmd, Type: elements.TypeU32}}},
			{ID: elements.RegionDN0toCN, Elements: []datavector.ElementConfig{{ID: elements.ElemDN0Status, Type: elements.TypeU32}}},
			{ID: elements.RegionDN1toCN, Elements: []datavector.ElementConfig{{ID: elements.ElemDN1Status, Type: elements.TypeU32}}},
			{ID: elements.RegionDN2toCN, Elements: []datavector.ElementConfig{{ID: elements.ElemDN2Status, Type: elements.TypeU32}}},
			{
				ID: elements.RegionGroundToCN,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemCmdReq, Type: elements.TypeU32},
					{ID: elements.ElemCmdReqSeq, Type: elements.TypeU32},
					{ID: elements.ElemCmdWriteElem, Type: elements.TypeU32},
					{ID: elements.ElemCmdWriteVal, Type: elements.TypeU64},
				},
			},
		},
	}
}

func defaultChConfig() cmdhandler.Config {
	return cmdhandler.Config{
		ReqElem:          elements.ElemCmdReq,
		ReqSeqElem:       elements.ElemCmdReqSeq,
		WriteElemElem:    elements.ElemCmdWriteElem,
		WriteValElem:     elements.ElemCmdWriteVal,
		CmdElem:          elements.ElemCmd,
		ProcessedSeqElem: elements.ElemCmdProcessedSeq,
	}
}

func defaultSmConfig() statemachine.Config {
	return statemachine.Config{
		States:       []statemachine.State{{ID: 1}},
		StateElem:    elements.ElemState,
		InitialState: 1,
	}
}
