package cmdhandler

import (
	"testing"

	"github.com/flightos/fsw/internal/datavector"
	"github.com/flightos/fsw/internal/elements"
)

func testConfig() Config {
	return Config{
		ReqElem:          elements.ElemCmdReq,
		ReqSeqElem:       elements.ElemCmdReqSeq,
		WriteElemElem:    elements.ElemCmdWriteElem,
		WriteValElem:     elements.ElemCmdWriteVal,
		CmdElem:          elements.ElemCmd,
		ProcessedSeqElem: elements.ElemCmdProcessedSeq,
	}
}

func testDV(t *testing.T) *datavector.DataVector {
	t.Helper()
	dv, err := datavector.New(datavector.Config{
		Regions: []datavector.RegionConfig{
			{
				ID: elements.RegionCN,
				Elements: []datavector.ElementConfig{
					{ID: elements.ElemCmdReq, Type: elements.TypeU32},
					{ID: elements.ElemCmdReqSeq, Type: elements.TypeU32},
					{ID: elements.ElemCmdWriteElem, Type: elements.TypeU32},
					{ID: elements.ElemCmdWriteVal, Type: elements.TypeU64},
					{ID: elements.ElemCmd, Type: elements.TypeU32},
					{ID: elements.ElemCmdProcessedSeq, Type: elements.TypeU32},
					{ID: elements.ElemCNLoopCount, Type: elements.TypeU32},
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("building dv failed: %v", err)
	}
	return dv
}

// TestS5CommandAccepted mirrors the literal command-ingestion scenario: a
// new sequence number causes the request to be published and the
// processed-sequence counter to advance.
func TestS5CommandAccepted(t *testing.T) {
	dv := testDV(t)
	h := New(testConfig())

	if err := datavector.Write[uint32](dv, elements.ElemCmdReq, 7); err != nil {
		t.Fatalf("Write ReqElem failed: %v", err)
	}
	if err := datavector.Write[uint32](dv, elements.ElemCmdReqSeq, 1); err != nil {
		t.Fatalf("Write ReqSeqElem failed: %v", err)
	}

	if err := h.Step(dv); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	cmd, err := datavector.Read[uint32](dv, elements.ElemCmd)
	if err != nil || cmd != 7 {
		t.Errorf("expected published cmd 7, got %d (err=%v)", cmd, err)
	}
	processed, err := datavector.Read[uint32](dv, elements.ElemCmdProcessedSeq)
	if err != nil || processed != 1 {
		t.Errorf("expected processed seq 1, got %d (err=%v)", processed, err)
	}
}

func TestReplaySeqIsNoOp(t *testing.T) {
	dv := testDV(t)
	h := New(testConfig())

	datavector.Write[uint32](dv, elements.ElemCmdReq, 7)
	datavector.Write[uint32](dv, elements.ElemCmdReqSeq, 1)
	if err := h.Step(dv); err != nil {
		t.Fatalf("first Step failed: %v", err)
	}

	// Change cmd_req without bumping the sequence: a replay of the same
	// seq must not re-publish.
	datavector.Write[uint32](dv, elements.ElemCmdReq, 99)
	if err := h.Step(dv); err != nil {
		t.Fatalf("second Step failed: %v", err)
	}

	cmd, _ := datavector.Read[uint32](dv, elements.ElemCmd)
	if cmd != 7 {
		t.Errorf("expected replay to leave published cmd at 7, got %d", cmd)
	}
}

func TestWriteCommandAppliesSideWrite(t *testing.T) {
	dv := testDV(t)
	h := New(testConfig())

	datavector.Write[uint32](dv, elements.ElemCmdReq, CmdWrite)
	datavector.Write[uint32](dv, elements.ElemCmdReqSeq, 1)
	datavector.Write[uint32](dv, elements.ElemCmdWriteElem, uint32(elements.ElemCNLoopCount))
	datavector.Write[uint64](dv, elements.ElemCmdWriteVal, 42)

	if err := h.Step(dv); err != nil {
		t.Fatalf("Step failed: %v", err)
	}

	got, err := datavector.Read[uint32](dv, elements.ElemCNLoopCount)
	if err != nil || got != 42 {
		t.Errorf("expected side-write to set loop count to 42, got %d (err=%v)", got, err)
	}
}

func TestSecondDistinctSeqAppliesAgain(t *testing.T) {
	dv := testDV(t)
	h := New(testConfig())

	datavector.Write[uint32](dv, elements.ElemCmdReq, 3)
	datavector.Write[uint32](dv, elements.ElemCmdReqSeq, 1)
	if err := h.Step(dv); err != nil {
		t.Fatalf("first Step failed: %v", err)
	}

	datavector.Write[uint32](dv, elements.ElemCmdReq, 2)
	datavector.Write[uint32](dv, elements.ElemCmdReqSeq, 2)
	if err := h.Step(dv); err != nil {
		t.Fatalf("second Step failed: %v", err)
	}

	cmd, _ := datavector.Read[uint32](dv, elements.ElemCmd)
	if cmd != 2 {
		t.Errorf("expected second distinct seq to publish cmd 2, got %d", cmd)
	}
}
