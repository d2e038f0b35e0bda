package datavector

import (
	"sync"
	"testing"

	"github.com/flightos/fsw/internal/elements"
)

func singleRegionConfig() Config {
	return Config{
		Regions: []RegionConfig{
			{
				ID: elements.RegionCN,
				Elements: []ElementConfig{
					{ID: elements.ElemState, Type: elements.TypeU8, InitialBits: 0},
					{ID: elements.ElemCNErrorCount, Type: elements.TypeBool, InitialBits: 1},
				},
			},
		},
	}
}

// TestS1TypedAccess mirrors the literal DV typed-access scenario: a single
// region with a u8 and a bool element, reading back the initial value,
// writing, and observing a type mismatch on a cross-type read.
func TestS1TypedAccess(t *testing.T) {
	cfg := Config{
		Regions: []RegionConfig{
			{
				ID: elements.RegionCN,
				Elements: []ElementConfig{
					{ID: elements.ElemCNLoopCount, Type: elements.TypeU8, InitialBits: 0},
					{ID: elements.ElemCNErrorCount, Type: elements.TypeBool, InitialBits: 1},
				},
			},
		},
	}

	dv, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	got, err := Read[uint8](dv, elements.ElemCNLoopCount)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != 0 {
		t.Errorf("expected initial value 0, got %d", got)
	}

	if err := Write[uint8](dv, elements.ElemCNLoopCount, 7); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err = Read[uint8](dv, elements.ElemCNLoopCount)
	if err != nil {
		t.Fatalf("Read after write failed: %v", err)
	}
	if got != 7 {
		t.Errorf("expected 7 after write, got %d", got)
	}

	if _, err := Read[bool](dv, elements.ElemCNLoopCount); err == nil {
		t.Error("expected TypeMismatch reading a u8 element as bool")
	}
}

// TestS2RegionSnapshot mirrors the literal region-size scenario.
func TestS2RegionSnapshot(t *testing.T) {
	cfg := Config{
		Regions: []RegionConfig{
			{
				ID: elements.RegionCN,
				Elements: []ElementConfig{
					{ID: elements.ElemCNLoopCount, Type: elements.TypeU8, InitialBits: 0},
					{ID: elements.ElemCNErrorCount, Type: elements.TypeBool, InitialBits: 0},
				},
			},
			{
				ID: elements.RegionCNtoDN0,
				Elements: []ElementConfig{
					{ID: elements.ElemCNTimeNs, Type: elements.TypeF32, InitialBits: 0},
				},
			},
		},
	}

	dv, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	r0Size, err := dv.RegionSizeBytes(elements.RegionCN)
	if err != nil || r0Size != 2 {
		t.Errorf("expected region CN size 2, got %d (err=%v)", r0Size, err)
	}
	r1Size, err := dv.RegionSizeBytes(elements.RegionCNtoDN0)
	if err != nil || r1Size != 4 {
		t.Errorf("expected region CN_TO_DN0 size 4, got %d (err=%v)", r1Size, err)
	}
	if dv.TotalSizeBytes() != 6 {
		t.Errorf("expected total size 6, got %d", dv.TotalSizeBytes())
	}

	all := make([]byte, dv.TotalSizeBytes())
	if err := dv.ReadAll(all); err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
}

func TestNewRejectsEmptyConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error constructing a Data Vector from an empty config")
	}
}

func TestNewRejectsDuplicateRegion(t *testing.T) {
	cfg := Config{
		Regions: []RegionConfig{
			{ID: elements.RegionCN, Elements: []ElementConfig{{ID: elements.ElemState, Type: elements.TypeU8}}},
			{ID: elements.RegionCN, Elements: []ElementConfig{{ID: elements.ElemCNLoopCount, Type: elements.TypeU8}}},
		},
	}
	if _, err := New(cfg); err == nil {
		t.Error("expected error constructing a Data Vector with a duplicate region id")
	}
}

func TestNewRejectsDuplicateElem(t *testing.T) {
	cfg := Config{
		Regions: []RegionConfig{
			{
				ID: elements.RegionCN,
				Elements: []ElementConfig{
					{ID: elements.ElemState, Type: elements.TypeU8},
				},
			},
			{
				ID: elements.RegionCNtoDN0,
				Elements: []ElementConfig{
					{ID: elements.ElemState, Type: elements.TypeU8},
				},
			},
		},
	}
	if _, err := New(cfg); err == nil {
		t.Error("expected error constructing a Data Vector with a duplicate elem id across regions")
	}
}

func TestNewRejectsEmptyElementList(t *testing.T) {
	cfg := Config{Regions: []RegionConfig{{ID: elements.RegionCN, Elements: nil}}}
	if _, err := New(cfg); err == nil {
		t.Error("expected error constructing a Data Vector with an empty element list")
	}
}

func TestRegionRoundTrip(t *testing.T) {
	dv, err := New(singleRegionConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	size, _ := dv.RegionSizeBytes(elements.RegionCN)
	buf := make([]byte, size)
	if err := dv.ReadRegion(elements.RegionCN, buf); err != nil {
		t.Fatalf("ReadRegion failed: %v", err)
	}
	if err := dv.WriteRegion(elements.RegionCN, buf); err != nil {
		t.Fatalf("WriteRegion failed: %v", err)
	}

	after := make([]byte, size)
	if err := dv.ReadRegion(elements.RegionCN, after); err != nil {
		t.Fatalf("ReadRegion after write failed: %v", err)
	}
	for i := range buf {
		if buf[i] != after[i] {
			t.Fatalf("round-tripping region left DV bitwise changed at byte %d", i)
		}
	}
}

func TestSizeMismatch(t *testing.T) {
	dv, err := New(singleRegionConfig())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := dv.ReadRegion(elements.RegionCN, make([]byte, 99)); err == nil {
		t.Error("expected SizeMismatch for a wrong-sized buffer")
	}
}

func TestIncrementWraps(t *testing.T) {
	cfg := Config{
		Regions: []RegionConfig{
			{
				ID: elements.RegionCN,
				Elements: []ElementConfig{
					{ID: elements.ElemCNLoopCount, Type: elements.TypeU8, InitialBits: 255},
				},
			},
		},
	}
	dv, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := dv.Increment(elements.ElemCNLoopCount); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	got, err := Read[uint8](dv, elements.ElemCNLoopCount)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got != 0 {
		t.Errorf("expected counter to wrap to 0, got %d", got)
	}
}

func TestLockReentrancyFailsFast(t *testing.T) {
	dv, _ := New(singleRegionConfig())
	if err := dv.Lock(); err != nil {
		t.Fatalf("first Lock failed: %v", err)
	}
	defer dv.Unlock()

	if err := dv.Lock(); err == nil {
		t.Error("expected re-entrant Lock from the same goroutine to fail")
	}
}

func TestUnlockByNonHolderFails(t *testing.T) {
	dv, _ := New(singleRegionConfig())
	if err := dv.Unlock(); err == nil {
		t.Error("expected Unlock without a prior Lock to fail")
	}
}

func TestConcurrentDisjointElementAccess(t *testing.T) {
	cfg := Config{
		Regions: []RegionConfig{
			{
				ID: elements.RegionCN,
				Elements: []ElementConfig{
					{ID: elements.ElemCNLoopCount, Type: elements.TypeU32, InitialBits: 0},
					{ID: elements.ElemCNErrorCount, Type: elements.TypeU32, InitialBits: 0},
				},
			},
		},
	}
	dv, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = Write[uint32](dv, elements.ElemCNLoopCount, 1)
		}()
		go func() {
			defer wg.Done()
			_, _ = Read[uint32](dv, elements.ElemCNErrorCount)
		}()
	}
	wg.Wait()

	got, err := Read[uint32](dv, elements.ElemCNLoopCount)
	if err != nil {
		t.Fatalf("final Read failed: %v", err)
	}
	if got != 1 {
		t.Errorf("expected 1 after concurrent writes of the same value, got %d", got)
	}
}

func TestElementExists(t *testing.T) {
	dv, _ := New(singleRegionConfig())
	if !dv.ElementExists(elements.ElemState) {
		t.Error("expected ElemState to exist")
	}
	if dv.ElementExists(elements.ElemCmd) {
		t.Error("expected ElemCmd to not exist in this config")
	}
}
