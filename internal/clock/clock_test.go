package clock

import "testing"

func TestInitReturnsWallClock(t *testing.T) {
	w, err := Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if w == nil {
		t.Fatal("Init returned nil clock")
	}
}

func TestNowNsMonotonicNonDecreasing(t *testing.T) {
	w, err := Init()
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	prev := w.NowNs()
	for i := 0; i < 1000; i++ {
		now := w.NowNs()
		if now < prev {
			t.Fatalf("NowNs decreased: %d -> %d", prev, now)
		}
		prev = now
	}
}

func TestDefaultAfterInit(t *testing.T) {
	if _, err := Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if Default() == nil {
		t.Fatal("Default returned nil after successful Init")
	}
}
