package wire

import (
	"testing"

	"github.com/flightos/fsw/internal/elements"
)

func TestPutBitsRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  elements.Type
		bits uint64
	}{
		{"u8", elements.TypeU8, 0x7F},
		{"u16", elements.TypeU16, 0xBEEF},
		{"u32", elements.TypeU32, 0xDEADBEEF},
		{"u64", elements.TypeU64, 0x0102030405060708},
		{"bool true", elements.TypeBool, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, tt.typ.Width())
			if err := PutBits(buf, tt.typ, tt.bits); err != nil {
				t.Fatalf("PutBits failed: %v", err)
			}
			got, err := Bits(buf, tt.typ)
			if err != nil {
				t.Fatalf("Bits failed: %v", err)
			}
			if got != tt.bits {
				t.Errorf("round trip mismatch: got %#x, want %#x", got, tt.bits)
			}
		})
	}
}

func TestPutBitsInsufficientBuffer(t *testing.T) {
	buf := make([]byte, 1)
	err := PutBits(buf, elements.TypeU32, 1)
	if err == nil {
		t.Fatal("expected error writing u32 into a 1-byte buffer")
	}
}

func TestBitsInsufficientBuffer(t *testing.T) {
	buf := make([]byte, 1)
	_, err := Bits(buf, elements.TypeU64)
	if err == nil {
		t.Fatal("expected error reading u64 from a 1-byte buffer")
	}
}

func TestFloat32BitsRoundTrip(t *testing.T) {
	v := float32(1.23)
	bits := BitsOfFloat32(v)
	buf := make([]byte, 4)
	if err := PutBits(buf, elements.TypeF32, bits); err != nil {
		t.Fatalf("PutBits failed: %v", err)
	}
	readBits, err := Bits(buf, elements.TypeF32)
	if err != nil {
		t.Fatalf("Bits failed: %v", err)
	}
	if got := Float32FromBits(readBits); got != v {
		t.Errorf("got %v, want %v", got, v)
	}
}

func TestFloat64BitsRoundTrip(t *testing.T) {
	v := 2.71828
	bits := BitsOfFloat64(v)
	if got := Float64FromBits(bits); got != v {
		t.Errorf("got %v, want %v", got, v)
	}
}

func TestLittleEndianByteOrder(t *testing.T) {
	buf := make([]byte, 2)
	if err := PutBits(buf, elements.TypeU16, 0x0102); err != nil {
		t.Fatalf("PutBits failed: %v", err)
	}
	if buf[0] != 0x02 || buf[1] != 0x01 {
		t.Errorf("expected little-endian byte order, got % x", buf)
	}
}
