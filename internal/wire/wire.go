// Package wire implements the little-endian, packed, no-framing byte codec
// shared by the Data Vector's buffer layout and the network datagrams that
// carry region snapshots between nodes. Every encode/decode goes through
// encoding/binary field-by-field, the same manual style the teacher's uapi
// marshal code uses rather than reflection or an unsafe cast.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/flightos/fsw/internal/elements"
)

// ErrInsufficientData is returned when a decode is attempted against a
// buffer shorter than the element's width.
type ErrInsufficientData struct {
	Want int
	Got  int
}

func (e *ErrInsufficientData) Error() string {
	return fmt.Sprintf("wire: insufficient data: want %d bytes, got %d", e.Want, e.Got)
}

// PutBits writes the raw 64-bit reinterpretation of v (as produced by
// BitsOf) into dst at the element's native width, little-endian.
func PutBits(dst []byte, t elements.Type, bits uint64) error {
	w := t.Width()
	if len(dst) < w {
		return &ErrInsufficientData{Want: w, Got: len(dst)}
	}
	switch t {
	case elements.TypeU8, elements.TypeI8, elements.TypeBool:
		dst[0] = byte(bits)
	case elements.TypeU16, elements.TypeI16:
		binary.LittleEndian.PutUint16(dst, uint16(bits))
	case elements.TypeU32, elements.TypeI32, elements.TypeF32:
		binary.LittleEndian.PutUint32(dst, uint32(bits))
	case elements.TypeU64, elements.TypeI64, elements.TypeF64:
		binary.LittleEndian.PutUint64(dst, bits)
	}
	return nil
}

// Bits reads the raw width-sized little-endian value out of src and
// zero-extends it to a uint64, the inverse of PutBits.
func Bits(src []byte, t elements.Type) (uint64, error) {
	w := t.Width()
	if len(src) < w {
		return 0, &ErrInsufficientData{Want: w, Got: len(src)}
	}
	switch t {
	case elements.TypeU8, elements.TypeI8, elements.TypeBool:
		return uint64(src[0]), nil
	case elements.TypeU16, elements.TypeI16:
		return uint64(binary.LittleEndian.Uint16(src)), nil
	case elements.TypeU32, elements.TypeI32, elements.TypeF32:
		return uint64(binary.LittleEndian.Uint32(src)), nil
	case elements.TypeU64, elements.TypeI64, elements.TypeF64:
		return binary.LittleEndian.Uint64(src), nil
	}
	return 0, nil
}

// BitsOfFloat32 reinterprets a float32 as its 32-bit pattern, zero-extended.
func BitsOfFloat32(v float32) uint64 {
	return uint64(math.Float32bits(v))
}

// BitsOfFloat64 reinterprets a float64 as its 64-bit pattern.
func BitsOfFloat64(v float64) uint64 {
	return math.Float64bits(v)
}

// Float32FromBits is the inverse of BitsOfFloat32.
func Float32FromBits(bits uint64) float32 {
	return math.Float32frombits(uint32(bits))
}

// Float64FromBits is the inverse of BitsOfFloat64.
func Float64FromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}
