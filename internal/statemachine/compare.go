package statemachine

import (
	"github.com/flightos/fsw/internal/elements"
	"github.com/flightos/fsw/internal/wire"
)

// compare evaluates "lhs op rhs" where lhs and rhs are both the raw
// zero-extended bit patterns of an element of type t, decoded according
// to t's signedness/float-ness before comparing.
func compare(t elements.Type, lhsBits, rhsBits uint64, op CompareOp) bool {
	switch t {
	case elements.TypeF32:
		return compareFloat(float64(wire.Float32FromBits(lhsBits)), float64(wire.Float32FromBits(rhsBits)), op)
	case elements.TypeF64:
		return compareFloat(wire.Float64FromBits(lhsBits), wire.Float64FromBits(rhsBits), op)
	case elements.TypeI8, elements.TypeI16, elements.TypeI32, elements.TypeI64:
		return compareInt(signExtend(lhsBits, t.Width()), signExtend(rhsBits, t.Width()), op)
	default: // u8, u16, u32, u64, bool
		return compareUint(lhsBits, rhsBits, op)
	}
}

func signExtend(bits uint64, width int) int64 {
	if width >= 8 {
		return int64(bits)
	}
	shift := uint(64 - width*8)
	return int64(bits<<shift) >> shift
}

func compareUint(a, b uint64, op CompareOp) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	default:
		return false
	}
}

func compareInt(a, b int64, op CompareOp) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	default:
		return false
	}
}

func compareFloat(a, b float64, op CompareOp) bool {
	switch op {
	case OpEQ:
		return a == b
	case OpNE:
		return a != b
	case OpLT:
		return a < b
	case OpLE:
		return a <= b
	case OpGT:
		return a > b
	case OpGE:
		return a >= b
	default:
		return false
	}
}
