package datavector

import (
	"github.com/flightos/fsw/internal/elements"
	"github.com/flightos/fsw/internal/wire"
)

// Scalar is the set of Go types a Data Vector element may be read or
// written as — the closed element-type set from internal/elements,
// expressed as a generic constraint.
type Scalar interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64 | ~bool
}

func typeOf[T Scalar]() elements.Type {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return elements.TypeU8
	case uint16:
		return elements.TypeU16
	case uint32:
		return elements.TypeU32
	case uint64:
		return elements.TypeU64
	case int8:
		return elements.TypeI8
	case int16:
		return elements.TypeI16
	case int32:
		return elements.TypeI32
	case int64:
		return elements.TypeI64
	case float32:
		return elements.TypeF32
	case float64:
		return elements.TypeF64
	case bool:
		return elements.TypeBool
	default:
		return elements.TypeInvalid
	}
}

func bitsToValue[T Scalar](t elements.Type, bits uint64) T {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return any(uint8(bits)).(T)
	case uint16:
		return any(uint16(bits)).(T)
	case uint32:
		return any(uint32(bits)).(T)
	case uint64:
		return any(bits).(T)
	case int8:
		return any(int8(bits)).(T)
	case int16:
		return any(int16(bits)).(T)
	case int32:
		return any(int32(bits)).(T)
	case int64:
		return any(int64(bits)).(T)
	case float32:
		return any(wire.Float32FromBits(bits)).(T)
	case float64:
		return any(wire.Float64FromBits(bits)).(T)
	case bool:
		return any(bits != 0).(T)
	default:
		return zero
	}
}

func valueToBits[T Scalar](value T) uint64 {
	switch v := any(value).(type) {
	case uint8:
		return uint64(v)
	case uint16:
		return uint64(v)
	case uint32:
		return uint64(v)
	case uint64:
		return v
	case int8:
		return uint64(uint8(v))
	case int16:
		return uint64(uint16(v))
	case int32:
		return uint64(uint32(v))
	case int64:
		return uint64(v)
	case float32:
		return wire.BitsOfFloat32(v)
	case float64:
		return wire.BitsOfFloat64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return 0
	}
}

// Read returns the typed value of elem. The runtime-recorded type must
// match T exactly — no implicit widening.
func Read[T Scalar](dv *DataVector, elem elements.Elem) (T, error) {
	var zero T
	want := typeOf[T]()

	meta, ok := dv.elemMeta[elem]
	if !ok {
		return zero, newInvalidElemError(elem)
	}
	if meta.typ != want {
		return zero, newTypeMismatchError(elem, meta.typ, want)
	}

	if err := dv.mu.Lock(); err != nil {
		return zero, err
	}
	defer dv.mu.Unlock()

	w := meta.typ.Width()
	bits, err := wire.Bits(dv.buf[meta.offset:meta.offset+w], meta.typ)
	if err != nil {
		return zero, err
	}
	return bitsToValue[T](meta.typ, bits), nil
}

// Write stores value into elem. The runtime-recorded type must match T
// exactly.
func Write[T Scalar](dv *DataVector, elem elements.Elem, value T) error {
	want := typeOf[T]()

	meta, ok := dv.elemMeta[elem]
	if !ok {
		return newInvalidElemError(elem)
	}
	if meta.typ != want {
		return newTypeMismatchError(elem, meta.typ, want)
	}

	if err := dv.mu.Lock(); err != nil {
		return err
	}
	defer dv.mu.Unlock()

	w := meta.typ.Width()
	return wire.PutBits(dv.buf[meta.offset:meta.offset+w], meta.typ, valueToBits(value))
}
