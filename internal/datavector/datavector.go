// Package datavector implements the Data Vector: a typed, region-
// partitioned, thread-safe shared buffer that is the sole communication
// substrate between every subsystem of a node. Grounded on the shape of
// the original StateVector (region-ordered contiguous layout, per-element
// type tag, 64-bit initial-value bit pattern) and realized with Go
// generics for the typed accessors instead of C++ templates.
package datavector

import (
	"fmt"

	"github.com/flightos/fsw/internal/elements"
	"github.com/flightos/fsw/internal/wire"
)

var (
	errAlreadyLocked = &kindError{kind: "already locked", msg: "lock already held by this goroutine"}
	errNotHeld       = &kindError{kind: "not held", msg: "unlock called by a goroutine that does not hold the lock"}
)

// ErrAlreadyLocked is returned by Lock when the calling goroutine already
// holds the Data Vector's lock.
func ErrAlreadyLocked() error { return errAlreadyLocked }

// ErrNotHeld is returned by Unlock when the calling goroutine does not
// hold the Data Vector's lock.
func ErrNotHeld() error { return errNotHeld }

type elemMeta struct {
	offset int
	typ    elements.Type
	region elements.Region
}

type regionMeta struct {
	offset int
	size   int
	elems  []elements.Elem
}

// DataVector is a flat byte buffer segmented into named regions, each an
// ordered list of typed elements. It owns its buffer exclusively; regions
// and elements are views described by offsets, never independent
// allocations.
type DataVector struct {
	buf        []byte
	totalSize  int
	elemMeta   map[elements.Elem]elemMeta
	regionMeta map[elements.Region]regionMeta
	regionIDs  []elements.Region // declared order, for ReadAll
	mu         reentrantMutex
}

// New validates cfg and constructs a Data Vector, initializing every
// element from its configured bit pattern.
//
// Validation order:
//  1. non-empty config
//  2. each region has a valid id in the closed enum and no duplicates
//  3. each element has a valid id and type, the element list is non-empty,
//     and no element id repeats anywhere in the DV
func New(cfg Config) (*DataVector, error) {
	if len(cfg.Regions) == 0 {
		return nil, newConfigError("empty config")
	}

	dv := &DataVector{
		elemMeta:   make(map[elements.Elem]elemMeta),
		regionMeta: make(map[elements.Region]regionMeta),
	}

	seenRegions := make(map[elements.Region]bool)
	offset := 0

	for _, rc := range cfg.Regions {
		if !rc.ID.Valid() {
			return nil, newConfigError(fmt.Sprintf("invalid region id %d", rc.ID))
		}
		if seenRegions[rc.ID] {
			return nil, newDuplicateRegionError(rc.ID)
		}
		seenRegions[rc.ID] = true

		if len(rc.Elements) == 0 {
			return nil, newConfigError(fmt.Sprintf("region %s has an empty element list", rc.ID))
		}

		regionStart := offset
		var elemIDs []elements.Elem

		for _, ec := range rc.Elements {
			if !ec.ID.Valid() {
				return nil, newConfigError(fmt.Sprintf("invalid elem id %d", ec.ID))
			}
			if !ec.Type.Valid() {
				return nil, newConfigError(fmt.Sprintf("invalid type for elem %s", ec.ID))
			}
			if _, dup := dv.elemMeta[ec.ID]; dup {
				return nil, newDuplicateElemError(ec.ID)
			}

			width := ec.Type.Width()
			dv.elemMeta[ec.ID] = elemMeta{offset: offset, typ: ec.Type, region: rc.ID}
			elemIDs = append(elemIDs, ec.ID)
			offset += width
		}

		dv.regionMeta[rc.ID] = regionMeta{
			offset: regionStart,
			size:   offset - regionStart,
			elems:  elemIDs,
		}
		dv.regionIDs = append(dv.regionIDs, rc.ID)
	}

	dv.totalSize = offset
	dv.buf = make([]byte, dv.totalSize)

	for _, rc := range cfg.Regions {
		for _, ec := range rc.Elements {
			meta := dv.elemMeta[ec.ID]
			w := meta.typ.Width()
			if err := wire.PutBits(dv.buf[meta.offset:meta.offset+w], meta.typ, ec.InitialBits); err != nil {
				return nil, newConfigError(fmt.Sprintf("initial value for elem %s: %v", ec.ID, err))
			}
		}
	}

	return dv, nil
}

// ElementExists reports whether elem is configured in this Data Vector.
// A pure config check: no lock needed.
func (dv *DataVector) ElementExists(elem elements.Elem) bool {
	_, ok := dv.elemMeta[elem]
	return ok
}

// RegionSizeBytes returns the byte size of region, or an error if region
// is not configured.
func (dv *DataVector) RegionSizeBytes(region elements.Region) (int, error) {
	m, ok := dv.regionMeta[region]
	if !ok {
		return 0, newInvalidRegionError(region)
	}
	return m.size, nil
}

// TotalSizeBytes returns the total byte width of the Data Vector's buffer.
func (dv *DataVector) TotalSizeBytes() int {
	return dv.totalSize
}

// Lock acquires the Data Vector's single re-entrant-errorcheck mutex for a
// composite operation spanning more than one typed access. It is not
// required around the typed accessors, which acquire and release it
// internally.
func (dv *DataVector) Lock() error {
	return dv.mu.Lock()
}

// Unlock releases the lock acquired by Lock.
func (dv *DataVector) Unlock() error {
	return dv.mu.Unlock()
}

// ReadRegion copies region's bytes into buf. len(buf) must equal the
// region's configured size.
func (dv *DataVector) ReadRegion(region elements.Region, buf []byte) error {
	m, ok := dv.regionMeta[region]
	if !ok {
		return newInvalidRegionError(region)
	}
	if len(buf) != m.size {
		return newSizeMismatchError(m.size, len(buf))
	}

	if err := dv.mu.Lock(); err != nil {
		return err
	}
	defer dv.mu.Unlock()

	copy(buf, dv.buf[m.offset:m.offset+m.size])
	return nil
}

// WriteRegion overwrites region's bytes with buf. len(buf) must equal the
// region's configured size.
func (dv *DataVector) WriteRegion(region elements.Region, buf []byte) error {
	m, ok := dv.regionMeta[region]
	if !ok {
		return newInvalidRegionError(region)
	}
	if len(buf) != m.size {
		return newSizeMismatchError(m.size, len(buf))
	}

	if err := dv.mu.Lock(); err != nil {
		return err
	}
	defer dv.mu.Unlock()

	copy(dv.buf[m.offset:m.offset+m.size], buf)
	return nil
}

// ReadAll dumps the entire buffer into buf, in declared region/element
// order. len(buf) must equal TotalSizeBytes().
func (dv *DataVector) ReadAll(buf []byte) error {
	if len(buf) != dv.totalSize {
		return newSizeMismatchError(dv.totalSize, len(buf))
	}

	if err := dv.mu.Lock(); err != nil {
		return err
	}
	defer dv.mu.Unlock()

	copy(buf, dv.buf)
	return nil
}

// Increment adds 1 to an integer element, wrapping around modulo 2^width
// (no saturation — the element is treated as a free-running counter).
func (dv *DataVector) Increment(elem elements.Elem) error {
	m, ok := dv.elemMeta[elem]
	if !ok {
		return newInvalidElemError(elem)
	}

	if err := dv.mu.Lock(); err != nil {
		return err
	}
	defer dv.mu.Unlock()

	w := m.typ.Width()
	slice := dv.buf[m.offset : m.offset+w]
	bits, err := wire.Bits(slice, m.typ)
	if err != nil {
		return err
	}
	bits++
	return wire.PutBits(slice, m.typ, bits)
}

// ReadBits returns elem's raw stored bits (zero-extended to 64 bits) and
// its recorded type, without requiring the caller to know the type at
// compile time. Used by the State Machine's transition evaluator, which
// only learns an element's type from its config at runtime.
func (dv *DataVector) ReadBits(elem elements.Elem) (uint64, elements.Type, error) {
	m, ok := dv.elemMeta[elem]
	if !ok {
		return 0, elements.TypeInvalid, newInvalidElemError(elem)
	}

	if err := dv.mu.Lock(); err != nil {
		return 0, elements.TypeInvalid, err
	}
	defer dv.mu.Unlock()

	w := m.typ.Width()
	bits, err := wire.Bits(dv.buf[m.offset:m.offset+w], m.typ)
	return bits, m.typ, err
}

// WriteBits stores bits into elem reinterpreted as elem's own recorded
// type, the same 64-bit-bit-pattern convention used for configured
// initial values. Unlike the generic Write[T], this performs no
// compile-time type check — it exists for callers (the Command Handler's
// side-write) that only learn the target element and its value at
// runtime, from another Data Vector element.
func (dv *DataVector) WriteBits(elem elements.Elem, bits uint64) error {
	m, ok := dv.elemMeta[elem]
	if !ok {
		return newInvalidElemError(elem)
	}

	if err := dv.mu.Lock(); err != nil {
		return err
	}
	defer dv.mu.Unlock()

	w := m.typ.Width()
	return wire.PutBits(dv.buf[m.offset:m.offset+w], m.typ, bits)
}

// IncrementBy adds n to an integer element in one locked critical section,
// wrapping modulo 2^width. Used where a batch of events (e.g. datagrams
// drained in one multi-channel receive) is counted as a single update
// rather than n separate lock/unlock round-trips.
func (dv *DataVector) IncrementBy(elem elements.Elem, n uint32) error {
	m, ok := dv.elemMeta[elem]
	if !ok {
		return newInvalidElemError(elem)
	}

	if err := dv.mu.Lock(); err != nil {
		return err
	}
	defer dv.mu.Unlock()

	w := m.typ.Width()
	slice := dv.buf[m.offset : m.offset+w]
	bits, err := wire.Bits(slice, m.typ)
	if err != nil {
		return err
	}
	bits += uint64(n)
	return wire.PutBits(slice, m.typ, bits)
}
