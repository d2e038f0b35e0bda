package datavector

import "github.com/flightos/fsw/internal/elements"

// ElementConfig describes one element: its closed id, its closed type, and
// its initial value stored as a 64-bit bit pattern reinterpreted to the
// element's type at construction time.
type ElementConfig struct {
	ID          elements.Elem
	Type        elements.Type
	InitialBits uint64
}

// RegionConfig describes one region: its closed id and its ordered,
// non-empty list of elements.
type RegionConfig struct {
	ID       elements.Region
	Elements []ElementConfig
}

// Config is the immutable, compiled-in construction config for a Data
// Vector. It carries no file format — it is built as a Go literal in the
// node's boot sequence.
type Config struct {
	Regions []RegionConfig
}
