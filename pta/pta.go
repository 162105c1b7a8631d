// Package pta defines the queries the annotator issues against a pointer
// analysis, and an implementation backed by the unification-based analysis in
// github.com/BarrensZeppelin/pointer.
package pta

import (
	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/known"
)

// Pointer denotes a location at a (possibly unknown) byte offset into the
// object allocated at Value.
type Pointer struct {
	Value  ssa.Value
	Offset known.Value[int64]
}

// Set is a points-to set. Null, Unknown and Invalidated are independent of
// each other and of Pointers.
type Set struct {
	Pointers []Pointer

	Null        bool
	Unknown     bool
	Invalidated bool
}

// Empty reports whether the set contains no target at all.
func (s Set) Empty() bool {
	return len(s.Pointers) == 0 && !s.Null && !s.Unknown && !s.Invalidated
}

// MemoryRegion is one abstract memory access of Len bytes starting at Pointer.
type MemoryRegion struct {
	Pointer Pointer
	Len     known.Value[int64]
}

type Analysis interface {
	// PointsTo returns the points-to set of v.
	PointsTo(v ssa.Value) Set
	// AccessedMemory returns the regions that insn may read or write. The
	// boolean is set when insn may access memory not described by any
	// returned region.
	AccessedMemory(insn ssa.Instruction) (bool, []MemoryRegion)
}
