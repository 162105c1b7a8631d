// Package dda defines the queries reserved for a data dependence (reaching
// definitions) analysis.
package dda

import (
	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/known"
	"github.com/BarrensZeppelin/annotate/pta"
)

// MemoryObject is the target of a definition or use.
type MemoryObject struct {
	// Allocation site of the object. Nil when Unknown is set.
	Value   ssa.Value
	Unknown bool
}

// DefSite describes a definition or use of Len bytes at Offset in Target.
// A nil Target is an inconsistency of the analysis that produced the site.
type DefSite struct {
	Target *MemoryObject
	Offset known.Value[int64]
	Len    known.Value[int64]
}

type Analysis interface {
	// Definitions returns the byte ranges defined by insn.
	Definitions(insn ssa.Instruction) []DefSite
}

// Local reports the definitions an instruction performs itself, as given by
// the memory regions the pointer analysis says it writes. It does not compute
// which definitions reach a use.
type Local struct {
	PTA pta.Analysis
}

func (l Local) Definitions(insn ssa.Instruction) []DefSite {
	switch insn.(type) {
	case *ssa.Store, *ssa.Alloc, *ssa.MapUpdate, *ssa.Send:
	default:
		return nil
	}

	unknown, regions := l.PTA.AccessedMemory(insn)
	sites := make([]DefSite, 0, len(regions)+1)
	if unknown {
		sites = append(sites, DefSite{
			Target: &MemoryObject{Unknown: true},
			Offset: known.Unknown[int64](),
			Len:    known.Unknown[int64](),
		})
	}

	for _, r := range regions {
		sites = append(sites, DefSite{
			Target: &MemoryObject{Value: r.Pointer.Value},
			Offset: r.Pointer.Offset,
			Len:    r.Len,
		})
	}

	return sites
}
