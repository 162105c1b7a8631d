package pta

import (
	"fmt"
	"go/token"
	"go/types"
	"sort"
	"strings"

	"github.com/BarrensZeppelin/pointer"
	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/known"
)

// Steensgaard answers points-to and memory access queries from the result of
// pointer.Analyze.
//
// Labels are reported as pointers into their allocation site. Field
// sub-objects get a byte offset computed with the configured sizes, element
// sub-objects an unknown offset. Objects that originate from conversions of
// unsafe.Pointer are reported as an unknown target. Go has no explicit
// deallocation, so Invalidated is never set.
type Steensgaard struct {
	res   *pointer.Result
	sizes types.Sizes
}

// NewSteensgaard wraps res. If sizes is nil, gc/amd64 sizes are used.
func NewSteensgaard(res *pointer.Result, sizes types.Sizes) *Steensgaard {
	if sizes == nil {
		sizes = types.SizesFor("gc", "amd64")
	}
	return &Steensgaard{res: res, sizes: sizes}
}

func (s *Steensgaard) PointsTo(v ssa.Value) Set {
	var set Set
	if c, ok := v.(*ssa.Const); ok {
		set.Null = c.IsNil()
		return set
	}

	if !pointer.PointerLike(v.Type()) {
		return set
	}

	for _, label := range s.res.Pointer(v).PointsTo() {
		site := label.Site()
		if fromUnsafePointer(site) {
			set.Unknown = true
			continue
		}

		set.Pointers = append(set.Pointers, Pointer{
			Value:  site,
			Offset: s.offset(site.Type(), label.Path()),
		})
	}

	// The analysis reports labels in map order.
	sort.SliceStable(set.Pointers, func(i, j int) bool {
		return pointerKey(set.Pointers[i]) < pointerKey(set.Pointers[j])
	})

	return set
}

func (s *Steensgaard) AccessedMemory(insn ssa.Instruction) (bool, []MemoryRegion) {
	var (
		addr   ssa.Value
		length = known.Unknown[int64]()
	)

	switch insn := insn.(type) {
	case *ssa.Alloc:
		elem := insn.Type().Underlying().(*types.Pointer).Elem()
		return false, []MemoryRegion{{
			Pointer: Pointer{Value: insn, Offset: known.Of[int64](0)},
			Len:     known.Of(s.sizes.Sizeof(elem)),
		}}

	case *ssa.Store:
		addr = insn.Addr
		length = s.sizeOfPointee(addr.Type())

	case *ssa.UnOp:
		switch insn.Op {
		case token.MUL:
			addr = insn.X
			length = s.sizeOfPointee(addr.Type())
		case token.ARROW:
			addr = insn.X
		}

	case *ssa.Send:
		addr = insn.Chan
	case *ssa.MapUpdate:
		addr = insn.Map
	case *ssa.Lookup:
		if _, isMap := insn.X.Type().Underlying().(*types.Map); isMap {
			addr = insn.X
		}
	}

	if addr == nil {
		// Calls, selects and iterators may touch anything.
		return true, nil
	}

	set := s.PointsTo(addr)
	regions := make([]MemoryRegion, len(set.Pointers))
	for i, ptr := range set.Pointers {
		regions[i] = MemoryRegion{Pointer: ptr, Len: length}
	}

	return set.Unknown || len(regions) == 0, regions
}

func (s *Steensgaard) sizeOfPointee(t types.Type) known.Value[int64] {
	if ptr, ok := t.Underlying().(*types.Pointer); ok {
		return known.Of(s.sizes.Sizeof(ptr.Elem()))
	}
	return known.Unknown[int64]()
}

// offset computes the byte offset of the sub-object reached by following
// path (as returned by pointer.Label.Path) from an object pointed to by a
// value of type typ.
func (s *Steensgaard) offset(typ types.Type, path string) known.Value[int64] {
	if path == "" {
		return known.Of[int64](0)
	}

	ptr, ok := typ.Underlying().(*types.Pointer)
	if !ok {
		return known.Unknown[int64]()
	}

	var off int64
	cur := ptr.Elem()
	for path != "" {
		if !strings.HasPrefix(path, ".") {
			// Element of an array or slice
			return known.Unknown[int64]()
		}

		path = path[1:]
		end := strings.IndexAny(path, ".[")
		if end < 0 {
			end = len(path)
		}
		name := path[:end]
		path = path[end:]

		st, ok := cur.Underlying().(*types.Struct)
		if !ok {
			return known.Unknown[int64]()
		}

		i := fieldIndex(st, name)
		if i < 0 {
			return known.Unknown[int64]()
		}

		fields := make([]*types.Var, st.NumFields())
		for j := range fields {
			fields[j] = st.Field(j)
		}
		off += s.sizes.Offsetsof(fields)[i]
		cur = st.Field(i).Type()
	}

	return known.Of(off)
}

func fieldIndex(t *types.Struct, fieldName string) int {
	for i := 0; i < t.NumFields(); i++ {
		if t.Field(i).Name() == fieldName {
			return i
		}
	}
	return -1
}

func fromUnsafePointer(v ssa.Value) bool {
	conv, ok := v.(*ssa.Convert)
	if !ok {
		return false
	}
	bt, ok := conv.X.Type().Underlying().(*types.Basic)
	return ok && bt.Kind() == types.UnsafePointer
}

func pointerKey(p Pointer) string {
	fun := ""
	if parent := p.Value.Parent(); parent != nil {
		fun = parent.String()
	}
	return fmt.Sprintf("%s\x00%s\x00%v", fun, p.Value.Name(), p.Offset)
}
