package annotate

import (
	"go/token"
	"go/types"

	"golang.org/x/tools/go/ssa"
)

// pointerLike reports whether values of type t may hold addresses.
func pointerLike(t types.Type) bool {
	switch t := t.Underlying().(type) {
	case *types.Pointer,
		*types.Map,
		*types.Chan,
		*types.Slice,
		*types.Interface,
		*types.Signature:
		return true
	case *types.Basic:
		return t.Kind() == types.UnsafePointer
	default:
		return false
	}
}

// hasPointsTo reports whether the points-to set of v is worth annotating:
// pointers, and integers (which may be the result of converting a pointer).
func hasPointsTo(v ssa.Value) bool {
	t := v.Type()
	if pointerLike(t) {
		return true
	}
	bt, ok := t.Underlying().(*types.Basic)
	return ok && bt.Info()&types.IsInteger != 0
}

func mayReadOrWriteMemory(insn ssa.Instruction) bool {
	switch insn := insn.(type) {
	case *ssa.UnOp:
		return insn.Op == token.MUL || insn.Op == token.ARROW
	case *ssa.Lookup:
		_, isMap := insn.X.Type().Underlying().(*types.Map)
		return isMap
	case ssa.CallInstruction,
		*ssa.Alloc,
		*ssa.Store,
		*ssa.MapUpdate,
		*ssa.Send,
		*ssa.Select,
		*ssa.Next:
		return true
	default:
		return false
	}
}
