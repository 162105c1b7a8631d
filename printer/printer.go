// Package printer writes a textual dump of SSA functions and lets an
// Annotator interleave comments with it.
package printer

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"
)

// Annotator is called before each function header, after each block label
// and before each instruction of the dump. Writes to the given writer end up
// in the dump at that point.
type Annotator interface {
	EmitFunctionAnnot(fn *ssa.Function, w io.Writer)
	EmitBasicBlockStartAnnot(b *ssa.BasicBlock, w io.Writer)
	EmitInstructionAnnot(insn ssa.Instruction, w io.Writer)
}

type noAnnotations struct{}

func (noAnnotations) EmitFunctionAnnot(*ssa.Function, io.Writer)         {}
func (noAnnotations) EmitBasicBlockStartAnnot(*ssa.BasicBlock, io.Writer) {}
func (noAnnotations) EmitInstructionAnnot(ssa.Instruction, io.Writer)     {}

// Fprint writes the dump of fns to w, in order. annot may be nil.
func Fprint(w io.Writer, annot Annotator, fns ...*ssa.Function) error {
	if annot == nil {
		annot = noAnnotations{}
	}

	bw := bufio.NewWriter(w)
	for i, fn := range fns {
		if i > 0 {
			bw.WriteString("\n")
		}
		writeFunction(bw, fn, annot)
	}
	// bufio.Writer keeps the first write error.
	return bw.Flush()
}

// FprintPackage writes the dump of PackageFunctions(pkg) to w.
func FprintPackage(w io.Writer, annot Annotator, pkg *ssa.Package) error {
	return Fprint(w, annot, PackageFunctions(pkg)...)
}

// PackageFunctions returns the functions with bodies declared in pkg,
// including anonymous functions and methods, in source order. Synthetic
// functions (wrappers, package initializers) are excluded.
func PackageFunctions(pkg *ssa.Package) []*ssa.Function {
	var fns []*ssa.Function
	for fn := range ssautil.AllFunctions(pkg.Prog) {
		if fn.Pkg == pkg && fn.Synthetic == "" && len(fn.Blocks) > 0 {
			fns = append(fns, fn)
		}
	}

	sort.Slice(fns, func(i, j int) bool {
		if fns[i].Pos() != fns[j].Pos() {
			return fns[i].Pos() < fns[j].Pos()
		}
		return fns[i].String() < fns[j].String()
	})
	return fns
}

func writeFunction(w io.Writer, fn *ssa.Function, annot Annotator) {
	annot.EmitFunctionAnnot(fn, w)

	sig := strings.TrimPrefix(fn.Signature.String(), "func")
	fmt.Fprintf(w, "func %s%s:\n", fn, sig)

	for _, b := range fn.Blocks {
		if b.Comment != "" {
			fmt.Fprintf(w, "%d: %s\n", b.Index, b.Comment)
		} else {
			fmt.Fprintf(w, "%d:\n", b.Index)
		}

		annot.EmitBasicBlockStartAnnot(b, w)

		for _, insn := range b.Instrs {
			if _, ok := insn.(*ssa.DebugRef); ok {
				continue
			}

			annot.EmitInstructionAnnot(insn, w)
			fmt.Fprintf(w, "\t%s\n", Instruction(insn))
		}
	}
}

// Instruction returns the line printed for insn, "name = instr" for
// instructions that define a value.
func Instruction(insn ssa.Instruction) string {
	if v, ok := insn.(ssa.Value); ok && v.Name() != "" {
		return v.Name() + " = " + insn.String()
	}
	return insn.String()
}
