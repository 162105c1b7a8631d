// Package annotate overlays the results of pointer, dependence, post-dominance
// and slicing analyses onto a textual dump of SSA code.
//
// A Writer is driven by a printer (see package printer) through one callback
// per function, basic block and instruction. Every annotation is a comment
// line starting with CommentPrefix, emitted before the printed unit.
package annotate

import (
	"fmt"
	"io"

	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/dda"
	"github.com/BarrensZeppelin/annotate/dg"
	"github.com/BarrensZeppelin/annotate/pta"
)

type Config struct {
	Options Options

	// Sub-graphs that nodes and blocks are resolved in. Required unless
	// Options is empty.
	Graphs dg.Repository

	// Required by AnnotatePtr and AnnotateMemoryAcc.
	PTA pta.Analysis
	// Required by AnnotateDU.
	DDA dda.Analysis

	// Nodes reported as slicing criteria.
	Criteria dg.Criteria
}

// Writer emits annotations for one printing pass.
type Writer struct {
	opts     Options
	graphs   dg.Repository
	pta      pta.Analysis
	dda      dda.Analysis
	criteria dg.Criteria

	moduleComment string
	// Set once the module comment has been emitted in this pass.
	didModuleComment bool
}

// NewWriter returns a Writer for config. It panics if an enabled category
// lacks the analysis it reads from.
func NewWriter(config Config) *Writer {
	opts := config.Options
	switch {
	case opts.Has(AnnotatePtr|AnnotateMemoryAcc) && config.PTA == nil:
		panic(fmt.Errorf("annotations %v require a pointer analysis", opts&(AnnotatePtr|AnnotateMemoryAcc)))
	case opts.Has(AnnotateDU) && config.DDA == nil:
		panic(fmt.Errorf("annotations %v require a data dependence analysis", AnnotateDU))
	case !opts.Empty() && config.Graphs == nil:
		panic(fmt.Errorf("annotations %v require dependence graphs", opts))
	}

	return &Writer{
		opts:     opts,
		graphs:   config.Graphs,
		pta:      config.PTA,
		dda:      config.DDA,
		criteria: config.Criteria,
	}
}

// SetModuleComment sets the text emitted before the first function of the
// pass. The text is written verbatim.
func (w *Writer) SetModuleComment(comment string) {
	w.moduleComment = comment
}

// Reset prepares w for a new pass: the module comment is emitted again.
func (w *Writer) Reset() {
	w.didModuleComment = false
}

func (w *Writer) EmitFunctionAnnot(_ *ssa.Function, out io.Writer) {
	if !w.didModuleComment {
		w.didModuleComment = true
		io.WriteString(out, w.moduleComment)
	}
}

func (w *Writer) EmitInstructionAnnot(insn ssa.Instruction, out io.Writer) {
	if w.opts.Empty() {
		return
	}

	if node := w.resolveNode(insn); node != nil {
		w.emitNodeAnnotations(node, out)
	}
}

func (w *Writer) EmitBasicBlockStartAnnot(b *ssa.BasicBlock, out io.Writer) {
	if w.opts.Empty() {
		return
	}

	if block := w.resolveBlock(b); block != nil {
		w.emitBlockAnnotations(block, out)
	}
}

// emitNodeAnnotations writes the annotations of node, one category at a time
// in a fixed order.
func (w *Writer) emitNodeAnnotations(node *dg.Node, out io.Writer) {
	opts := w.opts

	// AnnotateDU comes first but emits nothing. NewWriter still requires its
	// analysis so that configurations naming it stay valid.

	if opts.Has(AnnotateDD) {
		for _, src := range node.RevDataDependencies() {
			io.WriteString(out, CommentPrefix+"DD: ")
			printValue(out, src.Key, false)
			fmt.Fprintf(out, "(%v)\n", src)
		}
	}

	if opts.Has(AnnotateForwardDD) {
		for _, dst := range node.DataDependencies() {
			fmt.Fprintf(out, "%sfDD: %s(%v)\n", CommentPrefix, structural(dst.Key), dst)
		}
	}

	if opts.Has(AnnotateCD) {
		for _, src := range node.RevControlDependencies() {
			io.WriteString(out, CommentPrefix+"rCD: ")
			printValue(out, src.Key, true)
		}
	}

	if opts.Has(AnnotatePtr) && w.pta != nil {
		if v, ok := node.Key.(ssa.Value); ok && hasPointsTo(v) {
			if ps := w.pta.PointsTo(v); !ps.Empty() {
				for _, ptr := range ps.Pointers {
					printPointer(out, ptr, "PTR: ", true)
				}
				if ps.Null {
					io.WriteString(out, CommentPrefix+"null\n")
				}
				if ps.Unknown {
					io.WriteString(out, CommentPrefix+"unknown\n")
				}
				if ps.Invalidated {
					io.WriteString(out, CommentPrefix+"invalidated\n")
				}
			}
		}
	}

	if opts.Has(AnnotateMemoryAcc) && w.pta != nil {
		if insn, ok := node.Key.(ssa.Instruction); ok && mayReadOrWriteMemory(insn) {
			unknown, regions := w.pta.AccessedMemory(insn)
			if unknown {
				io.WriteString(out, CommentPrefix+"unknown region\n")
			}
			for _, r := range regions {
				printMemRegion(out, r, "", true)
			}
		}
	}

	if opts.Has(AnnotateSlice) {
		if w.criteria.Has(node) {
			io.WriteString(out, CommentPrefix+"SLICING CRITERION\n")
		}
		// No newline: the marker comments out the instruction printed next.
		if node.Slice == 0 {
			io.WriteString(out, CommentPrefix+"x ")
		}
	}
}

func (w *Writer) emitBlockAnnotations(block *dg.Block, out io.Writer) {
	opts := w.opts

	if opts.Has(AnnotatePostDom | AnnotateCD) {
		fmt.Fprintf(out, "%sBB: %v\n", CommentPrefix, block)
	}

	if opts.Has(AnnotatePostDom) {
		for _, p := range block.PostDomFrontiers() {
			fmt.Fprintf(out, "%sPDF: %v\n", CommentPrefix, p)
		}

		// The synthetic exit block is not a real post-dominator.
		if p := block.IPostDom(); p != nil && p.Key != nil {
			fmt.Fprintf(out, "%siPD: %v\n", CommentPrefix, p)
		}
	}

	if opts.Has(AnnotateCD) {
		for _, p := range block.RevControlDependence() {
			fmt.Fprintf(out, "%sCD: %v\n", CommentPrefix, p)
		}
	}
}
