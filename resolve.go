package annotate

import (
	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/dg"
)

// resolveNode returns the graph node of insn from the first sub-graph that
// contains it, in the order the repository ranges over its sub-graphs.
// Instructions that were never added to a graph resolve to nil.
func (w *Writer) resolveNode(insn ssa.Instruction) *dg.Node {
	key, ok := insn.(ssa.Node)
	if !ok {
		return nil
	}

	var node *dg.Node
	w.graphs.Range(func(_ string, sub *dg.Graph) bool {
		node = sub.Node(key)
		return node == nil
	})
	return node
}

// resolveBlock is resolveNode for basic blocks.
func (w *Writer) resolveBlock(b *ssa.BasicBlock) *dg.Block {
	var block *dg.Block
	w.graphs.Range(func(_ string, sub *dg.Graph) bool {
		block = sub.Block(b)
		return block == nil
	})
	return block
}
