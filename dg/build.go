package dg

import (
	"log"

	"golang.org/x/tools/go/ssa"
	"gonum.org/v1/gonum/graph/flow"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/traverse"
)

// Build constructs the dependence graph of fn and registers it in m.
//
// Data dependencies follow the operands of SSA instructions (memory is not
// tracked). Control dependencies are derived from the post-dominance
// frontiers of the control flow graph.
func (m *Module) Build(fn *ssa.Function) *Graph {
	g := m.NewGraph(fn)

	for _, p := range fn.Params {
		g.AddNode(p, nil)
	}
	for _, fv := range fn.FreeVars {
		g.AddNode(fv, nil)
	}

	for _, bb := range fn.Blocks {
		b := g.AddBlock(bb)
		for _, insn := range bb.Instrs {
			if _, ok := insn.(*ssa.DebugRef); ok {
				continue
			}

			key, ok := insn.(ssa.Node)
			if !ok {
				log.Panicf("%T does not implement ssa.Node", insn)
			}
			g.AddNode(key, b)
		}
	}

	var rands []*ssa.Value
	for _, n := range g.order {
		insn, ok := n.Key.(ssa.Instruction)
		if !ok {
			continue
		}

		rands = insn.Operands(rands[:0])
		for _, rand := range rands {
			if *rand == nil {
				continue
			}
			if def := g.valueNode(*rand); def != nil {
				def.AddDataDependence(n)
			}
		}
	}

	g.computePostDominance()
	g.computeControlDependence()

	return g
}

// BuildAll builds graphs for fns in order.
func (m *Module) BuildAll(fns []*ssa.Function) {
	for _, fn := range fns {
		if len(fn.Blocks) > 0 {
			m.Build(fn)
		}
	}
}

// In the reversed control flow graph the exit block has ID 0 and basic block
// i has ID i+1.
func (g *Graph) computePostDominance() {
	fn := g.Func
	rcfg := simple.NewDirectedGraph()
	exit := simple.Node(0)
	rcfg.AddNode(exit)
	for _, bb := range fn.Blocks {
		rcfg.AddNode(simple.Node(bb.Index + 1))
	}

	for _, bb := range fn.Blocks {
		if len(bb.Succs) == 0 {
			rcfg.SetEdge(rcfg.NewEdge(exit, simple.Node(bb.Index+1)))
		}
		for _, succ := range bb.Succs {
			// gonum graphs have no self edges; they do not affect dominance.
			if succ != bb {
				rcfg.SetEdge(rcfg.NewEdge(simple.Node(succ.Index+1), simple.Node(bb.Index+1)))
			}
		}
	}

	// Blocks of infinite loops never reach a return. Treat the latest such
	// block as an exit until every block is reachable from the exit.
	for {
		var (
			bfs  traverse.BreadthFirst
			last *ssa.BasicBlock
		)
		bfs.Walk(rcfg, exit, nil)
		for _, bb := range fn.Blocks {
			if !bfs.Visited(simple.Node(bb.Index + 1)) {
				last = bb
			}
		}
		if last == nil {
			break
		}
		rcfg.SetEdge(rcfg.NewEdge(exit, simple.Node(last.Index+1)))
	}

	tree := flow.Dominators(exit, rcfg)
	for _, bb := range fn.Blocks {
		if d := tree.DominatorOf(int64(bb.Index + 1)); d != nil {
			g.blocks[bb].SetIPostDom(g.blockByID(d.ID()))
		}
	}

	// Cooper, Harvey & Kennedy's dominance frontier algorithm on the
	// reversed graph. The predecessors of a block in the reversed graph are
	// its successors.
	for _, bb := range fn.Blocks {
		b := g.blocks[bb]
		if len(bb.Succs) < 2 || b.ipostdom == nil {
			continue
		}

		for _, succ := range bb.Succs {
			for runner := g.blocks[succ]; runner != nil && runner != b.ipostdom; runner = runner.ipostdom {
				runner.AddPostDomFrontier(b)
			}
		}
	}
}

func (g *Graph) blockByID(id int64) *Block {
	if id == 0 {
		return g.root
	}
	return g.blocks[g.Func.Blocks[id-1]]
}

// A block is control dependent on each member of its post-dominance
// frontier. Every node of the block depends on the branch terminating the
// frontier block.
func (g *Graph) computeControlDependence() {
	for _, bb := range g.Func.Blocks {
		b := g.blocks[bb]
		for _, f := range b.postDomFrontiers {
			f.AddControlDependence(b)

			branch := g.Node(f.Key.Instrs[len(f.Key.Instrs)-1].(ssa.Node))
			for _, n := range b.nodes {
				branch.AddControlDependence(n)
			}
		}
	}
}
