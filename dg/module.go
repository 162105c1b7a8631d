package dg

import (
	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/internal/orderedmap"
	"github.com/BarrensZeppelin/annotate/slices"
)

// Repository gives access to per-function sub-graphs.
type Repository interface {
	// Range calls f for each sub-graph until f returns false.
	Range(f func(name string, g *Graph) bool)
}

// Module is a Repository that ranges over its sub-graphs in the order they
// were created.
type Module struct {
	graphs *orderedmap.OrderedMap[string, *Graph]
	nextID int
}

func NewModule() *Module {
	return &Module{graphs: orderedmap.New[string, *Graph]()}
}

// NewGraph creates an empty sub-graph for fn and registers it under the
// function's name, replacing any previous graph registered under that name.
func (m *Module) NewGraph(fn *ssa.Function) *Graph {
	g := newGraph(fn, &m.nextID)
	m.graphs.Store(fn.String(), g)
	return g
}

// Graph returns the sub-graph registered under name, or nil.
func (m *Module) Graph(name string) *Graph {
	return m.graphs.Value(name)
}

func (m *Module) Len() int { return m.graphs.Len() }

func (m *Module) Range(f func(name string, g *Graph) bool) {
	m.graphs.OrderedRange(f)
}

// CallSites returns the nodes of call instructions whose callee is a function
// or builtin with one of the given names. Functions match on both their short
// and qualified name.
func (m *Module) CallSites(names ...string) []*Node {
	var res []*Node
	m.Range(func(_ string, g *Graph) bool {
		for _, n := range g.order {
			call, ok := n.Key.(ssa.CallInstruction)
			if !ok || call.Common().IsInvoke() {
				continue
			}

			switch callee := call.Common().Value.(type) {
			case *ssa.Builtin:
				if slices.Contains(names, callee.Name()) {
					res = append(res, n)
				}
			case *ssa.Function:
				if slices.Contains(names, callee.Name()) ||
					slices.Contains(names, callee.String()) {
					res = append(res, n)
				}
			}
		}
		return true
	})
	return res
}
