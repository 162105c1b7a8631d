// Package dg contains the dependence graph that annotations are read from.
//
// A Module maps function names to per-function sub-graphs. A sub-graph owns
// one Node per SSA value or instruction and one Block per basic block, plus a
// synthetic exit block that roots the post-dominator tree.
package dg

import (
	"fmt"
	"strconv"

	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/internal/maps"
	"github.com/BarrensZeppelin/annotate/slices"
)

type nodes []*Node

func (ns *nodes) add(n *Node) {
	if !slices.Contains(*ns, n) {
		*ns = append(*ns, n)
	}
}

type blocks []*Block

func (bs *blocks) add(b *Block) {
	if !slices.Contains(*bs, b) {
		*bs = append(*bs, b)
	}
}

type Node struct {
	ID  int
	Key ssa.Node

	block *Block

	dataDeps       nodes
	revDataDeps    nodes
	controlDeps    nodes
	revControlDeps nodes

	// Slice is the id of the slice the node was marked with. Zero means that
	// slicing removes the node.
	Slice int
}

func (n *Node) String() string { return "#" + strconv.Itoa(n.ID) }

// Block returns the block containing the node, or nil for parameters and
// free variables.
func (n *Node) Block() *Block { return n.block }

// AddDataDependence records that to uses the value defined by n.
func (n *Node) AddDataDependence(to *Node) {
	n.dataDeps.add(to)
	to.revDataDeps.add(n)
}

// AddControlDependence records that the execution of to depends on n.
func (n *Node) AddControlDependence(to *Node) {
	n.controlDeps.add(to)
	to.revControlDeps.add(n)
}

func (n *Node) DataDependencies() []*Node       { return n.dataDeps }
func (n *Node) RevDataDependencies() []*Node    { return n.revDataDeps }
func (n *Node) ControlDependencies() []*Node    { return n.controlDeps }
func (n *Node) RevControlDependencies() []*Node { return n.revControlDeps }

type Block struct {
	ID int
	// Nil for the synthetic exit block.
	Key *ssa.BasicBlock

	nodes nodes

	ipostdom         *Block
	postDomFrontiers blocks
	controlDeps      blocks
	revControlDeps   blocks
}

func (b *Block) String() string {
	if b.Key == nil {
		return "<exit>"
	}
	return fmt.Sprintf("%s#%d", b.Key.Parent(), b.Key.Index)
}

// Nodes returns the nodes of the block in instruction order.
func (b *Block) Nodes() []*Node { return b.nodes }

func (b *Block) IPostDom() *Block            { return b.ipostdom }
func (b *Block) SetIPostDom(p *Block)        { b.ipostdom = p }
func (b *Block) PostDomFrontiers() []*Block  { return b.postDomFrontiers }
func (b *Block) AddPostDomFrontier(f *Block) { b.postDomFrontiers.add(f) }

// AddControlDependence records that the execution of to depends on the branch
// at the end of b.
func (b *Block) AddControlDependence(to *Block) {
	b.controlDeps.add(to)
	to.revControlDeps.add(b)
}

// ControlDependence returns the blocks whose execution depends on b.
func (b *Block) ControlDependence() []*Block { return b.controlDeps }

// RevControlDependence returns the blocks b is control dependent on.
func (b *Block) RevControlDependence() []*Block { return b.revControlDeps }

// Graph is the dependence graph of a single function.
type Graph struct {
	Func *ssa.Function

	nextID *int

	nodes  map[ssa.Node]*Node
	order  nodes
	blocks map[*ssa.BasicBlock]*Block
	root   *Block
}

// NewGraph returns an empty graph for fn. Node and block IDs are unique
// within the graph. Use Module.NewGraph for IDs unique across a module.
func NewGraph(fn *ssa.Function) *Graph {
	return newGraph(fn, new(int))
}

func newGraph(fn *ssa.Function, nextID *int) *Graph {
	g := &Graph{
		Func:   fn,
		nextID: nextID,
		nodes:  make(map[ssa.Node]*Node),
		blocks: make(map[*ssa.BasicBlock]*Block),
	}
	g.root = &Block{ID: g.id()}
	return g
}

func (g *Graph) id() int {
	*g.nextID++
	return *g.nextID
}

// AddNode returns the node for key, creating it in block b if necessary.
func (g *Graph) AddNode(key ssa.Node, b *Block) *Node {
	if n, found := g.nodes[key]; found {
		return n
	}

	n := &Node{ID: g.id(), Key: key, block: b}
	g.nodes[key] = n
	g.order = append(g.order, n)
	if b != nil {
		b.nodes = append(b.nodes, n)
	}
	return n
}

// AddBlock returns the block wrapper for bb, creating it if necessary.
func (g *Graph) AddBlock(bb *ssa.BasicBlock) *Block {
	if b, found := g.blocks[bb]; found {
		return b
	}

	b := &Block{ID: g.id(), Key: bb}
	g.blocks[bb] = b
	return b
}

// Node returns the node for key, or nil.
func (g *Graph) Node(key ssa.Node) *Node { return g.nodes[key] }

// Block returns the wrapper of bb, or nil.
func (g *Graph) Block(bb *ssa.BasicBlock) *Block { return g.blocks[bb] }

// Root returns the synthetic exit block.
func (g *Graph) Root() *Block { return g.root }

// Nodes returns all nodes in creation order.
func (g *Graph) Nodes() []*Node { return g.order }

func (g *Graph) valueNode(v ssa.Value) *Node {
	if key, ok := v.(ssa.Node); ok {
		return g.nodes[key]
	}
	return nil
}

// Criteria is a set of slicing criteria.
type Criteria map[*Node]struct{}

func NewCriteria(ns ...*Node) Criteria {
	return maps.FromKeys(ns)
}

// Has reports whether n is a criterion. It is safe to call on a nil set.
func (c Criteria) Has(n *Node) bool {
	_, found := c[n]
	return found
}
