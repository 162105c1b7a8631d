package dg

import "github.com/BarrensZeppelin/annotate/internal/queue"

// MarkSlice marks every node that the criteria transitively depend on, via
// data or control dependencies, with the given slice id. It returns the number
// of newly marked nodes. Nodes left with Slice == 0 are the ones slicing
// would remove.
func MarkSlice(id int, criteria ...*Node) int {
	if id == 0 {
		panic("slice id must be non-zero")
	}

	var (
		q      queue.Queue[*Node]
		marked int
	)

	mark := func(n *Node) {
		if n.Slice != id {
			n.Slice = id
			marked++
			q.Push(n)
		}
	}

	for _, c := range criteria {
		mark(c)
	}

	for !q.Empty() {
		n := q.Pop()
		for _, dep := range n.revDataDeps {
			mark(dep)
		}
		for _, dep := range n.revControlDeps {
			mark(dep)
		}
	}

	return marked
}
