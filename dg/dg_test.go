package dg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/pkgutil"
)

func loadFunc(t *testing.T, src, name string) *ssa.Function {
	t.Helper()

	pkgs, err := pkgutil.LoadPackagesFromSource(src)
	require.NoError(t, err)

	_, spkgs := pkgutil.BuildSSA(pkgs, ssa.SanityCheckFunctions)
	fn := spkgs[0].Func(name)
	require.NotNil(t, fn)
	return fn
}

func blockNamed(t *testing.T, fn *ssa.Function, comment string) *ssa.BasicBlock {
	t.Helper()

	for _, b := range fn.Blocks {
		if b.Comment == comment {
			return b
		}
	}
	t.Fatalf("no block %q in %v", comment, fn)
	return nil
}

func lastInstr(b *ssa.BasicBlock) ssa.Node {
	return b.Instrs[len(b.Instrs)-1].(ssa.Node)
}

const ifThenProgram = `
	package main

	func ubool() bool

	func main() {
		y := 1
		if ubool() {
			y = 2
		}
		println(y)
	}`

func TestBuild(t *testing.T) {
	fn := loadFunc(t, ifThenProgram, "main")

	m := NewModule()
	g := m.Build(fn)
	require.Same(t, g, m.Graph(fn.String()))

	var (
		entry = g.Block(blockNamed(t, fn, "entry"))
		then  = g.Block(blockNamed(t, fn, "if.then"))
		done  = g.Block(blockNamed(t, fn, "if.done"))
	)

	t.Run("PostDominance", func(t *testing.T) {
		assert.Same(t, done, entry.IPostDom())
		assert.Same(t, done, then.IPostDom())
		assert.Same(t, g.Root(), done.IPostDom())

		assert.Equal(t, []*Block{entry}, then.PostDomFrontiers())
		assert.Empty(t, entry.PostDomFrontiers())
		assert.Empty(t, done.PostDomFrontiers())
	})

	t.Run("ControlDependence", func(t *testing.T) {
		assert.Equal(t, []*Block{then}, entry.ControlDependence())
		assert.Equal(t, []*Block{entry}, then.RevControlDependence())
		assert.Empty(t, done.RevControlDependence())

		branch := g.Node(lastInstr(entry.Key))
		jump := g.Node(lastInstr(then.Key))
		require.NotNil(t, branch)
		require.NotNil(t, jump)

		assert.Contains(t, jump.RevControlDependencies(), branch)
		assert.Equal(t, then.Nodes(), branch.ControlDependencies())
	})

	t.Run("DataDependence", func(t *testing.T) {
		var phi, call *Node
		for _, n := range g.Nodes() {
			switch key := n.Key.(type) {
			case *ssa.Phi:
				phi = n
			case *ssa.Call:
				if _, ok := key.Call.Value.(*ssa.Builtin); ok {
					call = n
				}
			}
		}
		require.NotNil(t, phi)
		require.NotNil(t, call)

		assert.Equal(t, []*Node{phi}, call.RevDataDependencies())
		assert.Equal(t, []*Node{call}, phi.DataDependencies())
		assert.Same(t, done, call.Block())
	})

	t.Run("UniqueIDs", func(t *testing.T) {
		ids := map[int]bool{g.Root().ID: true}
		for _, b := range fn.Blocks {
			id := g.Block(b).ID
			assert.False(t, ids[id])
			ids[id] = true
		}
		for _, n := range g.Nodes() {
			assert.False(t, ids[n.ID])
			ids[n.ID] = true
		}
	})
}

func TestBuildLoop(t *testing.T) {
	fn := loadFunc(t, `
		package main

		func ubool() bool

		func main() {
			for ubool() {
				println(1)
			}
		}`, "main")

	g := NewModule().Build(fn)

	var (
		head = g.Block(blockNamed(t, fn, "for.loop"))
		body = g.Block(blockNamed(t, fn, "for.body"))
		done = g.Block(blockNamed(t, fn, "for.done"))
	)

	assert.Same(t, head, body.IPostDom())
	assert.Same(t, done, head.IPostDom())
	assert.ElementsMatch(t, []*Block{head}, body.PostDomFrontiers())
	// The loop header decides whether it is executed again.
	assert.ElementsMatch(t, []*Block{head}, head.PostDomFrontiers())
	assert.Contains(t, head.RevControlDependence(), head)
}

func TestBuildInfiniteLoop(t *testing.T) {
	fn := loadFunc(t, `
		package main

		func ubool() bool

		func main() {
			for {
				if ubool() {
					println(1)
				}
			}
		}`, "main")

	m := NewModule()
	g := m.Build(fn)

	var (
		body = g.Block(blockNamed(t, fn, "for.body"))
		then = g.Block(blockNamed(t, fn, "if.then"))
		done = g.Block(blockNamed(t, fn, "if.done"))
	)

	// No block returns, so the loop is cut at its latest block.
	assert.Same(t, g.Root(), done.IPostDom())
	assert.Same(t, done, body.IPostDom())
	assert.Same(t, done, then.IPostDom())

	assert.Equal(t, []*Block{body}, then.PostDomFrontiers())
	assert.Equal(t, []*Block{body}, then.RevControlDependence())

	crit := m.CallSites("println")
	require.Len(t, crit, 1)
	MarkSlice(1, crit...)

	branch := g.Node(lastInstr(body.Key))
	assert.Contains(t, crit[0].RevControlDependencies(), branch)
	assert.Equal(t, 1, branch.Slice)
}

func TestCallSites(t *testing.T) {
	fn := loadFunc(t, ifThenProgram, "main")

	m := NewModule()
	m.Build(fn)

	assert.Len(t, m.CallSites("println"), 1)
	assert.Len(t, m.CallSites("ubool"), 1)
	// Functions also match on their qualified name.
	assert.Len(t, m.CallSites(fn.Pkg.Func("ubool").String()), 1)
	assert.Empty(t, m.CallSites(fn.Pkg.Pkg.Path()+".println"))
	assert.Len(t, m.CallSites("println", "ubool"), 2)
	assert.Empty(t, m.CallSites("print"))
	assert.Empty(t, m.CallSites())
}

func TestMarkSlice(t *testing.T) {
	fn := loadFunc(t, ifThenProgram, "main")

	m := NewModule()
	g := m.Build(fn)

	crit := m.CallSites("println")
	require.Len(t, crit, 1)

	marked := MarkSlice(1, crit...)
	assert.Positive(t, marked)

	then := blockNamed(t, fn, "if.then")
	jump := g.Node(lastInstr(then))
	assert.Zero(t, jump.Slice, "the jump does not affect println")

	for _, n := range g.Nodes() {
		if _, ok := n.Key.(*ssa.Phi); ok {
			assert.Equal(t, 1, n.Slice)
		}
	}
	assert.Equal(t, 1, crit[0].Slice)

	// Marking again with the same id changes nothing.
	assert.Zero(t, MarkSlice(1, crit...))

	assert.Panics(t, func() { MarkSlice(0, crit...) })
}

func TestModuleOrder(t *testing.T) {
	pkgs, err := pkgutil.LoadPackagesFromSource(`
		package main

		func c() {}
		func a() {}
		func b() {}

		func main() {}`)
	require.NoError(t, err)

	_, spkgs := pkgutil.BuildSSA(pkgs, 0)
	pkg := spkgs[0]

	m := NewModule()
	var want []string
	for _, name := range []string{"c", "a", "b"} {
		fn := pkg.Func(name)
		m.Build(fn)
		want = append(want, fn.String())
	}

	var names []string
	m.Range(func(name string, _ *Graph) bool {
		names = append(names, name)
		return true
	})
	assert.Equal(t, want, names)
	assert.Equal(t, 3, m.Len())

	names = nil
	m.Range(func(name string, _ *Graph) bool {
		names = append(names, name)
		return false
	})
	assert.Equal(t, want[:1], names)

	assert.Same(t, m.Graph(want[1]).Func, pkg.Func("a"))
	assert.Nil(t, m.Graph(pkg.Func("main").String()))
}

func TestCriteria(t *testing.T) {
	var (
		a, b = &Node{ID: 1}, &Node{ID: 2}
		none Criteria
	)

	assert.False(t, none.Has(a))

	c := NewCriteria(a)
	assert.True(t, c.Has(a))
	assert.False(t, c.Has(b))
	assert.Equal(t, "#1", a.String())
}
