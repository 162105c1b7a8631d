package annotate

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/dda"
	"github.com/BarrensZeppelin/annotate/pkgutil"
	"github.com/BarrensZeppelin/annotate/pta"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const fieldsProgram = `
	package main

	type T struct {
		a int64
		b int64
	}

	func ubool() bool

	func other() {}

	func main() {
		x := new(T)
		x.b = 1
		y := x.a
		if ubool() {
			y = 2
		}
		println(y)
	}`

// loadPackage builds the SSA form of a single-file main package.
func loadPackage(t *testing.T, src string) *ssa.Package {
	t.Helper()

	pkgs, err := pkgutil.LoadPackagesFromSource(src)
	require.NoError(t, err)

	_, spkgs := pkgutil.BuildSSA(pkgs, ssa.SanityCheckFunctions)
	require.Len(t, spkgs, 1)
	return spkgs[0]
}

func loadFunc(t *testing.T, src, name string) *ssa.Function {
	t.Helper()

	fn := loadPackage(t, src).Func(name)
	require.NotNil(t, fn, "no function %s", name)
	return fn
}

// instrsOf returns the instructions of type T in fn, in order.
func instrsOf[T ssa.Instruction](fn *ssa.Function) []T {
	var res []T
	for _, b := range fn.Blocks {
		for _, insn := range b.Instrs {
			if i, ok := insn.(T); ok {
				res = append(res, i)
			}
		}
	}
	return res
}

func firstOf[T ssa.Instruction](t *testing.T, fn *ssa.Function) T {
	t.Helper()

	is := instrsOf[T](fn)
	require.NotEmpty(t, is)
	return is[0]
}

type fakePTA struct {
	sets          map[ssa.Value]pta.Set
	regions       map[ssa.Instruction][]pta.MemoryRegion
	unknownRegion map[ssa.Instruction]bool

	pointsToQueries []ssa.Value
	memoryQueries   []ssa.Instruction
}

func newFakePTA() *fakePTA {
	return &fakePTA{
		sets:          make(map[ssa.Value]pta.Set),
		regions:       make(map[ssa.Instruction][]pta.MemoryRegion),
		unknownRegion: make(map[ssa.Instruction]bool),
	}
}

func (f *fakePTA) PointsTo(v ssa.Value) pta.Set {
	f.pointsToQueries = append(f.pointsToQueries, v)
	return f.sets[v]
}

func (f *fakePTA) AccessedMemory(insn ssa.Instruction) (bool, []pta.MemoryRegion) {
	f.memoryQueries = append(f.memoryQueries, insn)
	return f.unknownRegion[insn], f.regions[insn]
}

type fakeDDA struct {
	queries int
}

func (f *fakeDDA) Definitions(ssa.Instruction) []dda.DefSite {
	f.queries++
	return nil
}
