package annotate_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/BarrensZeppelin/pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/BarrensZeppelin/annotate"
	"github.com/BarrensZeppelin/annotate/dda"
	"github.com/BarrensZeppelin/annotate/dg"
	"github.com/BarrensZeppelin/annotate/pkgutil"
	"github.com/BarrensZeppelin/annotate/printer"
	"github.com/BarrensZeppelin/annotate/pta"
)

func TestAnnotatedDump(t *testing.T) {
	pkgs, err := pkgutil.LoadPackagesFromSource(`
		package main

		type T struct {
			a int64
			b int64
		}

		func ubool() bool

		func main() {
			x := new(T)
			x.b = 1
			y := x.a
			if ubool() {
				y = 2
			}
			println(y)
		}`)
	require.NoError(t, err)

	prog, spkgs := pkgutil.BuildSSA(pkgs, ssa.SanityCheckFunctions)
	fns := printer.PackageFunctions(spkgs[0])
	require.Len(t, fns, 1)

	module := dg.NewModule()
	module.BuildAll(fns)

	res := pointer.Analyze(pointer.AnalysisConfig{
		Program:       prog,
		EntryPackages: ssautil.MainPackages(spkgs),
	})
	steens := pta.NewSteensgaard(&res, nil)

	crit := module.CallSites("println")
	require.Len(t, crit, 1)
	require.Positive(t, dg.MarkSlice(1, crit...))

	w := annotate.NewWriter(annotate.Config{
		Options: annotate.Combine(annotate.AnnotateDD, annotate.AnnotateCD,
			annotate.AnnotatePtr, annotate.AnnotateDU, annotate.AnnotatePostDom,
			annotate.AnnotateSlice, annotate.AnnotateMemoryAcc),
		Graphs:   module,
		PTA:      steens,
		DDA:      dda.Local{PTA: steens},
		Criteria: dg.NewCriteria(crit...),
	})
	w.SetModuleComment("  ; test module\n")

	var sb strings.Builder
	require.NoError(t, printer.Fprint(&sb, w, fns...))
	dump := sb.String()
	t.Log("\n" + dump)

	mainFn := fns[0]
	assert.True(t, strings.HasPrefix(dump, fmt.Sprintf("  ; test module\nfunc %s():\n", mainFn)))
	for _, line := range strings.Split(dump, "\n") {
		if strings.HasPrefix(line, "  ; ") || line == "" {
			continue
		}
		// Everything else belongs to the dump itself.
		assert.Regexp(t, `^(func |\d+:|\t)`, line)
	}

	for _, want := range []string{
		"  ; PTR: t0 + 0\n",
		"  ; t0 bytes [0 - 15]\n",
		fmt.Sprintf("  ; BB: %[1]s#0\n  ; iPD: %[1]s#2\n", mainFn),
		fmt.Sprintf("  ; BB: %[1]s#1\n  ; PDF: %[1]s#0\n  ; iPD: %[1]s#2\n  ; CD: %[1]s#0\n", mainFn),
		"  ; SLICING CRITERION\n",
		// The jump only decides control flow that the criterion does not
		// depend on.
		"  ; x \tjump 2\n",
	} {
		assert.Contains(t, dump, want)
	}

	// The call to the external function is not resolved by the analysis.
	assert.Contains(t, dump, "  ; unknown region\n")
}
