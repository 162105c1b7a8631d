package main

import (
	"flag"
	"io"
	"log"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/BarrensZeppelin/pointer"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
	"golang.org/x/tools/go/ssa/ssautil"

	"github.com/BarrensZeppelin/annotate"
	"github.com/BarrensZeppelin/annotate/config"
	"github.com/BarrensZeppelin/annotate/dda"
	"github.com/BarrensZeppelin/annotate/dg"
	"github.com/BarrensZeppelin/annotate/internal/slices"
	"github.com/BarrensZeppelin/annotate/pkgutil"
	"github.com/BarrensZeppelin/annotate/printer"
	"github.com/BarrensZeppelin/annotate/pta"
	slicesx "github.com/BarrensZeppelin/annotate/slices"
)

var (
	cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
	dir        = flag.String("dir", "", "alternative directory to run the go build tool in")
	configPath = flag.String("config", "", "read settings from the YAML `file`")
	annots     = flag.String("annotate", "", "comma separated annotation categories: dd,fdd,cd,ptr,du,postdom,slice,memacc")
	criteria   = flag.String("criteria", "", "comma separated names of functions whose calls are slicing criteria")
	output     = flag.String("o", "", "write the dump to `file` instead of stdout")
)

func init() {
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func main() {
	flag.Parse()

	if flag.NArg() == 0 {
		log.Fatal("Specify a package query on the command line")
	}

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Fatal("Failed to close", f)
			}
		}()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}

	conf := &config.Config{}
	if *configPath != "" {
		var err error
		if conf, err = config.Load(*configPath); err != nil {
			log.Fatal(err)
		}
	}
	conf.Annotate = append(conf.Annotate, *annots)
	if *criteria != "" {
		conf.Criteria = append(conf.Criteria, strings.Split(*criteria, ",")...)
	}

	opts, err := annotate.ParseOptions(conf.Annotate...)
	if err != nil {
		log.Fatal(err)
	}

	pkgs, err := pkgutil.LoadPackagesWithConfig(&packages.Config{
		Mode:  pkgutil.LoadMode,
		Tests: false,
		Dir:   *dir,
	}, flag.Args()...)
	if err != nil {
		log.Fatalf("Loading packages failed: %v", err)
	}

	log.Printf("Loaded %d packages", len(pkgs))

	prog, spkgs := pkgutil.BuildSSA(pkgs, 0)

	log.Println("Built packages")

	var fns []*ssa.Function
	for _, pkg := range spkgs {
		if pkg == nil {
			continue
		}
		for _, fn := range printer.PackageFunctions(pkg) {
			if len(conf.Functions) == 0 || slicesx.Contains(conf.Functions, fn.String()) {
				fns = append(fns, fn)
			}
		}
	}

	module := dg.NewModule()
	module.BuildAll(fns)

	log.Printf("Built dependence graphs for %d functions", module.Len())

	wconfig := annotate.Config{Options: opts, Graphs: module}

	if opts.Has(annotate.AnnotatePtr | annotate.AnnotateMemoryAcc | annotate.AnnotateDU) {
		mains := ssautil.MainPackages(spkgs)
		if len(mains) == 0 {
			log.Fatal("Points-to annotations require a main package")
		}

		res := pointer.Analyze(pointer.AnalysisConfig{
			Program:       prog,
			EntryPackages: mains,
		})
		log.Printf("%d reachable functions", len(res.Reachable))

		wconfig.PTA = pta.NewSteensgaard(&res, nil)
		wconfig.DDA = dda.Local{PTA: wconfig.PTA}
	}

	if len(conf.Criteria) > 0 {
		crit := module.CallSites(conf.Criteria...)
		log.Printf("Found %d slicing criteria", len(crit))

		marked := dg.MarkSlice(1, crit...)
		log.Printf("Slice contains %d of %d nodes", marked, countNodes(module))
		wconfig.Criteria = dg.NewCriteria(crit...)
	}

	w := annotate.NewWriter(wconfig)
	w.SetModuleComment(moduleComment(conf, opts))

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		out = f
	}

	if err := printer.Fprint(out, w, fns...); err != nil {
		log.Fatalf("Writing dump failed: %v", err)
	}
}

func moduleComment(conf *config.Config, opts annotate.Options) string {
	if conf.Comment != "" {
		return conf.Comment
	}

	lines := []string{"annotations: " + opts.String()}
	if len(conf.Criteria) > 0 {
		lines = append(lines, "slicing criteria: "+strings.Join(conf.Criteria, ", "))
	}
	return strings.Join(slices.Map(lines, func(l string) string {
		return annotate.CommentPrefix + l + "\n"
	}), "")
}

func countNodes(m *dg.Module) int {
	var n int
	m.Range(func(_ string, g *dg.Graph) bool {
		n += len(g.Nodes())
		return true
	})
	return n
}
