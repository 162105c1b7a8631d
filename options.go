package annotate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BarrensZeppelin/annotate/internal/maps"
)

// Options is a set of annotation categories.
type Options uint

const (
	// Data dependencies
	AnnotateDD Options = 1 << iota
	// Forward data dependencies
	AnnotateForwardDD
	// Control dependencies
	AnnotateCD
	// Points-to information
	AnnotatePtr
	// Reaching definitions. Reserved: enabling it requires a data dependence
	// analysis, but no annotations are emitted for it.
	AnnotateDU
	// Post-dominators
	AnnotatePostDom
	// Slicing criteria, and nodes that slicing removes
	AnnotateSlice
	// Memory accesses as byte intervals
	AnnotateMemoryAcc
)

var optionNames = map[string]Options{
	"dd":      AnnotateDD,
	"fdd":     AnnotateForwardDD,
	"cd":      AnnotateCD,
	"ptr":     AnnotatePtr,
	"du":      AnnotateDU,
	"postdom": AnnotatePostDom,
	"slice":   AnnotateSlice,
	"memacc":  AnnotateMemoryAcc,
}

// Combine returns the union of the given sets.
func Combine(opts ...Options) Options {
	var res Options
	for _, o := range opts {
		res |= o
	}
	return res
}

// Has reports whether any category in o is enabled in opts.
func (opts Options) Has(o Options) bool { return opts&o != 0 }

func (opts Options) Empty() bool { return opts == 0 }

func (opts Options) String() string {
	if opts == 0 {
		return "none"
	}

	var names []string
	for name, o := range optionNames {
		if opts.Has(o) {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return optionNames[names[i]] < optionNames[names[j]]
	})

	if rest := opts &^ Combine(maps.Values(optionNames)...); rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint(rest)))
	}
	return strings.Join(names, "|")
}

// ParseOptions parses category names (dd, fdd, cd, ptr, du, postdom, slice,
// memacc). Names are case-insensitive and may also be given as a single
// comma separated list.
func ParseOptions(names ...string) (Options, error) {
	var opts Options
	for _, arg := range names {
		for _, name := range strings.Split(arg, ",") {
			name = strings.ToLower(strings.TrimSpace(name))
			if name == "" {
				continue
			}

			o, found := optionNames[name]
			if !found {
				valid := maps.Keys(optionNames)
				sort.Strings(valid)
				return 0, fmt.Errorf("unknown annotation %q (valid: %s)",
					name, strings.Join(valid, ", "))
			}
			opts |= o
		}
	}
	return opts, nil
}
