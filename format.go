package annotate

import (
	"fmt"
	"io"

	"golang.org/x/tools/go/ssa"

	"github.com/BarrensZeppelin/annotate/dda"
	"github.com/BarrensZeppelin/annotate/known"
	"github.com/BarrensZeppelin/annotate/pta"
)

// CommentPrefix starts every annotation line.
const CommentPrefix = "  ; "

// valueName returns the register or member name of v, if it has one.
// Instructions that are not values have no name.
func valueName(v fmt.Stringer) (string, bool) {
	val, ok := v.(ssa.Value)
	if !ok || val.Name() == "" {
		return "", false
	}
	return val.Name(), true
}

// structural returns the full textual form of v. Value-producing
// instructions are rendered as they appear in the dump, "name = instr".
func structural(v fmt.Stringer) string {
	if name, ok := valueName(v); ok {
		if _, isInsn := v.(ssa.Instruction); isInsn {
			return name + " = " + v.String()
		}
	}
	return v.String()
}

// printValue writes the name of v, or its structural form if it has none.
func printValue(w io.Writer, v fmt.Stringer, nl bool) {
	if v == nil {
		io.WriteString(w, "<nil>")
	} else if name, ok := valueName(v); ok {
		io.WriteString(w, name)
	} else {
		io.WriteString(w, structural(v))
	}

	if nl {
		io.WriteString(w, "\n")
	}
}

func printPointer(w io.Writer, ptr pta.Pointer, prefix string, nl bool) {
	io.WriteString(w, CommentPrefix+prefix)
	printValue(w, ptr.Value, false)
	fmt.Fprintf(w, " + %v", ptr.Offset)

	if nl {
		io.WriteString(w, "\n")
	}
}

func printDefSite(w io.Writer, ds dda.DefSite, prefix string, nl bool) {
	io.WriteString(w, CommentPrefix+prefix)

	if ds.Target != nil {
		if ds.Target.Unknown {
			io.WriteString(w, "unknown")
		} else {
			printValue(w, ds.Target.Value, false)
		}

		fmt.Fprintf(w, " bytes |%s|", known.FormatInterval(ds.Offset, ds.Len))
	} else {
		io.WriteString(w, "target is null!")
	}

	if nl {
		io.WriteString(w, "\n")
	}
}

func printMemRegion(w io.Writer, r pta.MemoryRegion, prefix string, nl bool) {
	io.WriteString(w, CommentPrefix+prefix)
	printValue(w, r.Pointer.Value, false)

	fmt.Fprintf(w, " bytes [%s]", known.FormatInterval(r.Pointer.Offset, r.Len))

	if nl {
		io.WriteString(w, "\n")
	}
}
