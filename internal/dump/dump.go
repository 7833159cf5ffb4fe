// Package dump renders a resolved slice as comment-stripped,
// whitespace-collapsed C source grouped by file. Pure; no I/O.
package dump

import (
	"fmt"
	"sort"
	"strings"

	"github.com/srcslice/srcslice/internal/model"
	"github.com/srcslice/srcslice/internal/scanner"
)

// Render produces the final dump text: one group per file in discovery
// order, each headed by a marker line, its include directives echoed, and
// its admitted symbols in original source order. Notes follow as a
// comment-only section so the artifact stays paste-safe and omissions are
// auditable.
func Render(s *model.Slice) string {
	var b strings.Builder

	for _, sf := range s.Files {
		syms := admittedInOrder(s, sf)
		if len(syms) == 0 && sf.Path != s.Entry {
			continue
		}

		fmt.Fprintf(&b, "// --- FILE: %s ---\n", sf.Path)
		for _, inc := range sf.Includes {
			if inc.System {
				fmt.Fprintf(&b, "#include <%s>\n", inc.Path)
			} else {
				fmt.Fprintf(&b, "#include %q\n", inc.Path)
			}
		}
		for _, sym := range syms {
			b.WriteString(scanner.Collapse(sf.Clean[sym.Start:sym.End]))
			b.WriteString("\n\n")
		}
		if len(syms) == 0 {
			b.WriteString("\n")
		}
	}

	if len(s.Notes) > 0 {
		b.WriteString("// --- NOTES ---\n")
		for _, n := range s.Notes {
			fmt.Fprintf(&b, "// [%s] %s: %s\n", n.Kind, n.File, n.Detail)
		}
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

// admittedInOrder returns the file's admitted, non-prototype symbols
// sorted by span start (original source order, not admission order).
func admittedInOrder(s *model.Slice, sf *model.SourceFile) []*model.Symbol {
	var out []*model.Symbol
	for i := range sf.Symbols {
		sym := &sf.Symbols[i]
		if sym.Prototype || !s.IsAdmitted(sym) {
			continue
		}
		out = append(out, sym)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
