// Package graphviz renders an AST as a Graphviz DOT digraph.
package graphviz

import (
	"fmt"
	"io"
	"strings"

	"ember/internal/ast"
	"ember/internal/formatter"
	"ember/internal/symtab"
)

var labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Write emits one node statement per AST node followed by the parent to
// child edges. Node names follow pre-order numbering, so rendering the same
// tree twice gives the same output.
func Write(w io.Writer, mod *ast.Module, table *symtab.Table) error {
	var sb strings.Builder
	sb.WriteString("digraph ast {\n")
	sb.WriteString("\tnode [shape=box, fontname=\"monospace\"];\n")
	flat := ast.Flatten(mod)
	for _, n := range flat {
		fmt.Fprintf(&sb, "\tnode%d [label=\"%s\"];\n", n.ID, labelEscaper.Replace(formatter.Label(n.Node, table)))
	}
	for _, n := range flat {
		if n.Parent < 0 {
			continue
		}
		fmt.Fprintf(&sb, "\tnode%d -> node%d;\n", n.Parent, n.ID)
	}
	sb.WriteString("}\n")
	_, err := io.WriteString(w, sb.String())
	return err
}
