package formatter

import (
	"strings"

	"ember/internal/ast"
	"ember/internal/symtab"
)

// Tree dumps the AST one node per line, children indented under their
// parent.
func Tree(root ast.Node, table *symtab.Table) string {
	var sb strings.Builder
	for _, n := range ast.Flatten(root) {
		sb.WriteString(strings.Repeat("  ", n.Depth))
		sb.WriteString(Label(n.Node, table))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Label is a one-line description of a single node, without its children.
func Label(n ast.Node, table *symtab.Table) string {
	kind := ast.KindName(n)
	switch n := n.(type) {
	case *ast.Module:
		return kind + " " + n.File
	case *ast.Param:
		return kind + " " + n.Type.String() + " " + table.Name(n.ID)
	case *ast.FunctionDecl:
		return kind + " " + table.Name(n.ID) + ": " + n.Return.String()
	case *ast.VariableDecl:
		return kind + " " + n.Type.String() + " " + table.Name(n.ID)
	case *ast.BinaryExpr:
		return kind + " " + n.Op.String()
	case *ast.UnaryExpr:
		return kind + " " + n.Op.String()
	case *ast.VariableExpr:
		return kind + " " + table.Name(n.ID)
	case *ast.LiteralExpr:
		return kind + " " + n.Type.String() + " " + literal(n)
	}
	return kind
}
