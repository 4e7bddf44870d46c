package graphviz

import (
	"bytes"
	"strings"
	"testing"

	"ember/internal/parser"
	"ember/internal/symtab"
)

func render(t *testing.T, src string) string {
	t.Helper()
	table := symtab.New()
	mod, err := parser.New("g.ember", src, table).ParseModule()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, mod, table); err != nil {
		t.Fatal(err)
	}
	return buf.String()
}

func TestWrite(t *testing.T) {
	got := render(t, "int32 x = 1 + 2;")
	want := `digraph ast {
	node [shape=box, fontname="monospace"];
	node0 [label="Module g.ember"];
	node1 [label="VariableDecl int32 x"];
	node2 [label="BinaryExpr +"];
	node3 [label="LiteralExpr int64 1"];
	node4 [label="LiteralExpr int64 2"];
	node0 -> node1;
	node1 -> node2;
	node2 -> node3;
	node2 -> node4;
}
`
	if got != want {
		t.Fatalf("unexpected dot output\n%s", got)
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	src := `fn f(int32 a): int32 { while (a > 0) { a -= 1; } return a; }
print(f(3), true);`
	first := render(t, src)
	second := render(t, src)
	if first != second {
		t.Fatalf("renders differ\n%s\n%s", first, second)
	}
	if strings.Count(first, "->") != strings.Count(first, "[label=")-1 {
		t.Fatalf("expected a tree: one edge per non-root node\n%s", first)
	}
}
