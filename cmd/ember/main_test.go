package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/peterh/liner"

	"ember/internal/diag"
)

func runCLI(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func writeSource(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.ember")
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUsage(t *testing.T) {
	if _, _, code := runCLI(t); code != exitUsage {
		t.Fatalf("no args: got %d", code)
	}
	if _, stderr, code := runCLI(t, "frobnicate"); code != exitUsage || !strings.Contains(stderr, "usage:") {
		t.Fatalf("unknown command: got %d %q", code, stderr)
	}
	if _, _, code := runCLI(t, "run"); code != exitUsage {
		t.Fatalf("missing input: got %d", code)
	}
	if _, _, code := runCLI(t, "run", "--nope", "x.ember"); code != exitUsage {
		t.Fatalf("bad flag: got %d", code)
	}
}

func TestRunFixture(t *testing.T) {
	want, err := os.ReadFile(filepath.Join("..", "..", "testdata", "fib.out"))
	if err != nil {
		t.Fatal(err)
	}
	stdout, stderr, code := runCLI(t, "run", filepath.Join("..", "..", "testdata", "fib.ember"))
	if code != 0 || stderr != "" {
		t.Fatalf("exit %d, stderr %q", code, stderr)
	}
	if stdout != string(want) {
		t.Fatalf("unexpected output %q", stdout)
	}
}

func TestRunExitCode(t *testing.T) {
	_, _, code := runCLI(t, "run", filepath.Join("..", "..", "testdata", "loops.ember"))
	if code != 30 {
		t.Fatalf("expected exit 30, got %d", code)
	}
	_, _, code = runCLI(t, "run", "--fold", filepath.Join("..", "..", "testdata", "loops.ember"))
	if code != 30 {
		t.Fatalf("expected exit 30 with folding, got %d", code)
	}
}

func TestRunErrors(t *testing.T) {
	if _, _, code := runCLI(t, "run", filepath.Join(t.TempDir(), "missing.ember")); code != exitNoInput {
		t.Fatalf("missing file: got %d", code)
	}
	if _, _, code := runCLI(t, "run", t.TempDir()); code != exitNoInput {
		t.Fatalf("directory: got %d", code)
	}

	path := writeSource(t, "int32 a = 1\nint32 b = 2;\nint32 c = 3\nprint(c);\n")
	_, stderr, code := runCLI(t, "run", path)
	if code != exitData {
		t.Fatalf("syntax error: got %d", code)
	}
	if strings.Count(stderr, "Syntax error 201") != 2 {
		t.Fatalf("expected both missing semicolons reported:\n%s", stderr)
	}

	path = writeSource(t, "print(1);\nprint(1 / 0);\n")
	stdout, stderr, code := runCLI(t, "run", path)
	if code != exitRuntime {
		t.Fatalf("runtime error: got %d", code)
	}
	if stdout != "1\n" || !strings.Contains(stderr, "Runtime error 305") {
		t.Fatalf("stdout %q stderr %q", stdout, stderr)
	}
}

func TestRunTrace(t *testing.T) {
	path := writeSource(t, "{ int32 a = 1; }")
	_, stderr, code := runCLI(t, "run", "--trace", path)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stderr, "trace: push environment") || !strings.Contains(stderr, "trace: pop environment") {
		t.Fatalf("missing trace lines:\n%s", stderr)
	}
}

func TestTokens(t *testing.T) {
	path := writeSource(t, "x = 10;")
	stdout, _, code := runCLI(t, "tokens", path)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	want := "1:1\tx\n1:3\t=\n1:5\t10\n1:7\t;\n1:8\tend of file\n"
	if stdout != want {
		t.Fatalf("got %q", stdout)
	}

	path = writeSource(t, "x @ 1;")
	_, stderr, code := runCLI(t, "tokens", path)
	if code != exitData || !strings.Contains(stderr, "Lexical error") {
		t.Fatalf("exit %d stderr %q", code, stderr)
	}
}

func TestAstFold(t *testing.T) {
	path := writeSource(t, "print(2 + 3 * 4);")
	stdout, _, code := runCLI(t, "ast", "--fold", path)
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	if !strings.Contains(stdout, "LiteralExpr int64 14") || strings.Contains(stdout, "BinaryExpr") {
		t.Fatalf("expected folded tree:\n%s", stdout)
	}
}

func TestFormatWrite(t *testing.T) {
	path := writeSource(t, "int32 x=1+2;")
	if _, _, code := runCLI(t, "format", "--write", path); code != 0 {
		t.Fatalf("exit %d", code)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "int32 x = 1 + 2;\n" {
		t.Fatalf("got %q", got)
	}
}

func TestGraphToFile(t *testing.T) {
	path := writeSource(t, "print(1);")
	out := filepath.Join(t.TempDir(), "ast.dot")
	if _, _, code := runCLI(t, "graph", "-o", out, path); code != 0 {
		t.Fatalf("exit %d", code)
	}
	dot, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(dot), "digraph ast {") {
		t.Fatalf("got %q", dot)
	}
}

func TestExport(t *testing.T) {
	path := writeSource(t, "print(1);")
	db := filepath.Join(t.TempDir(), "ast.sqlite")
	if _, _, code := runCLI(t, "export", path); code != exitUsage {
		t.Fatalf("missing -db: got %d", code)
	}
	stdout, stderr, code := runCLI(t, "export", "-db", db, path)
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "as run 1") {
		t.Fatalf("got %q", stdout)
	}
}

type scriptedPrompter struct {
	lines   []string
	prompts []string
}

func (p *scriptedPrompter) Prompt(prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	if len(p.lines) == 0 {
		return "", io.EOF
	}
	line := p.lines[0]
	p.lines = p.lines[1:]
	if line == "^C" {
		return "", liner.ErrPromptAborted
	}
	return line, nil
}

func TestReplSession(t *testing.T) {
	var out, errOut bytes.Buffer
	s := newSession(&out, diag.NewPrinter(&errOut, false))
	p := &scriptedPrompter{lines: []string{
		"int32 x = 2;",
		"fn sq(int32 v): int32 {",
		"  return v * v;",
		"}",
		"sq(x) + 1;",
		"print(x);",
		"y;",
		"x;",
		":quit",
		"print(99);",
	}}
	var history []string
	s.loop(p, func(line string) { history = append(history, line) })

	if out.String() != "5\n2\n2\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if !strings.Contains(errOut.String(), "Runtime error 301") {
		t.Fatalf("expected undefined variable error, got %q", errOut.String())
	}
	if len(history) != 6 || history[1] != "fn sq(int32 v): int32 {   return v * v; }" {
		t.Fatalf("unexpected history %q", history)
	}
	cont := 0
	for _, pr := range p.prompts {
		if pr == promptCont {
			cont++
		}
	}
	if cont != 2 {
		t.Fatalf("expected 2 continuation prompts, got %d", cont)
	}
}

func TestReplAbortDropsPendingInput(t *testing.T) {
	var out, errOut bytes.Buffer
	s := newSession(&out, diag.NewPrinter(&errOut, false))
	p := &scriptedPrompter{lines: []string{"print(1,", "^C", "print(2);"}}
	s.loop(p, nil)
	if out.String() != "2\n\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
	if errOut.Len() != 0 {
		t.Fatalf("unexpected diagnostics %q", errOut.String())
	}
}
