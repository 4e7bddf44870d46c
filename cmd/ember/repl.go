package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"ember/internal/diag"
	"ember/internal/interp"
	"ember/internal/parser"
	"ember/internal/symtab"
)

const (
	historyFile = ".ember_history"
	promptMain  = "ember> "
	promptCont  = "...... "
)

// prompter is the part of *liner.State the read loop needs.
type prompter interface {
	Prompt(prompt string) (string, error)
}

func (c *cli) replCmd(args []string) int {
	fs := c.flags("repl")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(c.stderr, "repl: no arguments expected")
		return exitUsage
	}

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := historyPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	s := newSession(c.stdout, c.diags)
	s.loop(ln, ln.AppendHistory)
	return 0
}

// historyPath honours EMBER_HISTORY, falling back to a file in the home
// directory. An empty result disables history.
func historyPath() string {
	if p, ok := os.LookupEnv("EMBER_HISTORY"); ok {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, historyFile)
}

// session keeps one symbol table and interpreter alive across inputs so
// later lines see earlier declarations.
type session struct {
	table *symtab.Table
	in    *interp.Interpreter
	out   io.Writer
	diags *diag.Printer
}

func newSession(out io.Writer, diags *diag.Printer) *session {
	table := symtab.New()
	return &session{table: table, in: interp.New(table, out), out: out, diags: diags}
}

func (s *session) loop(p prompter, record func(string)) {
	for {
		src, ok := readInput(p)
		if !ok {
			fmt.Fprintln(s.out)
			return
		}
		switch strings.TrimSpace(src) {
		case "":
			continue
		case ":quit", ":q":
			return
		}
		if record != nil {
			record(strings.ReplaceAll(src, "\n", " "))
		}
		s.eval(src)
	}
}

// eval runs one complete input and echoes its value unless it is void.
func (s *session) eval(src string) {
	mod, err := parser.New("repl", src, s.table).ParseModule()
	if err != nil {
		s.diags.Print(err)
		return
	}
	v, err := s.in.Exec(mod)
	if err != nil {
		s.diags.Print(err)
		return
	}
	if v.Kind != interp.KindVoid {
		fmt.Fprintln(s.out, v)
	}
}

// readInput keeps prompting while the text so far only fails to parse
// because it ends early. Ctrl-C drops the pending input.
func readInput(p prompter) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := p.Prompt(prompt)
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if errors.Is(err, io.EOF) && b.Len() > 0 {
			return b.String(), true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		// Trial-parse with a throwaway table so half-typed names never reach
		// the session.
		_, perr := parser.New("repl", b.String(), symtab.New()).ParseModule()
		var list diag.List
		if perr != nil && errors.As(perr, &list) && list.Incomplete() {
			continue
		}
		return b.String(), true
	}
}
