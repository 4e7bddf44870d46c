package diag

import (
	"errors"
	"fmt"
	"io"
)

const (
	colorRed   = "\033[31m"
	colorBold  = "\033[1m"
	colorReset = "\033[0m"
)

// Printer writes diagnostics one per line.
type Printer struct {
	W     io.Writer
	Color bool
}

func NewPrinter(w io.Writer, color bool) *Printer {
	return &Printer{W: w, Color: color}
}

// Print writes err. A List is expanded into one line per entry; any other
// error is written as-is.
func (p *Printer) Print(err error) {
	if err == nil {
		return
	}
	var list List
	if errors.As(err, &list) {
		for _, e := range list {
			p.print(e)
		}
		return
	}
	var single *Error
	if errors.As(err, &single) {
		p.print(single)
		return
	}
	p.line(err.Error())
}

func (p *Printer) print(e *Error) {
	if !p.Color {
		fmt.Fprintln(p.W, e.Error())
		return
	}
	head := fmt.Sprintf("%s error %d:", e.Code.Phase(), int(e.Code))
	if !e.Loc.IsZero() {
		fmt.Fprintf(p.W, "%s[%s]%s ", colorBold, e.Loc, colorReset)
	}
	fmt.Fprintf(p.W, "%s%s%s %s\n", colorRed, head, colorReset, e.Message())
}

func (p *Printer) line(s string) {
	if p.Color {
		fmt.Fprintf(p.W, "%s%s%s\n", colorRed, s, colorReset)
		return
	}
	fmt.Fprintln(p.W, s)
}
