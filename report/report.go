// Package report renders command replies as titled blocks for a human to
// read or paste elsewhere.
package report

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// NoResponse replaces the lines of a command that got no reply.
const NoResponse = "<no response>"

// Printer writes blocks and notes to an output stream. Headers and notes are
// colored when the process writes to a terminal.
type Printer struct {
	w      io.Writer
	header *color.Color
	note   *color.Color
}

func New(w io.Writer) *Printer {
	return &Printer{
		w:      w,
		header: color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgYellow),
	}
}

// Block prints the reply lines of one command between a header and a footer
// naming title.
func (p *Printer) Block(title string, lines []string) {
	fmt.Fprintln(p.w)
	p.header.Fprintf(p.w, "---- %s ----", title)
	fmt.Fprintln(p.w)

	if len(lines) == 0 {
		lines = []string{NoResponse}
	}
	for _, l := range lines {
		fmt.Fprintln(p.w, l)
	}

	p.header.Fprintf(p.w, "---- end %s ----", title)
	fmt.Fprint(p.w, "\n\n")
}

// Notef prints a progress message on its own line.
func (p *Printer) Notef(format string, args ...any) {
	p.note.Fprintf(p.w, format, args...)
	fmt.Fprintln(p.w)
}
