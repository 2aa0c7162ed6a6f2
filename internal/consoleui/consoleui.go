// Package consoleui is the plain, non-TUI reader of the progress
// channel: an in-place status line when stdout is a terminal, one
// line per event otherwise (e.g. piped to a log file under cron).
package consoleui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/photomirror/photomirror/internal/progress"
)

// Printer drains a progress.Chan to an io.Writer.
type Printer struct {
	out      io.Writer
	isTTY    bool
	lastLine string
}

// New builds a Printer writing to out. If out is *os.File and a
// terminal, in-place status lines are used; otherwise every event
// gets its own line.
func New(out io.Writer) *Printer {
	isTTY := false
	if f, ok := out.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{out: out, isTTY: isTTY}
}

// Run drains ch until it closes, printing a human-readable line per
// event. It returns once the channel is closed, so callers typically
// run it in its own goroutine.
func (p *Printer) Run(ch progress.Chan) {
	for ev := range ch {
		p.print(ev)
	}
	if p.isTTY && p.lastLine != "" {
		fmt.Fprintln(p.out)
	}
}

func (p *Printer) print(ev progress.Event) {
	line := format(ev)
	if line == "" {
		return
	}

	if p.isTTY {
		fmt.Fprintf(p.out, "\r\033[K%s", line)
		p.lastLine = line
		return
	}

	fmt.Fprintln(p.out, line)
}

func format(ev progress.Event) string {
	switch ev.Kind {
	case progress.KindPhaseChanged:
		return fmt.Sprintf("[%s]", ev.Phase)
	case progress.KindCounted:
		return fmt.Sprintf("%s: %d", ev.Label, ev.Count)
	case progress.KindWriteOp:
		return fmt.Sprintf("%s %s", ev.Op, ev.Target)
	case progress.KindWarning:
		return fmt.Sprintf("warning: %s", ev.Message)
	case progress.KindRetry:
		return fmt.Sprintf("retry attempt %d: %s", ev.Attempt, ev.Message)
	case progress.KindSummary:
		return fmt.Sprintf("done: %d asset(s)", ev.Count)
	default:
		return ""
	}
}
