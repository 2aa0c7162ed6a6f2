// Package tui is the opt-in (--tui) live dashboard: a single tvxwidgets
// percentage gauge plus a tview log pane, both driven purely
// by reading internal/progress.Chan. Per the design note on
// event-driven progress, it has no special access to engine internals
// — it is exactly as oblivious to event ordering as internal/consoleui,
// just a richer renderer of the same stream.
package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/navidys/tvxwidgets"
	"github.com/rivo/tview"

	"github.com/photomirror/photomirror/internal/progress"
)

// Dashboard is a tview application showing current phase, running
// counts, and a scrolling log of write operations and warnings.
type Dashboard struct {
	app   *tview.Application
	gauge *tvxwidgets.PercentageModeGauge
	log   *tview.TextView
	phase *tview.TextView

	total   int
	written int
}

// New builds a Dashboard. Call Run to start it, and feed it events
// with Drain (typically from a separate goroutine draining the
// progress channel, since Dashboard.Run blocks on tcell's event loop).
func New() *Dashboard {
	gauge := tvxwidgets.NewPercentageModeGauge()
	gauge.SetTitle(" progress ")
	gauge.SetBorder(true)
	gauge.SetMaxValue(100)

	logView := tview.NewTextView()
	logView.SetTitle(" events ").SetBorder(true)
	logView.SetDynamicColors(true)
	logView.SetScrollable(true)

	phaseView := tview.NewTextView()
	phaseView.SetTitle(" phase ").SetBorder(true)
	phaseView.SetTextColor(tcell.ColorYellow)

	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(phaseView, 3, 0, false).
		AddItem(gauge, 3, 0, false).
		AddItem(logView, 0, 1, false)

	app := tview.NewApplication().SetRoot(flex, true)

	return &Dashboard{app: app, gauge: gauge, log: logView, phase: phaseView}
}

// Run starts tcell's event loop; it blocks until Stop is called or the
// terminal is closed.
func (d *Dashboard) Run() error {
	return d.app.Run()
}

// Stop ends the event loop.
func (d *Dashboard) Stop() {
	d.app.Stop()
}

// Drain reads ch until it closes, updating the dashboard for every
// event. Run this in its own goroutine alongside Run.
func (d *Dashboard) Drain(ch progress.Chan) {
	for ev := range ch {
		ev := ev
		d.app.QueueUpdateDraw(func() { d.apply(ev) })
	}
}

func (d *Dashboard) apply(ev progress.Event) {
	switch ev.Kind {
	case progress.KindPhaseChanged:
		d.phase.SetText(string(ev.Phase))
	case progress.KindCounted:
		fmt.Fprintf(d.log, "%s: %d\n", ev.Label, ev.Count)
		if ev.Label == "remote assets" {
			d.total = ev.Count
		}
	case progress.KindWriteOp:
		d.written++
		fmt.Fprintf(d.log, "%s %s\n", ev.Op, ev.Target)
		d.updateGauge()
	case progress.KindWarning:
		fmt.Fprintf(d.log, "[yellow]warning:[-] %s\n", ev.Message)
	case progress.KindRetry:
		fmt.Fprintf(d.log, "[red]retry %d:[-] %s\n", ev.Attempt, ev.Message)
	case progress.KindSummary:
		fmt.Fprintf(d.log, "[green]done: %d asset(s)[-]\n", ev.Count)
	}
}

func (d *Dashboard) updateGauge() {
	if d.total <= 0 {
		return
	}
	pct := int(float64(d.written) / float64(d.total) * 100)
	if pct > 100 {
		pct = 100
	}
	d.gauge.SetValue(pct)
}
