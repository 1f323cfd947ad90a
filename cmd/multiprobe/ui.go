package main

import (
	"log"
	"net"
	"sort"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/probelab/multiprobe/monitor"
)

// watch keeps probing the targets on the configured interval and
// renders their statistics in a live table.
func watch(targets []string) {
	m := monitor.New(opts.interval)
	m.Timeout = opts.timeout
	m.Retry = opts.retry

	rows := make([]string, 0, len(targets))
	for _, target := range targets {
		addr, err := net.ResolveIPAddr("ip", target)
		if err != nil {
			if !opts.ignore {
				log.Fatalf("cannot resolve %q: %v", target, err)
			}
			log.Printf("skipping %q: %v", target, err)
			continue
		}
		m.AddTarget(target, *addr)
		rows = append(rows, target)
	}
	sort.Strings(rows)

	if len(rows) == 0 {
		log.Fatal("no probeable targets")
	}

	m.Start()
	defer m.Stop()

	ui := buildTUI(rows)
	go ui.update(m, opts.interval)

	if err := ui.Run(); err != nil {
		panic(err)
	}
}

type userInterface struct {
	app   *tview.Application
	table *tview.Table
	rows  []string
}

func buildTUI(rows []string) *userInterface {
	ui := &userInterface{
		app:   tview.NewApplication(),
		table: tview.NewTable().SetBorders(false).SetFixed(2, 0),
		rows:  rows,
	}

	ui.table.SetTitle(" multiprobe (press [q] to exit) ")

	ui.table.SetCell(0, 0, tview.NewTableCell("target").SetAlign(tview.AlignLeft))
	ui.table.SetCell(0, 1, tview.NewTableCell("sent").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 2, tview.NewTableCell("lost").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 3, tview.NewTableCell("best").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 4, tview.NewTableCell("worst").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 5, tview.NewTableCell("median").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 6, tview.NewTableCell("mean").SetAlign(tview.AlignRight))
	ui.table.SetCell(0, 7, tview.NewTableCell("stddev").SetAlign(tview.AlignRight))

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			ui.app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				ui.app.Stop()
				return nil
			}
		}
		return event
	})

	const cols = 8
	for r, target := range rows {
		for c := 0; c < cols; c++ {
			var cell *tview.TableCell
			if c == 0 {
				cell = tview.NewTableCell(target).SetAlign(tview.AlignLeft)
			} else {
				cell = tview.NewTableCell("n/a").SetAlign(tview.AlignRight)
			}
			ui.table.SetCell(r+2, c, cell)
		}
	}

	return ui
}

func (ui *userInterface) Run() error {
	ui.app.SetRoot(ui.table, true).SetFocus(ui.table)
	return ui.app.Run()
}

func (ui *userInterface) update(m *monitor.Monitor, interval time.Duration) {
	time.Sleep(interval)
	for {
		export := m.Export()
		for i, target := range ui.rows {
			metrics := export[target]
			if metrics == nil {
				continue
			}
			r := i + 2

			ui.table.GetCell(r, 1).SetText(strconv.Itoa(metrics.ProbesSent))
			ui.table.GetCell(r, 2).SetText(strconv.Itoa(metrics.ProbesLost))
			ui.table.GetCell(r, 3).SetText(ts(metrics.Best))
			ui.table.GetCell(r, 4).SetText(ts(metrics.Worst))
			ui.table.GetCell(r, 5).SetText(ts(metrics.Median))
			ui.table.GetCell(r, 6).SetText(ts(metrics.Mean))
			ui.table.GetCell(r, 7).SetText(metrics.StdDev.String())
		}
		ui.app.Draw()
		time.Sleep(interval)
	}
}
