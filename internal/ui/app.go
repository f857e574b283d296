package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"aging-dashboard/internal/logging"
	"aging-dashboard/internal/model"
	"aging-dashboard/internal/session"
	"aging-dashboard/pkg/utils"
)

const footerText = "[::b]1-9[::-] segment  [::b]0[::-] clear  [::b]g[::-] group  [::b]r[::-] reset  [::b]e[::-] export  [::b]Tab[::-] next filter  [::b]q[::-] quit"

// App is the terminal dashboard over one loaded session.
type App struct {
	app      *tview.Application
	sessions *session.Manager
	id       string
	output   *utils.OutputManager
	logger   *logging.Logger

	group   string
	syncing bool
	dash    *session.Dashboard

	header    *tview.TextView
	filters   []*tview.DropDown
	cards     *tview.Table
	chart     *tview.Table
	breakdown *tview.Table
	footer    *tview.TextView
}

// New builds the dashboard for session id. Exports are written under output.
func New(sessions *session.Manager, id string, output *utils.OutputManager, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &App{
		app:      tview.NewApplication(),
		sessions: sessions,
		id:       id,
		output:   output,
		logger:   logger.WithComponent("ui").WithSession(id),
		group:    nextGroup(""),
	}

	SetupRosePineTheme()
	root, err := a.layout()
	if err != nil {
		return nil, err
	}
	a.app.SetRoot(root, true)
	if len(a.filters) > 0 {
		a.app.SetFocus(a.filters[0])
	}
	a.setupKeyBindings()

	if err := a.refresh(); err != nil {
		return nil, err
	}
	return a, nil
}

// Run blocks until the user quits.
func (a *App) Run() error {
	return a.app.Run()
}

func (a *App) layout() (tview.Primitive, error) {
	a.header = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
	a.header.SetBorder(true)

	a.footer = tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter)
	a.footer.SetBorder(true)
	a.footer.SetText(footerText)

	options, err := a.sessions.Options(a.id)
	if err != nil {
		return nil, err
	}
	filterRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	for _, opt := range options {
		dd := a.dropDown(opt)
		a.filters = append(a.filters, dd)
		filterRow.AddItem(dd, 0, 1, len(a.filters) == 1)
	}
	filterRow.SetBorder(true).SetTitle(" Filters ")

	a.cards = tview.NewTable().SetBorders(false)
	a.cards.SetBorder(true).SetTitle(" Totals ")

	a.chart = tview.NewTable().SetBorders(false)
	a.chart.SetBorder(true).SetTitle(" Aging ")

	a.breakdown = tview.NewTable().SetBorders(false).SetFixed(1, 0).SetSelectable(true, false)
	a.breakdown.SetBorder(true)

	grid := tview.NewGrid().
		SetRows(3, 3, 4, 0, 3).
		SetColumns(0, 0).
		SetBorders(false)
	grid.AddItem(a.header, 0, 0, 1, 2, 0, 0, false)
	grid.AddItem(filterRow, 1, 0, 1, 2, 0, 0, true)
	grid.AddItem(a.cards, 2, 0, 1, 2, 0, 0, false)
	grid.AddItem(a.chart, 3, 0, 1, 1, 0, 0, false)
	grid.AddItem(a.breakdown, 3, 1, 1, 1, 0, 0, false)
	grid.AddItem(a.footer, 4, 0, 1, 2, 0, 0, false)
	return grid, nil
}

func (a *App) dropDown(opt session.FilterOption) *tview.DropDown {
	dd := tview.NewDropDown().SetLabel(opt.Label + ": ")
	dd.SetOptions(opt.Values, func(text string, _ int) {
		if a.syncing {
			return
		}
		if err := a.sessions.SetFilter(a.id, opt.Column, text); err != nil {
			a.flash("[red]%v", err)
			return
		}
		a.redraw()
	})
	a.syncing = true
	dd.SetCurrentOption(indexOf(opt.Values, opt.Selected))
	a.syncing = false
	return dd
}

func (a *App) setupKeyBindings() {
	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyTab:
			a.focusNextFilter()
			return nil
		case tcell.KeyEscape:
			a.app.SetFocus(a.breakdown)
			return nil
		}

		r := event.Rune()
		if label, ok := segmentForKey(r, a.currentCards()); ok {
			if _, err := a.sessions.SelectSegment(a.id, label); err != nil {
				a.flash("[red]%v", err)
				return nil
			}
			a.redraw()
			return nil
		}

		switch r {
		case 'q':
			a.app.Stop()
			return nil
		case 'g':
			a.group = nextGroup(a.group)
			a.redraw()
			return nil
		case 'r':
			if err := a.sessions.Reset(a.id); err != nil {
				a.flash("[red]%v", err)
				return nil
			}
			a.syncFilters()
			a.redraw()
			return nil
		case 'e':
			a.export()
			return nil
		}
		return event
	})
}

func (a *App) currentCards() []model.Card {
	if a.dash == nil {
		return nil
	}
	return a.dash.Cards
}

func (a *App) focusNextFilter() {
	if len(a.filters) == 0 {
		return
	}
	focus := a.app.GetFocus()
	next := 0
	for i, dd := range a.filters {
		if dd == focus {
			next = (i + 1) % len(a.filters)
			break
		}
	}
	a.app.SetFocus(a.filters[next])
}

// syncFilters moves every dropdown back to the session's selection.
func (a *App) syncFilters() {
	options, err := a.sessions.Options(a.id)
	if err != nil {
		a.flash("[red]%v", err)
		return
	}
	a.syncing = true
	defer func() { a.syncing = false }()
	for i, opt := range options {
		if i < len(a.filters) {
			a.filters[i].SetCurrentOption(indexOf(opt.Values, opt.Selected))
		}
	}
}

func (a *App) redraw() {
	if err := a.refresh(); err != nil {
		a.logger.ErrorErr(context.Background(), "Dashboard refresh failed", err)
		a.flash("[red]%v", err)
	}
}

// refresh recomputes the dashboard and repaints every panel.
func (a *App) refresh() error {
	dash, err := a.sessions.Dashboard(context.Background(), a.id, "", []string{a.group})
	if err != nil {
		return err
	}
	a.dash = dash
	a.footer.SetText(footerText)

	info, err := a.sessions.Get(a.id)
	if err != nil {
		return err
	}
	a.header.SetText(fmt.Sprintf("[::b]Receivables aging[::-]  %s  |  %d of %d rows  |  %s  |  total [yellow]%s[-]",
		info.SourceName, dash.FilteredRows, info.Rows, statusLine(dash), dash.Formatted))

	a.populateCards(dash)
	a.populateChart(dash)
	a.populateBreakdown(dash)
	return nil
}

func (a *App) populateCards(dash *session.Dashboard) {
	a.cards.Clear()
	for i, c := range dash.Cards {
		label := fmt.Sprintf("[%s::b]%d %s", bucketColor(i), i+1, c.Label)
		if c.Column == dash.Config.ActiveBucket {
			label = "[::r]" + label
		}
		a.cards.SetCell(0, i, tview.NewTableCell(label).SetExpansion(1).SetAlign(tview.AlignCenter))
		a.cards.SetCell(1, i, tview.NewTableCell(c.Formatted).SetExpansion(1).SetAlign(tview.AlignCenter))
	}
}

func (a *App) populateChart(dash *session.Dashboard) {
	a.chart.Clear()
	rows := chartRows(dash)
	if len(rows) == 0 {
		a.chart.SetCell(0, 0, tview.NewTableCell("[gray]no positive balances"))
		return
	}
	for i, r := range rows {
		a.chart.SetCell(i, 0, tview.NewTableCell(r.Label))
		a.chart.SetCell(i, 1, tview.NewTableCell(fmt.Sprintf("[%s]%s", r.Color, r.Bar)))
		a.chart.SetCell(i, 2, tview.NewTableCell(r.Percent).SetAlign(tview.AlignRight))
	}
}

func (a *App) populateBreakdown(dash *session.Dashboard) {
	a.breakdown.Clear()
	a.breakdown.SetTitle(fmt.Sprintf(" By %s (g) ", groupLabel(a.group)))

	headers := []string{groupLabel(a.group), "Total", "Rows"}
	for col, h := range headers {
		a.breakdown.SetCell(0, col, tview.NewTableCell("[yellow::b]"+h).SetSelectable(false))
	}
	for i, row := range dash.Breakdowns[a.group] {
		a.breakdown.SetCell(i+1, 0, tview.NewTableCell(row.Display).SetExpansion(1))
		a.breakdown.SetCell(i+1, 1, tview.NewTableCell("[green]"+row.Formatted).SetAlign(tview.AlignRight))
		a.breakdown.SetCell(i+1, 2, tview.NewTableCell(fmt.Sprint(row.RecordCount)).SetAlign(tview.AlignRight))
	}
}

// export writes both files of the current selection to the output directory.
func (a *App) export() {
	results, err := a.sessions.WriteExports(context.Background(), a.id, a.output)
	if err != nil {
		a.logger.ErrorErr(context.Background(), "Export failed", err)
		a.flash("[red]export failed: %v", err)
		return
	}
	var msgs []string
	for _, res := range results {
		switch {
		case res.Success:
			msgs = append(msgs, fmt.Sprintf("[green]%s[-] (%d rows)", res.Path, res.RecordCount))
		case res.Warning != "":
			msgs = append(msgs, "[yellow]"+res.Warning)
		default:
			msgs = append(msgs, "[red]"+res.Error)
		}
	}
	a.flash("%s", strings.Join(msgs, "  "))
}

// flash replaces the footer until the next redraw.
func (a *App) flash(format string, args ...interface{}) {
	a.footer.SetText(fmt.Sprintf(format, args...))
}

func indexOf(values []string, v string) int {
	for i, s := range values {
		if s == v {
			return i
		}
	}
	return 0
}
