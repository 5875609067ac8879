// Package tui hosts the calendar heat-map in an interactive terminal
// program. Pointer, keyboard and resize events are routed to the graph's
// interaction controller; its timers report back through tea messages.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"seven23/internal/calendar"
	"seven23/internal/core"
)

// pixelsPerColumn converts terminal columns to the graph width so the
// responsive months-per-line rule picks a layout that fits the terminal.
const pixelsPerColumn = 8

// headerHeight is the number of rows View prints above the calendar.
const headerHeight = 2

type SeriesLoader interface {
	Recent(ctx context.Context) (calendar.Series, error)
}

type DayReporter interface {
	DayReport(ctx context.Context, d core.Date) (core.DaySummary, error)
}

// Config holds the display settings of the browser. Zero values select
// the graph defaults.
type Config struct {
	Theme         calendar.Theme
	Color         string
	Quantile      float64
	MonthsPerLine int
	Weekday       calendar.WeekConvention
	Currency      core.Currency
	Logger        *slog.Logger
	Scheduler     calendar.Scheduler
	Now           func() time.Time
}

type seriesMsg struct {
	series calendar.Series
	err    error
}

type tooltipMsg calendar.TooltipState

type clickMsg struct {
	year, month, day int
}

type redrawMsg struct{}

type reportMsg struct {
	report core.DaySummary
	err    error
}

type Model struct {
	ctx    context.Context
	cfg    Config
	series SeriesLoader
	days   DayReporter

	graph  *calendar.Graph
	window *calendar.FixedWindow
	events chan tea.Msg

	width, height int
	loaded        bool
	hovered       int
	selected      int
	tooltip       calendar.TooltipState
	report        *core.DaySummary
	err           error
}

// New builds the browser with the loading skeleton drawn. The series is
// fetched by the command Init returns.
func New(ctx context.Context, series SeriesLoader, days DayReporter, cfg Config) Model {
	if cfg.Currency.Code == "" {
		cfg.Currency, _ = core.LookupCurrency("EUR")
	}
	if cfg.Quantile == 0 {
		cfg.Quantile = calendar.DefaultQuantile
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	events := make(chan tea.Msg, 64)
	window := calendar.NewFixedWindow(calendar.DefaultWidth)
	m := Model{
		ctx:      ctx,
		cfg:      cfg,
		series:   series,
		days:     days,
		window:   window,
		events:   events,
		hovered:  -1,
		selected: -1,
	}
	m.graph = calendar.NewGraph(&termSurface{events: events}, window, calendar.Options{
		Theme:        cfg.Theme,
		FormatAmount: cfg.Currency.FormatUnits,
		Scheduler:    cfg.Scheduler,
		Logger:       cfg.Logger,
		Now:          cfg.Now,
		OnTooltip: func(st calendar.TooltipState) {
			send(events, tooltipMsg(st))
		},
	})
	_ = m.graph.SetProps(m.props(nil, true))
	return m
}

// Close cancels the graph's pending timers.
func (m Model) Close() { m.graph.Dispose() }

func (m Model) props(values calendar.Series, loading bool) calendar.Props {
	return calendar.Props{
		Values:        values,
		IsLoading:     loading,
		Color:         m.cfg.Color,
		Quantile:      m.cfg.Quantile,
		MonthsPerLine: m.cfg.MonthsPerLine,
		Weekday:       m.cfg.Weekday,
		OnClick: func(year, month, day int) {
			send(m.events, clickMsg{year: year, month: month, day: day})
		},
	}
}

// send never blocks: the controller calls it with timers running.
func send(ch chan<- tea.Msg, msg tea.Msg) {
	select {
	case ch <- msg:
	default:
	}
}

// termSurface tells the program to repaint after draws it did not start,
// such as the one that ends a resize burst.
type termSurface struct {
	events chan<- tea.Msg
}

func (s *termSurface) Clear() {}

func (s *termSurface) Paint(*calendar.Layout) { send(s.events, redrawMsg{}) }

func (m Model) loadSeries() tea.Cmd {
	return func() tea.Msg {
		s, err := m.series.Recent(m.ctx)
		return seriesMsg{series: s, err: err}
	}
}

// waitForEvent delivers the next controller event. Exactly one is pending
// at any time; every event handler issues the next.
func (m Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-m.events:
			return msg
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) fetchReport(c clickMsg) tea.Cmd {
	return func() tea.Msg {
		d, err := core.DateFromClick(c.year, c.month, c.day)
		if err != nil {
			return reportMsg{err: err}
		}
		r, err := m.days.DayReport(m.ctx, d)
		return reportMsg{report: r, err: err}
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadSeries(), m.waitForEvent())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.window.SetWidth(float64(msg.Width * pixelsPerColumn))
		return m, nil

	case seriesMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("load series: %w", msg.err)
			return m, nil
		}
		m.err = nil
		m.loaded = true
		m.hovered = -1
		if err := m.graph.SetProps(m.props(msg.series, false)); err != nil {
			m.err = err
		}
		m.selected = m.newestCell()
		return m, nil

	case tooltipMsg:
		m.tooltip = calendar.TooltipState(msg)
		return m, m.waitForEvent()

	case redrawMsg:
		return m, m.waitForEvent()

	case clickMsg:
		return m, tea.Batch(m.fetchReport(msg), m.waitForEvent())

	case reportMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("day report: %w", msg.err)
			m.report = nil
			return m, nil
		}
		m.err = nil
		m.report = &msg.report
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	ctrl := m.graph.Controller()
	cell, ok := calendar.TermCellAt(m.graph.Layout(), msg.X, msg.Y-headerHeight)

	switch msg.Action {
	case tea.MouseActionMotion:
		if !ok {
			if m.hovered >= 0 {
				m.hovered = -1
				ctrl.MouseOut()
			}
			return m, nil
		}
		if cell.Index != m.hovered {
			m.hovered = cell.Index
			ctrl.MouseOver(cell)
		}
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if !ok {
			ctrl.ClickAway()
			m.report = nil
			return m, nil
		}
		m.selected = cell.Index
		ctrl.Click(cell)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctrl := m.graph.Controller()
	switch msg.String() {
	case "q", "ctrl+c":
		m.graph.Dispose()
		return m, tea.Quit
	case "r":
		return m, m.loadSeries()
	case "esc":
		ctrl.MouseOut()
		m.report = nil
		return m, nil
	case "enter", " ":
		if c, ok := m.selectedCell(); ok {
			ctrl.Click(c)
		}
		return m, nil
	case "left", "h":
		return m.moveSelection(0, -1), nil
	case "right", "l":
		return m.moveSelection(0, 1), nil
	case "up", "k":
		return m.moveSelection(-1, 0), nil
	case "down", "j":
		return m.moveSelection(1, 0), nil
	}
	return m, nil
}

// moveSelection steps the keyboard cursor by grid rows and columns within
// its line. The tooltip follows with the hover delay.
func (m Model) moveSelection(dRow, dCol int) Model {
	l := m.graph.Layout()
	cur, ok := m.selectedCell()
	if l == nil || !ok {
		return m
	}
	at := calendar.TermPositionOf(l, cur)
	for _, c := range l.Lines[cur.Line].Cells {
		p := calendar.TermPositionOf(l, c)
		if p.Row == at.Row+dRow && p.Col == at.Col+dCol {
			m.selected = c.Index
			m.graph.Controller().MouseOver(c)
			break
		}
	}
	return m
}

func (m Model) selectedCell() (calendar.Cell, bool) {
	l := m.graph.Layout()
	if l == nil || m.selected < 0 {
		return calendar.Cell{}, false
	}
	for _, c := range l.Cells() {
		if c.Index == m.selected {
			return c, true
		}
	}
	return calendar.Cell{}, false
}

// newestCell is the most recent day: the last cell of the top line.
func (m Model) newestCell() int {
	l := m.graph.Layout()
	if l == nil || len(l.Lines) == 0 || len(l.Lines[0].Cells) == 0 {
		return -1
	}
	cells := l.Lines[0].Cells
	return cells[len(cells)-1].Index
}
