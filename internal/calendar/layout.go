package calendar

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	DefaultWidth    = 925.0
	DefaultCellSize = 10.0

	// Left margin reserved for the year label and weekday initials.
	lineOriginX = 40.5
	labelOffset = -5.0
	dayInitials = "SMTWTFS"
)

var ErrNonFiniteGeometry = errors.New("layout produced non-finite geometry")

// Config drives one layout pass.
type Config struct {
	// Width of the drawing surface in pixels. It selects the responsive
	// months per line and, below 12 months per line, the cell size.
	Width float64
	// MonthsPerLine overrides the responsive default when in [1, 12].
	MonthsPerLine int
	Weekday       WeekConvention
	// Quantile of absolute non-zero amounts that saturates the colour scale.
	Quantile float64
	Theme    Theme
	// Color overrides Theme.Primary.
	Color     string
	IsLoading bool
	Clickable bool
	// Now anchors the loading skeleton. Zero means time.Now().
	Now          time.Time
	Title        func(Sample) string
	FormatAmount func(float64) string
}

func (c Config) withDefaults() Config {
	if c.Width <= 0 {
		c.Width = DefaultWidth
	}
	if c.Weekday == "" {
		c.Weekday = Monday
	}
	if c.Quantile == 0 {
		c.Quantile = DefaultQuantile
	}
	c.Theme = c.Theme.orDefault()
	if c.Color != "" {
		c.Theme.Primary = c.Color
	}
	if c.Now.IsZero() {
		c.Now = time.Now()
	}
	if c.FormatAmount == nil {
		c.FormatAmount = func(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }
	}
	if c.Title == nil {
		format := c.FormatAmount
		c.Title = func(s Sample) string {
			return s.Date.UTC().Format("January 2, 2006") + "\n" + format(s.Amount)
		}
	}
	return c
}

func (c Config) validate() error {
	if c.MonthsPerLine != 0 && (c.MonthsPerLine < MinMonthsPerLine || c.MonthsPerLine > MaxMonthsPerLine) {
		return fmt.Errorf("%w: got %d", ErrInvalidMonthsPerLine, c.MonthsPerLine)
	}
	if !(c.Quantile > 0 && c.Quantile <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidQuantile, c.Quantile)
	}
	if _, err := ParseWeekConvention(string(c.Weekday)); err != nil {
		return err
	}
	return nil
}

// Cell is one drawn day. X and Y are relative to the line origin.
type Cell struct {
	Index   int
	Line    int
	X, Y    float64
	Size    float64
	Fill    Paint
	Opacity float64
	Year    int
	Month   int // zero-based, as delivered to click handlers
	Day     int
	Amount  float64
	Title   string
}

// MonthMark is the label and the separator stroke of one month in a line.
// The first month of a line has no separator.
type MonthMark struct {
	Start     time.Time
	Label     string
	LabelX    float64
	Separator string
}

// WeekdayLabel is one weekday initial drawn left of the grid.
type WeekdayLabel struct {
	Text string
	Y    float64
}

// CalendarLine is one laid-out row. Padding is the number of empty week
// columns before the first drawn cell.
type CalendarLine struct {
	Label   int
	X, Y    float64
	Padding int
	Cells   []Cell
	Months  []MonthMark
}

// Layout is the complete geometry of one draw pass.
type Layout struct {
	Width         float64
	Height        float64
	CellSize      float64
	LineHeight    float64
	MonthsPerLine int
	Weekday       WeekConvention
	OneLine       bool
	Loading       bool
	Clickable     bool
	Theme         Theme
	Weekdays      []WeekdayLabel
	Lines         []CalendarLine
	Scale         *Scale
}

// ResolveMonthsPerLine applies the responsive rule: an explicit value wins,
// otherwise narrow surfaces pack fewer months per line.
func ResolveMonthsPerLine(width float64, override int) int {
	if override != 0 {
		return override
	}
	switch {
	case width < 400:
		return 4
	case width < 800:
		return 6
	default:
		return 12
	}
}

// CellSize returns the side of a day cell. Full-year lines use the fixed
// size, shrunk when the series spans more than a year of weeks; shorter
// lines stretch their cells across 80% of the width.
func CellSize(series Series, width float64, monthsPerLine int) float64 {
	size := DefaultCellSize
	if len(series) > 0 {
		weeks := math.Min(series.Latest().Sub(series.Earliest()).Hours()/(24*7), 52)
		if weeks > 0 {
			size = math.Min(52*DefaultCellSize/weeks, DefaultCellSize)
		}
	}
	if monthsPerLine < 12 {
		weeksInLine := 52 / (12 / float64(monthsPerLine))
		size = (width*0.8 - 20) / (weeksInLine - 1)
	}
	return size
}

// ComputeLayout lays out the series. It is a pure function of its inputs:
// the same series and config always yield the same geometry.
func ComputeLayout(series Series, cfg Config) (*Layout, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	monthsPerLine := ResolveMonthsPerLine(cfg.Width, cfg.MonthsPerLine)
	cellSize := CellSize(series, cfg.Width, monthsPerLine)

	data := series
	if cfg.IsLoading && len(data) == 0 {
		data = Skeleton(cfg.Now, monthsPerLine)
	}
	if len(data) == 0 {
		return nil, ErrEmptySeries
	}

	primary, err := ParsePaint(cfg.Theme.Primary)
	if err != nil {
		return nil, fmt.Errorf("primary color: %w", err)
	}
	divider, err := ParsePaint(cfg.Theme.Divider)
	if err != nil {
		return nil, fmt.Errorf("divider color: %w", err)
	}
	scale, err := NewScale(data.Amounts(), cfg.Quantile, primary)
	if err != nil {
		return nil, err
	}
	lines, err := Bucket(data, monthsPerLine)
	if err != nil {
		return nil, err
	}

	conv := cfg.Weekday
	rows := conv.Rows()
	layout := &Layout{
		Width:         cfg.Width,
		CellSize:      cellSize,
		LineHeight:    cellSize * float64(rows+2),
		MonthsPerLine: monthsPerLine,
		Weekday:       conv,
		OneLine:       IsOneLine(data, monthsPerLine),
		Loading:       cfg.IsLoading,
		Clickable:     cfg.Clickable && !cfg.IsLoading,
		Theme:         cfg.Theme,
		Scale:         scale,
	}
	layout.Height = layout.LineHeight * float64(len(lines))
	layout.Weekdays = weekdayLabels(conv, cellSize)

	p := placer{
		data:     data,
		cfg:      cfg,
		conv:     conv,
		size:     cellSize,
		scale:    scale,
		divider:  divider,
		oneLine:  layout.OneLine,
		firstDay: data[0].Date.UTC(),
	}
	for k, line := range lines {
		cl := p.line(k, line)
		cl.X = lineOriginX
		cl.Y = layout.LineHeight*float64(k) + cellSize*1.5
		layout.Lines = append(layout.Lines, cl)
	}

	if err := layout.checkFinite(); err != nil {
		return nil, err
	}
	return layout, nil
}

type placer struct {
	data     Series
	cfg      Config
	conv     WeekConvention
	size     float64
	scale    *Scale
	divider  Paint
	oneLine  bool
	firstDay time.Time
}

// line places the cells, month separators and month labels of one line.
// Every x is measured in weeks from one anchor: the start of the line's
// calendar span, so partial lines stay aligned with full ones, or the
// first drawn day when the whole calendar fits on one line.
func (p placer) line(k int, line Line) CalendarLine {
	out := CalendarLine{Label: line.Label}

	drawn := make([]int, 0, len(line.Indices))
	for _, i := range line.Indices {
		if p.conv.Includes(p.data[i].Date) {
			drawn = append(drawn, i)
		}
	}

	anchor := line.Start
	if p.oneLine {
		anchor = p.data[line.Indices[0]].Date
		if len(drawn) > 0 {
			anchor = p.data[drawn[0]].Date
		}
	}
	if len(drawn) > 0 {
		out.Padding = p.conv.WeekCount(anchor, p.data[drawn[0]].Date)
	}

	for _, i := range drawn {
		out.Cells = append(out.Cells, p.cell(k, i, anchor))
	}

	first := p.data[line.Indices[0]].Date
	last := p.data[line.Indices[len(line.Indices)-1]].Date
	for n, t := range monthStarts(first, last) {
		mark := MonthMark{
			Start:  t,
			Label:  p.monthLabel(t),
			LabelX: float64(max(0, p.conv.WeekCount(anchor, t)))*p.size + 0.5,
		}
		// A one-line calendar has no month separators.
		if n > 0 && !p.oneLine {
			mark.Separator = p.separator(anchor, t)
		}
		out.Months = append(out.Months, mark)
	}
	return out
}

func (p placer) cell(k, i int, anchor time.Time) Cell {
	s := p.data[i]
	d := s.Date.UTC()
	c := Cell{
		Index:   i,
		Line:    k,
		X:       float64(p.conv.WeekCount(anchor, d))*p.size + 0.5,
		Y:       float64(p.conv.Row(d.Weekday()))*p.size + 0.5,
		Size:    p.size - 1,
		Opacity: 1,
		Year:    d.Year(),
		Month:   int(d.Month()) - 1,
		Day:     d.Day(),
		Amount:  s.Amount,
		Title:   p.cfg.Title(s),
	}
	switch {
	case p.cfg.IsLoading:
		c.Fill = p.divider
		c.Opacity = 0.5
	case s.IsZero():
		c.Fill = p.scale.ZeroTint()
	default:
		c.Fill = p.scale.Color(s.Amount)
	}
	return c
}

// monthLabel hides the label of the series' first month when the series
// starts after its first day, so a truncated month is not announced.
func (p placer) monthLabel(t time.Time) string {
	if sameMonth(p.firstDay, t) && p.firstDay.Day() > 1 {
		return ""
	}
	return t.Format("Jan")
}

// separator draws the stroke between the previous month and the one
// starting at t: down the week column, stepping right at t's weekday.
func (p placer) separator(anchor, t time.Time) string {
	rows := p.conv.Rows()
	d := min(max(p.conv.Row(t.Weekday()), 0), rows)
	w := float64(p.conv.WeekCount(anchor, t))
	c := p.size

	var path string
	switch d {
	case 0:
		path = fmt.Sprintf("M%s,0", num(w*c))
	case rows:
		path = fmt.Sprintf("M%s,0", num((w+1)*c))
	default:
		path = fmt.Sprintf("M%s,0V%sH%s", num((w+1)*c), num(float64(d)*c), num(w*c))
	}
	return path + "V" + num(float64(rows)*c)
}

func weekdayLabels(conv WeekConvention, size float64) []WeekdayLabel {
	from, to := 0, 6
	if conv == Weekday {
		from, to = 1, 5
	}
	out := make([]WeekdayLabel, 0, to-from+1)
	for i := from; i <= to; i++ {
		out = append(out, WeekdayLabel{
			Text: string(dayInitials[i]),
			Y:    (float64(conv.Row(time.Weekday(i))) + 0.5) * size,
		})
	}
	return out
}

func (l *Layout) checkFinite() error {
	vals := []float64{l.Width, l.Height, l.CellSize, l.LineHeight}
	for _, line := range l.Lines {
		vals = append(vals, line.X, line.Y)
		for _, c := range line.Cells {
			vals = append(vals, c.X, c.Y, c.Size)
		}
		for _, m := range line.Months {
			vals = append(vals, m.LabelX)
		}
	}
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return ErrNonFiniteGeometry
		}
	}
	if l.CellSize <= 1 {
		return fmt.Errorf("%w: cell size %v", ErrNonFiniteGeometry, l.CellSize)
	}
	return nil
}

// Cells returns every drawn cell, line by line.
func (l *Layout) Cells() []Cell {
	var out []Cell
	for _, line := range l.Lines {
		out = append(out, line.Cells...)
	}
	return out
}

// CellAt hit-tests surface coordinates against the drawn cells.
func (l *Layout) CellAt(x, y float64) (Cell, bool) {
	for _, line := range l.Lines {
		lx, ly := x-line.X, y-line.Y
		for _, c := range line.Cells {
			if lx >= c.X && lx < c.X+c.Size && ly >= c.Y && ly < c.Y+c.Size {
				return c, true
			}
		}
	}
	return Cell{}, false
}

// Find returns the cell of a day; month is zero-based.
func (l *Layout) Find(year, month, day int) (Cell, bool) {
	for _, line := range l.Lines {
		for _, c := range line.Cells {
			if c.Year == year && c.Month == month && c.Day == day {
				return c, true
			}
		}
	}
	return Cell{}, false
}

// num formats a coordinate to two decimals without trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
