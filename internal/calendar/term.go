package calendar

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	termCell       = "■ "
	termLabelWidth = 6
)

// TermPosition is the character grid position of a cell: its weekday row
// and week column inside its line.
type TermPosition struct {
	Line, Row, Col int
}

// TermPositionOf converts a cell's pixel position back to grid units.
func TermPositionOf(l *Layout, c Cell) TermPosition {
	return TermPosition{
		Line: c.Line,
		Row:  int(math.Round((c.Y - 0.5) / l.CellSize)),
		Col:  int(math.Round((c.X - 0.5) / l.CellSize)),
	}
}

// TermCellAt hit-tests a character position of the RenderTerminal output,
// x in columns and y in rows from its top-left corner. Each line of the
// calendar takes a header row, its weekday rows and one blank row.
func TermCellAt(l *Layout, x, y int) (Cell, bool) {
	if l == nil || x < termLabelWidth || y < 0 {
		return Cell{}, false
	}
	rows := l.Weekday.Rows()
	k, row := y/(rows+2), y%(rows+2)-1
	if k >= len(l.Lines) || row < 0 || row >= rows {
		return Cell{}, false
	}
	col := (x - termLabelWidth) / 2
	for _, c := range l.Lines[k].Cells {
		if p := TermPositionOf(l, c); p.Row == row && p.Col == col {
			return c, true
		}
	}
	return Cell{}, false
}

// RenderTerminal draws the layout with coloured blocks, one line of the
// calendar per block of rows. The cell whose Index equals selected is
// drawn inverted. Fills are composited on the theme paper colour since
// terminals have no alpha.
func RenderTerminal(l *Layout, selected int) string {
	if l == nil || len(l.Lines) == 0 {
		return ""
	}
	paper, err := colorful.Hex(l.Theme.Paper)
	if err != nil {
		paper = colorful.Color{R: 0, G: 0, B: 0}
	}
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color(l.Theme.TextSecondary))
	rows := l.Weekday.Rows()

	labels := make([]string, rows)
	for _, wd := range l.Weekdays {
		r := int(wd.Y/l.CellSize - 0.5)
		if r >= 0 && r < rows {
			labels[r] = wd.Text
		}
	}

	var sb strings.Builder
	for k, line := range l.Lines {
		cols := 0
		grid := make(map[[2]int]Cell, len(line.Cells))
		for _, c := range line.Cells {
			pos := TermPositionOf(l, c)
			grid[[2]int{pos.Row, pos.Col}] = c
			cols = max(cols, pos.Col+1)
		}
		for _, m := range line.Months {
			cols = max(cols, int(math.Round((m.LabelX-0.5)/l.CellSize))+1)
		}

		if k > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(muted.Render(fmt.Sprintf("%-*d", termLabelWidth, line.Label)))
		sb.WriteString(monthRuler(line, l.CellSize, cols))
		sb.WriteString("\n")

		for r := range rows {
			sb.WriteString(muted.Render(fmt.Sprintf("%*s ", termLabelWidth-1, labels[r])))
			for col := range cols {
				c, ok := grid[[2]int{r, col}]
				if !ok {
					sb.WriteString("  ")
					continue
				}
				style := lipgloss.NewStyle().Foreground(lipgloss.Color(c.Fill.WithAlpha(c.Fill.Alpha * c.Opacity).Over(paper)))
				if c.Fill.None {
					style = muted
				}
				if c.Index == selected {
					style = style.Reverse(true)
				}
				sb.WriteString(style.Render(termCell))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// monthRuler places the three-letter month labels over their week columns.
func monthRuler(line CalendarLine, size float64, cols int) string {
	ruler := []rune(strings.Repeat(" ", cols*2+3))
	for _, m := range line.Months {
		if m.Label == "" {
			continue
		}
		at := int(math.Round((m.LabelX-0.5)/size)) * 2
		for i, r := range m.Label {
			if at+i < len(ruler) {
				ruler[at+i] = r
			}
		}
	}
	return strings.TrimRight(string(ruler), " ")
}
