package calendar

import (
	"fmt"
	"html"
	"io"
	"strings"
	"sync"
)

// WriteSVG renders a layout as a standalone SVG document. Each day is a
// rect carrying its date in data attributes and its tooltip as a <title>.
func WriteSVG(w io.Writer, l *Layout) error {
	_, err := io.WriteString(w, RenderSVG(l))
	return err
}

// RenderSVG returns the SVG markup of a layout. A nil layout renders as an
// empty document.
func RenderSVG(l *Layout) string {
	var sb strings.Builder
	if l == nil {
		sb.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="0" height="0"></svg>`)
		return sb.String()
	}

	class := "calendar"
	if l.Loading {
		class += " loading"
	}
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" class="%s" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		class, num(l.Width), num(l.Height), num(l.Width), num(l.Height))
	fmt.Fprintf(&sb, `  <style>.calendar text{font-family:sans-serif;font-size:10px;fill:%s}.calendar rect.day{shape-rendering:crispEdges}%s</style>`+"\n",
		html.EscapeString(l.Theme.TextSecondary), clickableStyle(l))

	for k, line := range l.Lines {
		fmt.Fprintf(&sb, `  <g class="line" data-line="%d" transform="translate(%s,%s)">`+"\n", k, num(line.X), num(line.Y))
		fmt.Fprintf(&sb, `    <text class="year" x="%s" y="%s" font-weight="bold" text-anchor="end">%d</text>`+"\n",
			num(labelOffset), num(labelOffset), line.Label)
		for _, wd := range l.Weekdays {
			fmt.Fprintf(&sb, `    <text class="weekday" x="%s" y="%s" text-anchor="end" dy="0.31em">%s</text>`+"\n",
				num(labelOffset), num(wd.Y), wd.Text)
		}
		for _, c := range line.Cells {
			writeCell(&sb, c)
		}
		for _, m := range line.Months {
			if m.Separator != "" {
				fmt.Fprintf(&sb, `    <path class="month" d="%s" fill="none" stroke="%s" stroke-width="3"/>`+"\n",
					m.Separator, html.EscapeString(l.Theme.Paper))
			}
			if m.Label != "" {
				fmt.Fprintf(&sb, `    <text class="month-label" x="%s" y="%s">%s</text>`+"\n",
					num(m.LabelX), num(labelOffset), m.Label)
			}
		}
		sb.WriteString("  </g>\n")
	}
	sb.WriteString(`</svg>`)
	return sb.String()
}

func clickableStyle(l *Layout) string {
	if !l.Clickable {
		return ""
	}
	return ".calendar rect.day{cursor:pointer}"
}

func writeCell(sb *strings.Builder, c Cell) {
	title := html.EscapeString(c.Title)
	fmt.Fprintf(sb, `    <rect class="day" x="%s" y="%s" width="%s" height="%s" fill="%s"`,
		num(c.X), num(c.Y), num(c.Size), num(c.Size), c.Fill)
	if c.Opacity < 1 {
		fmt.Fprintf(sb, ` fill-opacity="%s"`, num(c.Opacity))
	}
	fmt.Fprintf(sb, ` data-year="%d" data-month="%d" data-date="%d" data-iso="%04d-%02d-%02d" data-tooltip="%s">`,
		c.Year, c.Month, c.Day, c.Year, c.Month+1, c.Day, title)
	fmt.Fprintf(sb, `<title>%s</title></rect>`+"\n", title)
}

// SVGSurface keeps the markup of the latest draw pass.
type SVGSurface struct {
	mu     sync.Mutex
	markup string
	paints int
}

func (s *SVGSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markup = ""
}

func (s *SVGSurface) Paint(l *Layout) {
	markup := RenderSVG(l)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markup = markup
	s.paints++
}

// String returns the current markup; empty after a cleared or failed draw.
func (s *SVGSurface) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markup
}

// Paints counts completed paints.
func (s *SVGSurface) Paints() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paints
}
