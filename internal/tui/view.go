package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"seven23/internal/calendar"
	"seven23/internal/core"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9e9e9e"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#e57373"))
	tooltipStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	reportStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).PaddingTop(0)
	incomeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#81c784"))
)

const helpLine = "←↑↓→ move  enter open day  esc close  r reload  q quit"

func (m Model) View() string {
	var sb strings.Builder

	status := "loading"
	if m.loaded {
		status = m.cfg.Currency.Code
	}
	sb.WriteString(titleStyle.Render("seven23") + " " + mutedStyle.Render(status))
	sb.WriteString("\n\n")

	l := m.graph.Layout()
	switch {
	case l != nil:
		sb.WriteString(calendar.RenderTerminal(l, m.highlighted()))
	case m.loaded:
		sb.WriteString(mutedStyle.Render("No transactions yet.") + "\n")
	}

	if m.tooltip.Open && m.tooltip.Text != "" {
		sb.WriteString("\n" + tooltipStyle.Render(m.tooltip.Text) + "\n")
	}
	if m.report != nil {
		sb.WriteString("\n" + m.renderReport(*m.report) + "\n")
	}
	if m.err != nil {
		sb.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	sb.WriteString("\n" + mutedStyle.Render(helpLine))
	return sb.String()
}

// highlighted is the cell drawn inverted: the tooltip anchor while one is
// pending or open, otherwise the keyboard cursor.
func (m Model) highlighted() int {
	if m.tooltip.Anchor != nil {
		return m.tooltip.Anchor.Index
	}
	return m.selected
}

func (m Model) renderReport(r core.DaySummary) string {
	cur := m.cfg.Currency
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(r.Date.Format("Monday, January 2, 2006")))
	sb.WriteString("  " + cur.Format(r.Total.Cents) + "\n")

	if len(r.Transactions) == 0 {
		sb.WriteString(mutedStyle.Render("No transactions on this day."))
		return reportStyle.Render(sb.String())
	}

	width := lo.Max(lo.Map(r.Transactions, func(t core.Transaction, _ int) int {
		return lipgloss.Width(t.Description)
	}))
	for _, t := range r.Transactions {
		amount := cur.Format(t.Amount.Cents)
		if !t.Amount.IsExpense() {
			amount = incomeStyle.Render(amount)
		}
		line := fmt.Sprintf("%-*s  %s", width, t.Description, amount)
		if t.Category != "" {
			line += "  " + mutedStyle.Render(t.Category)
		}
		sb.WriteString(line + "\n")
	}
	sb.WriteString(mutedStyle.Render(fmt.Sprintf("income %s  expenses %s",
		cur.Format(r.Income.Cents), cur.Format(r.Expenses.Cents))))
	return reportStyle.Render(sb.String())
}
