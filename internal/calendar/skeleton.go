package calendar

import (
	"slices"
	"time"
)

// Skeleton synthesizes the placeholder series drawn while data is loading:
// one zero-amount sample per day from the first day of the month
// monthsPerLine-1 months before now through the last day of now's month.
func Skeleton(now time.Time, monthsPerLine int) Series {
	if monthsPerLine < MinMonthsPerLine {
		monthsPerLine = MinMonthsPerLine
	}
	end := lastDayOfMonth(now)
	until := monthStart(addMonths(monthStart(now), -(monthsPerLine - 1)))

	var out Series
	for d := end; !d.Before(until); d = d.AddDate(0, 0, -1) {
		out = append(out, Sample{Date: d, Amount: 0})
	}
	slices.Reverse(out)
	return out
}
