package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// WeekConvention selects the first day of the week and whether weekends are drawn.
type WeekConvention string

const (
	Monday  WeekConvention = "monday"
	Sunday  WeekConvention = "sunday"
	Weekday WeekConvention = "weekday" // Monday to Friday only
)

var ErrInvalidWeekConvention = errors.New("invalid week convention")

// ParseWeekConvention accepts "monday", "sunday" or "weekday" (case-insensitive).
func ParseWeekConvention(s string) (WeekConvention, error) {
	switch c := WeekConvention(strings.ToLower(strings.TrimSpace(s))); c {
	case Monday, Sunday, Weekday:
		return c, nil
	case "":
		return Monday, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekConvention, s)
	}
}

// Rows is the number of day rows drawn per calendar line.
func (c WeekConvention) Rows() int {
	if c == Weekday {
		return 5
	}
	return 7
}

// Row maps a weekday to its row index: Monday=0..Sunday=6, or Sunday=0..Saturday=6.
func (c WeekConvention) Row(d time.Weekday) int {
	if c == Sunday {
		return int(d)
	}
	return (int(d) + 6) % 7
}

// Includes reports whether a day is drawn at all.
func (c WeekConvention) Includes(t time.Time) bool {
	if c != Weekday {
		return true
	}
	d := t.UTC().Weekday()
	return d != time.Saturday && d != time.Sunday
}

func (c WeekConvention) weekStartDay() time.Weekday {
	if c == Sunday {
		return time.Sunday
	}
	return time.Monday
}

// WeekStart returns midnight UTC of the first day of the week containing t.
func (c WeekConvention) WeekStart(t time.Time) time.Time {
	d := dayStart(t)
	back := (int(d.Weekday()) - int(c.weekStartDay()) + 7) % 7
	return d.AddDate(0, 0, -back)
}

// WeekCount counts week boundaries in (a, b]. It is negative when b precedes a's week.
func (c WeekConvention) WeekCount(a, b time.Time) int {
	days := int(c.WeekStart(b).Sub(c.WeekStart(a)).Hours() / 24)
	return floorDiv(days, 7)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func lastDayOfMonth(t time.Time) time.Time {
	return monthStart(t).AddDate(0, 1, -1)
}

// addMonths shifts t by n calendar months, clamping the day to the target
// month's length (Jan 31 + 1 month = Feb 28).
func addMonths(t time.Time, n int) time.Time {
	t = t.UTC()
	target := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	day := t.Day()
	if last := lastDayOfMonth(target).Day(); day > last {
		day = last
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// monthKey orders dates by calendar month: year*100 + zero-based month.
func monthKey(t time.Time) int {
	t = t.UTC()
	return t.Year()*100 + int(t.Month()) - 1
}

// monthIndex counts months from year zero, so consecutive months differ by one.
func monthIndex(t time.Time) int {
	t = t.UTC()
	return t.Year()*12 + int(t.Month()) - 1
}

// monthsBetween is the fractional number of months between a and b using an
// average Gregorian month.
func monthsBetween(a, b time.Time) float64 {
	days := b.Sub(a).Hours() / 24
	return days * 4800 / 146097
}

// monthStarts lists every month start t with monthStart(from) <= t < to.
func monthStarts(from, to time.Time) []time.Time {
	var out []time.Time
	for t := monthStart(from); t.Before(to.UTC()); t = t.AddDate(0, 1, 0) {
		out = append(out, t)
	}
	return out
}

func sameMonth(a, b time.Time) bool {
	return monthKey(a) == monthKey(b)
}
