package calendar

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/samber/lo"
)

// Sample is one day of the series: the date and the net amount recorded on it.
// A NaN amount is unknown and is drawn without fill.
type Sample struct {
	Date   time.Time
	Amount float64
}

// Series is a chronologically ordered sequence of samples. Duplicated dates
// are kept as they are; nothing here sorts.
type Series []Sample

// Earliest returns the date of the first sample.
func (s Series) Earliest() time.Time { return s[0].Date.UTC() }

// Latest returns the date of the last sample.
func (s Series) Latest() time.Time { return s[len(s)-1].Date.UTC() }

// Amounts returns the amounts in series order.
func (s Series) Amounts() []float64 {
	return lo.Map(s, func(x Sample, _ int) float64 { return x.Amount })
}

// IsZero reports whether a sample carries an explicit zero amount.
func (x Sample) IsZero() bool { return x.Amount == 0 }

// IsUnknown reports whether the sample amount is undefined.
func (x Sample) IsUnknown() bool { return math.IsNaN(x.Amount) }

const (
	MinMonthsPerLine = 1
	MaxMonthsPerLine = 12
)

var (
	ErrInvalidMonthsPerLine = errors.New("months per line must be between 1 and 12")
	ErrEmptySeries          = errors.New("empty series")
)

// Line is one calendar row. Indices point into the bucketed series in
// ascending order; Start is the first day of the row's calendar span.
type Line struct {
	Label   int
	Start   time.Time
	Indices []int
}

// Bucket partitions a series into calendar lines of monthsPerLine months,
// newest line first. With 12 months per line the series is grouped by
// calendar year; otherwise the span is cut backward from the month of the
// latest sample. Every index lands in exactly one line.
func Bucket(series Series, monthsPerLine int) ([]Line, error) {
	if monthsPerLine < MinMonthsPerLine || monthsPerLine > MaxMonthsPerLine {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidMonthsPerLine, monthsPerLine)
	}
	if len(series) == 0 {
		return nil, ErrEmptySeries
	}
	if monthsPerLine == 12 {
		return bucketByYear(series), nil
	}
	return bucketBySpan(series, monthsPerLine), nil
}

func bucketByYear(series Series) []Line {
	idx := lo.Range(len(series))
	yearOf := func(i int) int { return series[i].Date.UTC().Year() }

	groups := lo.GroupBy(idx, yearOf)
	years := lo.Uniq(lo.Map(idx, func(i, _ int) int { return yearOf(i) }))

	lines := make([]Line, 0, len(years))
	for k := len(years) - 1; k >= 0; k-- {
		y := years[k]
		lines = append(lines, Line{
			Label:   y,
			Start:   time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC),
			Indices: groups[y],
		})
	}
	return lines
}

// bucketBySpan assigns each sample to its line in a single pass: the line
// number is the distance in months from the latest sample's month, divided
// by the line length.
func bucketBySpan(series Series, monthsPerLine int) []Line {
	last := monthIndex(series.Latest())
	oldest := (last - monthIndex(series.Earliest())) / monthsPerLine

	groups := make(map[int][]int)
	for i, x := range series {
		d := last - monthIndex(x.Date)
		k := d / monthsPerLine
		if d < 0 || k > oldest {
			continue
		}
		groups[k] = append(groups[k], i)
	}

	keys := lo.Keys(groups)
	slices.Sort(keys)

	lines := make([]Line, 0, len(keys))
	for _, k := range keys {
		indices := groups[k]
		first := last - (k+1)*monthsPerLine + 1
		lines = append(lines, Line{
			Label:   series[indices[0]].Date.UTC().Year(),
			Start:   time.Date(first/12, time.Month(first%12+1), 1, 0, 0, 0, 0, time.UTC),
			Indices: indices,
		})
	}
	return lines
}

// IsOneLine reports whether the whole series spans fewer months than a line holds.
func IsOneLine(series Series, monthsPerLine int) bool {
	if len(series) == 0 {
		return true
	}
	return monthsBetween(series.Earliest(), series.Latest()) < float64(monthsPerLine)
}
