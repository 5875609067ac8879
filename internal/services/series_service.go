package services

import (
	"context"
	"time"

	"github.com/samber/lo"

	"seven23/internal/calendar"
	"seven23/internal/core"
)

// DefaultWindowDays is the span of the default heat-map: the last year.
const DefaultWindowDays = 365

type TotalsReader interface {
	DailyTotals(ctx context.Context, from, to core.Date) ([]core.DailyTotal, error)
	Bounds(ctx context.Context) (first, last core.Date, ok bool, err error)
	Version(ctx context.Context) (int64, error)
}

// SeriesService turns stored daily totals into the heat-map series.
type SeriesService struct {
	store TotalsReader
	now   func() time.Time
}

func NewSeriesService(store TotalsReader) *SeriesService {
	return &SeriesService{store: store, now: time.Now}
}

// Series returns one sample per day in [from, to], days without any
// transaction carrying an explicit zero.
func (s *SeriesService) Series(ctx context.Context, from, to core.Date) (calendar.Series, error) {
	if err := core.CheckRange(from, to); err != nil {
		return nil, err
	}
	totals, err := s.store.DailyTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byDay := lo.SliceToMap(totals, func(t core.DailyTotal) (string, core.Money) {
		return t.Date.String(), t.Total
	})

	var out calendar.Series
	for d := from.Time; !d.After(to.Time); d = d.AddDate(0, 0, 1) {
		out = append(out, calendar.Sample{
			Date:   d,
			Amount: byDay[d.Format(time.DateOnly)].Units(),
		})
	}
	return out, nil
}

// Recent returns the series of the last DefaultWindowDays days ending
// today, starting no earlier than the first stored transaction. An empty
// store yields an empty series.
func (s *SeriesService) Recent(ctx context.Context) (calendar.Series, error) {
	first, _, ok, err := s.store.Bounds(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	now := s.now().UTC()
	to := core.NewDate(now.Year(), int(now.Month()), now.Day())
	from := core.Date{Time: to.AddDate(0, 0, -(DefaultWindowDays - 1))}
	if first.After(from.Time) {
		from = first
	}
	if from.After(to.Time) {
		to = from
	}
	return s.Series(ctx, from, to)
}

// Version identifies the stored data; it changes with every new transaction.
func (s *SeriesService) Version(ctx context.Context) (int64, error) {
	return s.store.Version(ctx)
}
