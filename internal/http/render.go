package http

import (
	"context"
	"fmt"
	"strconv"

	"seven23/internal/calendar"
	"seven23/internal/log"
)

// clickHandledByPage marks the graph clickable. Clicks on the rendered
// document are resolved by the page script through /ui/day.
func clickHandledByPage(year, month, day int) {}

// cacheKey identifies one rendering: the request parameters, the data
// version and the current day, which moves both the default window and
// the loading skeleton.
func (p CalendarParams) cacheKey(version int64, day string) string {
	key := fmt.Sprintf("w=%s|m=%d|wd=%s|v=%d|d=%s", strconv.FormatFloat(p.Width, 'f', -1, 64),
		p.MonthsPerLine, p.Weekday, version, day)
	if p.Loading {
		key += "|loading"
	}
	if p.HasRange() {
		key += "|" + p.From.String() + ".." + p.To.String()
	}
	return key
}

// calendarSVG returns the rendered document for p. Identical concurrent
// requests share one render; completed renders are cached until the data
// version changes or the entry expires. A render whose draw failed yields
// the blank document and is not cached.
func (s *Server) calendarSVG(ctx context.Context, p CalendarParams) ([]byte, error) {
	version, err := s.series.Version(ctx)
	if err != nil {
		return nil, fmt.Errorf("read data version: %w", err)
	}
	key := p.cacheKey(version, today(s.opts.Now).String())
	if data, ok := s.renders.Get(key); ok {
		s.logger.DebugContext(ctx, "Calendar cache hit", log.FieldCacheKey, key)
		return data, nil
	}

	v, err, shared := s.renderGroup.Do(key, func() (any, error) {
		data, samples, drawErr, err := s.render(context.WithoutCancel(ctx), p)
		if err != nil {
			return nil, err
		}
		if drawErr == nil {
			s.renders.Set(key, data)
		}
		return renderResult{data: data, samples: samples}, nil
	})
	if err != nil {
		return nil, err
	}
	res := v.(renderResult)
	s.logger.DebugContext(ctx, "Calendar rendered",
		log.NewFields().WithRender(key, res.samples, shared).ToSlice()...)
	return res.data, nil
}

type renderResult struct {
	data    []byte
	samples int
}

// Render draws one calendar document outside a server, for offline
// exports. A failed draw is logged by the graph and yields the blank
// document.
func Render(ctx context.Context, series SeriesSource, p CalendarParams, opts Options) ([]byte, error) {
	opts = opts.withDefaults()
	data, _, _, err := renderCalendar(ctx, series, p, opts)
	return data, err
}

func (s *Server) render(ctx context.Context, p CalendarParams) ([]byte, int, error, error) {
	return renderCalendar(ctx, s.series, p, s.opts)
}

// renderCalendar draws p on a fresh graph. err reports a failure to read
// the series; drawErr a failed draw, already logged by the graph, in which
// case data is the blank document.
func renderCalendar(ctx context.Context, src SeriesSource, p CalendarParams, opts Options) (data []byte, samples int, drawErr, err error) {
	var series calendar.Series
	if !p.Loading {
		if p.HasRange() {
			series, err = src.Series(ctx, p.From, p.To)
		} else {
			series, err = src.Recent(ctx)
		}
		if err != nil {
			return nil, 0, nil, fmt.Errorf("load series: %w", err)
		}
	}

	surface := &calendar.SVGSurface{}
	graph := calendar.NewGraph(surface, calendar.NewFixedWindow(p.Width), calendar.Options{
		Theme:        opts.Theme,
		FormatAmount: opts.Currency.FormatUnits,
		Logger:       opts.Logger.WithComponent(log.ComponentCalendar).Logger,
		Now:          opts.Now,
	})
	defer graph.Dispose()

	drawErr = graph.SetProps(calendar.Props{
		Values:        series,
		IsLoading:     p.Loading,
		Color:         opts.Color,
		Quantile:      opts.Quantile,
		OnClick:       clickHandledByPage,
		MonthsPerLine: p.MonthsPerLine,
		Weekday:       p.Weekday,
	})
	markup := surface.String()
	if markup == "" {
		markup = calendar.RenderSVG(nil)
	}
	return []byte(markup), len(series), drawErr, nil
}
