package calendar

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrDrawPanic = errors.New("draw panicked")

// Surface receives the result of each draw pass.
type Surface interface {
	Clear()
	Paint(*Layout)
}

// Window is the host the graph lives in. AddResizeListener returns the
// function that detaches the listener again.
type Window interface {
	Width() float64
	AddResizeListener(fn func()) (remove func())
}

// Props are the inputs of the graph, as handed over by the page hosting it.
type Props struct {
	Values        Series
	IsLoading     bool
	Color         string
	Quantile      float64
	OnClick       ClickFunc
	MonthsPerLine int
	Weekday       WeekConvention
	Title         func(Sample) string
}

// Options configure a Graph. Zero values select defaults.
type Options struct {
	Theme        Theme
	FormatAmount func(float64) string
	Scheduler    Scheduler
	Logger       *slog.Logger
	Now          func() time.Time
	OnTooltip    func(TooltipState)
}

// Graph owns one calendar heat-map on a surface: the last layout, the
// interaction controller and the resize listener. Dispose releases all of
// them.
type Graph struct {
	mu        sync.Mutex
	surface   Surface
	window    Window
	opts      Options
	logger    *slog.Logger
	props     Props
	layout    *Layout
	ctrl      *Controller
	listeners []func()
	disposed  bool
}

// NewGraph attaches a graph to a surface inside a window.
func NewGraph(surface Surface, window Window, opts Options) *Graph {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	g := &Graph{
		surface: surface,
		window:  window,
		opts:    opts,
		logger:  opts.Logger.With("component", "calendar"),
	}
	g.ctrl = NewController(opts.Scheduler, opts.OnTooltip)
	g.ctrl.SetRedraw(func() {
		if err := g.Draw(); err != nil {
			g.logger.Debug("Redraw after resize failed", "error", err)
		}
	})
	return g
}

// Controller exposes the interaction controller so hosts can route events to it.
func (g *Graph) Controller() *Controller { return g.ctrl }

// Layout returns the geometry of the last successful draw, or nil.
func (g *Graph) Layout() *Layout {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.layout
}

// SetProps updates the inputs and redraws when anything visible changed:
// the sample dates, the loading flag, the colour or the line settings.
func (g *Graph) SetProps(p Props) error {
	g.mu.Lock()
	changed := g.layout == nil || propsChanged(g.props, p)
	g.props = p
	g.mu.Unlock()

	g.ctrl.Configure(p.OnClick, p.IsLoading)
	if !changed {
		return nil
	}
	g.ctrl.Reset()
	return g.Draw()
}

func propsChanged(a, b Props) bool {
	if a.IsLoading != b.IsLoading || a.Color != b.Color || a.Quantile != b.Quantile ||
		a.MonthsPerLine != b.MonthsPerLine || a.Weekday != b.Weekday ||
		(a.OnClick == nil) != (b.OnClick == nil) || len(a.Values) != len(b.Values) {
		return true
	}
	for i := range a.Values {
		if !a.Values[i].Date.Equal(b.Values[i].Date) || a.Values[i].Amount != b.Values[i].Amount {
			return true
		}
	}
	return false
}

// Draw runs one full layout pass. The surface is cleared first; any
// failure, panics included, is logged and leaves the surface blank. The
// error is returned for callers that want it, but the graph has already
// degraded on its own. Each draw replaces the resize listener of the
// previous one.
func (g *Graph) Draw() (err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.disposed {
		return nil
	}

	g.surface.Clear()
	g.layout = nil
	g.attachResizeLocked()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrDrawPanic, r)
		}
		if err != nil {
			g.layout = nil
			g.surface.Clear()
			g.logger.Error("Calendar draw failed", "error", err, "samples", len(g.props.Values))
		}
	}()

	p := g.props
	if len(p.Values) == 0 && !p.IsLoading {
		return nil
	}

	width := DefaultWidth
	if g.window != nil {
		width = g.window.Width()
	}
	layout, err := ComputeLayout(p.Values, Config{
		Width:         width,
		MonthsPerLine: p.MonthsPerLine,
		Weekday:       p.Weekday,
		Quantile:      p.Quantile,
		Theme:         g.opts.Theme,
		Color:         p.Color,
		IsLoading:     p.IsLoading,
		Clickable:     p.OnClick != nil,
		Now:           g.opts.Now(),
		Title:         p.Title,
		FormatAmount:  g.opts.FormatAmount,
	})
	if err != nil {
		return err
	}
	g.layout = layout
	g.surface.Paint(layout)
	return nil
}

// attachResizeLocked removes every listener a previous draw attached
// before adding the new one, so exactly one stays active.
func (g *Graph) attachResizeLocked() {
	g.detachLocked()
	if g.window == nil {
		return
	}
	g.listeners = append(g.listeners, g.window.AddResizeListener(g.ctrl.Resize))
}

func (g *Graph) detachLocked() {
	for _, remove := range g.listeners {
		remove()
	}
	g.listeners = nil
}

// Dispose detaches the resize listener and cancels every pending timer.
// It is safe to call more than once.
func (g *Graph) Dispose() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.detachLocked()
	g.ctrl.Dispose()
	g.disposed = true
}

// FixedWindow is a Window of constant width whose listeners are tracked,
// for hosts that never resize, such as one-shot server renders.
type FixedWindow struct {
	mu        sync.Mutex
	width     float64
	listeners map[int]func()
	next      int
}

// NewFixedWindow returns a window of the given width.
func NewFixedWindow(width float64) *FixedWindow {
	return &FixedWindow{width: width, listeners: make(map[int]func())}
}

func (w *FixedWindow) Width() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

// SetWidth changes the width and notifies every listener.
func (w *FixedWindow) SetWidth(width float64) {
	w.mu.Lock()
	w.width = width
	fns := make([]func(), 0, len(w.listeners))
	for _, fn := range w.listeners {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (w *FixedWindow) AddResizeListener(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	w.listeners[id] = fn
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.listeners, id)
	}
}

// Listeners returns the number of attached resize listeners.
func (w *FixedWindow) Listeners() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.listeners)
}
