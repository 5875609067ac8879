package calendar

import (
	"math"
	"sync"
	"time"
)

const (
	DelayMouseHover = 400 * time.Millisecond
	DelayTap        = 140 * time.Millisecond
	ResizeDebounce  = 100 * time.Millisecond
	// TouchJitter is the largest finger displacement, per axis, still read as a tap.
	TouchJitter = 40.0
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay. The real one wraps time.AfterFunc.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealScheduler schedules on the runtime timer heap.
var RealScheduler Scheduler = realScheduler{}

// InteractionState tells how the user is currently pointing at the graph.
type InteractionState int

const (
	Idle InteractionState = iota
	Hovering
	Touching
)

func (s InteractionState) String() string {
	switch s {
	case Hovering:
		return "hovering"
	case Touching:
		return "touching"
	default:
		return "idle"
	}
}

// Point is a pointer position in page coordinates.
type Point struct {
	X, Y float64
}

// TooltipState is what the host should display. Anchor is set half-way
// through the open delay so the cell can be pre-highlighted; Open follows
// at the full delay. Selected marks the tapped cell on touch devices.
type TooltipState struct {
	Open     bool
	Anchor   *Cell
	Text     string
	Selected *Cell
}

// ClickFunc receives the clicked day with a zero-based month.
type ClickFunc func(year, month, day int)

// Controller turns pointer and touch events into tooltip state and click
// callbacks. Every pending tooltip timer is cancelled before a new one is
// scheduled, so the most recent event always wins.
type Controller struct {
	mu        sync.Mutex
	sched     Scheduler
	state     InteractionState
	timers    []Timer
	gen       uint64
	touch     Point
	tooltip   TooltipState
	onClick   ClickFunc
	loading   bool
	onChange  func(TooltipState)
	resize    Timer
	resizeGen uint64
	redraw    func()
	disposed  bool
}

// NewController returns an idle controller. onChange, when set, is called
// with every tooltip change, outside the controller lock.
func NewController(sched Scheduler, onChange func(TooltipState)) *Controller {
	if sched == nil {
		sched = RealScheduler
	}
	return &Controller{sched: sched, onChange: onChange}
}

// Configure installs the click handler and loading flag of the current
// render. A nil handler disables clicks and taps.
func (c *Controller) Configure(onClick ClickFunc, loading bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClick = onClick
	c.loading = loading
}

// SetRedraw sets the callback run when a debounced resize settles.
func (c *Controller) SetRedraw(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.redraw = fn
}

// Reset returns to Idle and drops any tooltip, as after a fresh render.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.cancelLocked()
	c.state = Idle
	c.tooltip = TooltipState{}
	st := c.tooltip
	c.mu.Unlock()
	c.notify(st)
}

// State returns the current interaction state.
func (c *Controller) State() InteractionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Tooltip returns a copy of the tooltip state.
func (c *Controller) Tooltip() TooltipState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tooltip
}

// MouseOver schedules the tooltip of a cell after the hover delay.
// Synthetic mouse events that follow a touch keep the Touching state.
func (c *Controller) MouseOver(cell Cell) {
	c.mu.Lock()
	if c.disposed || c.loading {
		c.mu.Unlock()
		return
	}
	if c.state != Touching {
		c.state = Hovering
	}
	c.scheduleLocked(cell, DelayMouseHover)
	c.mu.Unlock()
}

// MouseOut cancels pending timers and closes the tooltip.
func (c *Controller) MouseOut() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	if c.state == Hovering {
		c.state = Idle
	}
	st := c.closeLocked()
	c.mu.Unlock()
	c.notify(st)
}

// ClickAway closes the tooltip when the user taps outside the graph.
func (c *Controller) ClickAway() {
	c.MouseOut()
}

// TouchStart records where the finger landed, drops pending hover timers
// and closes any tooltip.
func (c *Controller) TouchStart(cell Cell, at Point) {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.cancelLocked()
	c.state = Touching
	c.touch = at
	c.tooltip.Open = false
	st := c.tooltip
	c.mu.Unlock()
	c.notify(st)
}

// TouchEnd opens the tooltip after the tap delay when the finger barely
// moved. Larger moves are scrolls and are ignored.
func (c *Controller) TouchEnd(cell Cell, at Point) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed || c.onClick == nil || c.loading {
		return
	}
	if math.Abs(c.touch.X-at.X) >= TouchJitter || math.Abs(c.touch.Y-at.Y) >= TouchJitter {
		return
	}
	c.scheduleLocked(cell, DelayTap)
}

// Click fires the click handler for a desktop click. Clicks that follow a
// touch are the browser's synthetic ones and are dropped. It reports
// whether the handler ran.
func (c *Controller) Click(cell Cell) bool {
	c.mu.Lock()
	fn := c.onClick
	ok := !c.disposed && fn != nil && c.state != Touching && !c.loading
	c.mu.Unlock()
	if !ok {
		return false
	}
	fn(cell.Year, cell.Month, cell.Day)
	return true
}

// TapTooltip handles a tap on an open tooltip: the selected day is clicked.
func (c *Controller) TapTooltip() bool {
	c.mu.Lock()
	fn := c.onClick
	sel := c.tooltip.Selected
	ok := !c.disposed && fn != nil && sel != nil && !c.loading
	c.mu.Unlock()
	if !ok {
		return false
	}
	fn(sel.Year, sel.Month, sel.Day)
	return true
}

// Resize collapses a burst of resize events into one redraw,
// ResizeDebounce after the last event.
func (c *Controller) Resize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.disposed {
		return
	}
	if c.resize != nil {
		c.resize.Stop()
	}
	c.resizeGen++
	g := c.resizeGen
	c.resize = c.sched.AfterFunc(ResizeDebounce, func() {
		c.mu.Lock()
		fn := c.redraw
		stale := c.disposed || g != c.resizeGen
		c.mu.Unlock()
		if !stale && fn != nil {
			fn()
		}
	})
}

// Dispose cancels every pending timer. Later events are ignored.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelLocked()
	if c.resize != nil {
		c.resize.Stop()
		c.resize = nil
	}
	c.resizeGen++
	c.disposed = true
}

// Pending returns the number of tooltip timers held since the last cancellation.
func (c *Controller) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// scheduleLocked replaces pending timers with the two-step open: anchor
// and pre-highlight at half the delay, open at the full delay.
func (c *Controller) scheduleLocked(cell Cell, delay time.Duration) {
	c.cancelLocked()
	g := c.gen
	c.timers = append(c.timers,
		c.sched.AfterFunc(delay/2, func() {
			c.fire(g, func() {
				anchor := cell
				c.tooltip.Selected = nil
				c.tooltip.Anchor = &anchor
				c.tooltip.Text = cell.Title
			})
		}),
		c.sched.AfterFunc(delay, func() {
			c.fire(g, func() {
				if c.state == Touching {
					sel := cell
					c.tooltip.Selected = &sel
				}
				c.tooltip.Open = true
			})
		}),
	)
}

// fire runs a timer body unless the timer was superseded. Stop cannot
// recall a callback already running, so the generation is checked too.
func (c *Controller) fire(g uint64, fn func()) {
	c.mu.Lock()
	if c.disposed || g != c.gen {
		c.mu.Unlock()
		return
	}
	fn()
	st := c.tooltip
	c.mu.Unlock()
	c.notify(st)
}

func (c *Controller) cancelLocked() {
	for _, t := range c.timers {
		t.Stop()
	}
	c.timers = nil
	c.gen++
}

func (c *Controller) closeLocked() TooltipState {
	c.cancelLocked()
	c.tooltip.Selected = nil
	c.tooltip.Open = false
	return c.tooltip
}

func (c *Controller) notify(st TooltipState) {
	if c.onChange != nil {
		c.onChange(st)
	}
}
