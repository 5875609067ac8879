package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type click struct{ year, month, day int }

func testCell(day int) Cell {
	return Cell{Index: day, Year: 2026, Month: 9, Day: day, Title: "tooltip"}
}

func newTestController() (*Controller, *fakeScheduler, *[]TooltipState) {
	sched := &fakeScheduler{}
	var changes []TooltipState
	c := NewController(sched, func(st TooltipState) { changes = append(changes, st) })
	return c, sched, &changes
}

func TestHoverOpensTooltipInTwoSteps(t *testing.T) {
	c, sched, _ := newTestController()
	cell := testCell(5)

	c.MouseOver(cell)
	assert.Equal(t, Hovering, c.State())

	sched.Advance(DelayMouseHover/2 - time.Millisecond)
	assert.Nil(t, c.Tooltip().Anchor)

	sched.Advance(time.Millisecond)
	tip := c.Tooltip()
	require.NotNil(t, tip.Anchor)
	assert.Equal(t, 5, tip.Anchor.Day)
	assert.Equal(t, "tooltip", tip.Text)
	assert.False(t, tip.Open)

	sched.Advance(DelayMouseHover / 2)
	tip = c.Tooltip()
	assert.True(t, tip.Open)
	assert.Nil(t, tip.Selected, "hover never selects")
}

func TestMouseOutBeforeDelayShowsNothing(t *testing.T) {
	c, sched, _ := newTestController()

	c.MouseOver(testCell(1))
	sched.Advance(100 * time.Millisecond)
	c.MouseOut()
	sched.Advance(time.Second)

	assert.False(t, c.Tooltip().Open)
	assert.Nil(t, c.Tooltip().Anchor)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, 0, sched.Active())
}

func TestLatestHoverWins(t *testing.T) {
	c, sched, _ := newTestController()

	c.MouseOver(testCell(1))
	sched.Advance(300 * time.Millisecond)
	c.MouseOver(testCell(2))
	assert.Equal(t, 2, c.Pending())
	sched.Advance(DelayMouseHover)

	tip := c.Tooltip()
	require.True(t, tip.Open)
	assert.Equal(t, 2, tip.Anchor.Day)
}

func TestTapOpensTooltipAndTapOnTooltipClicks(t *testing.T) {
	c, sched, _ := newTestController()
	var clicks []click
	c.Configure(func(y, m, d int) { clicks = append(clicks, click{y, m, d}) }, false)
	cell := testCell(19)

	c.TouchStart(cell, Point{X: 10, Y: 10})
	c.TouchEnd(cell, Point{X: 30, Y: 45})
	assert.Equal(t, Touching, c.State())

	sched.Advance(DelayTap)
	tip := c.Tooltip()
	require.True(t, tip.Open)
	require.NotNil(t, tip.Selected)
	assert.Equal(t, 19, tip.Selected.Day)

	// The synthetic click that follows a touch is dropped.
	assert.False(t, c.Click(cell))
	assert.Empty(t, clicks)

	assert.True(t, c.TapTooltip())
	assert.Equal(t, []click{{2026, 9, 19}}, clicks)
}

func TestTouchStartCancelsPendingHover(t *testing.T) {
	c, sched, _ := newTestController()
	c.Configure(func(int, int, int) {}, false)

	// Browsers fire a mouseover before the touch events.
	c.MouseOver(testCell(4))
	sched.Advance(DelayMouseHover/2 - time.Millisecond)
	c.TouchStart(testCell(4), Point{X: 10, Y: 10})
	assert.Equal(t, 0, sched.Active())

	sched.Advance(time.Second)
	tip := c.Tooltip()
	assert.Nil(t, tip.Anchor)
	assert.False(t, tip.Open)
	assert.Equal(t, Touching, c.State())
}

func TestTouchJitterIsAScroll(t *testing.T) {
	c, sched, _ := newTestController()
	c.Configure(func(int, int, int) {}, false)
	cell := testCell(3)

	c.TouchStart(cell, Point{X: 100, Y: 100})
	c.TouchEnd(cell, Point{X: 100, Y: 140})
	sched.Advance(time.Second)
	assert.False(t, c.Tooltip().Open)

	c.TouchStart(cell, Point{X: 100, Y: 100})
	c.TouchEnd(cell, Point{X: 61, Y: 100})
	sched.Advance(time.Second)
	assert.True(t, c.Tooltip().Open)
}

func TestTouchWithoutClickHandler(t *testing.T) {
	c, sched, _ := newTestController()
	cell := testCell(3)

	c.TouchStart(cell, Point{})
	c.TouchEnd(cell, Point{})
	sched.Advance(time.Second)
	assert.False(t, c.Tooltip().Open)
	assert.False(t, c.TapTooltip())
}

func TestLoadingDisablesInteraction(t *testing.T) {
	c, sched, _ := newTestController()
	called := false
	c.Configure(func(int, int, int) { called = true }, true)

	c.MouseOver(testCell(1))
	assert.Equal(t, 0, sched.Active())
	assert.False(t, c.Click(testCell(1)))
	assert.False(t, called)
}

func TestClickRequiresHandler(t *testing.T) {
	c, _, _ := newTestController()
	assert.False(t, c.Click(testCell(1)))

	var got []click
	c.Configure(func(y, m, d int) { got = append(got, click{y, m, d}) }, false)
	assert.True(t, c.Click(testCell(7)))
	assert.Equal(t, []click{{2026, 9, 7}}, got)
}

func TestResizeIsDebounced(t *testing.T) {
	c, sched, _ := newTestController()
	redraws := 0
	c.SetRedraw(func() { redraws++ })

	for range 5 {
		c.Resize()
		sched.Advance(50 * time.Millisecond)
	}
	assert.Equal(t, 0, redraws)

	sched.Advance(ResizeDebounce - 50*time.Millisecond - time.Millisecond)
	assert.Equal(t, 0, redraws)
	sched.Advance(time.Millisecond)
	assert.Equal(t, 1, redraws)
}

func TestDisposeCancelsEverything(t *testing.T) {
	c, sched, changes := newTestController()
	redraws := 0
	c.SetRedraw(func() { redraws++ })

	c.MouseOver(testCell(1))
	c.Resize()
	c.Dispose()
	sched.Advance(time.Second)

	assert.Equal(t, 0, sched.Active())
	assert.Equal(t, 0, redraws)
	assert.False(t, c.Tooltip().Open)
	assert.Empty(t, *changes)

	c.MouseOver(testCell(2))
	c.Resize()
	c.Dispose()
	assert.Equal(t, 0, sched.Active())
}

func TestResetClearsTouchState(t *testing.T) {
	c, sched, _ := newTestController()
	c.Configure(func(int, int, int) {}, false)
	c.TouchStart(testCell(1), Point{})
	c.TouchEnd(testCell(1), Point{})
	sched.Advance(DelayTap / 2)

	c.Reset()
	sched.Advance(time.Second)
	assert.Equal(t, Idle, c.State())
	assert.Equal(t, TooltipState{}, c.Tooltip())
	assert.True(t, c.Click(testCell(1)))
}
