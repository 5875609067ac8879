package calendar

import (
	"sort"
	"sync"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daily builds n consecutive daily samples starting at from.
func daily(from time.Time, n int, amount func(i int) float64) Series {
	out := make(Series, n)
	for i := range n {
		out[i] = Sample{Date: from.AddDate(0, 0, i), Amount: amount(i)}
	}
	return out
}

func negative(i int) float64 { return -float64(i%17 + 1) }

// lastYear is the 365 days ending on 2026-10-19.
func lastYear() Series {
	return daily(date(2025, time.October, 20), 365, negative)
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Duration
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

// fakeScheduler runs callbacks only when the test advances its clock.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	timers []*fakeTimer
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	t := &fakeTimer{s: s, at: s.now + d, seq: s.seq, fn: f}
	s.timers = append(s.timers, t)
	return t
}

// Advance moves the clock forward, firing due timers in order. Callbacks
// run without the scheduler lock so they may schedule or stop timers.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now + d
	for {
		var due []*fakeTimer
		for _, t := range s.timers {
			if !t.stopped && !t.fired && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			break
		}
		sort.Slice(due, func(i, j int) bool {
			if due[i].at != due[j].at {
				return due[i].at < due[j].at
			}
			return due[i].seq < due[j].seq
		})
		next := due[0]
		next.fired = true
		s.now = next.at
		s.mu.Unlock()
		next.fn()
		s.mu.Lock()
	}
	s.now = target
	s.mu.Unlock()
}

// Active counts timers that are neither stopped nor fired.
func (s *fakeScheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, t := range s.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recordingSurface struct {
	mu     sync.Mutex
	clears int
	paints int
	last   *Layout
}

func (s *recordingSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.last = nil
}

func (s *recordingSurface) Paint(l *Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paints++
	s.last = l
}

func (s *recordingSurface) snapshot() (clears, paints int, last *Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears, s.paints, s.last
}
