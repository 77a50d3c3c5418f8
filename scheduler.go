package chunkmap

import (
	"sync"
	"time"

	"github.com/zyedidia/generic/heap"
)

// --- Clocks ---

// Clock supplies the current time to the scheduler and renderers.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock with its monotonic component.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock that only moves when told to. Tests use it to step
// animations and timers deterministically.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock creates a clock stopped at start.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Set moves the clock to t.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d.
func (c *ManualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// --- Scheduler ---

// TimerID identifies a pending timer. The zero value is never issued.
type TimerID uint64

type timer struct {
	id        TimerID
	due       time.Time
	seq       uint64
	every     time.Duration
	fn        func()
	cancelled bool
}

// Scheduler is a cooperative single-threaded scheduler. The host calls
// Frame once per display frame; Frame runs every due timer and then every
// frame callback requested before the call. Nothing runs concurrently and
// nothing runs outside Frame.
type Scheduler struct {
	clock  Clock
	timers *heap.Heap[*timer]
	byID   map[TimerID]*timer
	nextID TimerID
	seq    uint64

	frameQueue []*FrameLoop
}

// NewScheduler creates a scheduler reading time from c. A nil clock uses
// SystemClock.
func NewScheduler(c Clock) *Scheduler {
	if c == nil {
		c = SystemClock{}
	}
	timers := heap.New[*timer](func(a, b *timer) bool {
		if a.due.Equal(b.due) {
			return a.seq < b.seq
		}
		return a.due.Before(b.due)
	})
	return &Scheduler{clock: c, timers: timers, byID: make(map[TimerID]*timer)}
}

// Now returns the scheduler clock's time.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// Clock returns the scheduler's clock.
func (s *Scheduler) Clock() Clock { return s.clock }

// After runs fn once, on the first Frame at or after d from now.
func (s *Scheduler) After(d time.Duration, fn func()) TimerID {
	return s.add(d, 0, fn)
}

// Every runs fn on the first Frame after each multiple of d from now.
func (s *Scheduler) Every(d time.Duration, fn func()) TimerID {
	if d <= 0 {
		d = time.Millisecond
	}
	return s.add(d, d, fn)
}

func (s *Scheduler) add(d, every time.Duration, fn func()) TimerID {
	s.nextID++
	s.seq++
	t := &timer{id: s.nextID, due: s.clock.Now().Add(d), seq: s.seq, every: every, fn: fn}
	s.byID[t.id] = t
	s.timers.Push(t)
	return t.id
}

// Cancel stops a pending timer. It reports whether the timer was pending;
// cancelling an unknown or finished timer is a no-op.
func (s *Scheduler) Cancel(id TimerID) bool {
	t, ok := s.byID[id]
	if !ok {
		return false
	}
	t.cancelled = true
	delete(s.byID, id)
	return true
}

// Pending reports whether the timer is still scheduled.
func (s *Scheduler) Pending(id TimerID) bool {
	_, ok := s.byID[id]
	return ok
}

// Timers returns the number of scheduled timers.
func (s *Scheduler) Timers() int { return len(s.byID) }

// Frame runs one scheduler turn.
func (s *Scheduler) Frame() {
	now := s.clock.Now()
	s.runTimers(now)

	queue := s.frameQueue
	s.frameQueue = nil
	for _, l := range queue {
		l.queued = false
		if !l.pending {
			continue
		}
		l.pending = false
		l.fn()
	}
}

func (s *Scheduler) runTimers(now time.Time) {
	limit := s.seq
	for {
		t, ok := s.timers.Peek()
		if !ok || t.due.After(now) || t.seq > limit {
			return
		}
		s.timers.Pop()
		if t.cancelled {
			continue
		}
		if t.every > 0 {
			t.due = t.due.Add(t.every)
			if !t.due.After(now) {
				t.due = now.Add(t.every)
			}
			s.seq++
			t.seq = s.seq
			s.timers.Push(t)
		} else {
			delete(s.byID, t.id)
		}
		t.fn()
	}
}

// Idle reports whether no timer or frame callback is outstanding.
func (s *Scheduler) Idle() bool {
	if len(s.byID) > 0 {
		return false
	}
	for _, l := range s.frameQueue {
		if l.pending {
			return false
		}
	}
	return true
}

// --- Frame loops ---

// FrameLoop is a cancellable "run on the next frame" request. A loop that
// wants to keep running requests itself again from its callback; one that
// does not simply stops, so an idle loop costs nothing.
type FrameLoop struct {
	sched   *Scheduler
	fn      func()
	pending bool
	queued  bool
}

// NewFrameLoop creates an idle frame loop that calls fn when it fires.
func (s *Scheduler) NewFrameLoop(fn func()) *FrameLoop {
	return &FrameLoop{sched: s, fn: fn}
}

// Request schedules fn for the next Frame. Repeated requests before that
// frame collapse into one.
func (l *FrameLoop) Request() {
	l.pending = true
	if !l.queued {
		l.queued = true
		l.sched.frameQueue = append(l.sched.frameQueue, l)
	}
}

// Cancel withdraws a pending request.
func (l *FrameLoop) Cancel() {
	l.pending = false
}

// Pending reports whether the loop will run on the next Frame.
func (l *FrameLoop) Pending() bool { return l.pending }
