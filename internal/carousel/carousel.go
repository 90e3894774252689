// Package carousel implements the testimonial slider state: a wrapping index, a
// play/pause toggle and an auto-advance timer that is never scheduled under reduced motion.
package carousel

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is the auto-advance period.
const DefaultInterval = 4 * time.Second

var (
	ErrNoSlides   = errors.New("carousel: at least one slide is required")
	ErrOutOfRange = errors.New("carousel: slide index out of range")
	ErrClosed     = errors.New("carousel: controller closed")
)

// State is a snapshot delivered to subscribers.
type State struct {
	Index         int
	Count         int
	Playing       bool
	ReducedMotion bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock replaces the real clock.
func WithClock(clk Clock) Option {
	return func(c *Controller) {
		if clk != nil {
			c.clock = clk
		}
	}
}

// WithReducedMotion sets the initial reduced-motion flag.
func WithReducedMotion(reduced bool) Option {
	return func(c *Controller) { c.reduced = reduced }
}

// Controller owns one carousel. It starts Playing but inactive; the timer only runs
// between Start and Stop/Close.
type Controller struct {
	mu       sync.Mutex
	count    int
	index    int
	playing  bool
	reduced  bool
	active   bool
	closed   bool
	interval time.Duration
	clock    Clock
	timer    Timer
	gen      uint64
	subs     map[uint64]func(State)
	nextSub  uint64
}

// New builds a controller over n slides.
func New(n int, opts ...Option) (*Controller, error) {
	if n <= 0 {
		return nil, ErrNoSlides
	}
	c := &Controller{
		count:    n,
		playing:  true,
		interval: DefaultInterval,
		clock:    RealClock,
		subs:     map[uint64]func(State){},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Index returns the current slide.
func (c *Controller) Index() int { return c.State().Index }

// Scheduled reports whether an auto-advance timer is pending.
func (c *Controller) Scheduled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timer != nil
}

// Start activates the controller and schedules the timer when allowed.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.active = true
	c.rescheduleLocked()
	c.mu.Unlock()
	return nil
}

// Stop deactivates the controller and cancels any pending timer. State is kept.
func (c *Controller) Stop() {
	c.mu.Lock()
	c.active = false
	c.rescheduleLocked()
	c.mu.Unlock()
}

// Close stops the timer and releases every subscriber. Further transitions are ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.active = false
	c.rescheduleLocked()
	c.subs = map[uint64]func(State){}
	c.mu.Unlock()
}

// Next advances one slide, wrapping to 0 after the last.
func (c *Controller) Next() State {
	return c.transition(func() { c.index = (c.index + 1) % c.count })
}

// Previous goes back one slide, wrapping to the last from 0.
func (c *Controller) Previous() State {
	return c.transition(func() { c.index = (c.index - 1 + c.count) % c.count })
}

// GoTo jumps to slide i.
func (c *Controller) GoTo(i int) (State, error) {
	if i < 0 || i >= c.count {
		return c.State(), fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, c.count)
	}
	return c.transition(func() { c.index = i }), nil
}

// Play resumes auto-advance.
func (c *Controller) Play() State {
	return c.transition(func() {
		c.playing = true
		c.rescheduleLocked()
	})
}

// Pause suspends auto-advance.
func (c *Controller) Pause() State {
	return c.transition(func() {
		c.playing = false
		c.rescheduleLocked()
	})
}

// Toggle flips between Playing and Paused.
func (c *Controller) Toggle() State {
	return c.transition(func() {
		c.playing = !c.playing
		c.rescheduleLocked()
	})
}

// SetReducedMotion updates the environment signal. While set, no timer is scheduled.
func (c *Controller) SetReducedMotion(reduced bool) State {
	return c.transition(func() {
		if c.reduced == reduced {
			return
		}
		c.reduced = reduced
		c.rescheduleLocked()
	})
}

// Subscribe registers fn for every subsequent transition. fn runs outside the lock.
func (c *Controller) Subscribe(fn func(State)) (cancel func()) {
	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	if !c.closed {
		c.subs[id] = fn
	}
	c.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Controller) transition(mutate func()) State {
	c.mu.Lock()
	if c.closed {
		st := c.stateLocked()
		c.mu.Unlock()
		return st
	}
	mutate()
	st := c.stateLocked()
	subs := c.subsLocked()
	c.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
	return st
}

func (c *Controller) shouldRunLocked() bool {
	return c.active && c.playing && !c.reduced && !c.closed
}

// rescheduleLocked cancels the pending timer and arms a fresh one when the controller
// should be running. The generation counter drops callbacks from cancelled timers that
// already fired.
func (c *Controller) rescheduleLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
	if !c.shouldRunLocked() {
		return
	}
	gen := c.gen
	c.timer = c.clock.AfterFunc(c.interval, func() { c.fire(gen) })
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	if gen != c.gen || !c.shouldRunLocked() {
		c.mu.Unlock()
		return
	}
	c.index = (c.index + 1) % c.count
	c.timer = c.clock.AfterFunc(c.interval, func() { c.fire(gen) })
	st := c.stateLocked()
	subs := c.subsLocked()
	c.mu.Unlock()
	for _, fn := range subs {
		fn(st)
	}
}

func (c *Controller) stateLocked() State {
	return State{Index: c.index, Count: c.count, Playing: c.playing, ReducedMotion: c.reduced}
}

func (c *Controller) subsLocked() []func(State) {
	out := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		out = append(out, fn)
	}
	return out
}
