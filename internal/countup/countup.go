// Package countup interpolates a displayed integer from zero to a target over a fixed duration,
// one sample per frame.
package countup

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultDuration matches the impact section animation length.
const DefaultDuration = 2 * time.Second

// ErrNegativeTarget is returned for targets below zero.
var ErrNegativeTarget = errors.New("countup: target must not be negative")

// FrameScheduler requests a single callback on the next frame.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) (cancel func())
}

// TickerFrames schedules frames on the runtime timer at a fixed interval.
type TickerFrames struct {
	Interval time.Duration
}

// RequestFrame implements FrameScheduler.
func (t TickerFrames) RequestFrame(fn func(now time.Time)) func() {
	d := t.Interval
	if d <= 0 {
		d = 16 * time.Millisecond
	}
	timer := time.AfterFunc(d, func() { fn(time.Now()) })
	return func() { timer.Stop() }
}

// Value returns floor(min(elapsed/duration, 1) * target).
func Value(target int, duration, elapsed time.Duration) int {
	if target <= 0 {
		return 0
	}
	if duration <= 0 || elapsed >= duration {
		return target
	}
	if elapsed <= 0 {
		return 0
	}
	return int(int64(target) * int64(elapsed) / int64(duration))
}

// Animator drives one count-up from 0 to Target.
type Animator struct {
	target   int
	duration time.Duration
	frames   FrameScheduler

	mu      sync.Mutex
	cancel  func()
	started bool
	stopped bool
	origin  time.Time
	last    int
}

// Option configures an Animator.
type Option func(*Animator)

// WithDuration overrides DefaultDuration.
func WithDuration(d time.Duration) Option {
	return func(a *Animator) { a.duration = d }
}

// WithFrames replaces the default 16ms ticker frames.
func WithFrames(fs FrameScheduler) Option {
	return func(a *Animator) {
		if fs != nil {
			a.frames = fs
		}
	}
}

// New builds an animator for target.
func New(target int, opts ...Option) (*Animator, error) {
	if target < 0 {
		return nil, ErrNegativeTarget
	}
	a := &Animator{
		target:   target,
		duration: DefaultDuration,
		frames:   TickerFrames{Interval: 16 * time.Millisecond},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Target returns the final value.
func (a *Animator) Target() int { return a.target }

// Start begins sampling. onFrame receives every displayed value; done is true exactly once,
// on the frame that reaches the target. Start is a no-op after the first call.
func (a *Animator) Start(onFrame func(value int, done bool)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started || a.stopped {
		return
	}
	a.started = true
	a.requestLocked(onFrame)
}

// Stop cancels the pending frame. No callbacks are delivered afterwards.
func (a *Animator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
}

// Current returns the last displayed value.
func (a *Animator) Current() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *Animator) requestLocked(onFrame func(int, bool)) {
	a.cancel = a.frames.RequestFrame(func(now time.Time) { a.frame(now, onFrame) })
}

func (a *Animator) frame(now time.Time, onFrame func(int, bool)) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	if a.origin.IsZero() {
		a.origin = now
	}
	v := Value(a.target, a.duration, now.Sub(a.origin))
	if v < a.last {
		v = a.last
	}
	a.last = v
	done := now.Sub(a.origin) >= a.duration || a.target == 0
	if done {
		a.last = a.target
		v = a.target
		a.cancel = nil
	} else {
		a.requestLocked(onFrame)
	}
	a.mu.Unlock()
	onFrame(v, done)
}

// Format renders value with locale digit grouping between prefix and suffix.
func Format(value int, prefix, suffix, lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	return prefix + message.NewPrinter(tag).Sprintf("%d", value) + suffix
}
