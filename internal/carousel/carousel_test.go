package carousel

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// manualClock fires timers only when Advance is called.
type manualClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*manualTimer
}

type manualTimer struct {
	clock   *manualClock
	at      time.Duration
	fn      func()
	stopped bool
	fired   bool
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{clock: c, at: c.now + d, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

// Advance moves time forward, firing due timers in order. Callbacks run without the clock lock.
func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	c.mu.Unlock()
	for {
		c.mu.Lock()
		var due []*manualTimer
		for _, t := range c.timers {
			if !t.stopped && !t.fired && t.at <= target {
				due = append(due, t)
			}
		}
		if len(due) == 0 {
			c.now = target
			c.mu.Unlock()
			return
		}
		sort.Slice(due, func(i, j int) bool { return due[i].at < due[j].at })
		next := due[0]
		next.fired = true
		c.now = next.at
		c.mu.Unlock()
		next.fn()
	}
}

func (c *manualClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func newController(t *testing.T, n int, opts ...Option) (*Controller, *manualClock) {
	t.Helper()
	clk := &manualClock{}
	c, err := New(n, append([]Option{WithClock(clk)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, clk
}

func TestNextFiveTimesReturnsToStart(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, 5)
	_, err := c.GoTo(2)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		c.Next()
	}
	require.Equal(t, 2, c.Index())
}

func TestPreviousWrapsFromZero(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, 5)
	require.Equal(t, 0, c.Index())
	require.Equal(t, 4, c.Previous().Index)
	require.Equal(t, 3, c.Previous().Index)
}

func TestGoToRejectsOutOfRange(t *testing.T) {
	t.Parallel()

	c, _ := newController(t, 3)
	_, err := c.GoTo(3)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = c.GoTo(-1)
	require.ErrorIs(t, err, ErrOutOfRange)
	st, err := c.GoTo(1)
	require.NoError(t, err)
	require.Equal(t, 1, st.Index)
}

func TestNewRequiresSlides(t *testing.T) {
	t.Parallel()

	_, err := New(0)
	require.ErrorIs(t, err, ErrNoSlides)
}

func TestAutoAdvanceWhilePlaying(t *testing.T) {
	t.Parallel()

	c, clk := newController(t, 5)
	require.False(t, c.Scheduled(), "inactive controller must not schedule")
	require.NoError(t, c.Start())
	require.True(t, c.Scheduled())

	clk.Advance(DefaultInterval - time.Millisecond)
	require.Equal(t, 0, c.Index())
	clk.Advance(time.Millisecond)
	require.Equal(t, 1, c.Index())
	clk.Advance(3 * DefaultInterval)
	require.Equal(t, 4, c.Index())
	clk.Advance(DefaultInterval)
	require.Equal(t, 0, c.Index())
}

func TestPauseStopsTimerAndPlayResumes(t *testing.T) {
	t.Parallel()

	c, clk := newController(t, 5)
	require.NoError(t, c.Start())
	st := c.Toggle()
	require.False(t, st.Playing)
	require.False(t, c.Scheduled())
	require.Zero(t, clk.pending())

	clk.Advance(10 * DefaultInterval)
	require.Equal(t, 0, c.Index())

	// manual navigation is allowed while paused
	require.Equal(t, 1, c.Next().Index)

	st = c.Toggle()
	require.True(t, st.Playing)
	clk.Advance(DefaultInterval)
	require.Equal(t, 2, c.Index())
}

func TestReducedMotionNeverSchedules(t *testing.T) {
	t.Parallel()

	c, clk := newController(t, 5, WithReducedMotion(true))
	require.NoError(t, c.Start())
	c.Play()
	c.Toggle()
	c.Toggle()
	require.False(t, c.Scheduled())
	require.Zero(t, clk.pending())

	clk.Advance(time.Minute)
	require.Equal(t, 0, c.Index())

	// clearing the signal resumes; setting it again cancels
	c.SetReducedMotion(false)
	require.True(t, c.Scheduled())
	c.SetReducedMotion(true)
	require.False(t, c.Scheduled())
	require.Zero(t, clk.pending())
}

func TestManualNavigationDoesNotResetTimer(t *testing.T) {
	t.Parallel()

	c, clk := newController(t, 5)
	require.NoError(t, c.Start())
	clk.Advance(3 * time.Second)
	c.Next()
	clk.Advance(time.Second)
	require.Equal(t, 2, c.Index())
}

func TestStopAndCloseCancelTimer(t *testing.T) {
	t.Parallel()

	c, clk := newController(t, 5)
	require.NoError(t, c.Start())
	c.Stop()
	require.Zero(t, clk.pending())

	require.NoError(t, c.Start())
	require.Equal(t, 1, clk.pending())
	c.Close()
	require.Zero(t, clk.pending())
	require.ErrorIs(t, c.Start(), ErrClosed)

	clk.Advance(time.Minute)
	require.Equal(t, 0, c.Index())
}

func TestSubscribersSeeTransitions(t *testing.T) {
	t.Parallel()

	c, clk := newController(t, 3)
	var seen []int
	cancel := c.Subscribe(func(s State) { seen = append(seen, s.Index) })
	require.NoError(t, c.Start())

	c.Next()
	clk.Advance(DefaultInterval)
	c.Previous()
	cancel()
	c.Next()

	require.Equal(t, []int{1, 2, 1}, seen)
}

func TestHubAttachStartsAndReleaseStops(t *testing.T) {
	t.Parallel()

	clk := &manualClock{}
	h := NewHub(5, WithClock(clk))
	t.Cleanup(h.Close)

	c1, release1, err := h.Attach("viewer", false)
	require.NoError(t, err)
	c2, release2, err := h.Attach("viewer", false)
	require.NoError(t, err)
	require.Same(t, c1, c2)
	require.True(t, c1.Scheduled())

	release1()
	release1()
	require.True(t, c1.Scheduled(), "second stream still attached")
	release2()
	require.False(t, c1.Scheduled())

	got, err := h.Get("viewer")
	require.NoError(t, err)
	require.Same(t, c1, got)

	other, err := h.Get("someone-else")
	require.NoError(t, err)
	require.NotSame(t, c1, other)
}

func TestHubAttachHonorsReducedMotion(t *testing.T) {
	t.Parallel()

	clk := &manualClock{}
	h := NewHub(5, WithClock(clk))
	t.Cleanup(h.Close)

	c, release, err := h.Attach("viewer", true)
	require.NoError(t, err)
	defer release()
	require.False(t, c.Scheduled())
	require.True(t, c.State().ReducedMotion)
}

func TestHubPeekDoesNotCreateControllers(t *testing.T) {
	t.Parallel()

	h := NewHub(5, WithClock(&manualClock{}))
	t.Cleanup(h.Close)

	st, err := h.Peek("stranger")
	require.NoError(t, err)
	require.Equal(t, State{Count: 5, Playing: true}, st)
	require.Zero(t, h.Len())

	c, err := h.Get("viewer")
	require.NoError(t, err)
	c.Next()
	c.Pause()
	st, err = h.Peek("viewer")
	require.NoError(t, err)
	require.Equal(t, 1, st.Index)
	require.False(t, st.Playing)
	require.Equal(t, 1, h.Len())

	_, err = NewHub(0).Peek("viewer")
	require.ErrorIs(t, err, ErrNoSlides)
}

func TestHubEvictsIdleControllers(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	h := NewHub(5, WithClock(&manualClock{}))
	h.now = func() time.Time { return now }
	t.Cleanup(h.Close)

	idle, err := h.Get("idle")
	require.NoError(t, err)
	_, release, err := h.Attach("streaming", false)
	require.NoError(t, err)

	now = now.Add(10 * time.Minute)
	_, err = h.Get("recent")
	require.NoError(t, err)

	now = now.Add(25 * time.Minute)
	require.Equal(t, 1, h.Evict(30*time.Minute))
	require.Equal(t, 2, h.Len(), "streaming and recent survive")
	_, err = idle.GoTo(2)
	require.NoError(t, err)
	require.Zero(t, idle.Index(), "evicted controller is closed")

	release()
	now = now.Add(31 * time.Minute)
	require.Equal(t, 2, h.Evict(30*time.Minute))
	require.Zero(t, h.Len())
}

func TestHubAttachRollsBackWhenStartFails(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	h := NewHub(5, WithClock(&manualClock{}))
	h.now = func() time.Time { return now }
	t.Cleanup(h.Close)

	c, err := h.Get("viewer")
	require.NoError(t, err)
	c.Close()

	_, release, err := h.Attach("viewer", false)
	require.ErrorIs(t, err, ErrClosed)
	require.Nil(t, release)

	now = now.Add(time.Hour)
	require.Equal(t, 1, h.Evict(time.Minute), "no stream is left counted")
}

func TestHubReducedMotionWinsAcrossStreams(t *testing.T) {
	t.Parallel()

	h := NewHub(5, WithClock(&manualClock{}))
	t.Cleanup(h.Close)

	c, releaseAnimated, err := h.Attach("viewer", false)
	require.NoError(t, err)
	require.True(t, c.Scheduled())

	_, releaseReduced, err := h.Attach("viewer", true)
	require.NoError(t, err)
	require.False(t, c.Scheduled())
	require.True(t, c.State().ReducedMotion)

	_, releaseAnimated2, err := h.Attach("viewer", false)
	require.NoError(t, err)
	require.True(t, c.State().ReducedMotion, "a later animated stream does not override")

	releaseReduced()
	require.False(t, c.State().ReducedMotion)
	require.True(t, c.Scheduled())

	releaseAnimated()
	releaseAnimated2()
	require.False(t, c.Scheduled())
}
