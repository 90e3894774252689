package carousel

import (
	"sync"
	"time"
)

// Hub keeps one controller per viewer so manual navigation and the live stream share state.
// Controllers are created lazily by Get and Attach; read-only callers use Peek.
type Hub struct {
	mu          sync.Mutex
	count       int
	opts        []Option
	now         func() time.Time
	controllers map[string]*hubEntry
}

type hubEntry struct {
	c        *Controller
	streams  int
	reduced  int
	lastUsed time.Time
}

// NewHub returns a hub whose controllers all have count slides.
func NewHub(count int, opts ...Option) *Hub {
	return &Hub{count: count, opts: opts, now: time.Now, controllers: map[string]*hubEntry{}}
}

// Get returns the viewer's controller, creating an inactive one on first use.
func (h *Hub) Get(viewer string) (*Controller, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, err := h.entryLocked(viewer)
	if err != nil {
		return nil, err
	}
	return e.c, nil
}

// Peek returns the viewer's current state without creating a controller. Viewers
// the hub has not seen get the initial state.
func (h *Hub) Peek(viewer string) (State, error) {
	if h.count <= 0 {
		return State{}, ErrNoSlides
	}
	h.mu.Lock()
	e, ok := h.controllers[viewer]
	if ok {
		e.lastUsed = h.now()
	}
	h.mu.Unlock()
	if ok {
		return e.c.State(), nil
	}
	return State{Count: h.count, Playing: true}, nil
}

// Attach activates the viewer's controller for one stream. The release func
// deactivates it once the last stream for that viewer detaches. While any attached
// stream asks for reduced motion the controller stays in reduced motion.
func (h *Hub) Attach(viewer string, reducedMotion bool) (*Controller, func(), error) {
	h.mu.Lock()
	e, err := h.entryLocked(viewer)
	if err != nil {
		h.mu.Unlock()
		return nil, nil, err
	}
	e.streams++
	if reducedMotion {
		e.reduced++
	}
	reduced := e.reduced > 0
	h.mu.Unlock()

	detach := func() (idle, reduced bool) {
		h.mu.Lock()
		defer h.mu.Unlock()
		e.streams--
		if reducedMotion {
			e.reduced--
		}
		e.lastUsed = h.now()
		return e.streams == 0, e.reduced > 0
	}

	e.c.SetReducedMotion(reduced)
	if err := e.c.Start(); err != nil {
		detach()
		return nil, nil, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			idle, reduced := detach()
			if idle {
				e.c.Stop()
				return
			}
			e.c.SetReducedMotion(reduced)
		})
	}
	return e.c, release, nil
}

// Evict closes controllers with no attached stream that have not been used for
// idle, and reports how many were removed.
func (h *Hub) Evict(idle time.Duration) int {
	cutoff := h.now().Add(-idle)
	var stale []*hubEntry
	h.mu.Lock()
	for viewer, e := range h.controllers {
		if e.streams == 0 && e.lastUsed.Before(cutoff) {
			stale = append(stale, e)
			delete(h.controllers, viewer)
		}
	}
	h.mu.Unlock()
	for _, e := range stale {
		e.c.Close()
	}
	return len(stale)
}

// Len reports how many viewers currently hold a controller.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.controllers)
}

// Close tears down every controller.
func (h *Hub) Close() {
	h.mu.Lock()
	entries := h.controllers
	h.controllers = map[string]*hubEntry{}
	h.mu.Unlock()
	for _, e := range entries {
		e.c.Close()
	}
}

func (h *Hub) entryLocked(viewer string) (*hubEntry, error) {
	if e, ok := h.controllers[viewer]; ok {
		e.lastUsed = h.now()
		return e, nil
	}
	c, err := New(h.count, h.opts...)
	if err != nil {
		return nil, err
	}
	e := &hubEntry{c: c, lastUsed: h.now()}
	h.controllers[viewer] = e
	return e, nil
}
