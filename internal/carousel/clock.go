package carousel

import "time"

// Clock schedules deferred callbacks. It matches time.AfterFunc so tests can swap in a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled callback.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock is backed by the runtime timer heap.
var RealClock Clock = realClock{}
