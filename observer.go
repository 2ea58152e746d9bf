package goshape

import (
	"sync"
	"time"
)

// ParseEvent describes one completed top-level parse call.
type ParseEvent struct {
	Async    bool
	Outcome  Outcome
	Err      error // fatal error, if any
	Duration time.Duration
}

// Observer receives an event after every top-level parse call. Implementations
// must be safe for concurrent use.
type Observer interface {
	ObserveParse(ev ParseEvent)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev ParseEvent)

// ObserveParse calls f(ev).
func (f ObserverFunc) ObserveParse(ev ParseEvent) { f(ev) }

var (
	observerMu sync.RWMutex
	observer   Observer
)

// SetObserver installs the process-wide observer. nil removes it.
func SetObserver(o Observer) {
	observerMu.Lock()
	observer = o
	observerMu.Unlock()
}

func notify(ev ParseEvent) {
	observerMu.RLock()
	o := observer
	observerMu.RUnlock()
	if o != nil {
		o.ObserveParse(ev)
	}
}
