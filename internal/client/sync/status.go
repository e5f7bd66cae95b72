package sync

import "time"

// Status is the externally observable state of the engine. A copy is pushed
// to every subscriber on each change; subscribers receive the current value
// immediately upon registration, so there is no missed-update window.
type Status struct {
	Online         bool
	LastSync       time.Time
	PendingChanges int
	Syncing        bool
	Errors         []string
}

func (s Status) clone() Status {
	out := s
	out.Errors = append([]string(nil), s.Errors...)
	return out
}

// Result summarizes one sync cycle.
type Result struct {
	Synced     int
	Failed     int
	Conflicted int
	Errors     []string
}

// Subscribe registers fn for status notifications and returns its
// unsubscribe function. fn is invoked synchronously with the current status
// before Subscribe returns.
func (e *Engine) Subscribe(fn func(Status)) func() {
	e.mu.Lock()
	id := e.nextListener
	e.nextListener++
	e.listeners[id] = fn
	current := e.status.clone()
	e.mu.Unlock()

	fn(current)

	return func() {
		e.mu.Lock()
		delete(e.listeners, id)
		e.mu.Unlock()
	}
}

// Status returns a snapshot of the current engine status.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status.clone()
}

// Online reports whether the engine currently considers the network
// reachable.
func (e *Engine) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status.Online
}

// setStatus applies mutate under the lock and notifies all listeners
// synchronously with the resulting snapshot.
func (e *Engine) setStatus(mutate func(*Status)) {
	e.mu.Lock()
	mutate(&e.status)
	snapshot := e.status.clone()
	fns := make([]func(Status), 0, len(e.listeners))
	for _, fn := range e.listeners {
		fns = append(fns, fn)
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot)
	}
}
