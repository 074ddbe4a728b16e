package engine

import (
	"sort"
	"sync"
	"time"
)

// Scheduler turns bursts of per-path change notifications into single
// recompute passes. Each arrival restarts the debounce timer; only
// when the timer fires with no newer arrival does one pass run over
// the drained batch. At most one pass is ever in flight: paths that
// arrive mid-pass are parked and re-queued as their own follow-up
// batch once the pass completes.
type Scheduler struct {
	delay time.Duration
	run   func(paths []string)

	mu       sync.Mutex
	timer    *time.Timer
	pending  map[string]bool
	deferred map[string]bool
	kicked   bool
	inFlight bool
	closed   bool
}

func newScheduler(delay time.Duration, run func(paths []string)) *Scheduler {
	return &Scheduler{
		delay:    delay,
		run:      run,
		pending:  make(map[string]bool),
		deferred: make(map[string]bool),
	}
}

// Notify records one changed path and restarts the debounce window.
func (s *Scheduler) Notify(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	if s.inFlight {
		s.deferred[path] = true
		return
	}
	s.pending[path] = true
	s.restartTimer()
}

// Kick arms the debounce timer without naming a path. Used when
// something other than a document (tag metadata, configuration)
// requires a fresh pass.
func (s *Scheduler) Kick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.kicked = true
	if !s.inFlight {
		s.restartTimer()
	}
}

// FlushNow cancels the debounce window and runs the due batch
// synchronously. A no-op while another pass is in flight; pending
// paths keep their place for the follow-up.
func (s *Scheduler) FlushNow() {
	s.fire()
}

// cancelPending drops every queued path and stops the debounce timer.
// A forced full rebuild calls this so the rebuild is not chased by a
// stale diff pass.
func (s *Scheduler) cancelPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimer()
	s.pending = make(map[string]bool)
	s.deferred = make(map[string]bool)
	s.kicked = false
}

// Close stops the timer and rejects further notifications.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.stopTimer()
}

// fire drains the pending set into one pass.
func (s *Scheduler) fire() {
	s.mu.Lock()
	if s.closed || s.inFlight || (len(s.pending) == 0 && !s.kicked) {
		s.mu.Unlock()
		return
	}
	s.stopTimer()
	batch := drain(s.pending)
	s.kicked = false
	s.inFlight = true
	s.mu.Unlock()

	s.run(batch)
	s.finishPass()
}

// finishPass re-queues whatever arrived mid-pass.
func (s *Scheduler) finishPass() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.closed {
		return
	}
	if len(s.deferred) > 0 || s.kicked {
		for p := range s.deferred {
			s.pending[p] = true
		}
		s.deferred = make(map[string]bool)
		s.restartTimer()
	}
}

// restartTimer (re)starts the debounce window. Callers hold the lock.
func (s *Scheduler) restartTimer() {
	s.stopTimer()
	s.timer = time.AfterFunc(s.delay, s.fire)
}

func (s *Scheduler) stopTimer() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func drain(set map[string]bool) []string {
	paths := make([]string, 0, len(set))
	for p := range set {
		paths = append(paths, p)
		delete(set, p)
	}
	sort.Strings(paths)
	return paths
}
