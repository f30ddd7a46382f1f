// Package sched implements the cooperative Scheduler & Timers of
// SPEC_FULL §4.13: a 1-second timer tick plus a fast 50ms event-bus
// tick, one-shot idempotently-cancellable timers, with timer callbacks
// always running before the event-bus drain within one tick. Grounded
// on worker.Pool's start/stop loop shape, single-threaded instead of
// one goroutine per queue.
package sched

import "time"

// Handle identifies a scheduled one-shot timer.
type Handle uint64

type timer struct {
	id        Handle
	fireAt    time.Time
	fn        func(now time.Time)
	cancelled bool
}

// After schedules fn to run once, no earlier than now.Add(d). It
// returns a Handle usable with Cancel. Cancellation is idempotent:
// cancelling an already-fired or already-cancelled handle is a no-op.
func (s *Scheduler) After(d time.Duration, now time.Time, fn func(now time.Time)) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := Handle(s.nextID)
	s.timers = append(s.timers, &timer{id: id, fireAt: now.Add(d), fn: fn})
	return id
}

// Cancel marks h's timer cancelled if it hasn't already fired.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.timers {
		if t.id == h {
			t.cancelled = true
			return
		}
	}
}

// dueTimers pops every non-cancelled timer whose fireAt has elapsed, in
// fireAt order (ties broken by id, i.e. scheduling order), and removes
// all cancelled or fired timers from the live set.
func (s *Scheduler) dueTimers(now time.Time) []*timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []*timer
	var remaining []*timer
	for _, t := range s.timers {
		switch {
		case t.cancelled:
			// drop
		case !now.Before(t.fireAt):
			due = append(due, t)
		default:
			remaining = append(remaining, t)
		}
	}
	s.timers = remaining

	for i := 0; i < len(due); i++ {
		for j := i + 1; j < len(due); j++ {
			if due[j].fireAt.Before(due[i].fireAt) || (due[j].fireAt.Equal(due[i].fireAt) && due[j].id < due[i].id) {
				due[i], due[j] = due[j], due[i]
			}
		}
	}
	return due
}
