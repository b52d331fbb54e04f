// Package reminder arms one-shot reminder timers for tasks and keeps the set
// of armed timers in step with the tasks that should have one.
package reminder

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/colonyops/tally/internal/core/logging"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/pkg/clock"
	"github.com/rs/zerolog"
)

// FireFunc is invoked when a task's reminder is due.
type FireFunc func(ctx context.Context, t task.Task) error

type entry struct {
	handle Handle
}

// Scheduler tracks at most one armed timer per task ID. The guarantee
// covers armed timers only: a past-due reminder is dispatched on an
// untracked zero-delay timer, so Cancel, Reconcile and Teardown cannot stop
// it once queued. FireFuncs re-check the task when that matters.
//
// Timers fire on their own goroutines. The tracking map is guarded by mu,
// which is never held while a FireFunc runs.
type Scheduler struct {
	timers Timers
	clock  clock.Clock
	log    zerolog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// NewScheduler creates a Scheduler.
func NewScheduler(timers Timers, clk clock.Clock, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		timers:  timers,
		clock:   clk,
		log:     log.With().Str("component", "reminder-scheduler").Logger(),
		entries: make(map[string]*entry),
	}
}

// Schedule arms a reminder for t, replacing any existing one. Tasks without
// a reminder, or already done, are ignored. A reminder that is already due
// fires on a later turn without being tracked.
func (s *Scheduler) Schedule(t task.Task, onFire FireFunc) {
	if !t.HasPendingReminder() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduleLocked(t, onFire)
}

// Cancel disarms the reminder for id. Absent IDs are ignored.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelLocked(id) {
		s.log.Debug().Str("task_id", id).Msg("reminder cancelled")
	}
}

// Reconcile replaces every tracked timer with the reminders of tasks. After
// it returns the tracked set is exactly the tasks with a future reminder.
func (s *Scheduler) Reconcile(tasks []task.Task, onFire FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := s.clearLocked()

	for _, t := range tasks {
		if t.HasPendingReminder() {
			s.scheduleLocked(t, onFire)
		}
	}

	s.log.Debug().
		Int("cleared", cleared).
		Int("input", len(tasks)).
		Int("tracked", len(s.entries)).
		Msg("reminders reconciled")
}

// Teardown disarms every tracked timer.
func (s *Scheduler) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := s.clearLocked(); n > 0 {
		s.log.Debug().Int("cleared", n).Msg("reminders torn down")
	}
}

// Count returns the number of tracked timers.
func (s *Scheduler) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// IDs returns the tracked task IDs in sorted order.
func (s *Scheduler) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Has reports whether a timer is tracked for id.
func (s *Scheduler) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

func (s *Scheduler) scheduleLocked(t task.Task, onFire FireFunc) {
	s.cancelLocked(t.ID)

	delay := t.ReminderTime.Sub(s.clock.Now())
	if delay <= 0 {
		s.log.Warn().
			Str("task_id", t.ID).
			Dur("overdue", -delay).
			Msg("reminder past due, firing immediately")
		s.dispatch(t, onFire)
		return
	}

	e := &entry{}
	h, err := s.timers.ArmOneShot(delay, func() { s.fire(t, e, onFire) })
	if err != nil {
		s.log.Warn().Err(err).Str("task_id", t.ID).Msg("arm reminder failed, firing immediately")
		s.dispatch(t, onFire)
		return
	}

	e.handle = h
	s.entries[t.ID] = e

	s.log.Debug().
		Str("task_id", t.ID).
		Time("at", *t.ReminderTime).
		Dur("in", delay).
		Msg("reminder scheduled")
}

func (s *Scheduler) cancelLocked(id string) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	e.handle.Disarm()
	delete(s.entries, id)
	return true
}

func (s *Scheduler) clearLocked() int {
	n := len(s.entries)
	for id, e := range s.entries {
		e.handle.Disarm()
		delete(s.entries, id)
	}
	return n
}

// dispatch runs onFire on a later turn through a zero-delay timer that is
// never tracked. If the facility refuses even that, a goroutine is used.
func (s *Scheduler) dispatch(t task.Task, onFire FireFunc) {
	if _, err := s.timers.ArmOneShot(0, func() { s.run(t, onFire) }); err != nil {
		s.log.Warn().Err(err).Str("task_id", t.ID).Msg("arm immediate reminder failed, using goroutine")
		go s.run(t, onFire)
	}
}

// fire handles an armed timer. The entry is removed before onFire runs and
// only if it is still the one tracked for the task; a replaced or cancelled
// entry means this firing is stale and is dropped.
func (s *Scheduler) fire(t task.Task, e *entry, onFire FireFunc) {
	s.mu.Lock()
	cur, ok := s.entries[t.ID]
	if !ok || cur != e {
		s.mu.Unlock()
		s.log.Debug().Str("task_id", t.ID).Msg("stale reminder firing dropped")
		return
	}
	delete(s.entries, t.ID)
	s.mu.Unlock()

	s.run(t, onFire)
}

func (s *Scheduler) run(t task.Task, onFire FireFunc) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().
				Str("task_id", t.ID).
				Str("panic", fmt.Sprint(r)).
				Msg("reminder callback panicked")
		}
	}()

	ctx := logging.WithTaskID(context.Background(), t.ID)
	if err := onFire(ctx, t); err != nil {
		s.log.Error().Err(err).Str("task_id", t.ID).Msg("reminder callback failed")
	}
}
