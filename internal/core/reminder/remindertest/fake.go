// Package remindertest provides a deterministic Timers implementation for
// tests driven by a fake clock.
package remindertest

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/colonyops/tally/internal/core/reminder"
	"github.com/colonyops/tally/pkg/clock"
)

// ErrArmRefused is returned by ArmOneShot while failures are queued with
// FailNext.
var ErrArmRefused = errors.New("arm refused")

// FakeTimers records armed timers against a fake clock. Nothing fires
// until Advance or Flush is called; callbacks then run on the calling
// goroutine.
type FakeTimers struct {
	clock *clock.Fake

	mu       sync.Mutex
	seq      int
	failures int
	pending  map[int]*fakeTimer
}

var _ reminder.Timers = (*FakeTimers)(nil)

type fakeTimer struct {
	id       int
	deadline time.Time
	fn       func()
}

// New returns FakeTimers bound to clk.
func New(clk *clock.Fake) *FakeTimers {
	return &FakeTimers{clock: clk, pending: make(map[int]*fakeTimer)}
}

func (f *FakeTimers) ArmOneShot(delay time.Duration, fn func()) (reminder.Handle, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: %s", reminder.ErrInvalidDelay, delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failures > 0 {
		f.failures--
		return nil, ErrArmRefused
	}

	f.seq++
	ft := &fakeTimer{id: f.seq, deadline: f.clock.Now().Add(delay), fn: fn}
	f.pending[ft.id] = ft
	return &handle{f: f, id: ft.id}, nil
}

// FailNext makes the next n calls to ArmOneShot fail with ErrArmRefused.
func (f *FakeTimers) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

// Advance moves the clock forward by d and fires everything that became due.
func (f *FakeTimers) Advance(d time.Duration) int {
	f.clock.Advance(d)
	return f.Flush()
}

// Flush fires every timer due at the current fake time in deadline order,
// including timers armed by callbacks during the flush. Returns the number
// fired.
func (f *FakeTimers) Flush() int {
	fired := 0
	for {
		ft := f.popDue()
		if ft == nil {
			return fired
		}
		ft.fn()
		fired++
	}
}

// Pending returns the number of armed timers that have not fired or been
// disarmed.
func (f *FakeTimers) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pending)
}

func (f *FakeTimers) popDue() *fakeTimer {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.clock.Now()
	due := make([]*fakeTimer, 0, len(f.pending))
	for _, ft := range f.pending {
		if !ft.deadline.After(now) {
			due = append(due, ft)
		}
	}
	if len(due) == 0 {
		return nil
	}

	next := slices.MinFunc(due, func(a, b *fakeTimer) int {
		if c := a.deadline.Compare(b.deadline); c != 0 {
			return c
		}
		return a.id - b.id
	})
	delete(f.pending, next.id)
	return next
}

type handle struct {
	f  *FakeTimers
	id int
}

func (h *handle) Disarm() {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	delete(h.f.pending, h.id)
}
