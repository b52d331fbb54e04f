// Package testbus runs a real event bus for tests and records everything
// published on it.
package testbus

import (
	"context"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/tally/internal/core/eventbus"
)

// DefaultWait bounds how long AssertPublished waits for delivery.
const DefaultWait = 500 * time.Millisecond

// RecordedEvent is one captured publication.
type RecordedEvent struct {
	Event   eventbus.Event
	Payload any
}

// Bus is an eventbus.EventBus that records every event it dispatches.
type Bus struct {
	*eventbus.EventBus

	mu      sync.Mutex
	events  []RecordedEvent
	changed chan struct{}
}

// New starts a recording bus that is stopped when the test ends.
func New(t *testing.T) *Bus {
	t.Helper()

	tb := &Bus{
		EventBus: eventbus.New(64),
		changed:  make(chan struct{}),
	}
	for _, event := range eventbus.AllEvents {
		tb.SubscribeAny(event, func(p any) { tb.record(event, p) })
	}

	ctx, cancel := context.WithCancel(context.Background())
	go tb.Start(ctx)
	t.Cleanup(cancel)

	return tb
}

func (tb *Bus) record(event eventbus.Event, payload any) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.events = append(tb.events, RecordedEvent{Event: event, Payload: payload})
	close(tb.changed)
	tb.changed = make(chan struct{})
}

// Events returns a snapshot of everything recorded so far.
func (tb *Bus) Events() []RecordedEvent {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	return slices.Clone(tb.events)
}

// Payloads returns the recorded payloads of one event type, oldest first.
func (tb *Bus) Payloads(event eventbus.Event) []any {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	var out []any
	for _, e := range tb.events {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}

// Reset forgets all recorded events.
func (tb *Bus) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.events = nil
}

// WaitFor reports whether event is recorded before timeout elapses.
func (tb *Bus) WaitFor(event eventbus.Event, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		tb.mu.Lock()
		seen := slices.ContainsFunc(tb.events, func(e RecordedEvent) bool { return e.Event == event })
		changed := tb.changed
		tb.mu.Unlock()

		if seen {
			return true
		}

		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

// AssertPublished fails the test unless event is recorded within DefaultWait.
func (tb *Bus) AssertPublished(t *testing.T, event eventbus.Event) {
	t.Helper()
	if !tb.WaitFor(event, DefaultWait) {
		t.Errorf("expected event %q to be published, but it was not", event)
	}
}

// AssertNotPublished fails the test if event is recorded within wait.
func (tb *Bus) AssertNotPublished(t *testing.T, event eventbus.Event, wait time.Duration) {
	t.Helper()
	if tb.WaitFor(event, wait) {
		t.Errorf("expected event %q to NOT be published, but it was", event)
	}
}
