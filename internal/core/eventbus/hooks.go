package eventbus

import (
	"slices"
	"sync"
)

// hookList is a copy-on-read list of callbacks safe for concurrent use.
type hookList[F any] struct {
	mu  sync.RWMutex
	fns []F
}

func (l *hookList[F]) add(fn F) {
	l.mu.Lock()
	l.fns = append(l.fns, fn)
	l.mu.Unlock()
}

func (l *hookList[F]) snapshot() []F {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.fns)
}

type hooks struct {
	publish   hookList[func(Event, any)]
	drop      hookList[func(Event, any)]
	subscribe hookList[func(Event)]
	panics    hookList[func(Event, any, any)]
}

// OnPublish registers fn to run after an event is queued.
func (bus *EventBus) OnPublish(fn func(event Event, payload any)) { bus.hooks.publish.add(fn) }

// OnDrop registers fn to run when an event is discarded because the
// buffer is full.
func (bus *EventBus) OnDrop(fn func(event Event, payload any)) { bus.hooks.drop.add(fn) }

// OnSubscribe registers fn to run after each new subscription.
func (bus *EventBus) OnSubscribe(fn func(event Event)) { bus.hooks.subscribe.add(fn) }

// OnPanic registers fn to run when a subscriber panics. A panic inside fn
// itself is swallowed.
func (bus *EventBus) OnPanic(fn func(event Event, payload, recovered any)) { bus.hooks.panics.add(fn) }

// send queues an event without blocking.
func (bus *EventBus) send(event Event, payload any) {
	fired := &bus.hooks.publish
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
	default:
		fired = &bus.hooks.drop
	}

	for _, fn := range fired.snapshot() {
		fn(event, payload)
	}
}

func (bus *EventBus) runOnSubscribe(event Event) {
	for _, fn := range bus.hooks.subscribe.snapshot() {
		fn(event)
	}
}

func (bus *EventBus) runOnPanic(event Event, payload, recovered any) {
	for _, fn := range bus.hooks.panics.snapshot() {
		func() {
			defer func() { _ = recover() }()
			fn(event, payload, recovered)
		}()
	}
}
