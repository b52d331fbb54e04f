package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger logs bus activity to logger. Publishes and
// subscriptions log at debug, drops at warn, subscriber panics at error.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	ev := func(e *zerolog.Event, event Event) *zerolog.Event {
		return e.Str("event", string(event))
	}

	bus.OnPublish(func(event Event, _ any) { ev(logger.Debug(), event).Msg("event fired") })
	bus.OnSubscribe(func(event Event) { ev(logger.Debug(), event).Msg("subscriber registered") })
	bus.OnDrop(func(event Event, _ any) { ev(logger.Warn(), event).Msg("event dropped: buffer full") })
	bus.OnPanic(func(event Event, _, recovered any) {
		ev(logger.Error(), event).Str("panic", fmt.Sprint(recovered)).Msg("subscriber panicked")
	})
}
