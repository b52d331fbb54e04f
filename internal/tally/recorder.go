package tally

import (
	"context"

	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/notify"
	"github.com/colonyops/tally/pkg/clock"
	"github.com/rs/zerolog"
)

// NotificationRecorder persists every published notification.
type NotificationRecorder struct {
	store notify.Store
	clock clock.Clock
	log   zerolog.Logger
}

// NewNotificationRecorder creates a NotificationRecorder.
func NewNotificationRecorder(store notify.Store, clk clock.Clock, log zerolog.Logger) *NotificationRecorder {
	return &NotificationRecorder{
		store: store,
		clock: clk,
		log:   log.With().Str("component", "notification-recorder").Logger(),
	}
}

// Register subscribes the recorder to notification.published. Failures to
// persist are logged; they never reach the publisher.
func (r *NotificationRecorder) Register(bus *eventbus.EventBus) {
	bus.SubscribeNotificationPublished(func(p eventbus.NotificationPublishedPayload) {
		n := notify.Notification{
			Level:     p.Level,
			TaskID:    p.TaskID,
			Message:   p.Message,
			CreatedAt: r.clock.Now(),
		}
		if _, err := r.store.Save(context.Background(), n); err != nil {
			r.log.Error().Err(err).Str("task_id", p.TaskID).Msg("failed to record notification")
		}
	})
}
