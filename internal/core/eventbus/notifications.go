package eventbus

import (
	"fmt"

	"github.com/colonyops/tally/internal/core/notify"
	"github.com/colonyops/tally/internal/core/task"
)

// NotificationRouter turns reminder and series events into
// notification.published events.
type NotificationRouter struct {
	bus *EventBus
}

// NewNotificationRouter creates a router publishing on bus.
func NewNotificationRouter(bus *EventBus) *NotificationRouter {
	return &NotificationRouter{bus: bus}
}

// Register subscribes the router. It is a no-op on a nil router or bus.
func (r *NotificationRouter) Register() {
	if r == nil || r.bus == nil {
		return
	}
	r.bus.SubscribeReminderFired(r.reminderFired)
	r.bus.SubscribeSeriesEnded(r.seriesEnded)
}

func (r *NotificationRouter) reminderFired(p ReminderFiredPayload) {
	n := notify.Notification{Level: notify.LevelInfo, TaskID: p.Task.ID, Message: "reminder: " + p.Task.Content}

	switch {
	case p.Task.Status == task.StatusDoing:
		n.Message += " (in progress)"
	case p.Task.DueDate != nil && !p.FiredAt.IsZero() && p.FiredAt.After(*p.Task.DueDate):
		n.Level = notify.LevelWarning
		n.Message += " (overdue)"
	}

	r.publish(n)
}

func (r *NotificationRouter) seriesEnded(p SeriesEndedPayload) {
	r.publish(notify.Notification{
		Level:   notify.LevelInfo,
		TaskID:  p.Task.ID,
		Message: fmt.Sprintf("series %q finished after %d occurrences", p.Task.Content, p.Task.Occurrence),
	})
}

func (r *NotificationRouter) publish(n notify.Notification) {
	r.bus.PublishNotificationPublished(NotificationPublishedPayload{
		Level:   n.Level,
		TaskID:  n.TaskID,
		Message: n.Message,
	})
}
