// Package eventbus provides a typed publish/subscribe event bus for
// cross-component communication within tally.
package eventbus

import (
	"time"

	"github.com/colonyops/tally/internal/core/notify"
	"github.com/colonyops/tally/internal/core/task"
)

// Keep list sorted A-Z
const (
	EventNotificationPublished Event = "notification.published"
	EventReminderFired         Event = "reminder.fired"
	EventSeriesEnded           Event = "series.ended"
	EventTaskCreated           Event = "task.created"
	EventTaskSaved             Event = "task.saved"
)

// AllEvents lists every event type.
var AllEvents = []Event{
	EventNotificationPublished,
	EventReminderFired,
	EventSeriesEnded,
	EventTaskCreated,
	EventTaskSaved,
}

// NotificationPublishedPayload is emitted when a user-facing notification is raised.
type NotificationPublishedPayload struct {
	Level   notify.Level
	TaskID  string
	Message string
}

// ReminderFiredPayload is emitted when a task's reminder is delivered.
type ReminderFiredPayload struct {
	Task    task.Task
	FiredAt time.Time
}

// SeriesEndedPayload is emitted when a recurring task completes and its
// series has no further occurrence.
type SeriesEndedPayload struct {
	Task task.Task
}

// TaskCreatedPayload is emitted after a task is persisted for the first time.
type TaskCreatedPayload struct {
	Task task.Task
}

// TaskSavedPayload is emitted after an existing task is persisted.
type TaskSavedPayload struct {
	Task task.Task
}
