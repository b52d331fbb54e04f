// Package task defines the task domain model, its lifecycle transitions, and
// the persistence contract the orchestrator depends on.
package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/colonyops/tally/internal/core/recurrence"
)

// Status represents the lifecycle state of a task.
type Status string

const (
	StatusTodo   Status = "todo"
	StatusDoing  Status = "doing"
	StatusPaused Status = "paused"
	StatusDone   Status = "done"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusPaused, StatusDone:
		return true
	}
	return false
}

// ParseStatus converts a status name into a Status.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", fmt.Errorf("unknown status %q (expected todo, doing, paused, or done)", s)
	}
	return st, nil
}

// StatusFromCompleted maps the legacy completed flag onto a Status.
func StatusFromCompleted(completed bool) Status {
	if completed {
		return StatusDone
	}
	return StatusTodo
}

// OpenStatuses lists every status except done.
func OpenStatuses() []Status {
	return []Status{StatusTodo, StatusDoing, StatusPaused}
}

// Task is a single unit of work with optional time tracking, reminder, and
// recurrence.
type Task struct {
	ID      string
	Content string
	ListID  string
	Status  Status

	// StartedAt is set only while Status is doing.
	StartedAt *time.Time
	// TotalDuration accumulates finished sessions; the active one is excluded.
	TotalDuration time.Duration

	ReminderTime *time.Time
	// ReminderDeliveredFor is the ReminderTime whose reminder was last
	// delivered. Moving the reminder makes it pending again.
	ReminderDeliveredFor *time.Time
	// DueDate is the occurrence this task represents.
	DueDate    *time.Time
	Recurrence *recurrence.Spec
	SeriesID   string
	Occurrence int

	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// HasPendingReminder reports whether a reminder should be armed for t.
func (t Task) HasPendingReminder() bool {
	return t.ReminderTime != nil && t.Status != StatusDone
}

// ReminderDelivered reports whether the current reminder has already been
// delivered.
func (t Task) ReminderDelivered() bool {
	return t.ReminderTime != nil && t.ReminderDeliveredFor != nil &&
		t.ReminderDeliveredFor.Equal(*t.ReminderTime)
}

// IsRecurring reports whether completing t regenerates a new instance.
func (t Task) IsRecurring() bool {
	return t.Recurrence != nil
}

// Anchor is the date recurrence is computed from: the due date, else the
// reminder time, else the creation time.
func (t Task) Anchor() time.Time {
	switch {
	case t.DueDate != nil:
		return *t.DueDate
	case t.ReminderTime != nil:
		return *t.ReminderTime
	default:
		return t.CreatedAt
	}
}

type taskJSON struct {
	ID              string           `json:"id"`
	Content         string           `json:"content"`
	ListID          string           `json:"list_id,omitempty"`
	Status          Status           `json:"status,omitempty"`
	Completed       *bool            `json:"completed,omitempty"` // legacy
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	TotalDurationMS int64            `json:"total_duration_ms"`
	ReminderTime    *time.Time       `json:"reminder_time,omitempty"`
	DeliveredFor    *time.Time       `json:"reminder_delivered_for,omitempty"`
	DueDate         *time.Time       `json:"due_date,omitempty"`
	Recurrence      *recurrence.Spec `json:"recurrence,omitempty"`
	SeriesID        string           `json:"series_id,omitempty"`
	Occurrence      int              `json:"occurrence,omitempty"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		ID:              t.ID,
		Content:         t.Content,
		ListID:          t.ListID,
		Status:          t.Status,
		StartedAt:       t.StartedAt,
		TotalDurationMS: t.TotalDuration.Milliseconds(),
		ReminderTime:    t.ReminderTime,
		DeliveredFor:    t.ReminderDeliveredFor,
		DueDate:         t.DueDate,
		Recurrence:      t.Recurrence,
		SeriesID:        t.SeriesID,
		Occurrence:      t.Occurrence,
		CompletedAt:     t.CompletedAt,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	})
}

// UnmarshalJSON decodes a task, mapping the legacy completed flag when no
// status is present.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw taskJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	status := raw.Status
	switch {
	case status == "" && raw.Completed != nil:
		status = StatusFromCompleted(*raw.Completed)
	case status == "":
		status = StatusTodo
	case !status.IsValid():
		return fmt.Errorf("task %s: unknown status %q", raw.ID, status)
	}

	*t = Task{
		ID:                   raw.ID,
		Content:              raw.Content,
		ListID:               raw.ListID,
		Status:               status,
		StartedAt:            raw.StartedAt,
		TotalDuration:        max(time.Duration(raw.TotalDurationMS)*time.Millisecond, 0),
		ReminderTime:         raw.ReminderTime,
		ReminderDeliveredFor: raw.DeliveredFor,
		DueDate:              raw.DueDate,
		Recurrence:           raw.Recurrence,
		SeriesID:             raw.SeriesID,
		Occurrence:           raw.Occurrence,
		CompletedAt:          raw.CompletedAt,
		CreatedAt:            raw.CreatedAt,
		UpdatedAt:            raw.UpdatedAt,
	}
	if t.Status != StatusDoing {
		t.StartedAt = nil
	}
	return nil
}
