// Package tally coordinates task lifecycle transitions, reminder scheduling,
// and recurring task regeneration on top of the core packages.
package tally

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/logging"
	"github.com/colonyops/tally/internal/core/recurrence"
	"github.com/colonyops/tally/internal/core/reminder"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/pkg/clock"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// NewTask describes a task to create.
type NewTask struct {
	Content      string
	ListID       string
	DueDate      *time.Time
	ReminderTime *time.Time
	Recurrence   *recurrence.Spec
}

// Completion is the result of completing a task. Next is the regenerated
// instance of a recurring task, nil when the task does not recur or its
// series has ended.
type Completion struct {
	Task task.Task  `json:"task"`
	Next *task.Task `json:"next,omitempty"`
}

// Options configures a TaskService.
type Options struct {
	// Bus receives series.ended events. Optional.
	Bus *eventbus.EventBus
	// Budget is the tracked duration after which a task is overtime.
	// Zero disables overtime reporting.
	Budget time.Duration
}

// TaskService applies lifecycle transitions, persists them, and keeps each
// task's reminder timer in step with its new state.
//
// Callers serialize operations on the same task ID. Operations on different
// IDs may run concurrently.
type TaskService struct {
	store     task.Store
	scheduler *reminder.Scheduler
	notifier  Notifier
	clock     clock.Clock
	log       zerolog.Logger
	bus       *eventbus.EventBus
	budget    time.Duration
}

// NewTaskService creates a new TaskService.
func NewTaskService(
	store task.Store,
	scheduler *reminder.Scheduler,
	notifier Notifier,
	clk clock.Clock,
	log zerolog.Logger,
	opts Options,
) *TaskService {
	return &TaskService{
		store:     store,
		scheduler: scheduler,
		notifier:  notifier,
		clock:     clk,
		log:       log.With().Str("component", "task-service").Logger(),
		bus:       opts.Bus,
		budget:    opts.Budget,
	}
}

// Init arms reminders for every open task in the store.
func (s *TaskService) Init(ctx context.Context) error {
	if err := s.Reload(ctx); err != nil {
		return err
	}
	s.log.Info().Int("reminders", s.scheduler.Count()).Msg("task service initialized")
	return nil
}

// Reload re-reads open tasks and reconciles the armed reminders against
// them. Use it after tasks were changed outside this service. Reminders
// already delivered are not armed again; past-due ones that never fired are
// delivered once.
func (s *TaskService) Reload(ctx context.Context) error {
	tasks, err := s.store.List(ctx, task.ListFilter{Statuses: task.OpenStatuses()})
	if err != nil {
		return task.WrapOp("reload", "", err)
	}
	tasks = slices.DeleteFunc(tasks, task.Task.ReminderDelivered)
	s.scheduler.Reconcile(tasks, s.onReminderFire)
	return nil
}

// Teardown disarms every reminder.
func (s *TaskService) Teardown() {
	s.scheduler.Teardown()
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (task.Task, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return task.Task{}, task.WrapOp("get", id, err)
	}
	return t, nil
}

// List returns tasks matching filter.
func (s *TaskService) List(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	tasks, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, task.WrapOp("list", "", err)
	}
	return tasks, nil
}

// Create persists a new todo task and arms its reminder. Recurring tasks
// start a new series as its first occurrence.
func (s *TaskService) Create(ctx context.Context, in NewTask) (task.Task, error) {
	t := task.Task{
		Content:      in.Content,
		ListID:       in.ListID,
		Status:       task.StatusTodo,
		DueDate:      in.DueDate,
		ReminderTime: in.ReminderTime,
		Recurrence:   in.Recurrence,
		CreatedAt:    s.clock.Now(),
	}
	if t.IsRecurring() {
		t.SeriesID = uuid.NewString()
		t.Occurrence = 1
	}

	created, err := s.store.Create(ctx, t)
	if err != nil {
		return task.Task{}, task.WrapOp("create", "", err)
	}

	s.arm(created)
	s.log.Debug().Str("task_id", created.ID).Bool("recurring", created.IsRecurring()).Msg("task created")
	return created, nil
}

// Start begins a tracking session.
func (s *TaskService) Start(ctx context.Context, id string) (task.Task, error) {
	return s.transition(ctx, "start", id, task.Start)
}

// Pause ends the current tracking session.
func (s *TaskService) Pause(ctx context.Context, id string) (task.Task, error) {
	return s.transition(ctx, "pause", id, task.Pause)
}

// Restart reopens a done task.
func (s *TaskService) Restart(ctx context.Context, id string) (task.Task, error) {
	return s.transition(ctx, "restart", id, func(t task.Task, _ time.Time) (task.Task, error) {
		return task.Restart(t)
	})
}

// CompleteWithTracking marks a task done, folding any running session into
// its total. A recurring task then regenerates its next instance. When
// regeneration fails the completed task is still returned with the error.
func (s *TaskService) CompleteWithTracking(ctx context.Context, id string) (Completion, error) {
	done, err := s.transition(ctx, "complete", id, task.CompleteWithTracking)
	if err != nil {
		return Completion{}, err
	}

	next, err := s.CompleteRecurringTask(ctx, done)
	return Completion{Task: done, Next: next}, err
}

// SetReminder replaces a task's reminder time. A nil at clears it. The new
// reminder is pending even when it repeats a delivered time.
func (s *TaskService) SetReminder(ctx context.Context, id string, at *time.Time) (task.Task, error) {
	return s.transition(ctx, "remind", id, func(t task.Task, _ time.Time) (task.Task, error) {
		t.ReminderTime = at
		t.ReminderDeliveredFor = nil
		return t, nil
	})
}

// CompleteRecurringTask creates the next instance of a completed recurring
// task, dated at the occurrence after the task's anchor. The reminder moves
// by the same offset. It returns nil when t does not recur or its series
// has no further occurrence. The completed instance is not modified.
//
// Completing the same occurrence again, after a restart, returns the
// instance created the first time instead of forking the series.
func (s *TaskService) CompleteRecurringTask(ctx context.Context, t task.Task) (*task.Task, error) {
	if !t.IsRecurring() {
		return nil, nil
	}

	ctx = logging.WithTaskID(ctx, t.ID)
	anchor := t.Anchor()
	occurrence := max(t.Occurrence, 1) + 1

	nextDate, ok := recurrence.Next(*t.Recurrence, anchor)
	if !ok || !t.Recurrence.Continues(nextDate, occurrence) {
		s.endSeries(ctx, t)
		return nil, nil
	}

	seriesID := t.SeriesID
	if seriesID == "" {
		seriesID = uuid.NewString()
	} else {
		existing, err := s.findOccurrence(ctx, seriesID, occurrence)
		if err != nil {
			return nil, task.WrapOp("regenerate", t.ID, err)
		}
		if existing != nil {
			s.log.Debug().Ctx(ctx).
				Str("next_id", existing.ID).
				Int("occurrence", occurrence).
				Msg("occurrence already regenerated")
			return existing, nil
		}
	}

	spec := *t.Recurrence
	next := task.Task{
		Content:    t.Content,
		ListID:     t.ListID,
		Status:     task.StatusTodo,
		DueDate:    &nextDate,
		Recurrence: &spec,
		SeriesID:   seriesID,
		Occurrence: occurrence,
		CreatedAt:  s.clock.Now(),
	}
	if t.ReminderTime != nil {
		shifted := t.ReminderTime.Add(nextDate.Sub(anchor))
		next.ReminderTime = &shifted
	}

	created, err := s.store.Create(ctx, next)
	if err != nil {
		return nil, task.WrapOp("regenerate", t.ID, err)
	}

	s.arm(created)
	s.log.Debug().Ctx(ctx).
		Str("next_id", created.ID).
		Int("occurrence", created.Occurrence).
		Time("due", nextDate).
		Msg("recurring task regenerated")
	return &created, nil
}

func (s *TaskService) findOccurrence(ctx context.Context, seriesID string, occurrence int) (*task.Task, error) {
	series, err := s.store.List(ctx, task.ListFilter{SeriesID: seriesID})
	if err != nil {
		return nil, err
	}
	for _, t := range series {
		if t.Occurrence == occurrence {
			return &t, nil
		}
	}
	return nil, nil
}

// CurrentDuration returns the tracked time of a task including any running
// session.
func (s *TaskService) CurrentDuration(ctx context.Context, id string) (time.Duration, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return 0, task.WrapOp("duration", id, err)
	}
	return task.CurrentDuration(t, s.clock.Now()), nil
}

// Overtime reports whether t has exceeded the configured budget.
func (s *TaskService) Overtime(t task.Task) bool {
	return task.Overtime(t, s.clock.Now(), s.budget)
}

// Scheduled returns the IDs of tasks with an armed reminder.
func (s *TaskService) Scheduled() []string {
	return s.scheduler.IDs()
}

type transitionFunc func(t task.Task, now time.Time) (task.Task, error)

// transition loads id, applies fn, persists the result, then arms or
// disarms the reminder for the new state. The store is not touched when fn
// rejects the transition.
func (s *TaskService) transition(ctx context.Context, op, id string, fn transitionFunc) (task.Task, error) {
	ctx = logging.WithOp(logging.WithTaskID(ctx, id), op)

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return task.Task{}, task.WrapOp(op, id, err)
	}

	now := s.clock.Now()
	next, err := fn(current, now)
	if err != nil {
		return task.Task{}, task.WrapOp(op, id, err)
	}
	next.UpdatedAt = now

	if err := s.store.Save(ctx, next); err != nil {
		return task.Task{}, task.WrapOp(op, id, err)
	}

	s.arm(next)

	s.log.Debug().Ctx(ctx).
		Str("from", string(current.Status)).
		Str("to", string(next.Status)).
		Msg("task transitioned")
	return next, nil
}

// arm keeps the scheduler in step with t. Only a pending reminder that has
// not been delivered yet is armed.
func (s *TaskService) arm(t task.Task) {
	if t.HasPendingReminder() && !t.ReminderDelivered() {
		s.scheduler.Schedule(t, s.onReminderFire)
		return
	}
	s.scheduler.Cancel(t.ID)
}

// onReminderFire delivers the reminder for the task's current state, then
// records the delivery so reloads do not repeat it. Tasks deleted, completed
// or already reminded since the timer was armed are skipped.
func (s *TaskService) onReminderFire(ctx context.Context, t task.Task) error {
	current, err := s.store.Get(ctx, t.ID)
	switch {
	case errors.Is(err, task.ErrNotFound):
		s.log.Debug().Str("task_id", t.ID).Msg("reminder for missing task skipped")
		return nil
	case err != nil:
		return task.WrapOp("fire", t.ID, err)
	}

	if !current.HasPendingReminder() || current.ReminderDelivered() {
		s.log.Debug().Str("task_id", t.ID).Msg("reminder no longer pending")
		return nil
	}

	deliverErr := s.notifier.Deliver(ctx, current)
	if err := s.markDelivered(ctx, current); err != nil {
		deliverErr = errors.Join(deliverErr, err)
	}
	if deliverErr != nil {
		return task.WrapOp("fire", t.ID, deliverErr)
	}
	return nil
}

// markDelivered stamps the delivered reminder time on the stored task. A
// reminder moved or a task removed during delivery is left alone.
func (s *TaskService) markDelivered(ctx context.Context, delivered task.Task) error {
	current, err := s.store.Get(ctx, delivered.ID)
	switch {
	case errors.Is(err, task.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	if current.ReminderTime == nil || !current.ReminderTime.Equal(*delivered.ReminderTime) {
		return nil
	}

	at := *current.ReminderTime
	current.ReminderDeliveredFor = &at
	current.UpdatedAt = s.clock.Now()
	return s.store.Save(ctx, current)
}
