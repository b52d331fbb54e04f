package tally

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/eventbus/testbus"
	"github.com/colonyops/tally/internal/core/recurrence"
	"github.com/colonyops/tally/internal/core/reminder"
	"github.com/colonyops/tally/internal/core/reminder/remindertest"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/data/stores"
	"github.com/colonyops/tally/pkg/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 6, 3, 9, 0, 0, 0, time.Local)

type deliveries struct {
	mu  sync.Mutex
	ids []string
}

func (d *deliveries) Deliver(_ context.Context, t task.Task) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ids = append(d.ids, t.ID)
	return nil
}

func (d *deliveries) got() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ids...)
}

// faultyStore fails the configured operations and delegates the rest.
type faultyStore struct {
	task.Store
	getErr, saveErr, createErr error
}

func (s *faultyStore) Get(ctx context.Context, id string) (task.Task, error) {
	if s.getErr != nil {
		return task.Task{}, s.getErr
	}
	return s.Store.Get(ctx, id)
}

func (s *faultyStore) Save(ctx context.Context, t task.Task) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(ctx, t)
}

func (s *faultyStore) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if s.createErr != nil {
		return task.Task{}, s.createErr
	}
	return s.Store.Create(ctx, t)
}

type fixture struct {
	svc       *TaskService
	store     *faultyStore
	clk       *clock.Fake
	timers    *remindertest.FakeTimers
	delivered *deliveries
	bus       *testbus.Bus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := clock.NewFake(t0)
	timers := remindertest.New(clk)
	store := &faultyStore{Store: stores.NewMemoryStore(clk)}
	delivered := &deliveries{}
	bus := testbus.New(t)

	svc := NewTaskService(
		store,
		reminder.NewScheduler(timers, clk, zerolog.Nop()),
		delivered,
		clk,
		zerolog.Nop(),
		Options{Bus: bus.EventBus, Budget: time.Hour},
	)
	t.Cleanup(svc.Teardown)

	return &fixture{svc: svc, store: store, clk: clk, timers: timers, delivered: delivered, bus: bus}
}

func ptr[T any](v T) *T { return &v }

func requireReason(t *testing.T, err error, want task.Reason) {
	t.Helper()
	var opErr *task.OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, want, opErr.Reason)
}

func TestTaskService_EndToEndRecurringCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := t0

	created, err := f.svc.Create(ctx, NewTask{
		Content:    "water plants",
		ListID:     "home",
		DueDate:    &day,
		Recurrence: &recurrence.Spec{Type: recurrence.Daily, Interval: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, task.StatusTodo, created.Status)
	assert.NotEmpty(t, created.SeriesID)
	assert.Equal(t, 1, created.Occurrence)

	started, err := f.svc.Start(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDoing, started.Status)
	require.NotNil(t, started.StartedAt)
	assert.True(t, started.StartedAt.Equal(t0))

	f.clk.Advance(time.Hour)

	completion, err := f.svc.CompleteWithTracking(ctx, created.ID)
	require.NoError(t, err)

	done := completion.Task
	assert.Equal(t, task.StatusDone, done.Status)
	assert.Equal(t, time.Hour, done.TotalDuration)
	assert.Nil(t, done.StartedAt)
	require.NotNil(t, done.CompletedAt)
	assert.True(t, done.CompletedAt.Equal(t0.Add(time.Hour)))

	next := completion.Next
	require.NotNil(t, next)
	assert.NotEqual(t, created.ID, next.ID)
	assert.Equal(t, task.StatusTodo, next.Status)
	assert.Equal(t, "water plants", next.Content)
	assert.Equal(t, "home", next.ListID)
	require.NotNil(t, next.DueDate)
	assert.True(t, next.DueDate.Equal(day.AddDate(0, 0, 1)))
	assert.Equal(t, created.Recurrence, next.Recurrence)
	assert.Equal(t, created.SeriesID, next.SeriesID)
	assert.Equal(t, 2, next.Occurrence)
	assert.Zero(t, next.TotalDuration)

	stored, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, stored.Status, "original instance stays done")

	series, err := f.svc.List(ctx, task.ListFilter{SeriesID: created.SeriesID})
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestTaskService_RecompletedOccurrenceDoesNotFork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := t0

	created, err := f.svc.Create(ctx, NewTask{
		Content:    "stretch",
		DueDate:    &day,
		Recurrence: &recurrence.Spec{Type: recurrence.Daily},
	})
	require.NoError(t, err)

	first, err := f.svc.CompleteWithTracking(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, first.Next)

	_, err = f.svc.Restart(ctx, created.ID)
	require.NoError(t, err)

	second, err := f.svc.CompleteWithTracking(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, second.Next)
	assert.Equal(t, first.Next.ID, second.Next.ID)
	assert.Equal(t, 2, second.Next.Occurrence)

	series, err := f.svc.List(ctx, task.ListFilter{SeriesID: created.SeriesID})
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestTaskService_TrackingAccumulatesAcrossSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, NewTask{Content: "write report"})
	require.NoError(t, err)

	for _, d := range []time.Duration{30 * time.Minute, 45 * time.Minute} {
		_, err = f.svc.Start(ctx, created.ID)
		require.NoError(t, err)
		f.clk.Advance(d)
		_, err = f.svc.Pause(ctx, created.ID)
		require.NoError(t, err)
	}

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPaused, got.Status)
	assert.Equal(t, 75*time.Minute, got.TotalDuration)
	assert.Nil(t, got.StartedAt)
}

func TestTaskService_CurrentDurationAndOvertime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, NewTask{Content: "deep work"})
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, created.ID)
	require.NoError(t, err)

	f.clk.Advance(50 * time.Minute)
	d, err := f.svc.CurrentDuration(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 50*time.Minute, d)

	running, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, f.svc.Overtime(running))

	f.clk.Advance(20 * time.Minute)
	assert.True(t, f.svc.Overtime(running))
}

func TestTaskService_RejectedTransitionLeavesTaskUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, NewTask{Content: "idle"})
	require.NoError(t, err)

	f.clk.Advance(time.Minute)
	_, err = f.svc.Pause(ctx, created.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrInvalidTransition)
	requireReason(t, err, task.ReasonInvalidState)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = f.svc.Restart(ctx, created.ID)
	requireReason(t, err, task.ReasonInvalidState)
}

func TestTaskService_NotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrNotFound)
	requireReason(t, err, task.ReasonNotFound)

	_, err = f.svc.CompleteWithTracking(ctx, "missing")
	requireReason(t, err, task.ReasonNotFound)

	_, err = f.svc.CurrentDuration(ctx, "missing")
	requireReason(t, err, task.ReasonNotFound)
}

func TestTaskService_StoreFailureSurfacesUnchanged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := t0.Add(time.Hour)

	created, err := f.svc.Create(ctx, NewTask{Content: "call", ReminderTime: &at})
	require.NoError(t, err)
	require.Equal(t, []string{created.ID}, f.svc.Scheduled())

	diskFull := errors.New("disk full")
	f.store.saveErr = diskFull

	_, err = f.svc.CompleteWithTracking(ctx, created.ID)
	require.ErrorIs(t, err, diskFull)
	requireReason(t, err, task.ReasonStoreError)

	assert.Equal(t, []string{created.ID}, f.svc.Scheduled(), "reminder untouched after failed save")

	// a retry with the store healthy applies the same transition
	f.store.saveErr = nil
	completion, err := f.svc.CompleteWithTracking(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, completion.Task.Status)
	assert.Empty(t, f.svc.Scheduled())
}

func TestTaskService_CreateFailure(t *testing.T) {
	f := newFixture(t)
	f.store.createErr = errors.New("read-only")
	at := t0.Add(time.Hour)

	_, err := f.svc.Create(context.Background(), NewTask{Content: "x", ReminderTime: &at})
	requireReason(t, err, task.ReasonStoreError)
	assert.Empty(t, f.svc.Scheduled())
}

func TestTaskService_ReminderFiresAndIsDelivered(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := t0.Add(30 * time.Minute)

	created, err := f.svc.Create(ctx, NewTask{Content: "stand up", ReminderTime: &at})
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, f.svc.Scheduled())

	f.timers.Advance(29 * time.Minute)
	assert.Empty(t, f.delivered.got())

	f.timers.Advance(time.Minute)
	assert.Equal(t, []string{created.ID}, f.delivered.got())
	assert.Empty(t, f.svc.Scheduled())
}

func TestTaskService_StatusDrivesReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := t0.Add(2 * time.Hour)

	created, err := f.svc.Create(ctx, NewTask{Content: "review", ReminderTime: &at})
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, f.svc.Scheduled(), "doing keeps the reminder")

	_, err = f.svc.CompleteWithTracking(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, f.svc.Scheduled(), "done cancels the reminder")

	_, err = f.svc.Restart(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{created.ID}, f.svc.Scheduled(), "restart re-arms the reminder")

	f.timers.Advance(2 * time.Hour)
	assert.Equal(t, []string{created.ID}, f.delivered.got())
}

func TestTaskService_SetReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, NewTask{Content: "pay rent"})
	require.NoError(t, err)
	assert.Empty(t, f.svc.Scheduled())

	updated, err := f.svc.SetReminder(ctx, created.ID, ptr(t0.Add(time.Hour)))
	require.NoError(t, err)
	require.NotNil(t, updated.ReminderTime)
	assert.Equal(t, []string{created.ID}, f.svc.Scheduled())

	// moving the reminder replaces the armed timer
	_, err = f.svc.SetReminder(ctx, created.ID, ptr(t0.Add(3*time.Hour)))
	require.NoError(t, err)
	f.timers.Advance(2 * time.Hour)
	assert.Empty(t, f.delivered.got())
	assert.Equal(t, 1, f.timers.Pending())

	cleared, err := f.svc.SetReminder(ctx, created.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.ReminderTime)
	assert.Empty(t, f.svc.Scheduled())

	f.timers.Advance(2 * time.Hour)
	assert.Empty(t, f.delivered.got())
}

func TestTaskService_PastDueReminderFiresOnNextTurn(t *testing.T) {
	f := newFixture(t)
	at := t0.Add(-10 * time.Millisecond)

	created, err := f.svc.Create(context.Background(), NewTask{Content: "late", ReminderTime: &at})
	require.NoError(t, err)

	assert.Empty(t, f.svc.Scheduled(), "past-due reminders are not tracked")
	assert.Empty(t, f.delivered.got(), "delivery is not synchronous")

	f.timers.Flush()
	assert.Equal(t, []string{created.ID}, f.delivered.got())
}

func TestTaskService_InitReconcilesOpenTasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	future := t0.Add(time.Hour)

	seed := []task.Task{
		{ID: "a", Content: "armed", Status: task.StatusTodo, ReminderTime: &future},
		{ID: "b", Content: "done", Status: task.StatusDone, ReminderTime: &future},
		{ID: "c", Content: "no reminder", Status: task.StatusPaused},
		{ID: "d", Content: "running", Status: task.StatusDoing, StartedAt: &t0, ReminderTime: &future},
	}
	for _, tk := range seed {
		_, err := f.store.Store.Create(ctx, tk)
		require.NoError(t, err)
	}

	require.NoError(t, f.svc.Init(ctx))
	assert.Equal(t, []string{"a", "d"}, f.svc.Scheduled())

	// an external edit drops a's reminder; reload leaves only d
	a, err := f.store.Store.Get(ctx, "a")
	require.NoError(t, err)
	a.ReminderTime = nil
	require.NoError(t, f.store.Store.Save(ctx, a))

	require.NoError(t, f.svc.Reload(ctx))
	assert.Equal(t, []string{"d"}, f.svc.Scheduled())
}

func TestTaskService_ReloadDoesNotRepeatDeliveredReminder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := t0.Add(time.Minute)

	created, err := f.svc.Create(ctx, NewTask{Content: "stand up", ReminderTime: &at})
	require.NoError(t, err)

	f.timers.Advance(2 * time.Minute)
	require.Equal(t, []string{created.ID}, f.delivered.got())

	stored, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ReminderDeliveredFor)
	assert.True(t, stored.ReminderDeliveredFor.Equal(at))

	for range 3 {
		require.NoError(t, f.svc.Reload(ctx))
		f.timers.Advance(time.Minute)
	}
	assert.Equal(t, []string{created.ID}, f.delivered.got())
	assert.Empty(t, f.svc.Scheduled())

	// transitions keep a delivered reminder disarmed too
	_, err = f.svc.Start(ctx, created.ID)
	require.NoError(t, err)
	f.timers.Flush()
	assert.Equal(t, []string{created.ID}, f.delivered.got())
}

func TestTaskService_InitDeliversMissedReminderOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	missed := t0.Add(-time.Hour)

	_, err := f.store.Store.Create(ctx, task.Task{ID: "m", Content: "missed", Status: task.StatusTodo, ReminderTime: &missed})
	require.NoError(t, err)

	require.NoError(t, f.svc.Init(ctx))
	f.timers.Flush()
	assert.Equal(t, []string{"m"}, f.delivered.got())

	require.NoError(t, f.svc.Reload(ctx))
	f.timers.Flush()
	assert.Equal(t, []string{"m"}, f.delivered.got())
}

func TestTaskService_MovedReminderFiresAgain(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := t0.Add(time.Minute)

	created, err := f.svc.Create(ctx, NewTask{Content: "call", ReminderTime: &at})
	require.NoError(t, err)
	f.timers.Advance(time.Minute)
	require.Len(t, f.delivered.got(), 1)

	updated, err := f.svc.SetReminder(ctx, created.ID, ptr(t0.Add(time.Hour)))
	require.NoError(t, err)
	assert.Nil(t, updated.ReminderDeliveredFor)
	assert.Equal(t, []string{created.ID}, f.svc.Scheduled())

	f.timers.Advance(time.Hour)
	assert.Equal(t, []string{created.ID, created.ID}, f.delivered.got())
}

func TestTaskService_ReloadFailure(t *testing.T) {
	f := newFixture(t)
	f.store.Store = &faultyList{Store: f.store.Store}

	err := f.svc.Init(context.Background())
	requireReason(t, err, task.ReasonStoreError)
}

type faultyList struct{ task.Store }

func (faultyList) List(context.Context, task.ListFilter) ([]task.Task, error) {
	return nil, errors.New("locked")
}

func TestTaskService_FireSkipsTasksChangedBehindItsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := t0.Add(time.Minute)

	created, err := f.svc.Create(ctx, NewTask{Content: "stale", ReminderTime: &at})
	require.NoError(t, err)

	// completed directly in the store, so the armed timer is stale
	stored, err := f.store.Store.Get(ctx, created.ID)
	require.NoError(t, err)
	stored.Status = task.StatusDone
	require.NoError(t, f.store.Store.Save(ctx, stored))

	f.timers.Advance(time.Minute)
	assert.Empty(t, f.delivered.got())
}

func TestTaskService_FireDeliversCurrentContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	at := t0.Add(time.Minute)

	var got task.Task
	f.svc.notifier = NotifierFunc(func(_ context.Context, tk task.Task) error {
		got = tk
		return nil
	})

	created, err := f.svc.Create(ctx, NewTask{Content: "draft", ReminderTime: &at})
	require.NoError(t, err)

	stored, err := f.store.Store.Get(ctx, created.ID)
	require.NoError(t, err)
	stored.Content = "final"
	require.NoError(t, f.store.Store.Save(ctx, stored))

	f.timers.Advance(time.Minute)
	assert.Equal(t, "final", got.Content)
}

func TestCompleteRecurringTask(t *testing.T) {
	day := time.Date(2024, 1, 31, 0, 0, 0, 0, time.Local)
	remind := time.Date(2024, 1, 31, 8, 15, 0, 0, time.Local)

	t.Run("not recurring", func(t *testing.T) {
		f := newFixture(t)
		next, err := f.svc.CompleteRecurringTask(context.Background(), task.Task{ID: "x", Status: task.StatusDone})
		require.NoError(t, err)
		assert.Nil(t, next)
	})

	t.Run("monthly clamps and shifts reminder", func(t *testing.T) {
		f := newFixture(t)
		f.clk.Set(day.AddDate(0, 0, -1))
		done := task.Task{
			ID:           "x",
			Content:      "invoice",
			Status:       task.StatusDone,
			DueDate:      &day,
			ReminderTime: &remind,
			Recurrence:   &recurrence.Spec{Type: recurrence.Monthly, ByMonthDay: 31},
			SeriesID:     "series-1",
			Occurrence:   1,
		}

		next, err := f.svc.CompleteRecurringTask(context.Background(), done)
		require.NoError(t, err)
		require.NotNil(t, next)

		wantDue := time.Date(2024, 2, 29, 0, 0, 0, 0, time.Local)
		assert.True(t, next.DueDate.Equal(wantDue), "got %s", next.DueDate)
		assert.True(t, next.ReminderTime.Equal(wantDue.Add(8*time.Hour+15*time.Minute)), "got %s", next.ReminderTime)
		assert.Equal(t, "series-1", next.SeriesID)
		assert.Equal(t, 2, next.Occurrence)
		assert.Contains(t, f.svc.Scheduled(), next.ID)
	})

	t.Run("anchors on reminder without due date", func(t *testing.T) {
		f := newFixture(t)
		done := task.Task{
			ID:           "x",
			Status:       task.StatusDone,
			ReminderTime: &remind,
			Recurrence:   &recurrence.Spec{Type: recurrence.Weekly},
		}

		next, err := f.svc.CompleteRecurringTask(context.Background(), done)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.True(t, next.DueDate.Equal(remind.AddDate(0, 0, 7)))
		assert.True(t, next.ReminderTime.Equal(remind.AddDate(0, 0, 7)))
		assert.NotEmpty(t, next.SeriesID, "legacy tasks get a series")
	})

	t.Run("count bound ends the series", func(t *testing.T) {
		f := newFixture(t)
		done := task.Task{
			ID:         "x",
			Content:    "three times",
			Status:     task.StatusDone,
			DueDate:    &day,
			Recurrence: &recurrence.Spec{Type: recurrence.Daily, Count: 3},
			Occurrence: 3,
		}

		next, err := f.svc.CompleteRecurringTask(context.Background(), done)
		require.NoError(t, err)
		assert.Nil(t, next)
		f.bus.AssertPublished(t, eventbus.EventSeriesEnded)
	})

	t.Run("end date bound is inclusive", func(t *testing.T) {
		f := newFixture(t)
		end := day.AddDate(0, 0, 1)
		spec := &recurrence.Spec{Type: recurrence.Daily, EndDate: &end}

		first := task.Task{ID: "x", Status: task.StatusDone, DueDate: &day, Recurrence: spec, Occurrence: 1}
		next, err := f.svc.CompleteRecurringTask(context.Background(), first)
		require.NoError(t, err)
		require.NotNil(t, next, "the end day itself is included")

		last := *next
		last.Status = task.StatusDone
		after, err := f.svc.CompleteRecurringTask(context.Background(), last)
		require.NoError(t, err)
		assert.Nil(t, after)
	})

	t.Run("unknown type ends the series", func(t *testing.T) {
		f := newFixture(t)
		done := task.Task{ID: "x", Status: task.StatusDone, DueDate: &day, Recurrence: &recurrence.Spec{Type: "hourly"}}

		next, err := f.svc.CompleteRecurringTask(context.Background(), done)
		require.NoError(t, err)
		assert.Nil(t, next)
	})
}

func TestTaskService_RegenerationFailureKeepsCompletion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	day := t0

	created, err := f.svc.Create(ctx, NewTask{
		Content:    "daily",
		DueDate:    &day,
		Recurrence: &recurrence.Spec{Type: recurrence.Daily},
	})
	require.NoError(t, err)

	f.store.createErr = errors.New("constraint")
	completion, err := f.svc.CompleteWithTracking(ctx, created.ID)
	requireReason(t, err, task.ReasonStoreError)
	assert.Equal(t, task.StatusDone, completion.Task.Status)
	assert.Nil(t, completion.Next)

	stored, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, stored.Status)
}

func TestTaskService_NonRecurringCompletionHasNoNext(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, NewTask{Content: "once"})
	require.NoError(t, err)
	assert.Empty(t, created.SeriesID)
	assert.Zero(t, created.Occurrence)

	completion, err := f.svc.CompleteWithTracking(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, completion.Next)
}

func TestTaskService_FireLookupFailureSkipsDelivery(t *testing.T) {
	f := newFixture(t)
	at := t0.Add(time.Minute)

	_, err := f.svc.Create(context.Background(), NewTask{Content: "flaky", ReminderTime: &at})
	require.NoError(t, err)

	f.store.getErr = errors.New("database is locked")
	assert.Equal(t, 1, f.timers.Advance(time.Minute))
	assert.Empty(t, f.delivered.got())
	assert.Empty(t, f.svc.Scheduled())
}
