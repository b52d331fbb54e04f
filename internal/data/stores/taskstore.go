package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/tally/internal/core/recurrence"
	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/internal/data/db"
	"github.com/colonyops/tally/pkg/clock"
	"github.com/colonyops/tally/pkg/randid"
)

// ErrDuplicateID is returned by Create when a task with the same ID exists.
var ErrDuplicateID = errors.New("task id already exists")

const taskColumns = `id, content, list_id, status, started_at, total_duration_ms,
	reminder_time, due_date, recurrence, series_id, occurrence, completed_at,
	created_at, updated_at, reminder_delivered_for`

// TaskStore implements task.Store using SQLite.
type TaskStore struct {
	db    *db.DB
	clock clock.Clock
}

var _ task.Store = (*TaskStore)(nil)

// NewTaskStore creates a new SQLite-backed task store.
func NewTaskStore(db *db.DB, clk clock.Clock) *TaskStore {
	return &TaskStore{db: db, clock: clk}
}

// Get returns a task by ID. Returns task.ErrNotFound if not found.
func (s *TaskStore) Get(ctx context.Context, id string) (task.Task, error) {
	row := s.db.Conn().QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)

	t, err := scanTask(row)
	if IsNotFoundError(err) {
		return task.Task{}, fmt.Errorf("get task %s: %w", id, task.ErrNotFound)
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("get task %s: %w", id, err)
	}
	return t, nil
}

// Save replaces every field of an existing task and bumps UpdatedAt.
// Returns task.ErrNotFound if the task does not exist.
func (s *TaskStore) Save(ctx context.Context, t task.Task) error {
	t.UpdatedAt = s.clock.Now()

	p, err := toParams(t)
	if err != nil {
		return err
	}

	var affected int64
	err = retryBusy(func() error {
		res, err := s.db.Conn().ExecContext(ctx, `
			UPDATE tasks SET
				content = ?, list_id = ?, status = ?, started_at = ?, total_duration_ms = ?,
				reminder_time = ?, due_date = ?, recurrence = ?, series_id = ?, occurrence = ?,
				completed_at = ?, updated_at = ?, reminder_delivered_for = ?
			WHERE id = ?`,
			p.content, p.listID, p.status, p.startedAt, p.totalMS,
			p.reminderTime, p.dueDate, p.recurrence, p.seriesID, p.occurrence,
			p.completedAt, p.updatedAt, p.deliveredFor,
			p.id,
		)
		if err != nil {
			return err
		}
		affected, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	if affected == 0 {
		return fmt.Errorf("save task %s: %w", t.ID, task.ErrNotFound)
	}

	return nil
}

// Create inserts a new task. ID, CreatedAt, and UpdatedAt are populated when
// empty.
func (s *TaskStore) Create(ctx context.Context, t task.Task) (task.Task, error) {
	t = prepareCreate(t, s.clock.Now())

	p, err := toParams(t)
	if err != nil {
		return task.Task{}, err
	}

	err = retryBusy(func() error {
		_, err := s.db.Conn().ExecContext(ctx, "INSERT INTO tasks ("+taskColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
			p.id, p.content, p.listID, p.status, p.startedAt, p.totalMS,
			p.reminderTime, p.dueDate, p.recurrence, p.seriesID, p.occurrence, p.completedAt,
			p.createdAt, p.updatedAt, p.deliveredFor,
		)
		return err
	})
	if IsUniqueConstraintError(err) {
		return task.Task{}, fmt.Errorf("create task %s: %w", t.ID, ErrDuplicateID)
	}
	if err != nil {
		return task.Task{}, fmt.Errorf("create task: %w", err)
	}

	return t, nil
}

// List returns tasks matching the filter, oldest first.
func (s *TaskStore) List(ctx context.Context, filter task.ListFilter) ([]task.Task, error) {
	var (
		where []string
		args  []any
	)

	if len(filter.Statuses) > 0 {
		marks := make([]string, len(filter.Statuses))
		for i, st := range filter.Statuses {
			marks[i] = "?"
			args = append(args, string(st))
		}
		where = append(where, "status IN ("+strings.Join(marks, ", ")+")")
	}
	if filter.ListID != "" {
		where = append(where, "list_id = ?")
		args = append(args, filter.ListID)
	}
	if filter.SeriesID != "" {
		where = append(where, "series_id = ?")
		args = append(args, filter.SeriesID)
	}

	query := "SELECT " + taskColumns + " FROM tasks"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	rows, err := s.db.Conn().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []task.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return out, nil
}

// prepareCreate fills the fields a store owns on insert.
func prepareCreate(t task.Task, now time.Time) task.Task {
	if t.ID == "" {
		t.ID = randid.Generate(8)
	}
	if t.Status == "" {
		t.Status = task.StatusTodo
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = t.CreatedAt
	return t
}

type taskParams struct {
	id, content, listID, status, seriesID string
	totalMS                               int64
	occurrence                            int
	startedAt, reminderTime, dueDate      sql.NullInt64
	completedAt, deliveredFor             sql.NullInt64
	recurrence                            sql.NullString
	createdAt, updatedAt                  int64
}

func toParams(t task.Task) (taskParams, error) {
	p := taskParams{
		id:           t.ID,
		content:      t.Content,
		listID:       t.ListID,
		status:       string(t.Status),
		seriesID:     t.SeriesID,
		totalMS:      max(t.TotalDuration.Milliseconds(), 0),
		occurrence:   t.Occurrence,
		startedAt:    nullTime(t.StartedAt),
		reminderTime: nullTime(t.ReminderTime),
		dueDate:      nullTime(t.DueDate),
		completedAt:  nullTime(t.CompletedAt),
		deliveredFor: nullTime(t.ReminderDeliveredFor),
		createdAt:    t.CreatedAt.UnixNano(),
		updatedAt:    t.UpdatedAt.UnixNano(),
	}

	if t.Recurrence != nil {
		data, err := json.Marshal(t.Recurrence)
		if err != nil {
			return taskParams{}, fmt.Errorf("failed to marshal recurrence: %w", err)
		}
		p.recurrence = sql.NullString{String: string(data), Valid: true}
	}

	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (task.Task, error) {
	var (
		t                                task.Task
		status                           string
		totalMS                          int64
		startedAt, reminderTime, dueDate sql.NullInt64
		completedAt, deliveredFor        sql.NullInt64
		rec                              sql.NullString
		createdAt, updatedAt             int64
	)

	err := row.Scan(
		&t.ID, &t.Content, &t.ListID, &status, &startedAt, &totalMS,
		&reminderTime, &dueDate, &rec, &t.SeriesID, &t.Occurrence, &completedAt,
		&createdAt, &updatedAt, &deliveredFor,
	)
	if err != nil {
		return task.Task{}, err
	}

	t.Status = task.Status(status)
	t.TotalDuration = time.Duration(totalMS) * time.Millisecond
	t.StartedAt = timePtr(startedAt)
	t.ReminderTime = timePtr(reminderTime)
	t.DueDate = timePtr(dueDate)
	t.CompletedAt = timePtr(completedAt)
	t.ReminderDeliveredFor = timePtr(deliveredFor)
	t.CreatedAt = time.Unix(0, createdAt)
	t.UpdatedAt = time.Unix(0, updatedAt)

	if rec.Valid {
		var spec recurrence.Spec
		if err := json.Unmarshal([]byte(rec.String), &spec); err != nil {
			return task.Task{}, fmt.Errorf("failed to unmarshal recurrence for %s: %w", t.ID, err)
		}
		t.Recurrence = &spec
	}

	return t, nil
}

func nullTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(0, v.Int64)
	return &t
}
