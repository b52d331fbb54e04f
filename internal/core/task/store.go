package task

import (
	"context"
	"slices"
)

// ListFilter controls which tasks are returned by List.
type ListFilter struct {
	Statuses []Status // empty means all statuses
	ListID   string   // empty means all lists
	SeriesID string   // empty means all series
}

// Match reports whether t passes the filter.
func (f ListFilter) Match(t Task) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, t.Status) {
		return false
	}
	if f.ListID != "" && t.ListID != f.ListID {
		return false
	}
	if f.SeriesID != "" && t.SeriesID != f.SeriesID {
		return false
	}
	return true
}

// Store defines the interface for task persistence. Implementations own
// broadcasting changes to other observers.
type Store interface {
	// Get returns a single task by ID.
	// Returns ErrNotFound if the task does not exist.
	Get(ctx context.Context, id string) (Task, error)

	// Save persists an existing task, replacing all of its fields.
	// Returns ErrNotFound if the task does not exist.
	Save(ctx context.Context, t Task) error

	// Create persists a new task and returns it as stored.
	// The store populates ID, CreatedAt, and UpdatedAt if not already set.
	Create(ctx context.Context, t Task) (Task, error)

	// List returns tasks matching the filter, ordered by created_at ASC.
	List(ctx context.Context, filter ListFilter) ([]Task, error)
}
