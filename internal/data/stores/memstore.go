package stores

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/colonyops/tally/internal/core/task"
	"github.com/colonyops/tally/pkg/clock"
	"github.com/colonyops/tally/pkg/kv"
)

// MemoryStore implements task.Store in memory. Used for the memory driver
// and in tests.
type MemoryStore struct {
	tasks *kv.Store[string, task.Task]
	clock clock.Clock
}

var _ task.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory task store.
func NewMemoryStore(clk clock.Clock) *MemoryStore {
	return &MemoryStore{tasks: kv.New[string, task.Task](), clock: clk}
}

func (s *MemoryStore) Get(_ context.Context, id string) (task.Task, error) {
	t, ok := s.tasks.Get(id)
	if !ok {
		return task.Task{}, fmt.Errorf("get task %s: %w", id, task.ErrNotFound)
	}
	return t, nil
}

func (s *MemoryStore) Save(_ context.Context, t task.Task) error {
	t.UpdatedAt = s.clock.Now()
	if !s.tasks.Update(t.ID, func(task.Task) task.Task { return t }) {
		return fmt.Errorf("save task %s: %w", t.ID, task.ErrNotFound)
	}
	return nil
}

func (s *MemoryStore) Create(_ context.Context, t task.Task) (task.Task, error) {
	t = prepareCreate(t, s.clock.Now())
	if !s.tasks.SetIfAbsent(t.ID, t) {
		return task.Task{}, fmt.Errorf("create task %s: %w", t.ID, ErrDuplicateID)
	}
	return t, nil
}

func (s *MemoryStore) List(_ context.Context, filter task.ListFilter) ([]task.Task, error) {
	var out []task.Task
	for _, t := range s.tasks.Values() {
		if filter.Match(t) {
			out = append(out, t)
		}
	}

	slices.SortFunc(out, func(a, b task.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}
