package tally

import (
	"context"

	"github.com/colonyops/tally/internal/core/eventbus"
	"github.com/colonyops/tally/internal/core/task"
)

// BroadcastStore wraps a task.Store and publishes task.created and
// task.saved after each successful write.
type BroadcastStore struct {
	task.Store
	bus *eventbus.EventBus
}

var _ task.Store = (*BroadcastStore)(nil)

// NewBroadcastStore creates a BroadcastStore.
func NewBroadcastStore(store task.Store, bus *eventbus.EventBus) *BroadcastStore {
	return &BroadcastStore{Store: store, bus: bus}
}

// Save implements task.Store.
func (s *BroadcastStore) Save(ctx context.Context, t task.Task) error {
	if err := s.Store.Save(ctx, t); err != nil {
		return err
	}
	s.bus.PublishTaskSaved(eventbus.TaskSavedPayload{Task: t})
	return nil
}

// Create implements task.Store.
func (s *BroadcastStore) Create(ctx context.Context, t task.Task) (task.Task, error) {
	created, err := s.Store.Create(ctx, t)
	if err != nil {
		return task.Task{}, err
	}
	s.bus.PublishTaskCreated(eventbus.TaskCreatedPayload{Task: created})
	return created, nil
}
