package services

import (
	"context"
	"fmt"
	"time"

	"github.com/tabvault/tabvault/server/internal/model"
	"github.com/tabvault/tabvault/server/internal/store"
)

type TaskService struct {
	store store.Store
}

func NewTaskService(s store.Store) *TaskService {
	return &TaskService{store: s}
}

func validTaskStatus(s string) bool {
	return s == model.TaskStatusOpen || s == model.TaskStatusInProgress || s == model.TaskStatusDone
}

func validTaskPriority(p string) bool {
	return p == model.TaskPriorityLow || p == model.TaskPriorityMedium || p == model.TaskPriorityHigh
}

func (s *TaskService) CreateTask(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t.Summary == "" {
		return nil, fmt.Errorf("%w: task summary is required", model.ErrValidation)
	}
	if t.Status == "" {
		t.Status = model.TaskStatusOpen
	}
	if t.Priority == "" {
		t.Priority = model.TaskPriorityMedium
	}
	if !validTaskStatus(t.Status) {
		return nil, fmt.Errorf("%w: unknown task status %q", model.ErrValidation, t.Status)
	}
	if !validTaskPriority(t.Priority) {
		return nil, fmt.Errorf("%w: unknown task priority %q", model.ErrValidation, t.Priority)
	}
	if t.CollectionID != nil {
		if _, err := s.store.Collections().Get(ctx, *t.CollectionID); err != nil {
			return nil, err
		}
	}
	return s.store.Tasks().Create(ctx, t)
}

func (s *TaskService) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	return s.store.Tasks().Get(ctx, taskID)
}

// UpdateTask persists a task edit. Moving into done stamps CompletedAt;
// moving out of done clears it.
func (s *TaskService) UpdateTask(ctx context.Context, t *model.Task) (*model.Task, error) {
	if t.Summary == "" {
		return nil, fmt.Errorf("%w: task summary is required", model.ErrValidation)
	}
	if !validTaskStatus(t.Status) {
		return nil, fmt.Errorf("%w: unknown task status %q", model.ErrValidation, t.Status)
	}
	if !validTaskPriority(t.Priority) {
		return nil, fmt.Errorf("%w: unknown task priority %q", model.ErrValidation, t.Priority)
	}
	prev, err := s.store.Tasks().Get(ctx, t.TaskID)
	if err != nil {
		return nil, err
	}
	if t.Status == model.TaskStatusDone && prev.Status != model.TaskStatusDone {
		now := time.Now().UTC()
		t.CompletedAt = &now
	}
	if t.Status != model.TaskStatusDone {
		t.CompletedAt = nil
	}
	return s.store.Tasks().Update(ctx, t)
}

func (s *TaskService) AddComment(ctx context.Context, taskID, text string) (*model.Task, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", model.ErrValidation)
	}
	t, err := s.store.Tasks().Get(ctx, taskID)
	if err != nil {
		return nil, err
	}
	t.Comments = append(t.Comments, model.TaskComment{Text: text, CreatedAt: time.Now().UTC()})
	return s.store.Tasks().Update(ctx, t)
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*model.Task, error) {
	return s.store.Tasks().List(ctx)
}

func (s *TaskService) ListTasksByCollection(ctx context.Context, collectionID string) ([]*model.Task, error) {
	return s.store.Tasks().ListByCollection(ctx, collectionID)
}

func (s *TaskService) ListTasksByStatus(ctx context.Context, status string) ([]*model.Task, error) {
	if !validTaskStatus(status) {
		return nil, fmt.Errorf("%w: unknown task status %q", model.ErrValidation, status)
	}
	return s.store.Tasks().ListByStatus(ctx, status)
}

func (s *TaskService) ListTasksByPriority(ctx context.Context, priority string) ([]*model.Task, error) {
	if !validTaskPriority(priority) {
		return nil, fmt.Errorf("%w: unknown task priority %q", model.ErrValidation, priority)
	}
	return s.store.Tasks().ListByPriority(ctx, priority)
}

func (s *TaskService) ListTasksByTag(ctx context.Context, tag string) ([]*model.Task, error) {
	if tag == "" {
		return nil, fmt.Errorf("%w: tag is required", model.ErrValidation)
	}
	return s.store.Tasks().ListByTag(ctx, tag)
}

func (s *TaskService) ListTasksDueBefore(ctx context.Context, by time.Time) ([]*model.Task, error) {
	return s.store.Tasks().ListDueBefore(ctx, by)
}

func (s *TaskService) DeleteTask(ctx context.Context, taskID string) error {
	return s.store.Tasks().Delete(ctx, taskID)
}
