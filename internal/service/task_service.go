package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhive/internal/cache"
	apperrors "taskhive/internal/errors"
	"taskhive/internal/model"
	"taskhive/internal/repository"
)

const statsCacheTTL = time.Minute

// CreateTaskInput is the validated payload for creating a task.
type CreateTaskInput struct {
	Title       string
	Description *string
	Status      model.TaskStatus
}

// UpdateTaskInput is a partial task update. Nil fields are left untouched; a
// present Description pointing at an empty string clears it.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *model.TaskStatus
}

// TaskList is one page of tasks with its pagination metadata.
type TaskList struct {
	Data []model.Task `json:"data"`
	Meta Pagination   `json:"meta"`
}

// TaskStats aggregates a user's task counts per status.
type TaskStats struct {
	Total      int64 `json:"total"`
	Pending    int64 `json:"pending"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Cancelled  int64 `json:"cancelled"`
}

// TaskService manages the task lifecycle: CRUD with ownership enforcement and
// status transition validation.
type TaskService interface {
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*model.Task, error)
	FindAllByUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) (*TaskList, error)
	FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, id, userID uuid.UUID, input UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID) (*TaskStats, error)
}

type taskService struct {
	tasks repository.TaskRepository
	users UserService
	cache *cache.Client
}

// NewTaskService creates a task service over the task repository, the user
// directory and the stats cache.
func NewTaskService(tasks repository.TaskRepository, users UserService, cache *cache.Client) TaskService {
	return &taskService{tasks: tasks, users: users, cache: cache}
}

func (s *taskService) statsKey(userID uuid.UUID) string {
	return fmt.Sprintf("task_stats:%s", userID)
}

// ensureUser verifies the user exists before any task operation scoped to it.
func (s *taskService) ensureUser(ctx context.Context, userID uuid.UUID) error {
	_, err := s.users.FindByID(ctx, userID)
	return err
}

func (s *taskService) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*model.Task, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.StatusPending
	}

	task := &model.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		UserID:      userID,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperrors.BadRequest("Failed to create task")
	}

	_ = s.cache.Delete(ctx, s.statsKey(userID))
	return task, nil
}

func (s *taskService) FindAllByUser(ctx context.Context, userID uuid.UUID, filter TaskFilter) (*TaskList, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	filter.Normalize()
	query := filter.Query(userID)

	total, err := s.tasks.Count(ctx, query)
	if err != nil {
		return nil, apperrors.BadRequest("Failed to retrieve tasks")
	}

	tasks, err := s.tasks.List(ctx, query)
	if err != nil {
		return nil, apperrors.BadRequest("Failed to retrieve tasks")
	}

	return &TaskList{
		Data: tasks,
		Meta: NewPagination(filter.Page, filter.Limit, total),
	}, nil
}

// FindByID checks existence before ownership: an unknown id is NotFound while
// someone else's task is Forbidden, and neither response leaks task data.
func (s *taskService) FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Task not found")
		}
		return nil, apperrors.BadRequest("Failed to retrieve task")
	}
	if task.UserID != userID {
		return nil, apperrors.Forbidden("Access denied to this task")
	}
	return task, nil
}

func (s *taskService) Update(ctx context.Context, id, userID uuid.UUID, input UpdateTaskInput) (*model.Task, error) {
	task, err := s.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	// Transition validation applies only when the status actually changes.
	if input.Status != nil && *input.Status != task.Status {
		if !task.Status.CanTransitionTo(*input.Status) {
			return nil, apperrors.BadRequest(
				fmt.Sprintf("Invalid status transition from %s to %s", task.Status, *input.Status))
		}
		task.Status = *input.Status
	}
	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = input.Description
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, apperrors.BadRequest("Failed to update task")
	}

	_ = s.cache.Delete(ctx, s.statsKey(userID))
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.FindByID(ctx, id, userID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, id); err != nil {
		return apperrors.BadRequest("Failed to delete task")
	}
	_ = s.cache.Delete(ctx, s.statsKey(userID))
	return nil
}

// Stats returns the per-status task counts for a user. The result is cached
// briefly; every task write for the user invalidates the entry.
func (s *taskService) Stats(ctx context.Context, userID uuid.UUID) (*TaskStats, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}

	if data, _ := s.cache.Get(ctx, s.statsKey(userID)); data != nil {
		var cached TaskStats
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	stats := &TaskStats{}
	counts := []struct {
		status model.TaskStatus
		dest   *int64
	}{
		{"", &stats.Total},
		{model.StatusPending, &stats.Pending},
		{model.StatusInProgress, &stats.InProgress},
		{model.StatusCompleted, &stats.Completed},
		{model.StatusCancelled, &stats.Cancelled},
	}
	for _, c := range counts {
		n, err := s.tasks.Count(ctx, repository.TaskListQuery{UserID: userID, Status: c.status})
		if err != nil {
			return nil, apperrors.BadRequest("Failed to retrieve task statistics")
		}
		*c.dest = n
	}

	if payload, err := json.Marshal(stats); err == nil {
		_ = s.cache.Set(ctx, s.statsKey(userID), payload, statsCacheTTL)
	}
	return stats, nil
}
