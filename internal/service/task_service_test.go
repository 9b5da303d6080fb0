package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "taskhive/internal/errors"
	"taskhive/internal/model"
	"taskhive/internal/repository"
)

func publicUser(id uuid.UUID) *model.PublicUser {
	return &model.PublicUser{ID: id, Email: "owner@example.com"}
}

func expectUserExists(m *MockUserService, id uuid.UUID) {
	m.On("FindByID", mock.Anything, id).Return(publicUser(id), nil)
}

func domainStatus(t *testing.T, err error) int {
	t.Helper()
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		t.Fatalf("expected domain error, got %v", err)
	}
	return domainErr.Status
}

func TestTaskService_Create(t *testing.T) {
	userID := uuid.New()

	t.Run("defaults status to pending", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockUsers := new(MockUserService)
		expectUserExists(mockUsers, userID)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

		svc := NewTaskService(mockRepo, mockUsers, nil)
		task, err := svc.Create(context.Background(), userID, CreateTaskInput{Title: "Write docs"})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusPending, task.Status)
		assert.Equal(t, userID, task.UserID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("explicit status kept", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockUsers := new(MockUserService)
		expectUserExists(mockUsers, userID)
		mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

		svc := NewTaskService(mockRepo, mockUsers, nil)
		task, err := svc.Create(context.Background(), userID, CreateTaskInput{
			Title:  "Start work",
			Status: model.StatusInProgress,
		})

		assert.NoError(t, err)
		assert.Equal(t, model.StatusInProgress, task.Status)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockUsers := new(MockUserService)
		mockUsers.On("FindByID", mock.Anything, userID).Return(nil, apperrors.NotFound("User not found"))

		svc := NewTaskService(mockRepo, mockUsers, nil)
		_, err := svc.Create(context.Background(), userID, CreateTaskInput{Title: "Orphan"})

		assert.Equal(t, http.StatusNotFound, domainStatus(t, err))
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("storage failure is generic bad request", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockUsers := new(MockUserService)
		expectUserExists(mockUsers, userID)
		mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk on fire"))

		svc := NewTaskService(mockRepo, mockUsers, nil)
		_, err := svc.Create(context.Background(), userID, CreateTaskInput{Title: "Doomed"})

		assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))
		assert.EqualError(t, err, "Failed to create task")
	})
}

func TestTaskService_FindByID(t *testing.T) {
	owner := uuid.New()
	other := uuid.New()
	taskID := uuid.New()
	task := &model.Task{ID: taskID, Title: "Mine", Status: model.StatusPending, UserID: owner}

	t.Run("owner reads own task", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(task, nil)

		svc := NewTaskService(mockRepo, new(MockUserService), nil)
		got, err := svc.FindByID(context.Background(), taskID, owner)

		assert.NoError(t, err)
		assert.Equal(t, taskID, got.ID)
	})

	t.Run("missing task is not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(nil, gorm.ErrRecordNotFound)

		svc := NewTaskService(mockRepo, new(MockUserService), nil)
		_, err := svc.FindByID(context.Background(), taskID, owner)

		assert.Equal(t, http.StatusNotFound, domainStatus(t, err))
		assert.EqualError(t, err, "Task not found")
	})

	t.Run("someone else's task is forbidden", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(task, nil)

		svc := NewTaskService(mockRepo, new(MockUserService), nil)
		got, err := svc.FindByID(context.Background(), taskID, other)

		assert.Nil(t, got)
		assert.Equal(t, http.StatusForbidden, domainStatus(t, err))
		assert.EqualError(t, err, "Access denied to this task")
	})

	t.Run("storage failure is generic bad request", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(nil, errors.New("connection reset"))

		svc := NewTaskService(mockRepo, new(MockUserService), nil)
		_, err := svc.FindByID(context.Background(), taskID, owner)

		assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))
		assert.EqualError(t, err, "Failed to retrieve task")
	})
}

// TestTaskService_Update_Transitions exhaustively covers all 16 ordered
// status pairs: same-status updates are no-ops and only the allowed
// transitions succeed.
func TestTaskService_Update_Transitions(t *testing.T) {
	allowed := map[model.TaskStatus][]model.TaskStatus{
		model.StatusPending:    {model.StatusInProgress, model.StatusCancelled},
		model.StatusInProgress: {model.StatusCompleted, model.StatusCancelled, model.StatusPending},
		model.StatusCompleted:  {model.StatusInProgress},
		model.StatusCancelled:  {model.StatusPending, model.StatusInProgress},
	}
	isAllowed := func(from, to model.TaskStatus) bool {
		if from == to {
			return true
		}
		for _, s := range allowed[from] {
			if s == to {
				return true
			}
		}
		return false
	}

	owner := uuid.New()

	for _, from := range model.AllStatuses {
		for _, to := range model.AllStatuses {
			from, to := from, to
			t.Run(fmt.Sprintf("%s_to_%s", from, to), func(t *testing.T) {
				taskID := uuid.New()
				mockRepo := new(MockTaskRepository)
				mockRepo.On("FindByID", mock.Anything, taskID).
					Return(&model.Task{ID: taskID, Title: "t", Status: from, UserID: owner}, nil)

				want := isAllowed(from, to)
				if want {
					mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)
				}

				svc := NewTaskService(mockRepo, new(MockUserService), nil)
				status := to
				task, err := svc.Update(context.Background(), taskID, owner, UpdateTaskInput{Status: &status})

				if want {
					assert.NoError(t, err)
					assert.Equal(t, to, task.Status)
				} else {
					assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))
					assert.EqualError(t, err,
						fmt.Sprintf("Invalid status transition from %s to %s", from, to))
					mockRepo.AssertNotCalled(t, "Update")
				}
			})
		}
	}
}

func TestTaskService_Update_PartialPatch(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()
	desc := "old description"

	newTask := func() *model.Task {
		d := desc
		return &model.Task{ID: taskID, Title: "old title", Description: &d, Status: model.StatusPending, UserID: owner}
	}

	t.Run("title only leaves description untouched", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(newTask(), nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		svc := NewTaskService(mockRepo, new(MockUserService), nil)
		title := "new title"
		task, err := svc.Update(context.Background(), taskID, owner, UpdateTaskInput{Title: &title})

		assert.NoError(t, err)
		assert.Equal(t, "new title", task.Title)
		assert.NotNil(t, task.Description)
		assert.Equal(t, desc, *task.Description)
		assert.Equal(t, model.StatusPending, task.Status)
	})

	t.Run("present empty description clears it", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(newTask(), nil)
		mockRepo.On("Update", mock.Anything, mock.Anything).Return(nil)

		svc := NewTaskService(mockRepo, new(MockUserService), nil)
		empty := ""
		task, err := svc.Update(context.Background(), taskID, owner, UpdateTaskInput{Description: &empty})

		assert.NoError(t, err)
		assert.Equal(t, "old title", task.Title)
		assert.Equal(t, "", *task.Description)
	})

	t.Run("ownership enforced before patching", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(newTask(), nil)

		svc := NewTaskService(mockRepo, new(MockUserService), nil)
		title := "hijack"
		_, err := svc.Update(context.Background(), taskID, uuid.New(), UpdateTaskInput{Title: &title})

		assert.Equal(t, http.StatusForbidden, domainStatus(t, err))
		mockRepo.AssertNotCalled(t, "Update")
	})
}

func TestTaskService_Delete(t *testing.T) {
	owner := uuid.New()
	taskID := uuid.New()
	task := &model.Task{ID: taskID, Title: "t", Status: model.StatusPending, UserID: owner}

	t.Run("owner deletes", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(task, nil)
		mockRepo.On("Delete", mock.Anything, taskID).Return(nil)

		svc := NewTaskService(mockRepo, new(MockUserService), nil)
		assert.NoError(t, svc.Delete(context.Background(), taskID, owner))
		mockRepo.AssertExpectations(t)
	})

	t.Run("non-owner gets forbidden and nothing is deleted", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockRepo.On("FindByID", mock.Anything, taskID).Return(task, nil)

		svc := NewTaskService(mockRepo, new(MockUserService), nil)
		err := svc.Delete(context.Background(), taskID, uuid.New())

		assert.Equal(t, http.StatusForbidden, domainStatus(t, err))
		mockRepo.AssertNotCalled(t, "Delete")
	})
}

func TestTaskService_FindAllByUser(t *testing.T) {
	userID := uuid.New()

	t.Run("pagination meta reflects total", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockUsers := new(MockUserService)
		expectUserExists(mockUsers, userID)

		wantQuery := repository.TaskListQuery{
			UserID:     userID,
			SortColumn: "created_at",
			Desc:       true,
			Offset:     10,
			Limit:      5,
		}
		mockRepo.On("Count", mock.Anything, wantQuery).Return(int64(12), nil)
		mockRepo.On("List", mock.Anything, wantQuery).Return([]model.Task{
			{Title: "task 11"}, {Title: "task 12"},
		}, nil)

		svc := NewTaskService(mockRepo, mockUsers, nil)
		list, err := svc.FindAllByUser(context.Background(), userID, TaskFilter{Page: 3, Limit: 5})

		assert.NoError(t, err)
		assert.Len(t, list.Data, 2)
		assert.Equal(t, int64(12), list.Meta.Total)
		assert.Equal(t, 3, list.Meta.Page)
		assert.Equal(t, 3, list.Meta.TotalPages)
		mockRepo.AssertExpectations(t)
	})

	t.Run("page beyond the end is empty not an error", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockUsers := new(MockUserService)
		expectUserExists(mockUsers, userID)
		mockRepo.On("Count", mock.Anything, mock.Anything).Return(int64(4), nil)
		mockRepo.On("List", mock.Anything, mock.Anything).Return([]model.Task{}, nil)

		svc := NewTaskService(mockRepo, mockUsers, nil)
		list, err := svc.FindAllByUser(context.Background(), userID, TaskFilter{Page: 9, Limit: 10})

		assert.NoError(t, err)
		assert.Empty(t, list.Data)
		assert.Equal(t, int64(4), list.Meta.Total)
		assert.Equal(t, 1, list.Meta.TotalPages)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockUsers := new(MockUserService)
		mockUsers.On("FindByID", mock.Anything, userID).Return(nil, apperrors.NotFound("User not found"))

		svc := NewTaskService(mockRepo, mockUsers, nil)
		_, err := svc.FindAllByUser(context.Background(), userID, TaskFilter{})

		assert.Equal(t, http.StatusNotFound, domainStatus(t, err))
		mockRepo.AssertNotCalled(t, "Count")
	})
}

func TestTaskService_Stats(t *testing.T) {
	userID := uuid.New()

	t.Run("aggregates per-status counts", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockUsers := new(MockUserService)
		expectUserExists(mockUsers, userID)

		byStatus := map[model.TaskStatus]int64{
			"":                     12,
			model.StatusPending:    4,
			model.StatusInProgress: 3,
			model.StatusCompleted:  4,
			model.StatusCancelled:  1,
		}
		for status, n := range byStatus {
			mockRepo.On("Count", mock.Anything, repository.TaskListQuery{UserID: userID, Status: status}).
				Return(n, nil)
		}

		svc := NewTaskService(mockRepo, mockUsers, nil)
		stats, err := svc.Stats(context.Background(), userID)

		assert.NoError(t, err)
		assert.Equal(t, &TaskStats{Total: 12, Pending: 4, InProgress: 3, Completed: 4, Cancelled: 1}, stats)
	})

	t.Run("count failure is generic bad request", func(t *testing.T) {
		mockRepo := new(MockTaskRepository)
		mockUsers := new(MockUserService)
		expectUserExists(mockUsers, userID)
		mockRepo.On("Count", mock.Anything, mock.Anything).Return(int64(0), errors.New("timeout"))

		svc := NewTaskService(mockRepo, mockUsers, nil)
		_, err := svc.Stats(context.Background(), userID)

		assert.Equal(t, http.StatusBadRequest, domainStatus(t, err))
		assert.EqualError(t, err, "Failed to retrieve task statistics")
	})
}
