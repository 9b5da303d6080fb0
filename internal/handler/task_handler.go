package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "taskhive/internal/errors"
	"taskhive/internal/model"
	"taskhive/internal/service"
)

// TaskHandler handles task CRUD, listing and stats endpoints.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string            `json:"title" validate:"required,min=1,max=255"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *model.TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
}

// UpdateTaskRequest represents a partial task update. Absent fields are left
// untouched; a present empty description clears it.
type UpdateTaskRequest struct {
	Title       *string           `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string           `json:"description,omitempty" validate:"omitempty,max=2000"`
	Status      *model.TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
}

// ListTasksRequest carries the task listing query parameters. sortBy is
// deliberately unvalidated, unknown fields fall back to the default sort.
type ListTasksRequest struct {
	Status    string `query:"status" validate:"omitempty,oneof=PENDING IN_PROGRESS COMPLETED CANCELLED"`
	Search    string `query:"search"`
	Page      int    `query:"page" validate:"omitempty,min=1"`
	Limit     int    `query:"limit" validate:"omitempty,min=1,max=100"`
	SortBy    string `query:"sortBy"`
	SortOrder string `query:"sortOrder" validate:"omitempty,oneof=asc desc"`
}

// taskID parses the :id route parameter. A malformed id behaves like a
// missing task rather than a distinct error.
func taskID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.NotFound("Task not found")
	}
	return id, nil
}

// Create creates a task owned by the authenticated user.
func (h *TaskHandler) Create(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.BadRequest("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	input := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		input.Status = *req.Status
	}

	task, err := h.taskService.Create(c.Request().Context(), user.ID, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, task)
}

// List returns one page of the user's tasks with pagination metadata.
func (h *TaskHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req ListTasksRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.BadRequest("Invalid query parameters")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	filter := service.TaskFilter{
		Status:    model.TaskStatus(req.Status),
		Search:    req.Search,
		Page:      req.Page,
		Limit:     req.Limit,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	list, err := h.taskService.FindAllByUser(c.Request().Context(), user.ID, filter)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// Get returns a single task owned by the authenticated user.
func (h *TaskHandler) Get(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.FindByID(c.Request().Context(), id, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Update applies a partial update to a task owned by the authenticated user.
func (h *TaskHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.BadRequest("Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.Update(c.Request().Context(), id, user.ID, service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, task)
}

// Delete removes a task owned by the authenticated user.
func (h *TaskHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.Delete(c.Request().Context(), id, user.ID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Stats returns the per-status task counts for the authenticated user.
func (h *TaskHandler) Stats(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	stats, err := h.taskService.Stats(c.Request().Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
