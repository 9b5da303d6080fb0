package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskhive/internal/model"
)

// TaskListQuery is a fully resolved task query: always scoped to a user, with
// optional status and search constraints. Sort column and paging offsets are
// validated by the caller before they reach this layer.
type TaskListQuery struct {
	UserID     uuid.UUID
	Status     model.TaskStatus // empty means all statuses
	Search     string
	SortColumn string
	Desc       bool
	Offset     int
	Limit      int
}

// TaskRepository defines task persistence operations.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error)
	List(ctx context.Context, q TaskListQuery) ([]model.Task, error)
	Count(ctx context.Context, q TaskListQuery) (int64, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository builds a GORM-backed task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// scoped applies the user, status and search constraints shared by List and
// Count. Search is a case-insensitive substring match on title OR description.
func (r *taskRepository) scoped(ctx context.Context, q TaskListQuery) *gorm.DB {
	tx := r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", q.UserID)
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Search != "" {
		pattern := "%" + q.Search + "%"
		tx = tx.Where("LOWER(title) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}
	return tx
}

func (r *taskRepository) List(ctx context.Context, q TaskListQuery) ([]model.Task, error) {
	order := q.SortColumn
	if q.Desc {
		order += " DESC"
	} else {
		order += " ASC"
	}

	var tasks []model.Task
	if err := r.scoped(ctx, q).
		Order(order).
		Offset(q.Offset).
		Limit(q.Limit).
		Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) Count(ctx context.Context, q TaskListQuery) (int64, error) {
	var total int64
	if err := r.scoped(ctx, q).Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}

func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
