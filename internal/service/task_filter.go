package service

import (
	"github.com/google/uuid"

	"taskhive/internal/model"
	"taskhive/internal/repository"
)

const (
	// DefaultPage is used when no page is requested.
	DefaultPage = 1
	// DefaultLimit is the page size when none is requested.
	DefaultLimit = 10
	// MaxLimit caps the page size.
	MaxLimit = 100
	// DefaultSortBy is the fallback sort field.
	DefaultSortBy = "createdAt"
)

// sortColumns whitelists the sortable fields and maps them to their database
// columns. Anything outside the whitelist silently falls back to createdAt.
var sortColumns = map[string]string{
	"title":     "title",
	"status":    "status",
	"createdAt": "created_at",
	"updatedAt": "updated_at",
}

// TaskFilter narrows a task listing. Status, search and sort order are
// validated at the handler boundary; sortBy deliberately is not, it falls back
// to the default instead of erroring.
type TaskFilter struct {
	Status    model.TaskStatus
	Search    string
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize applies defaults, clamps the page size and resolves the sort
// field against the whitelist.
func (f *TaskFilter) Normalize() {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if _, ok := sortColumns[f.SortBy]; !ok {
		f.SortBy = DefaultSortBy
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
}

// Query resolves the normalized filter into a repository query scoped to the
// given user.
func (f TaskFilter) Query(userID uuid.UUID) repository.TaskListQuery {
	return repository.TaskListQuery{
		UserID:     userID,
		Status:     f.Status,
		Search:     f.Search,
		SortColumn: sortColumns[f.SortBy],
		Desc:       f.SortOrder != "asc",
		Offset:     (f.Page - 1) * f.Limit,
		Limit:      f.Limit,
	}
}

// Pagination describes one page of a listing.
type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes the page metadata for a total match count.
// TotalPages is 0 when nothing matched.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
