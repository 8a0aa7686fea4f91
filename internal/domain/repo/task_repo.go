package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"tasknest/internal/domain/model"
)

type TaskRepo interface {
	Create(ctx context.Context, task model.Task) (model.Task, error)
	GetByID(ctx context.Context, userID, taskID uuid.UUID) (model.Task, error)
	ListByUser(ctx context.Context, userID uuid.UUID, f model.TaskFilter) ([]model.Task, int64, error)
	Update(ctx context.Context, task model.Task) (model.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// ListConflicting returns the user's active tasks overlapping
	// [start, end), ascending by start time. excludeID, when non-nil,
	// drops that task from consideration.
	ListConflicting(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Task, error)
	ListOverdue(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.Task, error)
	ListInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]model.Task, error)

	// Aggregates run in the store so statistics stay exact however many
	// tasks the user has.
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[model.TaskStatus]int64, error)
	CountByPriority(ctx context.Context, userID uuid.UUID) (map[model.TaskPriority]int64, error)
	CountOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error)
}
