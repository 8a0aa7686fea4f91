package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"

	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/domain/model"
	"tasknest/internal/domain/repo"
)

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back tasks (a ends exactly when b
// starts) do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// ConflictDetector finds a user's active tasks that overlap a proposed time
// window. Completed and cancelled tasks never block a slot.
type ConflictDetector struct {
	tasks repo.TaskRepo
}

func NewConflictDetector(tasks repo.TaskRepo) *ConflictDetector {
	return &ConflictDetector{tasks: tasks}
}

// FindConflicts returns overlapping active tasks ascending by start time, so
// the first entry is the representative conflict when only one can be
// reported. excludeID removes a task's own window when it is being moved.
func (d *ConflictDetector) FindConflicts(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Task, error) {
	if !end.After(start) {
		return nil, customErrors.NewInvalidArgument("end time must be after start time")
	}
	return d.tasks.ListConflicting(ctx, userID, start, end, excludeID)
}

// Check is the commit gate for create/update: it fails with a
// ScheduleConflictError naming the earliest conflicting task.
func (d *ConflictDetector) Check(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) error {
	conflicts, err := d.FindConflicts(ctx, userID, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &customErrors.ScheduleConflictError{ConflictingTaskID: conflicts[0].ID}
	}
	return nil
}
