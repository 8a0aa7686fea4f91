package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tasknest/internal/app/task/schedule"
	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/domain/model"
	"tasknest/internal/domain/repo"
)

const (
	MinTaskDuration = 5 * time.Minute
	MaxTaskDuration = 7 * 24 * time.Hour

	maxNameLen        = 255
	maxDescriptionLen = 2000
)

type CreateInput struct {
	Name        string
	Description string
	StartTime   time.Time
	EndTime     time.Time
	Color       string
	Status      model.TaskStatus
	Priority    model.TaskPriority
	Category    model.TaskCategory
}

// UpdateInput carries a partial update; nil fields keep their current value.
type UpdateInput struct {
	Name        *string
	Description *string
	StartTime   *time.Time
	EndTime     *time.Time
	Color       *string
	Status      *model.TaskStatus
	Priority    *model.TaskPriority
	Category    *model.TaskCategory
}

type ListResult struct {
	Tasks      []model.Task
	TotalCount int64
	Offset     int
	Limit      int
}

type Statistics struct {
	Total             int64
	ByStatus          map[model.TaskStatus]int64
	ByPriority        map[model.TaskPriority]int64
	OverdueCount      int
	ActiveCount       int64
	ThisWeekTotal     int
	ThisWeekCompleted int
}

type Service interface {
	Create(ctx context.Context, userID uuid.UUID, in CreateInput) (model.Task, error)
	Get(ctx context.Context, userID, taskID uuid.UUID) (model.Task, error)
	List(ctx context.Context, userID uuid.UUID, f model.TaskFilter) (ListResult, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, in UpdateInput) (model.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
	UpdateStatus(ctx context.Context, userID, taskID uuid.UUID, status model.TaskStatus) (model.Task, error)
	BulkUpdateStatus(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID, status model.TaskStatus) (*model.BulkResult, error)
	BulkDelete(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID) (*model.BulkResult, error)
	FindConflicts(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Task, error)
	Overdue(ctx context.Context, userID uuid.UUID) ([]model.Task, error)
	InRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]model.Task, error)
	Stats(ctx context.Context, userID uuid.UUID) (Statistics, error)
}

type taskService struct {
	tasks     repo.TaskRepo
	conflicts *schedule.ConflictDetector
	logger    *zap.Logger
}

func New(tasks repo.TaskRepo, conflicts *schedule.ConflictDetector, logger *zap.Logger) Service {
	return &taskService{tasks: tasks, conflicts: conflicts, logger: logger}
}

func (s *taskService) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (model.Task, error) {
	task := model.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		Color:       in.Color,
		Status:      in.Status,
		Priority:    in.Priority,
		Category:    in.Category,
	}
	applyDefaults(&task)

	if err := validateTask(task); err != nil {
		return model.Task{}, err
	}

	// The conflict gate runs before anything is committed.
	if err := s.conflicts.Check(ctx, userID, task.StartTime, task.EndTime, nil); err != nil {
		return model.Task{}, err
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		return model.Task{}, customErrors.WrapInternal(err, "CreateTask")
	}

	s.logger.Info("task created",
		zap.String("task_id", created.ID.String()),
		zap.String("user_id", userID.String()))
	return created, nil
}

func (s *taskService) Get(ctx context.Context, userID, taskID uuid.UUID) (model.Task, error) {
	return s.tasks.GetByID(ctx, userID, taskID)
}

func (s *taskService) List(ctx context.Context, userID uuid.UUID, f model.TaskFilter) (ListResult, error) {
	if f.Limit <= 0 || f.Limit > 1000 {
		f.Limit = 100
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	if !model.SortableTaskFields[f.SortBy] {
		f.SortBy = "start_time"
	}

	tasks, total, err := s.tasks.ListByUser(ctx, userID, f)
	if err != nil {
		return ListResult{}, customErrors.WrapInternal(err, "ListTasks")
	}
	return ListResult{Tasks: tasks, TotalCount: total, Offset: f.Offset, Limit: f.Limit}, nil
}

func (s *taskService) Update(ctx context.Context, userID, taskID uuid.UUID, in UpdateInput) (model.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return model.Task{}, err
	}

	timeChanged := in.StartTime != nil || in.EndTime != nil

	if in.Status != nil && *in.Status != task.Status {
		if err := schedule.ValidateTransition(task.Status, *in.Status); err != nil {
			return model.Task{}, err
		}
	}

	applyUpdates(&task, in)

	if err := validateTask(task); err != nil {
		return model.Task{}, err
	}

	if timeChanged {
		if err := s.conflicts.Check(ctx, userID, task.StartTime, task.EndTime, &task.ID); err != nil {
			return model.Task{}, err
		}
	}

	updated, err := s.tasks.Update(ctx, task)
	if err != nil {
		return model.Task{}, err
	}

	s.logger.Info("task updated", zap.String("task_id", taskID.String()))
	return updated, nil
}

func (s *taskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := s.tasks.Delete(ctx, userID, taskID); err != nil {
		return err
	}
	s.logger.Info("task deleted", zap.String("task_id", taskID.String()))
	return nil
}

func (s *taskService) UpdateStatus(ctx context.Context, userID, taskID uuid.UUID, status model.TaskStatus) (model.Task, error) {
	task, err := s.tasks.GetByID(ctx, userID, taskID)
	if err != nil {
		return model.Task{}, err
	}

	if err := schedule.ValidateTransition(task.Status, status); err != nil {
		return model.Task{}, err
	}

	task.Status = status
	updated, err := s.tasks.Update(ctx, task)
	if err != nil {
		return model.Task{}, err
	}

	s.logger.Info("task status updated",
		zap.String("task_id", taskID.String()),
		zap.String("status", string(status)))
	return updated, nil
}

// BulkUpdateStatus applies the transition to each task independently. One
// failure never aborts the batch; it is logged and counted.
func (s *taskService) BulkUpdateStatus(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID, status model.TaskStatus) (*model.BulkResult, error) {
	if !status.Valid() {
		return nil, customErrors.NewInvalidArgument("unknown task status")
	}
	result := model.NewBulkResult()
	for _, id := range taskIDs {
		if _, err := s.UpdateStatus(ctx, userID, id, status); err != nil {
			s.logger.Warn("bulk status update item failed",
				zap.String("task_id", id.String()), zap.Error(err))
			result.Record(id, false)
			continue
		}
		result.Record(id, true)
	}
	return result, nil
}

func (s *taskService) BulkDelete(ctx context.Context, userID uuid.UUID, taskIDs []uuid.UUID) (*model.BulkResult, error) {
	result := model.NewBulkResult()
	for _, id := range taskIDs {
		if err := s.tasks.Delete(ctx, userID, id); err != nil {
			s.logger.Warn("bulk delete item failed",
				zap.String("task_id", id.String()), zap.Error(err))
			result.Record(id, false)
			continue
		}
		result.Record(id, true)
	}
	return result, nil
}

func (s *taskService) FindConflicts(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Task, error) {
	return s.conflicts.FindConflicts(ctx, userID, start, end, excludeID)
}

func (s *taskService) Overdue(ctx context.Context, userID uuid.UUID) ([]model.Task, error) {
	return s.tasks.ListOverdue(ctx, userID, time.Now())
}

func (s *taskService) InRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]model.Task, error) {
	if !end.After(start) {
		return nil, customErrors.NewInvalidArgument("end date must be after start date")
	}
	return s.tasks.ListInRange(ctx, userID, start, end)
}

// Stats aggregates in the store, so counts stay exact regardless of how
// many tasks the user has.
func (s *taskService) Stats(ctx context.Context, userID uuid.UUID) (Statistics, error) {
	byStatus, err := s.tasks.CountByStatus(ctx, userID)
	if err != nil {
		return Statistics{}, customErrors.WrapInternal(err, "Stats")
	}
	byPriority, err := s.tasks.CountByPriority(ctx, userID)
	if err != nil {
		return Statistics{}, customErrors.WrapInternal(err, "Stats")
	}
	now := time.Now()
	overdue, err := s.tasks.CountOverdue(ctx, userID, now)
	if err != nil {
		return Statistics{}, customErrors.WrapInternal(err, "Stats")
	}

	stats := Statistics{
		ByStatus:     byStatus,
		ByPriority:   byPriority,
		OverdueCount: int(overdue),
	}
	for status, n := range byStatus {
		stats.Total += n
		if status.IsActive() {
			stats.ActiveCount += n
		}
	}

	weekStart := now.Truncate(24 * time.Hour).AddDate(0, 0, -int((now.Weekday()+6)%7))
	weekTasks, err := s.tasks.ListInRange(ctx, userID, weekStart, weekStart.AddDate(0, 0, 7))
	if err != nil {
		return Statistics{}, customErrors.WrapInternal(err, "Stats")
	}
	stats.ThisWeekTotal = len(weekTasks)
	for _, t := range weekTasks {
		if t.Status == model.StatusCompleted {
			stats.ThisWeekCompleted++
		}
	}

	return stats, nil
}

func applyDefaults(t *model.Task) {
	if t.Color == "" {
		t.Color = model.DefaultTaskColor
	}
	if t.Status == "" {
		t.Status = model.StatusPending
	}
	if t.Priority == 0 {
		t.Priority = model.PriorityMedium
	}
	if t.Category == "" {
		t.Category = model.CategoryOther
	}
}

func applyUpdates(t *model.Task, in UpdateInput) {
	if in.Name != nil {
		t.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.StartTime != nil {
		t.StartTime = *in.StartTime
	}
	if in.EndTime != nil {
		t.EndTime = *in.EndTime
	}
	if in.Color != nil {
		t.Color = *in.Color
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Category != nil {
		t.Category = *in.Category
	}
}

func validateTask(t model.Task) error {
	if t.Name == "" {
		return customErrors.NewInvalidArgument("task name cannot be empty")
	}
	if len(t.Name) > maxNameLen {
		return customErrors.NewInvalidArgument("task name too long")
	}
	if len(t.Description) > maxDescriptionLen {
		return customErrors.NewInvalidArgument("task description too long")
	}
	if !t.EndTime.After(t.StartTime) {
		return customErrors.NewInvalidArgument("end time must be after start time")
	}
	if d := t.Duration(); d < MinTaskDuration {
		return customErrors.NewInvalidArgument("task duration must be at least 5 minutes")
	} else if d > MaxTaskDuration {
		return customErrors.NewInvalidArgument("task duration cannot exceed 7 days")
	}
	if !validColor(t.Color) {
		return customErrors.NewInvalidArgument("color must be in #RRGGBB format")
	}
	if !t.Status.Valid() {
		return customErrors.NewInvalidArgument("unknown task status")
	}
	if !t.Priority.Valid() {
		return customErrors.NewInvalidArgument("priority must be between 1 and 5")
	}
	if !t.Category.Valid() {
		return customErrors.NewInvalidArgument("unknown task category")
	}
	return nil
}

func validColor(c string) bool {
	if len(c) != 7 || c[0] != '#' {
		return false
	}
	for _, r := range c[1:] {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
