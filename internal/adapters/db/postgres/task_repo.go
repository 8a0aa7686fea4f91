package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/domain/model"
)

type TaskRepo struct {
	db *gorm.DB
}

func NewTaskRepo(db *gorm.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

func (p *TaskRepo) Create(ctx context.Context, task model.Task) (model.Task, error) {
	res := p.db.WithContext(ctx).Create(&task)
	if err := res.Error; err != nil {
		return model.Task{}, customErrors.WrapInternal(err, "CreateTask")
	}
	return task, nil
}

// GetByID is scoped by owner: a task belonging to another user is
// indistinguishable from a missing one.
func (p *TaskRepo) GetByID(ctx context.Context, userID, taskID uuid.UUID) (model.Task, error) {
	var t model.Task
	res := p.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, userID).
		First(&t)
	if errors.Is(res.Error, gorm.ErrRecordNotFound) {
		return model.Task{}, customErrors.NewTaskNotFound(taskID)
	}
	if err := res.Error; err != nil {
		return model.Task{}, customErrors.WrapInternal(err, "GetTask")
	}
	return t, nil
}

func (p *TaskRepo) ListByUser(ctx context.Context, userID uuid.UUID, f model.TaskFilter) ([]model.Task, int64, error) {
	q := p.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", userID)

	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.Priority != nil {
		q = q.Where("priority = ?", *f.Priority)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.NameContains != "" {
		q = q.Where("name LIKE ?", "%"+f.NameContains+"%")
	}
	if f.StartDate != nil {
		q = q.Where("end_time >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		q = q.Where("start_time <= ?", *f.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, customErrors.WrapInternal(err, "CountTasks")
	}

	sortBy := f.SortBy
	if !model.SortableTaskFields[sortBy] {
		sortBy = "start_time"
	}
	order := sortBy + " asc"
	if f.SortDesc {
		order = sortBy + " desc"
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var tasks []model.Task
	if err := q.Order(order).Limit(limit).Offset(f.Offset).Find(&tasks).Error; err != nil {
		return nil, 0, customErrors.WrapInternal(err, "ListTasks")
	}
	return tasks, total, nil
}

func (p *TaskRepo) Update(ctx context.Context, task model.Task) (model.Task, error) {
	res := p.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND user_id = ?", task.ID, task.UserID).
		Select("name", "description", "start_time", "end_time",
			"color", "status", "priority", "category", "updated_at").
		Updates(map[string]interface{}{
			"name":        task.Name,
			"description": task.Description,
			"start_time":  task.StartTime,
			"end_time":    task.EndTime,
			"color":       task.Color,
			"status":      task.Status,
			"priority":    task.Priority,
			"category":    task.Category,
			"updated_at":  time.Now(),
		})
	if err := res.Error; err != nil {
		return model.Task{}, customErrors.WrapInternal(err, "UpdateTask")
	}
	if res.RowsAffected == 0 {
		return model.Task{}, customErrors.NewTaskNotFound(task.ID)
	}
	return p.GetByID(ctx, task.UserID, task.ID)
}

func (p *TaskRepo) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	res := p.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", taskID, userID).
		Delete(&model.Task{})
	if err := res.Error; err != nil {
		return customErrors.WrapInternal(err, "DeleteTask")
	}
	if res.RowsAffected == 0 {
		return customErrors.NewTaskNotFound(taskID)
	}
	return nil
}

func (p *TaskRepo) ListConflicting(ctx context.Context, userID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]model.Task, error) {
	q := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("status IN ?", model.ActiveStatuses()).
		Where("start_time < ? AND end_time > ?", end, start)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var tasks []model.Task
	if err := q.Order("start_time asc").Find(&tasks).Error; err != nil {
		return nil, customErrors.WrapInternal(err, "ListConflicting")
	}
	return tasks, nil
}

func (p *TaskRepo) ListOverdue(ctx context.Context, userID uuid.UUID, now time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("status IN ?", model.ActiveStatuses()).
		Where("end_time < ?", now).
		Order("end_time asc").
		Find(&tasks).Error
	if err != nil {
		return nil, customErrors.WrapInternal(err, "ListOverdue")
	}
	return tasks, nil
}

func (p *TaskRepo) CountByStatus(ctx context.Context, userID uuid.UUID) (map[model.TaskStatus]int64, error) {
	var rows []struct {
		Status model.TaskStatus
		N      int64
	}
	err := p.db.WithContext(ctx).Model(&model.Task{}).
		Select("status, count(*) as n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, customErrors.WrapInternal(err, "CountByStatus")
	}
	out := make(map[model.TaskStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}

func (p *TaskRepo) CountByPriority(ctx context.Context, userID uuid.UUID) (map[model.TaskPriority]int64, error) {
	var rows []struct {
		Priority model.TaskPriority
		N        int64
	}
	err := p.db.WithContext(ctx).Model(&model.Task{}).
		Select("priority, count(*) as n").
		Where("user_id = ?", userID).
		Group("priority").
		Scan(&rows).Error
	if err != nil {
		return nil, customErrors.WrapInternal(err, "CountByPriority")
	}
	out := make(map[model.TaskPriority]int64, len(rows))
	for _, r := range rows {
		out[r.Priority] = r.N
	}
	return out, nil
}

func (p *TaskRepo) CountOverdue(ctx context.Context, userID uuid.UUID, now time.Time) (int64, error) {
	var n int64
	err := p.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ?", userID).
		Where("status IN ?", model.ActiveStatuses()).
		Where("end_time < ?", now).
		Count(&n).Error
	if err != nil {
		return 0, customErrors.WrapInternal(err, "CountOverdue")
	}
	return n, nil
}

func (p *TaskRepo) ListInRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]model.Task, error) {
	var tasks []model.Task
	err := p.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Where("start_time < ? AND end_time > ?", end, start).
		Order("start_time asc").
		Find(&tasks).Error
	if err != nil {
		return nil, customErrors.WrapInternal(err, "ListInRange")
	}
	return tasks, nil
}
