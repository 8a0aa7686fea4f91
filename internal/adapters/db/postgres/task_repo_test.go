package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	customErrors "tasknest/internal/domain/errors"
	"tasknest/internal/domain/model"
)

func at(hour, min int) time.Time {
	return time.Date(2026, time.March, 2, hour, min, 0, 0, time.UTC)
}

func testTask(userID uuid.UUID, start, end time.Time) model.Task {
	return model.Task{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      "meeting",
		StartTime: start,
		EndTime:   end,
		Color:     model.DefaultTaskColor,
		Status:    model.StatusPending,
		Priority:  model.PriorityMedium,
		Category:  model.CategoryWork,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func TestTaskRepo_CreateAndGet(t *testing.T) {
	repo := NewTaskRepo(setupDB(t))
	ctx := context.Background()
	userID := uuid.New()

	task, err := repo.Create(ctx, testTask(userID, at(9, 0), at(10, 0)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, userID, task.ID)
	if err != nil || got.Name != "meeting" {
		t.Fatalf("get: %v", err)
	}

	// other users cannot see the task
	if _, err := repo.GetByID(ctx, uuid.New(), task.ID); !customErrors.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestTaskRepo_UpdateScopedByOwner(t *testing.T) {
	repo := NewTaskRepo(setupDB(t))
	ctx := context.Background()
	userID := uuid.New()

	task, err := repo.Create(ctx, testTask(userID, at(9, 0), at(10, 0)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	task.Name = "standup"
	task.Status = model.StatusInProgress
	updated, err := repo.Update(ctx, task)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "standup" || updated.Status != model.StatusInProgress {
		t.Fatalf("update not persisted: %+v", updated)
	}

	task.UserID = uuid.New()
	if _, err := repo.Update(ctx, task); !customErrors.IsNotFound(err) {
		t.Fatalf("want not found for foreign owner, got %v", err)
	}
}

func TestTaskRepo_DeleteScopedByOwner(t *testing.T) {
	repo := NewTaskRepo(setupDB(t))
	ctx := context.Background()
	userID := uuid.New()

	task, err := repo.Create(ctx, testTask(userID, at(9, 0), at(10, 0)))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Delete(ctx, uuid.New(), task.ID); !customErrors.IsNotFound(err) {
		t.Fatalf("want not found for foreign owner, got %v", err)
	}
	if err := repo.Delete(ctx, userID, task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, userID, task.ID); !customErrors.IsNotFound(err) {
		t.Fatalf("want not found on second delete, got %v", err)
	}
}

func TestTaskRepo_ListByUserFilters(t *testing.T) {
	repo := NewTaskRepo(setupDB(t))
	ctx := context.Background()
	userID := uuid.New()

	a := testTask(userID, at(9, 0), at(10, 0))
	a.Name = "alpha review"
	b := testTask(userID, at(11, 0), at(12, 0))
	b.Name = "beta sync"
	b.Status = model.StatusInProgress
	for _, task := range []model.Task{a, b} {
		if _, err := repo.Create(ctx, task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := repo.Create(ctx, testTask(uuid.New(), at(9, 0), at(10, 0))); err != nil {
		t.Fatalf("create: %v", err)
	}

	tasks, total, err := repo.ListByUser(ctx, userID, model.TaskFilter{})
	if err != nil || total != 2 || len(tasks) != 2 {
		t.Fatalf("list all: total=%d len=%d err=%v", total, len(tasks), err)
	}
	if tasks[0].ID != a.ID {
		t.Fatal("default sort should be start_time ascending")
	}

	status := model.StatusInProgress
	tasks, total, err = repo.ListByUser(ctx, userID, model.TaskFilter{Status: &status})
	if err != nil || total != 1 || tasks[0].ID != b.ID {
		t.Fatalf("filter by status: total=%d err=%v", total, err)
	}

	tasks, total, err = repo.ListByUser(ctx, userID, model.TaskFilter{NameContains: "alpha"})
	if err != nil || total != 1 || tasks[0].ID != a.ID {
		t.Fatalf("filter by name: total=%d err=%v", total, err)
	}

	tasks, _, err = repo.ListByUser(ctx, userID, model.TaskFilter{SortBy: "start_time", SortDesc: true})
	if err != nil || tasks[0].ID != b.ID {
		t.Fatalf("descending sort: %v", err)
	}

	tasks, total, err = repo.ListByUser(ctx, userID, model.TaskFilter{Limit: 1, Offset: 1})
	if err != nil || total != 2 || len(tasks) != 1 {
		t.Fatalf("pagination: total=%d len=%d err=%v", total, len(tasks), err)
	}
}

func TestTaskRepo_ListConflicting(t *testing.T) {
	repo := NewTaskRepo(setupDB(t))
	ctx := context.Background()
	userID := uuid.New()

	active := testTask(userID, at(9, 0), at(10, 0))
	later := testTask(userID, at(9, 45), at(11, 0))
	done := testTask(userID, at(9, 0), at(10, 0))
	done.Status = model.StatusCompleted
	adjacent := testTask(userID, at(10, 30), at(11, 30))
	for _, task := range []model.Task{later, done, active, adjacent} {
		if _, err := repo.Create(ctx, task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	conflicts, err := repo.ListConflicting(ctx, userID, at(9, 30), at(10, 30), nil)
	if err != nil {
		t.Fatalf("list conflicting: %v", err)
	}
	if len(conflicts) != 2 {
		t.Fatalf("want 2 conflicts, got %d", len(conflicts))
	}
	if conflicts[0].ID != active.ID || conflicts[1].ID != later.ID {
		t.Fatal("conflicts not ascending by start time")
	}

	conflicts, err = repo.ListConflicting(ctx, userID, at(9, 30), at(10, 30), &active.ID)
	if err != nil || len(conflicts) != 1 || conflicts[0].ID != later.ID {
		t.Fatalf("exclude id: len=%d err=%v", len(conflicts), err)
	}
}

func TestTaskRepo_ListOverdue(t *testing.T) {
	repo := NewTaskRepo(setupDB(t))
	ctx := context.Background()
	userID := uuid.New()

	past := testTask(userID, at(8, 0), at(9, 0))
	pastDone := testTask(userID, at(7, 0), at(8, 0))
	pastDone.Status = model.StatusCompleted
	future := testTask(userID, at(11, 0), at(12, 0))
	for _, task := range []model.Task{past, pastDone, future} {
		if _, err := repo.Create(ctx, task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	overdue, err := repo.ListOverdue(ctx, userID, at(10, 0))
	if err != nil {
		t.Fatalf("list overdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != past.ID {
		t.Fatalf("want only the active past task, got %d", len(overdue))
	}
}

func TestTaskRepo_Counts(t *testing.T) {
	repo := NewTaskRepo(setupDB(t))
	ctx := context.Background()
	userID := uuid.New()

	pastPending := testTask(userID, at(8, 0), at(9, 0))
	pastDone := testTask(userID, at(7, 0), at(8, 0))
	pastDone.Status = model.StatusCompleted
	pastDone.Priority = model.PriorityHigh
	future := testTask(userID, at(11, 0), at(12, 0))
	for _, task := range []model.Task{pastPending, pastDone, future} {
		if _, err := repo.Create(ctx, task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := repo.Create(ctx, testTask(uuid.New(), at(8, 0), at(9, 0))); err != nil {
		t.Fatalf("create: %v", err)
	}

	byStatus, err := repo.CountByStatus(ctx, userID)
	if err != nil {
		t.Fatalf("count by status: %v", err)
	}
	if byStatus[model.StatusPending] != 2 || byStatus[model.StatusCompleted] != 1 {
		t.Fatalf("unexpected status counts: %v", byStatus)
	}

	byPriority, err := repo.CountByPriority(ctx, userID)
	if err != nil {
		t.Fatalf("count by priority: %v", err)
	}
	if byPriority[model.PriorityMedium] != 2 || byPriority[model.PriorityHigh] != 1 {
		t.Fatalf("unexpected priority counts: %v", byPriority)
	}

	// the completed past task is not overdue, the pending one is
	overdue, err := repo.CountOverdue(ctx, userID, at(10, 0))
	if err != nil || overdue != 1 {
		t.Fatalf("count overdue: n=%d err=%v", overdue, err)
	}
}

func TestTaskRepo_ListInRange(t *testing.T) {
	repo := NewTaskRepo(setupDB(t))
	ctx := context.Background()
	userID := uuid.New()

	morning := testTask(userID, at(9, 0), at(10, 0))
	evening := testTask(userID, at(18, 0), at(19, 0))
	for _, task := range []model.Task{evening, morning} {
		if _, err := repo.Create(ctx, task); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	tasks, err := repo.ListInRange(ctx, userID, at(8, 0), at(12, 0))
	if err != nil {
		t.Fatalf("list in range: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != morning.ID {
		t.Fatalf("want only the morning task, got %d", len(tasks))
	}
}
