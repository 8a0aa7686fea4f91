package model

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusCancelled  TaskStatus = "cancelled"
	StatusBlocked    TaskStatus = "blocked"
)

// ActiveStatuses are the states that still occupy a time slot: only they
// participate in schedule-conflict checks.
func ActiveStatuses() []TaskStatus {
	return []TaskStatus{StatusPending, StatusInProgress, StatusBlocked}
}

func (s TaskStatus) IsActive() bool {
	return s == StatusPending || s == StatusInProgress || s == StatusBlocked
}

// IsTerminal reports whether the status admits no further transitions.
func (s TaskStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusBlocked:
		return true
	}
	return false
}

type TaskPriority int

const (
	PriorityLow      TaskPriority = 1
	PriorityMedium   TaskPriority = 2
	PriorityHigh     TaskPriority = 3
	PriorityUrgent   TaskPriority = 4
	PriorityCritical TaskPriority = 5
)

func (p TaskPriority) Valid() bool { return p >= PriorityLow && p <= PriorityCritical }

func (p TaskPriority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	case PriorityUrgent:
		return "Urgent"
	case PriorityCritical:
		return "Critical"
	}
	return "Unknown"
}

type TaskCategory string

const (
	CategoryWork      TaskCategory = "work"
	CategoryPersonal  TaskCategory = "personal"
	CategoryHealth    TaskCategory = "health"
	CategoryEducation TaskCategory = "education"
	CategoryFinance   TaskCategory = "finance"
	CategorySocial    TaskCategory = "social"
	CategoryHousehold TaskCategory = "household"
	CategoryOther     TaskCategory = "other"
)

func (c TaskCategory) Valid() bool {
	switch c {
	case CategoryWork, CategoryPersonal, CategoryHealth, CategoryEducation,
		CategoryFinance, CategorySocial, CategoryHousehold, CategoryOther:
		return true
	}
	return false
}

const DefaultTaskColor = "#3498DB"

type Task struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"type:uuid;index;not null"`
	Name        string    `gorm:"not null"`
	Description string
	StartTime   time.Time  `gorm:"not null"`
	EndTime     time.Time  `gorm:"not null"`
	Color       string     `gorm:"default:'#3498DB'"`
	Status      TaskStatus `gorm:"default:'pending'"`
	Priority    TaskPriority
	Category    TaskCategory
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (t Task) Duration() time.Duration { return t.EndTime.Sub(t.StartTime) }

func (t Task) IsOverdue(now time.Time) bool {
	return t.Status.IsActive() && now.After(t.EndTime)
}

// SortableTaskFields is the whitelist for list ordering. Anything else falls
// back to start_time.
var SortableTaskFields = map[string]bool{
	"start_time": true,
	"end_time":   true,
	"name":       true,
	"status":     true,
	"priority":   true,
	"category":   true,
	"created_at": true,
	"updated_at": true,
}

// TaskFilter narrows and pages a per-user task listing.
type TaskFilter struct {
	Status       *TaskStatus
	Priority     *TaskPriority
	Category     *TaskCategory
	NameContains string
	StartDate    *time.Time
	EndDate      *time.Time
	Offset       int
	Limit        int
	SortBy       string
	SortDesc     bool
}

// BulkResult reports a per-item bulk operation outcome: one entry per
// requested id, with aggregate counts for the caller.
type BulkResult struct {
	Succeeded map[uuid.UUID]bool
	OK        int
	Failed    int
}

func NewBulkResult() *BulkResult {
	return &BulkResult{Succeeded: make(map[uuid.UUID]bool)}
}

func (b *BulkResult) Record(id uuid.UUID, ok bool) {
	b.Succeeded[id] = ok
	if ok {
		b.OK++
	} else {
		b.Failed++
	}
}
