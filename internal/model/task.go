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
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID           uuid.UUID    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey"`
	Title        string       `gorm:"not null"`
	Description  string
	Status       TaskStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
	Priority     TaskPriority `gorm:"type:varchar(10);not null;default:'medium'"`
	DueDate      *time.Time
	CreatedBy    uuid.UUID  `gorm:"type:uuid;not null"`
	ParentTaskID *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Creator User  `gorm:"foreignKey:CreatedBy"`
	Parent  *Task `gorm:"foreignKey:ParentTaskID"`
}

// TaskAssignee links a task to a user; at most one row per (task, user).
type TaskAssignee struct {
	TaskID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	IsOwner bool      `gorm:"not null;default:false"`

	Task Task `gorm:"foreignKey:TaskID"`
	User User `gorm:"foreignKey:UserID"`
}

// TaskDependency is a directed edge: the task cannot complete until the
// depends-on task completes.
type TaskDependency struct {
	TaskID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	DependsOnTaskID uuid.UUID `gorm:"type:uuid;primaryKey;index"`

	Task      Task `gorm:"foreignKey:TaskID"`
	DependsOn Task `gorm:"foreignKey:DependsOnTaskID"`
}

// TaskDetail is a task with its relations resolved.
type TaskDetail struct {
	Task
	Subtasks     []Task
	Dependencies []Task
	BlockedBy    []Task
	Assignees    []User
}

// TaskPatch describes a partial update to one task. Nil pointers mean the
// field was absent; Optional fields additionally distinguish an explicit
// null. Nil slices leave the relation untouched, a supplied slice (empty
// included) replaces the whole set.
type TaskPatch struct {
	ID           uuid.UUID
	Title        *string
	Description  Optional[string]
	Status       *TaskStatus
	Priority     *TaskPriority
	DueDate      Optional[time.Time]
	ParentTaskID Optional[uuid.UUID]
	AssigneeIDs  *[]uuid.UUID
	DependsOnIDs *[]uuid.UUID
	BlockedByIDs *[]uuid.UUID
}
