package repository

import (
	"context"
	"time"

	"taskhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Aggregate rows produced by the analytics queries. Every query is a full
// re-scan of the current state; nothing is cached.

type UserTaskCount struct {
	UserID        uuid.UUID
	UserName      string
	AssignedTasks int64
}

type UserStatusCount struct {
	UserID   uuid.UUID
	UserName string
	Status   model.TaskStatus
	Count    int64
}

type UserOverdueCount struct {
	UserID       uuid.UUID
	OverdueTasks int64
}

type UnassignedTask struct {
	ID      uuid.UUID
	Title   string
	Status  model.TaskStatus
	DueDate *time.Time
}

type AnalyticsRepository struct {
	db *gorm.DB
}

type AnalyticsRepositoryInterface interface {
	TaskDistribution(ctx context.Context) ([]UserTaskCount, error)
	StatusBreakdown(ctx context.Context) ([]UserStatusCount, error)
	OverdueCounts(ctx context.Context, today time.Time) ([]UserOverdueCount, error)
	UnassignedTasks(ctx context.Context) ([]UnassignedTask, error)
}

var _ AnalyticsRepositoryInterface = (*AnalyticsRepository)(nil)

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// TaskDistribution counts assigned tasks per user.
func (r *AnalyticsRepository) TaskDistribution(ctx context.Context) ([]UserTaskCount, error) {
	var rows []UserTaskCount
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("users.id AS user_id, users.full_name AS user_name, COUNT(task_assignees.task_id) AS assigned_tasks").
		Joins("JOIN task_assignees ON task_assignees.user_id = users.id").
		Group("users.id, users.full_name").
		Scan(&rows).Error
	return rows, err
}

// StatusBreakdown counts assigned tasks per user per status.
func (r *AnalyticsRepository) StatusBreakdown(ctx context.Context) ([]UserStatusCount, error) {
	var rows []UserStatusCount
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("users.id AS user_id, users.full_name AS user_name, tasks.status AS status, COUNT(tasks.id) AS count").
		Joins("JOIN task_assignees ON task_assignees.user_id = users.id").
		Joins("JOIN tasks ON tasks.id = task_assignees.task_id").
		Group("users.id, users.full_name, tasks.status").
		Scan(&rows).Error
	return rows, err
}

// OverdueCounts counts, per user, assigned tasks that are not completed and
// whose due date falls strictly before today (date-only comparison).
func (r *AnalyticsRepository) OverdueCounts(ctx context.Context, today time.Time) ([]UserOverdueCount, error) {
	var rows []UserOverdueCount
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("users.id AS user_id, COUNT(tasks.id) AS overdue_tasks").
		Joins("JOIN task_assignees ON task_assignees.user_id = users.id").
		Joins("JOIN tasks ON tasks.id = task_assignees.task_id").
		Where("tasks.due_date < ? AND tasks.status <> ?", today, model.StatusCompleted).
		Group("users.id").
		Scan(&rows).Error
	return rows, err
}

// UnassignedTasks lists tasks with zero assignees.
func (r *AnalyticsRepository) UnassignedTasks(ctx context.Context) ([]UnassignedTask, error) {
	var rows []UnassignedTask
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("tasks.id, tasks.title, tasks.status, tasks.due_date").
		Joins("LEFT JOIN task_assignees ON task_assignees.task_id = tasks.id").
		Where("task_assignees.task_id IS NULL").
		Scan(&rows).Error
	return rows, err
}
