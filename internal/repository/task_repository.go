package repository

import (
	"context"
	"errors"

	"taskhub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

type TaskRepositoryInterface interface {
	Create(ctx context.Context, task *model.Task) error
	GetDetail(ctx context.Context, id, actorID uuid.UUID) (*model.TaskDetail, error)
	Update(ctx context.Context, actorID uuid.UUID, patches []model.TaskPatch) error
	Delete(ctx context.Context, actorID, id uuid.UUID) error
}

var _ TaskRepositoryInterface = (*TaskRepository)(nil)

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// GetDetail retrieves a task with its subtasks, dependency targets, dependent
// tasks and assignees resolved. Only the creator or an assignee may read it.
func (r *TaskRepository) GetDetail(ctx context.Context, id, actorID uuid.UUID) (*model.TaskDetail, error) {
	db := r.db.WithContext(ctx)

	var task model.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}

	member, err := isMember(db, &task, actorID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrNotTaskMember
	}

	detail := &model.TaskDetail{Task: task}

	if err := db.Where("parent_task_id = ?", task.ID).Find(&detail.Subtasks).Error; err != nil {
		return nil, err
	}

	// Tasks this task depends on
	err = db.
		Joins("JOIN task_dependencies ON task_dependencies.depends_on_task_id = tasks.id").
		Where("task_dependencies.task_id = ?", task.ID).
		Find(&detail.Dependencies).Error
	if err != nil {
		return nil, err
	}

	// Tasks that depend on this task
	err = db.
		Joins("JOIN task_dependencies ON task_dependencies.task_id = tasks.id").
		Where("task_dependencies.depends_on_task_id = ?", task.ID).
		Find(&detail.BlockedBy).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&model.User{}).
		Joins("JOIN task_assignees ON task_assignees.user_id = users.id").
		Where("task_assignees.task_id = ?", task.ID).
		Find(&detail.Assignees).Error
	if err != nil {
		return nil, err
	}

	return detail, nil
}

// Update applies a batch of partial updates. The whole batch runs in one
// transaction: the first failing task rolls back every staged change.
func (r *TaskRepository) Update(ctx context.Context, actorID uuid.UUID, patches []model.TaskPatch) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, patch := range patches {
			if err := applyPatch(tx, actorID, patch); err != nil {
				return err
			}
		}
		return nil
	})
}

func applyPatch(tx *gorm.DB, actorID uuid.UUID, p model.TaskPatch) error {
	var task model.Task
	if err := tx.First(&task, "id = ?", p.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}

	member, err := isMember(tx, &task, actorID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotTaskMember
	}

	if task.Status == model.StatusCompleted {
		return ErrTaskCompleted
	}

	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.Description.Set {
		task.Description = ""
		if p.Description.Valid {
			task.Description = p.Description.Value
		}
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
	if p.Priority != nil {
		task.Priority = *p.Priority
	}
	if p.DueDate.Set {
		task.DueDate = nil
		if p.DueDate.Valid {
			due := p.DueDate.Value
			task.DueDate = &due
		}
	}
	if p.ParentTaskID.Set {
		task.ParentTaskID = nil
		if p.ParentTaskID.Valid {
			parentID := p.ParentTaskID.Value
			task.ParentTaskID = &parentID
		}
	}

	if err := tx.Save(&task).Error; err != nil {
		return err
	}

	if p.AssigneeIDs != nil {
		if err := tx.Where("task_id = ?", task.ID).Delete(&model.TaskAssignee{}).Error; err != nil {
			return err
		}
		if len(*p.AssigneeIDs) > 0 {
			links := make([]model.TaskAssignee, 0, len(*p.AssigneeIDs))
			for _, userID := range *p.AssigneeIDs {
				links = append(links, model.TaskAssignee{TaskID: task.ID, UserID: userID})
			}
			if err := tx.Create(&links).Error; err != nil {
				return err
			}
		}
	}

	if p.DependsOnIDs != nil {
		if err := tx.Where("task_id = ?", task.ID).Delete(&model.TaskDependency{}).Error; err != nil {
			return err
		}
		if len(*p.DependsOnIDs) > 0 {
			edges := make([]model.TaskDependency, 0, len(*p.DependsOnIDs))
			for _, depID := range *p.DependsOnIDs {
				edges = append(edges, model.TaskDependency{TaskID: task.ID, DependsOnTaskID: depID})
			}
			if err := tx.Create(&edges).Error; err != nil {
				return err
			}
		}
	}

	if p.BlockedByIDs != nil {
		if err := tx.Where("depends_on_task_id = ?", task.ID).Delete(&model.TaskDependency{}).Error; err != nil {
			return err
		}
		if len(*p.BlockedByIDs) > 0 {
			edges := make([]model.TaskDependency, 0, len(*p.BlockedByIDs))
			for _, blockedID := range *p.BlockedByIDs {
				edges = append(edges, model.TaskDependency{TaskID: blockedID, DependsOnTaskID: task.ID})
			}
			if err := tx.Create(&edges).Error; err != nil {
				return err
			}
		}
	}

	// Completion gate: runs after fields and relations are staged, against the
	// data visible inside this transaction.
	if p.Status != nil && *p.Status == model.StatusCompleted {
		var incomplete int64
		err := tx.Model(&model.Task{}).
			Where("parent_task_id = ? AND status <> ?", task.ID, model.StatusCompleted).
			Count(&incomplete).Error
		if err != nil {
			return err
		}
		if incomplete > 0 {
			return ErrCompletionBlocked
		}

		err = tx.Model(&model.Task{}).
			Joins("JOIN task_dependencies ON task_dependencies.depends_on_task_id = tasks.id").
			Where("task_dependencies.task_id = ? AND tasks.status <> ?", task.ID, model.StatusCompleted).
			Count(&incomplete).Error
		if err != nil {
			return err
		}
		if incomplete > 0 {
			return ErrCompletionBlocked
		}
	}

	return nil
}

// Delete removes a task along with every dependency and assignee edge
// touching it, as one transaction. Tasks with subtasks cannot be deleted.
func (r *TaskRepository) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.Task
		if err := tx.First(&task, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTaskNotFound
			}
			return err
		}

		member, err := isMember(tx, &task, actorID)
		if err != nil {
			return err
		}
		if !member {
			return ErrNotTaskMember
		}

		var subtasks int64
		if err := tx.Model(&model.Task{}).Where("parent_task_id = ?", task.ID).Count(&subtasks).Error; err != nil {
			return err
		}
		if subtasks > 0 {
			return ErrTaskHasSubtasks
		}

		if err := tx.Where("task_id = ? OR depends_on_task_id = ?", task.ID, task.ID).
			Delete(&model.TaskDependency{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", task.ID).Delete(&model.TaskAssignee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Task{}, "id = ?", task.ID).Error
	})
}

// isMember reports whether the user created the task or is assigned to it.
func isMember(tx *gorm.DB, task *model.Task, userID uuid.UUID) (bool, error) {
	if task.CreatedBy == userID {
		return true, nil
	}
	var link model.TaskAssignee
	err := tx.Where("task_id = ? AND user_id = ?", task.ID, userID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
