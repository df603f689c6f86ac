package repository

import "errors"

// Common repository errors
var (
	// ErrTaskNotFound is returned when a task is not found
	ErrTaskNotFound = errors.New("task not found")

	// ErrUserNotFound is returned when a referenced user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrNotTaskMember is returned when the acting user is neither the
	// creator nor an assignee of the task
	ErrNotTaskMember = errors.New("not authorized to access this task")

	// ErrTaskCompleted is returned when updating a task that is already completed
	ErrTaskCompleted = errors.New("cannot update a completed task")

	// ErrCompletionBlocked is returned when completing a task whose subtasks
	// or dependencies are not all completed
	ErrCompletionBlocked = errors.New("cannot mark this task as completed while subtasks or dependencies are incomplete")

	// ErrTaskHasSubtasks is returned when deleting a task that still has subtasks
	ErrTaskHasSubtasks = errors.New("cannot delete task with existing subtasks")
)
