package handler

import (
	"errors"
	"net/http"
	"time"

	"taskhub/internal/model"
	"taskhub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

type TaskHandler struct {
	taskRepo repository.TaskRepositoryInterface
}

func NewTaskHandler(taskRepo repository.TaskRepositoryInterface) *TaskHandler {
	return &TaskHandler{taskRepo: taskRepo}
}

type TaskCreateRequest struct {
	Title        string     `json:"title" binding:"required"`
	Description  string     `json:"description"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date"`
	ParentTaskID *uuid.UUID `json:"parent_task_id"`
}

type TaskUpdateRequest struct {
	ID           uuid.UUID                 `json:"id" binding:"required"`
	Title        *string                   `json:"title"`
	Description  model.Optional[string]    `json:"description"`
	Status       *string                   `json:"status"`
	Priority     *string                   `json:"priority"`
	DueDate      model.Optional[time.Time] `json:"due_date"`
	ParentTaskID model.Optional[uuid.UUID] `json:"parent_task_id"`
	AssigneeIDs  *[]uuid.UUID              `json:"assignee_ids"`
	DependsOnIDs *[]uuid.UUID              `json:"depends_on_ids"`
	BlockedByIDs *[]uuid.UUID              `json:"blocked_by_ids"`
}

type BulkTaskUpdateRequest struct {
	Tasks []TaskUpdateRequest `json:"tasks" binding:"required,min=1,dive"`
}

type TaskResponse struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Status       string  `json:"status"`
	Priority     string  `json:"priority"`
	DueDate      *string `json:"due_date,omitempty"`
	CreatedBy    string  `json:"created_by"`
	ParentTaskID *string `json:"parent_task_id,omitempty"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

type TaskSummaryResponse struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Status   string  `json:"status"`
	Priority string  `json:"priority"`
	DueDate  *string `json:"due_date,omitempty"`
}

type UserSummaryResponse struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type TaskDetailResponse struct {
	TaskResponse
	Subtasks     []TaskSummaryResponse `json:"subtasks"`
	Dependencies []TaskSummaryResponse `json:"dependencies"`
	BlockedBy    []TaskSummaryResponse `json:"blocked_by"`
	Assignees    []UserSummaryResponse `json:"assignees"`
}

// Create creates a new task owned by the authenticated user.
// @Summary Create a task
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body TaskCreateRequest true "Task data"
// @Success 201 {object} TaskResponse
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	user, ok := requirePermission(c, model.PermTaskCreate)
	if !ok {
		return
	}

	var req TaskCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	status := model.StatusPending
	if req.Status != "" {
		status = model.TaskStatus(req.Status)
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown task status"})
			return
		}
	}

	priority := model.PriorityMedium
	if req.Priority != "" {
		priority = model.TaskPriority(req.Priority)
		if !priority.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown task priority"})
			return
		}
	}

	task := &model.Task{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Status:       status,
		Priority:     priority,
		DueDate:      req.DueDate,
		CreatedBy:    user.ID,
		ParentTaskID: req.ParentTaskID,
	}

	if err := h.taskRepo.Create(c.Request.Context(), task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, toTaskResponse(task))
}

// GetByID returns the full task detail with resolved relations.
// @Summary Get a task
// @Tags Tasks
// @Security BearerAuth
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} TaskDetailResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	user, ok := requirePermission(c, model.PermTaskView)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	detail, err := h.taskRepo.GetDetail(c.Request.Context(), taskID, user.ID)
	if err != nil {
		writeTaskError(c, err)
		return
	}

	response := TaskDetailResponse{
		TaskResponse: toTaskResponse(&detail.Task),
		Subtasks:     toTaskSummaries(detail.Subtasks),
		Dependencies: toTaskSummaries(detail.Dependencies),
		BlockedBy:    toTaskSummaries(detail.BlockedBy),
		Assignees:    toUserSummaries(detail.Assignees),
	}
	c.JSON(http.StatusOK, response)
}

// Update applies a partial update to one task or a batch of tasks. The body
// is either a single update object or {"tasks": [...]}; the batch is
// all-or-nothing.
// @Summary Update tasks
// @Tags Tasks
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body TaskUpdateRequest true "Update data"
// @Success 200 {object} map[string]string
// @Router /tasks [put]
func (h *TaskHandler) Update(c *gin.Context) {
	user, ok := requirePermission(c, model.PermTaskEdit)
	if !ok {
		return
	}

	var requests []TaskUpdateRequest

	var bulk BulkTaskUpdateRequest
	if err := c.ShouldBindBodyWith(&bulk, binding.JSON); err == nil {
		requests = bulk.Tasks
	} else {
		var single TaskUpdateRequest
		if err := c.ShouldBindBodyWith(&single, binding.JSON); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		requests = []TaskUpdateRequest{single}
	}

	patches := make([]model.TaskPatch, 0, len(requests))
	for _, req := range requests {
		patch, err := req.toPatch()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		patches = append(patches, patch)
	}

	if err := h.taskRepo.Update(c.Request.Context(), user.ID, patches); err != nil {
		writeTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Tasks updated successfully"})
}

// Delete removes a childless task together with every dependency and
// assignee edge referencing it.
// @Summary Delete a task
// @Tags Tasks
// @Security BearerAuth
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	user, ok := requirePermission(c, model.PermTaskDelete)
	if !ok {
		return
	}

	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID format"})
		return
	}

	if err := h.taskRepo.Delete(c.Request.Context(), user.ID, taskID); err != nil {
		writeTaskError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (req TaskUpdateRequest) toPatch() (model.TaskPatch, error) {
	patch := model.TaskPatch{
		ID:           req.ID,
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate,
		ParentTaskID: req.ParentTaskID,
		AssigneeIDs:  req.AssigneeIDs,
		DependsOnIDs: req.DependsOnIDs,
		BlockedByIDs: req.BlockedByIDs,
	}
	if req.Status != nil {
		status := model.TaskStatus(*req.Status)
		if !status.Valid() {
			return model.TaskPatch{}, errors.New("unknown task status")
		}
		patch.Status = &status
	}
	if req.Priority != nil {
		priority := model.TaskPriority(*req.Priority)
		if !priority.Valid() {
			return model.TaskPatch{}, errors.New("unknown task priority")
		}
		patch.Priority = &priority
	}
	return patch, nil
}

func writeTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrTaskNotFound), errors.Is(err, repository.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotTaskMember):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrTaskCompleted),
		errors.Is(err, repository.ErrCompletionBlocked),
		errors.Is(err, repository.ErrTaskHasSubtasks):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Operation failed"})
	}
}

func toTaskResponse(task *model.Task) TaskResponse {
	response := TaskResponse{
		ID:          task.ID.String(),
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
		Priority:    string(task.Priority),
		CreatedBy:   task.CreatedBy.String(),
		CreatedAt:   task.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   task.UpdatedAt.Format(time.RFC3339),
	}
	if task.DueDate != nil {
		due := task.DueDate.Format(time.RFC3339)
		response.DueDate = &due
	}
	if task.ParentTaskID != nil {
		parent := task.ParentTaskID.String()
		response.ParentTaskID = &parent
	}
	return response
}

func toTaskSummaries(tasks []model.Task) []TaskSummaryResponse {
	summaries := make([]TaskSummaryResponse, 0, len(tasks))
	for _, task := range tasks {
		summary := TaskSummaryResponse{
			ID:       task.ID.String(),
			Title:    task.Title,
			Status:   string(task.Status),
			Priority: string(task.Priority),
		}
		if task.DueDate != nil {
			due := task.DueDate.Format(time.RFC3339)
			summary.DueDate = &due
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func toUserSummaries(users []model.User) []UserSummaryResponse {
	summaries := make([]UserSummaryResponse, 0, len(users))
	for _, user := range users {
		summaries = append(summaries, UserSummaryResponse{
			ID:       user.ID.String(),
			FullName: user.FullName,
			Email:    user.Email,
		})
	}
	return summaries
}
