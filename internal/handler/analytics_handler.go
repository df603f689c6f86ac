package handler

import (
	"net/http"
	"time"

	"taskhub/internal/model"
	"taskhub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnalyticsHandler struct {
	analyticsRepo repository.AnalyticsRepositoryInterface
}

func NewAnalyticsHandler(analyticsRepo repository.AnalyticsRepositoryInterface) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsRepo: analyticsRepo}
}

type TaskDistributionEntry struct {
	UserID        string `json:"user_id"`
	UserName      string `json:"user_name"`
	AssignedTasks int64  `json:"assigned_tasks"`
}

type UserAnalyticsEntry struct {
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name"`
	Pending    int64  `json:"pending"`
	InProgress int64  `json:"in_progress"`
	Completed  int64  `json:"completed"`
	Overdue    int64  `json:"overdue"`
	TotalTasks int64  `json:"total_tasks"`
}

type UnassignedTaskEntry struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Status  string  `json:"status"`
	DueDate *string `json:"due_date,omitempty"`
}

type UnassignedTasksResponse struct {
	Count int                   `json:"count"`
	Tasks []UnassignedTaskEntry `json:"tasks"`
}

type AnalyticsResponse struct {
	GeneratedAt      string                  `json:"generated_at"`
	TaskDistribution []TaskDistributionEntry `json:"task_distribution"`
	AnalyticsPerUser []UserAnalyticsEntry    `json:"analytics_per_user"`
	UnassignedTasks  UnassignedTasksResponse `json:"unassigned_tasks"`
}

// GetTaskAnalytics reports per-user assignment counts, status breakdowns and
// overdue counts plus the list of unassigned tasks. Each call is a fresh
// snapshot of the store.
// @Summary Task analytics
// @Tags Analytics
// @Security BearerAuth
// @Produce json
// @Success 200 {object} AnalyticsResponse
// @Router /analytics/task-distribution [get]
func (h *AnalyticsHandler) GetTaskAnalytics(c *gin.Context) {
	if _, ok := requirePermission(c, model.PermTaskView); !ok {
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	distribution, err := h.analyticsRepo.TaskDistribution(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate task distribution"})
		return
	}

	breakdown, err := h.analyticsRepo.StatusBreakdown(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate status breakdown"})
		return
	}

	overdue, err := h.analyticsRepo.OverdueCounts(ctx, today)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate overdue tasks"})
		return
	}

	unassigned, err := h.analyticsRepo.UnassignedTasks(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list unassigned tasks"})
		return
	}

	response := AnalyticsResponse{
		GeneratedAt:      now.Format(time.RFC3339),
		TaskDistribution: make([]TaskDistributionEntry, 0, len(distribution)),
		AnalyticsPerUser: assemblePerUser(breakdown, overdue),
		UnassignedTasks:  assembleUnassigned(unassigned),
	}
	for _, row := range distribution {
		response.TaskDistribution = append(response.TaskDistribution, TaskDistributionEntry{
			UserID:        row.UserID.String(),
			UserName:      row.UserName,
			AssignedTasks: row.AssignedTasks,
		})
	}

	c.JSON(http.StatusOK, response)
}

func assemblePerUser(breakdown []repository.UserStatusCount, overdue []repository.UserOverdueCount) []UserAnalyticsEntry {
	overdueByUser := make(map[uuid.UUID]int64, len(overdue))
	for _, row := range overdue {
		overdueByUser[row.UserID] = row.OverdueTasks
	}

	byUser := make(map[uuid.UUID]*UserAnalyticsEntry)
	order := make([]uuid.UUID, 0, len(breakdown))
	for _, row := range breakdown {
		entry, exists := byUser[row.UserID]
		if !exists {
			entry = &UserAnalyticsEntry{
				UserID:   row.UserID.String(),
				UserName: row.UserName,
				Overdue:  overdueByUser[row.UserID],
			}
			byUser[row.UserID] = entry
			order = append(order, row.UserID)
		}
		switch row.Status {
		case model.StatusPending:
			entry.Pending = row.Count
		case model.StatusInProgress:
			entry.InProgress = row.Count
		case model.StatusCompleted:
			entry.Completed = row.Count
		}
	}

	entries := make([]UserAnalyticsEntry, 0, len(order))
	for _, userID := range order {
		entry := byUser[userID]
		entry.TotalTasks = entry.Pending + entry.InProgress + entry.Completed
		entries = append(entries, *entry)
	}
	return entries
}

func assembleUnassigned(tasks []repository.UnassignedTask) UnassignedTasksResponse {
	response := UnassignedTasksResponse{
		Count: len(tasks),
		Tasks: make([]UnassignedTaskEntry, 0, len(tasks)),
	}
	for _, task := range tasks {
		entry := UnassignedTaskEntry{
			ID:     task.ID.String(),
			Title:  task.Title,
			Status: string(task.Status),
		}
		if task.DueDate != nil {
			due := task.DueDate.Format(time.RFC3339)
			entry.DueDate = &due
		}
		response.Tasks = append(response.Tasks, entry)
	}
	return response
}
