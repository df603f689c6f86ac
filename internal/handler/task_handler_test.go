package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"taskhub/internal/handler"
	"taskhub/internal/middleware"
	"taskhub/internal/model"
	"taskhub/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetDetail(ctx context.Context, id, actorID uuid.UUID) (*model.TaskDetail, error) {
	args := m.Called(ctx, id, actorID)
	detail := args.Get(0)
	if detail == nil {
		return nil, args.Error(1)
	}
	return detail.(*model.TaskDetail), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, actorID uuid.UUID, patches []model.TaskPatch) error {
	args := m.Called(ctx, actorID, patches)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	args := m.Called(ctx, actorID, id)
	return args.Error(0)
}

func setupTaskRouter(taskRepo *MockTaskRepository, user *model.User, perms []model.PermissionCode) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.Default()

	// Stand-in for the auth middleware
	r.Use(func(c *gin.Context) {
		c.Set(middleware.UserIDKey, user.ID)
		c.Set(middleware.UserKey, user)
		c.Set(middleware.PermissionsKey, perms)
		c.Next()
	})

	taskHandler := handler.NewTaskHandler(taskRepo)
	r.POST("/tasks", taskHandler.Create)
	r.GET("/tasks/:id", taskHandler.GetByID)
	r.PUT("/tasks", taskHandler.Update)
	r.DELETE("/tasks/:id", taskHandler.Delete)

	return r
}

func activeUser() *model.User {
	return &model.User{
		ID:       uuid.New(),
		Email:    "creator@example.com",
		FullName: "Task Creator",
		IsActive: true,
	}
}

func allTaskPerms() []model.PermissionCode {
	return model.AllPermissionCodes()
}

func TestTaskCreate_DefaultsToPendingMedium(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	body, _ := json.Marshal(handler.TaskCreateRequest{Title: "Write spec"})
	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusCreated, resp.Code)

	var response handler.TaskResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, "Write spec", response.Title)
	assert.Equal(t, "pending", response.Status)
	assert.Equal(t, "medium", response.Priority)
	assert.Equal(t, user.ID.String(), response.CreatedBy)

	mockRepo.AssertExpectations(t)
}

func TestTaskCreate_RequiresCreatePermission(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, []model.PermissionCode{model.PermTaskView})

	body, _ := json.Marshal(handler.TaskCreateRequest{Title: "Write spec"})
	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTaskCreate_InactiveUserRejected(t *testing.T) {
	user := activeUser()
	user.IsActive = false
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	body, _ := json.Marshal(handler.TaskCreateRequest{Title: "Write spec"})
	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestTaskCreate_UnknownStatusRejected(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	body, _ := json.Marshal(handler.TaskCreateRequest{Title: "Write spec", Status: "done"})
	req, _ := http.NewRequest("POST", "/tasks", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestTaskGet_NotFound(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	taskID := uuid.New()
	mockRepo.On("GetDetail", mock.Anything, taskID, user.ID).Return(nil, repository.ErrTaskNotFound)

	req, _ := http.NewRequest("GET", "/tasks/"+taskID.String(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestTaskGet_ForbiddenForNonMember(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	taskID := uuid.New()
	mockRepo.On("GetDetail", mock.Anything, taskID, user.ID).Return(nil, repository.ErrNotTaskMember)

	req, _ := http.NewRequest("GET", "/tasks/"+taskID.String(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestTaskGet_RequiresViewPermission(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, []model.PermissionCode{model.PermTaskCreate})

	req, _ := http.NewRequest("GET", "/tasks/"+uuid.New().String(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusForbidden, resp.Code)
	mockRepo.AssertNotCalled(t, "GetDetail", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskGet_ResolvesRelations(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	taskID := uuid.New()
	detail := &model.TaskDetail{
		Task: model.Task{
			ID:        taskID,
			Title:     "Write spec",
			Status:    model.StatusPending,
			Priority:  model.PriorityMedium,
			CreatedBy: user.ID,
		},
		Subtasks:     []model.Task{{ID: uuid.New(), Title: "Draft outline", Status: model.StatusPending, Priority: model.PriorityLow}},
		Dependencies: []model.Task{},
		BlockedBy:    []model.Task{},
		Assignees:    []model.User{{ID: uuid.New(), Email: "a@example.com", FullName: "Assignee A"}},
	}
	mockRepo.On("GetDetail", mock.Anything, taskID, user.ID).Return(detail, nil)

	req, _ := http.NewRequest("GET", "/tasks/"+taskID.String(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)

	var response handler.TaskDetailResponse
	assert.NoError(t, json.Unmarshal(resp.Body.Bytes(), &response))
	assert.Equal(t, taskID.String(), response.ID)
	assert.Len(t, response.Subtasks, 1)
	assert.Equal(t, "Draft outline", response.Subtasks[0].Title)
	assert.Empty(t, response.Dependencies)
	assert.Empty(t, response.BlockedBy)
	assert.Len(t, response.Assignees, 1)

	mockRepo.AssertExpectations(t)
}

func TestTaskUpdate_CompletionBlockedMapsToConflict(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	mockRepo.On("Update", mock.Anything, user.ID, mock.Anything).Return(repository.ErrCompletionBlocked)

	body := fmt.Sprintf(`{"id": %q, "status": "completed"}`, uuid.New())
	req, _ := http.NewRequest("PUT", "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusConflict, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestTaskUpdate_CompletedTaskMapsToConflict(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	mockRepo.On("Update", mock.Anything, user.ID, mock.Anything).Return(repository.ErrTaskCompleted)

	body := fmt.Sprintf(`{"id": %q, "title": "New title"}`, uuid.New())
	req, _ := http.NewRequest("PUT", "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusConflict, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestTaskUpdate_UnknownStatusRejectedBeforeStore(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	body := fmt.Sprintf(`{"id": %q, "status": "done"}`, uuid.New())
	req, _ := http.NewRequest("PUT", "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestTaskUpdate_EmptyAssigneeListReplacesAll(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	taskID := uuid.New()
	mockRepo.On("Update", mock.Anything, user.ID, mock.MatchedBy(func(patches []model.TaskPatch) bool {
		return len(patches) == 1 &&
			patches[0].ID == taskID &&
			patches[0].AssigneeIDs != nil &&
			len(*patches[0].AssigneeIDs) == 0
	})).Return(nil)

	body := fmt.Sprintf(`{"id": %q, "assignee_ids": []}`, taskID)
	req, _ := http.NewRequest("PUT", "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestTaskUpdate_NullDueDateClearsIt(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	taskID := uuid.New()
	mockRepo.On("Update", mock.Anything, user.ID, mock.MatchedBy(func(patches []model.TaskPatch) bool {
		return len(patches) == 1 &&
			patches[0].DueDate.Set && !patches[0].DueDate.Valid &&
			!patches[0].Description.Set
	})).Return(nil)

	body := fmt.Sprintf(`{"id": %q, "due_date": null}`, taskID)
	req, _ := http.NewRequest("PUT", "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestTaskUpdate_BatchBody(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	firstID := uuid.New()
	secondID := uuid.New()
	mockRepo.On("Update", mock.Anything, user.ID, mock.MatchedBy(func(patches []model.TaskPatch) bool {
		return len(patches) == 2 && patches[0].ID == firstID && patches[1].ID == secondID
	})).Return(nil)

	body := fmt.Sprintf(`{"tasks": [{"id": %q, "title": "First"}, {"id": %q, "priority": "high"}]}`, firstID, secondID)
	req, _ := http.NewRequest("PUT", "/tasks", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusOK, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestTaskDelete_WithSubtasksMapsToConflict(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	taskID := uuid.New()
	mockRepo.On("Delete", mock.Anything, user.ID, taskID).Return(repository.ErrTaskHasSubtasks)

	req, _ := http.NewRequest("DELETE", "/tasks/"+taskID.String(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusConflict, resp.Code)
	mockRepo.AssertExpectations(t)
}

func TestTaskDelete_Success(t *testing.T) {
	user := activeUser()
	mockRepo := new(MockTaskRepository)
	router := setupTaskRouter(mockRepo, user, allTaskPerms())

	taskID := uuid.New()
	mockRepo.On("Delete", mock.Anything, user.ID, taskID).Return(nil)

	req, _ := http.NewRequest("DELETE", "/tasks/"+taskID.String(), nil)

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	mockRepo.AssertExpectations(t)
}
