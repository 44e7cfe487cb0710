package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/middleware"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/respond"
	"github.com/ErlanBelekov/uptask-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

type taskUsecaser interface {
	Create(ctx context.Context, p *domain.Project, in usecase.TaskInput) (*domain.Task, error)
	List(ctx context.Context, p *domain.Project) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task, in usecase.TaskInput) (*domain.Task, error)
	UpdateStatus(ctx context.Context, t *domain.Task, userID string, status domain.TaskStatus) (*domain.Task, error)
	Delete(ctx context.Context, t *domain.Task) error
}

type TaskHandler struct {
	tasks  taskUsecaser
	logger *slog.Logger
}

func NewTaskHandler(tasks taskUsecaser, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With("component", "task_handler"),
	}
}

type taskRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	Description string `json:"description" binding:"required,max=2000"`
}

func (r taskRequest) input() usecase.TaskInput {
	return usecase.TaskInput{Name: r.Name, Description: r.Description}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// POST /projects/:projectId/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req taskRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.tasks.Create(c.Request.Context(), middleware.Project(c), req.input())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusCreated, toTaskResponse(t))
}

// GET /projects/:projectId/tasks
func (h *TaskHandler) List(c *gin.Context) {
	tasks, err := h.tasks.List(c.Request.Context(), middleware.Project(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, toTaskResponse(t))
	}
	respond.OK(c, http.StatusOK, out)
}

// GET /projects/:projectId/tasks/:taskId
func (h *TaskHandler) Get(c *gin.Context) {
	respond.OK(c, http.StatusOK, toTaskResponse(middleware.Task(c)))
}

// PUT /projects/:projectId/tasks/:taskId
func (h *TaskHandler) Update(c *gin.Context) {
	var req taskRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.tasks.Update(c.Request.Context(), middleware.Task(c), req.input())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, toTaskResponse(t))
}

// POST /projects/:projectId/tasks/:taskId/status
// Any project participant may move a task; the change is recorded.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}

	t, err := h.tasks.UpdateStatus(c.Request.Context(), middleware.Task(c), middleware.UserID(c), domain.TaskStatus(req.Status))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, toTaskResponse(t))
}

// DELETE /projects/:projectId/tasks/:taskId
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.tasks.Delete(c.Request.Context(), middleware.Task(c)); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, messageResponse{Message: "Task deleted"})
}
