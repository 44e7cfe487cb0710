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

type projectUsecaser interface {
	Create(ctx context.Context, managerID string, in usecase.ProjectInput) (*domain.Project, error)
	List(ctx context.Context, userID string) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project, in usecase.ProjectInput) (*domain.Project, error)
	Delete(ctx context.Context, p *domain.Project) error
}

// ProjectHandler serves /projects. Per-project routes run behind
// Guard.LoadProject, which puts the project on the context.
type ProjectHandler struct {
	projects projectUsecaser
	logger   *slog.Logger
}

func NewProjectHandler(projects projectUsecaser, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{
		projects: projects,
		logger:   logger.With("component", "project_handler"),
	}
}

type projectRequest struct {
	ProjectName string `json:"projectName" binding:"required,max=200"`
	ClientName  string `json:"clientName" binding:"required,max=200"`
	Description string `json:"description" binding:"required,max=2000"`
}

func (r projectRequest) input() usecase.ProjectInput {
	return usecase.ProjectInput{
		ProjectName: r.ProjectName,
		ClientName:  r.ClientName,
		Description: r.Description,
	}
}

// POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.projects.Create(c.Request.Context(), middleware.UserID(c), req.input())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusCreated, toProjectResponse(p))
}

// GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	out := make([]projectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, toProjectResponse(p))
	}
	respond.OK(c, http.StatusOK, out)
}

// GET /projects/:projectId
func (h *ProjectHandler) Get(c *gin.Context) {
	respond.OK(c, http.StatusOK, toProjectResponse(middleware.Project(c)))
}

// PUT /projects/:projectId
func (h *ProjectHandler) Update(c *gin.Context) {
	var req projectRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.projects.Update(c.Request.Context(), middleware.Project(c), req.input())
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, toProjectResponse(p))
}

// DELETE /projects/:projectId
func (h *ProjectHandler) Delete(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), middleware.Project(c)); err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, messageResponse{Message: "Project deleted"})
}
