package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/middleware"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/respond"
	"github.com/gin-gonic/gin"
)

type teamUsecaser interface {
	Members(ctx context.Context, p *domain.Project) ([]*domain.User, error)
	FindByEmail(ctx context.Context, addr string) (*domain.User, error)
	Add(ctx context.Context, p *domain.Project, userID string) error
	Remove(ctx context.Context, p *domain.Project, userID string) error
}

type TeamHandler struct {
	team   teamUsecaser
	logger *slog.Logger
}

func NewTeamHandler(team teamUsecaser, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{
		team:   team,
		logger: logger.With("component", "team_handler"),
	}
}

type addMemberRequest struct {
	ID string `json:"id" binding:"required,uuid"`
}

type memberURI struct {
	UserID string `uri:"userId" binding:"required,uuid"`
}

// GET /projects/:projectId/team
func (h *TeamHandler) List(c *gin.Context) {
	members, err := h.team.Members(c.Request.Context(), middleware.Project(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, toUserResponses(members))
}

// POST /projects/:projectId/team/find
func (h *TeamHandler) Find(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.team.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, toUserResponse(user))
}

// POST /projects/:projectId/team
func (h *TeamHandler) Add(c *gin.Context) {
	var req addMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.team.Add(c.Request.Context(), middleware.Project(c), req.ID); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, messageResponse{Message: "User added to the project"})
}

// DELETE /projects/:projectId/team/:userId
func (h *TeamHandler) Remove(c *gin.Context) {
	var uri memberURI
	if !bindURI(c, &uri) {
		return
	}

	if err := h.team.Remove(c.Request.Context(), middleware.Project(c), uri.UserID); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, messageResponse{Message: "User removed from the project"})
}
