package handler

import (
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/respond"
	"github.com/gin-gonic/gin"
)

// bindJSON decodes and validates the body. On failure it has already
// written the 422 response.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respond.Validation(c, err)
		return false
	}
	return true
}

func bindURI(c *gin.Context, req any) bool {
	if err := c.ShouldBindUri(req); err != nil {
		respond.Validation(c, err)
		return false
	}
	return true
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// userEnvelope wraps the account endpoints' user as {"user": {...}}.
type userEnvelope struct {
	User userResponse `json:"user"`
}

func toUserResponses(users []*domain.User) []userResponse {
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	return out
}

type projectResponse struct {
	ID          string    `json:"id"`
	ProjectName string    `json:"projectName"`
	ClientName  string    `json:"clientName"`
	Description string    `json:"description"`
	Manager     string    `json:"manager"`
	Team        []string  `json:"team"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toProjectResponse(p *domain.Project) projectResponse {
	team := p.Team
	if team == nil {
		team = []string{}
	}
	return projectResponse{
		ID:          p.ID,
		ProjectName: p.ProjectName,
		ClientName:  p.ClientName,
		Description: p.Description,
		Manager:     p.ManagerID,
		Team:        team,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type statusChangeResponse struct {
	User      string            `json:"user"`
	Status    domain.TaskStatus `json:"status"`
	ChangedAt time.Time         `json:"changedAt"`
}

type taskResponse struct {
	ID          string                 `json:"id"`
	Project     string                 `json:"project"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Status      domain.TaskStatus      `json:"status"`
	CompletedBy []statusChangeResponse `json:"completedBy"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	changes := make([]statusChangeResponse, 0, len(t.Changes))
	for _, ch := range t.Changes {
		changes = append(changes, statusChangeResponse{User: ch.UserID, Status: ch.Status, ChangedAt: ch.ChangedAt})
	}
	return taskResponse{
		ID:          t.ID,
		Project:     t.ProjectID,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		CompletedBy: changes,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

type noteResponse struct {
	ID        string    `json:"id"`
	Task      string    `json:"task"`
	CreatedBy string    `json:"createdBy"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toNoteResponse(n *domain.Note) noteResponse {
	return noteResponse{
		ID:        n.ID,
		Task:      n.TaskID,
		CreatedBy: n.CreatedBy,
		Content:   n.Content,
		CreatedAt: n.CreatedAt,
		UpdatedAt: n.UpdatedAt,
	}
}
