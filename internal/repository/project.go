package repository

import (
	"context"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	// ListForUser returns projects the user manages or is a team member of.
	ListForUser(ctx context.Context, userID string) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	// Delete removes the project with its tasks and their notes.
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, projectID, userID string) error
	RemoveMember(ctx context.Context, projectID, userID string) error
	ListMembers(ctx context.Context, projectID string) ([]*domain.User, error)
}

type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	Update(ctx context.Context, t *domain.Task) error
	// UpdateStatus sets the status and appends to the change history, keeping
	// only the latest domain.MaxStatusChanges entries.
	UpdateStatus(ctx context.Context, id string, change domain.StatusChange) (*domain.Task, error)
	Delete(ctx context.Context, id string) error
}

type NoteRepository interface {
	Create(ctx context.Context, n *domain.Note) error
	GetByID(ctx context.Context, id string) (*domain.Note, error)
	ListByTask(ctx context.Context, taskID string) ([]*domain.Note, error)
	UpdateContent(ctx context.Context, id, content string) (*domain.Note, error)
	Delete(ctx context.Context, id string) error
}
