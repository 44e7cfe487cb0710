package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/repository"
)

// ProjectUsecase works on projects already loaded and authorized by the
// access guard.
type ProjectUsecase struct {
	projects repository.ProjectRepository
	tx       repository.Transactor
}

func NewProjectUsecase(projects repository.ProjectRepository, tx repository.Transactor) *ProjectUsecase {
	return &ProjectUsecase{projects: projects, tx: tx}
}

type ProjectInput struct {
	ProjectName string
	ClientName  string
	Description string
}

func (in ProjectInput) trimmed() ProjectInput {
	return ProjectInput{
		ProjectName: strings.TrimSpace(in.ProjectName),
		ClientName:  strings.TrimSpace(in.ClientName),
		Description: strings.TrimSpace(in.Description),
	}
}

func (u *ProjectUsecase) Create(ctx context.Context, managerID string, in ProjectInput) (*domain.Project, error) {
	in = in.trimmed()
	p := &domain.Project{
		ProjectName: in.ProjectName,
		ClientName:  in.ClientName,
		Description: in.Description,
		ManagerID:   managerID,
	}
	if err := u.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return p, nil
}

func (u *ProjectUsecase) List(ctx context.Context, userID string) ([]*domain.Project, error) {
	projects, err := u.projects.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (u *ProjectUsecase) Update(ctx context.Context, p *domain.Project, in ProjectInput) (*domain.Project, error) {
	in = in.trimmed()
	updated := *p
	updated.ProjectName = in.ProjectName
	updated.ClientName = in.ClientName
	updated.Description = in.Description

	if err := u.projects.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	return &updated, nil
}

// Delete removes the project together with its tasks and their notes.
func (u *ProjectUsecase) Delete(ctx context.Context, p *domain.Project) error {
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		return u.projects.Delete(ctx, p.ID)
	})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}
