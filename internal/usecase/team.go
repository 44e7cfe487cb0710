package usecase

import (
	"context"
	"fmt"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/repository"
)

type TeamUsecase struct {
	users    repository.UserRepository
	projects repository.ProjectRepository
}

func NewTeamUsecase(users repository.UserRepository, projects repository.ProjectRepository) *TeamUsecase {
	return &TeamUsecase{users: users, projects: projects}
}

func (u *TeamUsecase) Members(ctx context.Context, p *domain.Project) ([]*domain.User, error) {
	members, err := u.projects.ListMembers(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// FindByEmail lets a manager look up a user to invite.
func (u *TeamUsecase) FindByEmail(ctx context.Context, addr string) (*domain.User, error) {
	user, err := u.users.FindByEmail(ctx, domain.NormalizeEmail(addr))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (u *TeamUsecase) Add(ctx context.Context, p *domain.Project, userID string) error {
	if p.IsManager(userID) {
		return domain.ErrCannotAddManager
	}
	if p.IsMember(userID) {
		return domain.ErrUserAlreadyInTeam
	}
	if _, err := u.users.FindByID(ctx, userID); err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if err := u.projects.AddMember(ctx, p.ID, userID); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (u *TeamUsecase) Remove(ctx context.Context, p *domain.Project, userID string) error {
	if !p.IsMember(userID) {
		return domain.ErrUserNotInTeam
	}
	if err := u.projects.RemoveMember(ctx, p.ID, userID); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}
