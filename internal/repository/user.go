package repository

import (
	"context"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
)

type UserRepository interface {
	// Create inserts the user and fills in ID and timestamps. Returns
	// domain.ErrUserAlreadyExists on a name or email collision.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// FindByEmail expects an already normalized address.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	SetConfirmed(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateName(ctx context.Context, id, name string) error
	UpdateEmail(ctx context.Context, id, email string) error
}
