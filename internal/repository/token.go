package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
)

type TokenRepository interface {
	Create(ctx context.Context, token *domain.Token) error

	// Consume atomically deletes and returns the token matching code and type
	// if it has not expired at now. Two concurrent calls with the same code
	// cannot both succeed. Returns domain.ErrTokenInvalid otherwise.
	Consume(ctx context.Context, code string, tokenType domain.TokenType, now time.Time) (*domain.Token, error)

	// ConsumeForUser is Consume restricted to tokens owned by userID.
	ConsumeForUser(ctx context.Context, userID, code string, tokenType domain.TokenType, now time.Time) (*domain.Token, error)

	// FindActive looks a token up without consuming it.
	FindActive(ctx context.Context, code string, tokenType domain.TokenType, now time.Time) (*domain.Token, error)

	DeleteByUserAndType(ctx context.Context, userID string, tokenType domain.TokenType) error

	// DeleteExpired removes up to limit tokens that expired before now.
	DeleteExpired(ctx context.Context, now time.Time, limit int) (int, error)
}
