package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tokenColumns = `id, code, type, user_id, payload, expires_at, created_at`

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Create(ctx context.Context, t *domain.Token) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO tokens (code, type, user_id, payload, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		t.Code, t.Type, t.UserID, t.Payload, t.ExpiresAt,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrUserNotFound
		}
		return unavailable("create token", err)
	}
	return nil
}

// Consume deletes and returns one live token. FOR UPDATE SKIP LOCKED makes a
// concurrent consumer of the same code see no row instead of waiting for it.
func (r *TokenRepository) Consume(ctx context.Context, code string, tokenType domain.TokenType, now time.Time) (*domain.Token, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		DELETE FROM tokens
		WHERE id = (
			SELECT id FROM tokens
			WHERE  code = $1 AND type = $2 AND expires_at > $3
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+tokenColumns,
		code, tokenType, now,
	)
	return scanToken(row)
}

func (r *TokenRepository) ConsumeForUser(ctx context.Context, userID, code string, tokenType domain.TokenType, now time.Time) (*domain.Token, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		DELETE FROM tokens
		WHERE id = (
			SELECT id FROM tokens
			WHERE  user_id = $1 AND code = $2 AND type = $3 AND expires_at > $4
			ORDER BY created_at DESC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+tokenColumns,
		userID, code, tokenType, now,
	)
	return scanToken(row)
}

func (r *TokenRepository) FindActive(ctx context.Context, code string, tokenType domain.TokenType, now time.Time) (*domain.Token, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+tokenColumns+` FROM tokens
		WHERE  code = $1 AND type = $2 AND expires_at > $3
		ORDER BY created_at DESC
		LIMIT 1`,
		code, tokenType, now,
	)
	return scanToken(row)
}

func (r *TokenRepository) DeleteByUserAndType(ctx context.Context, userID string, tokenType domain.TokenType) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM tokens WHERE user_id = $1 AND type = $2`, userID, tokenType)
	if err != nil {
		return unavailable("delete tokens", err)
	}
	return nil
}

func (r *TokenRepository) DeleteExpired(ctx context.Context, now time.Time, limit int) (int, error) {
	tag, err := conn(ctx, r.pool).Exec(ctx, `
		DELETE FROM tokens
		WHERE id IN (
			SELECT id FROM tokens
			WHERE  expires_at <= $1
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)`, now, limit)
	if err != nil {
		return 0, unavailable("delete expired tokens", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token
	err := row.Scan(&t.ID, &t.Code, &t.Type, &t.UserID, &t.Payload, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, unavailable("scan token", err)
	}
	return &t, nil
}
