package postgres

import (
	"context"
	"errors"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const noteColumns = `id, task_id, created_by, content, created_at, updated_at`

type NoteRepository struct {
	pool *pgxpool.Pool
}

func NewNoteRepository(pool *pgxpool.Pool) *NoteRepository {
	return &NoteRepository{pool: pool}
}

func (r *NoteRepository) Create(ctx context.Context, n *domain.Note) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO notes (task_id, created_by, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		n.TaskID, n.CreatedBy, n.Content,
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrTaskNotFound
		}
		return unavailable("create note", err)
	}
	return nil
}

func (r *NoteRepository) GetByID(ctx context.Context, id string) (*domain.Note, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `SELECT `+noteColumns+` FROM notes WHERE id = $1`, id)
	return scanNote(row)
}

func (r *NoteRepository) ListByTask(ctx context.Context, taskID string) ([]*domain.Note, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+noteColumns+` FROM notes
		WHERE  task_id = $1
		ORDER BY created_at`, taskID)
	if err != nil {
		return nil, unavailable("list notes", err)
	}
	defer rows.Close()

	notes := []*domain.Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list notes", err)
	}
	return notes, nil
}

func (r *NoteRepository) UpdateContent(ctx context.Context, id, content string) (*domain.Note, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE notes SET content = $2, updated_at = NOW()
		WHERE  id = $1
		RETURNING `+noteColumns, id, content)
	return scanNote(row)
}

func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete note", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}

func scanNote(row pgx.Row) (*domain.Note, error) {
	var n domain.Note
	err := row.Scan(&n.ID, &n.TaskID, &n.CreatedBy, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidTextRepr {
			return nil, domain.ErrNoteNotFound
		}
		return nil, unavailable("scan note", err)
	}
	return &n, nil
}
