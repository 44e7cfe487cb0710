package postgres

import (
	"context"
	"errors"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, project_id, name, description, status, created_at, updated_at`

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO tasks (project_id, name, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		t.ProjectID, t.Name, t.Description, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if pgCode(err) == codeForeignKeyViolation {
			return domain.ErrProjectNotFound
		}
		return unavailable("create task", err)
	}
	t.Changes = []domain.StatusChange{}
	return nil
}

// GetByID loads the task with its status history, oldest first.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	q := conn(ctx, r.pool)

	t, err := scanTask(q.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT user_id, status, changed_at
		FROM   task_status_changes
		WHERE  task_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, unavailable("list status changes", err)
	}
	defer rows.Close()

	t.Changes = []domain.StatusChange{}
	for rows.Next() {
		var c domain.StatusChange
		if err := rows.Scan(&c.UserID, &c.Status, &c.ChangedAt); err != nil {
			return nil, unavailable("scan status change", err)
		}
		t.Changes = append(t.Changes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list status changes", err)
	}
	return t, nil
}

func (r *TaskRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE  project_id = $1
		ORDER BY created_at`, projectID)
	if err != nil {
		return nil, unavailable("list tasks", err)
	}
	defer rows.Close()

	tasks := []*domain.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list tasks", err)
	}
	return tasks, nil
}

func (r *TaskRepository) Update(ctx context.Context, t *domain.Task) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE tasks SET name = $2, description = $3, updated_at = NOW()
		WHERE  id = $1
		RETURNING updated_at`,
		t.ID, t.Name, t.Description,
	).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return unavailable("update task", err)
	}
	return nil
}

// UpdateStatus writes three statements; callers wrap it in WithinTx.
func (r *TaskRepository) UpdateStatus(ctx context.Context, id string, change domain.StatusChange) (*domain.Task, error) {
	q := conn(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE tasks SET status = $2, updated_at = NOW() WHERE id = $1`, id, change.Status)
	if err != nil {
		return nil, unavailable("update task status", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrTaskNotFound
	}

	if _, err := q.Exec(ctx, `
		INSERT INTO task_status_changes (task_id, user_id, status, changed_at)
		VALUES ($1, $2, $3, $4)`,
		id, change.UserID, change.Status, change.ChangedAt); err != nil {
		return nil, unavailable("record status change", err)
	}

	if _, err := q.Exec(ctx, `
		DELETE FROM task_status_changes
		WHERE task_id = $1 AND id NOT IN (
			SELECT id FROM task_status_changes
			WHERE  task_id = $1
			ORDER BY id DESC
			LIMIT $2
		)`, id, domain.MaxStatusChanges); err != nil {
		return nil, unavailable("trim status changes", err)
	}

	return r.GetByID(ctx, id)
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete task", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Name, &t.Description, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidTextRepr {
			return nil, domain.ErrTaskNotFound
		}
		return nil, unavailable("scan task", err)
	}
	return &t, nil
}
