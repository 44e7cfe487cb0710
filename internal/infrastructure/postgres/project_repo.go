package postgres

import (
	"context"
	"errors"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// projectSelect aggregates team member ids alongside each project row.
const projectSelect = `
	SELECT p.id, p.project_name, p.client_name, p.description, p.manager_id,
	       COALESCE(array_agg(m.user_id::text ORDER BY m.added_at) FILTER (WHERE m.user_id IS NOT NULL), '{}'),
	       p.created_at, p.updated_at
	FROM projects p
	LEFT JOIN project_members m ON m.project_id = p.id`

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) Create(ctx context.Context, p *domain.Project) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO projects (project_name, client_name, description, manager_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		p.ProjectName, p.ClientName, p.Description, p.ManagerID,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return unavailable("create project", err)
	}
	p.Team = []string{}
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	row := conn(ctx, r.pool).QueryRow(ctx, projectSelect+`
		WHERE p.id = $1
		GROUP BY p.id`, id)
	return scanProject(row)
}

func (r *ProjectRepository) ListForUser(ctx context.Context, userID string) ([]*domain.Project, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, projectSelect+`
		WHERE p.manager_id = $1
		   OR EXISTS (SELECT 1 FROM project_members pm WHERE pm.project_id = p.id AND pm.user_id = $1)
		GROUP BY p.id
		ORDER BY p.created_at DESC`, userID)
	if err != nil {
		return nil, unavailable("list projects", err)
	}
	defer rows.Close()

	projects := []*domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list projects", err)
	}
	return projects, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p *domain.Project) error {
	err := conn(ctx, r.pool).QueryRow(ctx, `
		UPDATE projects
		SET    project_name = $2, client_name = $3, description = $4, updated_at = NOW()
		WHERE  id = $1
		RETURNING updated_at`,
		p.ID, p.ProjectName, p.ClientName, p.Description,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrProjectNotFound
		}
		return unavailable("update project", err)
	}
	return nil
}

// Delete removes notes, tasks and the project itself. Run it inside
// WithinTx so the three statements commit together.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	q := conn(ctx, r.pool)

	if _, err := q.Exec(ctx,
		`DELETE FROM notes WHERE task_id IN (SELECT id FROM tasks WHERE project_id = $1)`, id); err != nil {
		return unavailable("delete project notes", err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM tasks WHERE project_id = $1`, id); err != nil {
		return unavailable("delete project tasks", err)
	}
	tag, err := q.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete project", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) AddMember(ctx context.Context, projectID, userID string) error {
	_, err := conn(ctx, r.pool).Exec(ctx,
		`INSERT INTO project_members (project_id, user_id) VALUES ($1, $2)`, projectID, userID)
	if err != nil {
		switch pgCode(err) {
		case codeUniqueViolation:
			return domain.ErrUserAlreadyInTeam
		case codeForeignKeyViolation, codeInvalidTextRepr:
			return domain.ErrUserNotFound
		}
		return unavailable("add member", err)
	}
	return nil
}

func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID, userID string) error {
	tag, err := conn(ctx, r.pool).Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		if pgCode(err) == codeInvalidTextRepr {
			return domain.ErrUserNotInTeam
		}
		return unavailable("remove member", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotInTeam
	}
	return nil
}

func (r *ProjectRepository) ListMembers(ctx context.Context, projectID string) ([]*domain.User, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT u.id, u.name, u.email, u.password_hash, u.confirmed, u.created_at, u.updated_at
		FROM   project_members m
		JOIN   users u ON u.id = m.user_id
		WHERE  m.project_id = $1
		ORDER BY m.added_at`, projectID)
	if err != nil {
		return nil, unavailable("list members", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list members", err)
	}
	return users, nil
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.ProjectName, &p.ClientName, &p.Description, &p.ManagerID,
		&p.Team, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgCode(err) == codeInvalidTextRepr {
			return nil, domain.ErrProjectNotFound
		}
		return nil, unavailable("scan project", err)
	}
	return &p, nil
}
