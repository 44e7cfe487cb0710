package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/repository"
)

type TaskUsecase struct {
	tasks repository.TaskRepository
	tx    repository.Transactor
	now   func() time.Time
}

func NewTaskUsecase(tasks repository.TaskRepository, tx repository.Transactor) *TaskUsecase {
	return &TaskUsecase{tasks: tasks, tx: tx, now: time.Now}
}

type TaskInput struct {
	Name        string
	Description string
}

func (u *TaskUsecase) Create(ctx context.Context, p *domain.Project, in TaskInput) (*domain.Task, error) {
	t := &domain.Task{
		ProjectID:   p.ID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Status:      domain.TaskPending,
	}
	if err := u.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return t, nil
}

func (u *TaskUsecase) List(ctx context.Context, p *domain.Project) ([]*domain.Task, error) {
	tasks, err := u.tasks.ListByProject(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (u *TaskUsecase) Update(ctx context.Context, t *domain.Task, in TaskInput) (*domain.Task, error) {
	updated := *t
	updated.Name = strings.TrimSpace(in.Name)
	updated.Description = strings.TrimSpace(in.Description)
	if err := u.tasks.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return &updated, nil
}

// UpdateStatus sets the status and records who changed it.
func (u *TaskUsecase) UpdateStatus(ctx context.Context, t *domain.Task, userID string, status domain.TaskStatus) (*domain.Task, error) {
	if !status.Valid() {
		return nil, domain.ErrInvalidTaskStatus
	}

	var updated *domain.Task
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = u.tasks.UpdateStatus(ctx, t.ID, domain.StatusChange{
			UserID:    userID,
			Status:    status,
			ChangedAt: u.now(),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update task status: %w", err)
	}
	return updated, nil
}

func (u *TaskUsecase) Delete(ctx context.Context, t *domain.Task) error {
	if err := u.tasks.Delete(ctx, t.ID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
