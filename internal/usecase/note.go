package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/repository"
)

type NoteUsecase struct {
	notes repository.NoteRepository
}

func NewNoteUsecase(notes repository.NoteRepository) *NoteUsecase {
	return &NoteUsecase{notes: notes}
}

func (u *NoteUsecase) Create(ctx context.Context, t *domain.Task, authorID, content string) (*domain.Note, error) {
	n := &domain.Note{
		TaskID:    t.ID,
		CreatedBy: authorID,
		Content:   strings.TrimSpace(content),
	}
	if err := u.notes.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return n, nil
}

func (u *NoteUsecase) List(ctx context.Context, t *domain.Task) ([]*domain.Note, error) {
	notes, err := u.notes.ListByTask(ctx, t.ID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

func (u *NoteUsecase) Update(ctx context.Context, n *domain.Note, content string) (*domain.Note, error) {
	updated, err := u.notes.UpdateContent(ctx, n.ID, strings.TrimSpace(content))
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	return updated, nil
}

func (u *NoteUsecase) Delete(ctx context.Context, n *domain.Note) error {
	if err := u.notes.Delete(ctx, n.ID); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}
