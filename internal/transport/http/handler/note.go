package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/middleware"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/respond"
	"github.com/gin-gonic/gin"
)

type noteUsecaser interface {
	Create(ctx context.Context, t *domain.Task, authorID, content string) (*domain.Note, error)
	List(ctx context.Context, t *domain.Task) ([]*domain.Note, error)
	Update(ctx context.Context, n *domain.Note, content string) (*domain.Note, error)
	Delete(ctx context.Context, n *domain.Note) error
}

type NoteHandler struct {
	notes  noteUsecaser
	logger *slog.Logger
}

func NewNoteHandler(notes noteUsecaser, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{
		notes:  notes,
		logger: logger.With("component", "note_handler"),
	}
}

type noteRequest struct {
	Content string `json:"content" binding:"required,max=5000"`
}

func (h *NoteHandler) Create(c *gin.Context) {
	var req noteRequest
	if !bindJSON(c, &req) {
		return
	}

	n, err := h.notes.Create(c.Request.Context(), middleware.Task(c), middleware.UserID(c), req.Content)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusCreated, toNoteResponse(n))
}

func (h *NoteHandler) List(c *gin.Context) {
	notes, err := h.notes.List(c.Request.Context(), middleware.Task(c))
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	out := make([]noteResponse, 0, len(notes))
	for _, n := range notes {
		out = append(out, toNoteResponse(n))
	}
	respond.OK(c, http.StatusOK, out)
}

func (h *NoteHandler) Update(c *gin.Context) {
	var req noteRequest
	if !bindJSON(c, &req) {
		return
	}

	n, err := h.notes.Update(c.Request.Context(), middleware.Note(c), req.Content)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, toNoteResponse(n))
}

func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), middleware.Note(c)); err != nil {
		respond.Error(c, h.logger, err)
		return
	}
	respond.OK(c, http.StatusOK, messageResponse{Message: "Note deleted"})
}
