package middleware

import (
	"context"
	"log/slog"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/respond"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	projectKey = "project"
	taskKey    = "task"
	noteKey    = "note"
)

type ProjectLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
}

type TaskLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
}

type NoteLoader interface {
	GetByID(ctx context.Context, id string) (*domain.Note, error)
}

// Guard loads the resources named in the path and enforces who may touch
// them. Resources the caller cannot see answer 404 as if they did not
// exist; visible resources the caller may not modify answer 403.
type Guard struct {
	projects ProjectLoader
	tasks    TaskLoader
	notes    NoteLoader
	logger   *slog.Logger
}

func NewGuard(projects ProjectLoader, tasks TaskLoader, notes NoteLoader, logger *slog.Logger) *Guard {
	return &Guard{
		projects: projects,
		tasks:    tasks,
		notes:    notes,
		logger:   logger.With("component", "guard"),
	}
}

// LoadProject resolves :projectId. The caller must be its manager or a
// team member.
func (g *Guard) LoadProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "projectId")
		if !ok {
			respond.Abort(c, g.logger, domain.ErrProjectNotFound)
			return
		}
		p, err := g.projects.GetByID(c.Request.Context(), id)
		if err != nil {
			respond.Abort(c, g.logger, err)
			return
		}
		if !p.CanView(UserID(c)) {
			respond.Abort(c, g.logger, domain.ErrProjectNotFound)
			return
		}
		c.Set(projectKey, p)
		c.Next()
	}
}

// RequireManager runs after LoadProject.
func (g *Guard) RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Project(c).IsManager(UserID(c)) {
			respond.Abort(c, g.logger, domain.ErrUnauthorizedAction)
			return
		}
		c.Next()
	}
}

// LoadTask resolves :taskId inside the project loaded by LoadProject. A task
// of another project is not found.
func (g *Guard) LoadTask() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "taskId")
		if !ok {
			respond.Abort(c, g.logger, domain.ErrTaskNotFound)
			return
		}
		t, err := g.tasks.GetByID(c.Request.Context(), id)
		if err != nil {
			respond.Abort(c, g.logger, err)
			return
		}
		if t.ProjectID != Project(c).ID {
			respond.Abort(c, g.logger, domain.ErrTaskNotFound)
			return
		}
		c.Set(taskKey, t)
		c.Next()
	}
}

// LoadNote resolves :noteId inside the task loaded by LoadTask.
func (g *Guard) LoadNote() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "noteId")
		if !ok {
			respond.Abort(c, g.logger, domain.ErrNoteNotFound)
			return
		}
		n, err := g.notes.GetByID(c.Request.Context(), id)
		if err != nil {
			respond.Abort(c, g.logger, err)
			return
		}
		if n.TaskID != Task(c).ID {
			respond.Abort(c, g.logger, domain.ErrNoteNotFound)
			return
		}
		c.Set(noteKey, n)
		c.Next()
	}
}

// RequireNoteAuthor runs after LoadNote.
func (g *Guard) RequireNoteAuthor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if Note(c).CreatedBy != UserID(c) {
			respond.Abort(c, g.logger, domain.ErrUnauthorizedAction)
			return
		}
		c.Next()
	}
}

// pathID returns the canonical form of a uuid path parameter. Malformed ids
// cannot name a stored row, so callers answer them with not found.
func pathID(c *gin.Context, name string) (string, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return "", false
	}
	return id.String(), true
}

func Project(c *gin.Context) *domain.Project {
	p, _ := c.MustGet(projectKey).(*domain.Project)
	return p
}

func Task(c *gin.Context) *domain.Task {
	t, _ := c.MustGet(taskKey).(*domain.Task)
	return t
}

func Note(c *gin.Context) *domain.Note {
	n, _ := c.MustGet(noteKey).(*domain.Note)
	return n
}
