package httptransport

import (
	"log/slog"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/transport/http/handler"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/middleware"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/respond"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type Handlers struct {
	Auth    *handler.AuthHandler
	Project *handler.ProjectHandler
	Team    *handler.TeamHandler
	Task    *handler.TaskHandler
	Note    *handler.NoteHandler
}

type RouterConfig struct {
	Logger         *slog.Logger
	Verifier       middleware.TokenVerifier
	Guard          *middleware.Guard
	Limiter        middleware.Limiter // nil disables rate limiting
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	logger := cfg.Logger

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, logger, respond.ErrRouteNotFound)
	})

	// Code-issuing endpoints are limited per client IP.
	limited := func(hf gin.HandlerFunc) []gin.HandlerFunc {
		if cfg.Limiter == nil {
			return []gin.HandlerFunc{hf}
		}
		return []gin.HandlerFunc{middleware.RateLimit(cfg.Limiter, logger), hf}
	}

	authMW := middleware.Auth(cfg.Verifier, logger)
	g := cfg.Guard

	api := r.Group("/api/v1")

	auth := api.Group("/auth")
	auth.POST("/register", limited(h.Auth.Register)...)
	auth.POST("/request-code", limited(h.Auth.RequestCode)...)
	auth.POST("/confirm", h.Auth.Confirm)
	auth.POST("/forgot-password", limited(h.Auth.ForgotPassword)...)
	auth.POST("/validate-token", h.Auth.ValidateToken)
	auth.POST("/update-password/:token", h.Auth.ResetPassword)
	auth.POST("/login", limited(h.Auth.Login)...)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/user", authMW, h.Auth.User)
	auth.PUT("/profile", authMW, h.Auth.UpdateProfile)
	auth.POST("/update-email/:token", authMW, h.Auth.ConfirmEmailChange)
	auth.PUT("/update-password", authMW, h.Auth.ChangePassword)

	projects := api.Group("/projects", authMW)
	projects.POST("", h.Project.Create)
	projects.GET("", h.Project.List)

	project := projects.Group("/:projectId", g.LoadProject())
	project.GET("", h.Project.Get)
	project.PUT("", g.RequireManager(), h.Project.Update)
	project.DELETE("", g.RequireManager(), h.Project.Delete)

	team := project.Group("/team", g.RequireManager())
	team.GET("", h.Team.List)
	team.POST("/find", h.Team.Find)
	team.POST("", h.Team.Add)
	team.DELETE("/:userId", h.Team.Remove)

	project.POST("/tasks", g.RequireManager(), h.Task.Create)
	project.GET("/tasks", h.Task.List)

	task := project.Group("/tasks/:taskId", g.LoadTask())
	task.GET("", h.Task.Get)
	task.PUT("", g.RequireManager(), h.Task.Update)
	task.DELETE("", g.RequireManager(), h.Task.Delete)
	task.POST("/status", h.Task.UpdateStatus)

	task.POST("/notes", h.Note.Create)
	task.GET("/notes", h.Note.List)

	note := task.Group("/notes/:noteId", g.LoadNote(), g.RequireNoteAuthor())
	note.PUT("", h.Note.Update)
	note.DELETE("", h.Note.Delete)

	return r
}
