package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/email"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/middleware"
	"github.com/ErlanBelekov/uptask-api/internal/transport/http/respond"
	"github.com/ErlanBelekov/uptask-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

const (
	RefreshCookieName = "refresh_token"
	RefreshCookiePath = "/api/v1/auth"
)

// authUsecaser is the subset of AuthUsecase the handler needs.
// Defined here (point of use) so tests can inject a fake.
type authUsecaser interface {
	Register(ctx context.Context, in usecase.RegisterInput) (*domain.User, *email.Message, error)
	RequestConfirmationCode(ctx context.Context, addr string) (*email.Message, error)
	ConfirmAccount(ctx context.Context, code string) error
	ForgotPassword(ctx context.Context, addr string) (*email.Message, error)
	ValidateResetToken(ctx context.Context, code string) error
	ResetPassword(ctx context.Context, code, newPassword string) error
	Login(ctx context.Context, in usecase.LoginInput) (*usecase.Session, *email.Message, error)
	Refresh(ctx context.Context, refreshToken string) (*usecase.Session, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, in usecase.UpdateProfileInput) (*domain.User, *email.Message, error)
	ConfirmEmailChange(ctx context.Context, userID, code string) (*domain.User, error)
	ChangePassword(ctx context.Context, userID, current, next string) error
}

type mailDispatcher interface {
	Dispatch(ctx context.Context, msg *email.Message)
}

type CookieConfig struct {
	Secure bool
	Domain string
}

type AuthHandler struct {
	auth   authUsecaser
	mail   mailDispatcher
	cookie CookieConfig
	logger *slog.Logger
}

func NewAuthHandler(auth authUsecaser, mail mailDispatcher, cookie CookieConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   auth,
		mail:   mail,
		cookie: cookie,
		logger: logger.With("component", "auth_handler"),
	}
}

type registerRequest struct {
	Name            string `json:"name" binding:"required,max=100"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type emailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type codeRequest struct {
	Token string `json:"token" binding:"required,len=6,numeric"`
}

type codeURI struct {
	Token string `uri:"token" binding:"required,len=6,numeric"`
}

type newPasswordRequest struct {
	Password        string `json:"password" binding:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Remember bool   `json:"remember"`
}

type profileRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Email string `json:"email" binding:"required,email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	Password        string `json:"password" binding:"required,min=8,max=128"`
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	_, msg, err := h.auth.Register(c.Request.Context(), usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusCreated, messageResponse{Message: "Account created, check your email to confirm it"})
	h.mail.Dispatch(c.Request.Context(), msg)
}

// POST /auth/request-code
func (h *AuthHandler) RequestCode(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.auth.RequestConfirmationCode(c.Request.Context(), req.Email)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, messageResponse{Message: "A new code has been sent to your email"})
	h.mail.Dispatch(c.Request.Context(), msg)
}

// POST /auth/confirm
func (h *AuthHandler) Confirm(c *gin.Context) {
	var req codeRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ConfirmAccount(c.Request.Context(), req.Token); err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, messageResponse{Message: "Account confirmed"})
}

// POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req emailRequest
	if !bindJSON(c, &req) {
		return
	}

	msg, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, messageResponse{Message: "Check your email for instructions"})
	h.mail.Dispatch(c.Request.Context(), msg)
}

// POST /auth/validate-token
func (h *AuthHandler) ValidateToken(c *gin.Context) {
	var req codeRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ValidateResetToken(c.Request.Context(), req.Token); err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, messageResponse{Message: "Valid token, set your new password"})
}

// POST /auth/update-password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var uri codeURI
	if !bindURI(c, &uri) {
		return
	}
	var req newPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), uri.Token, req.Password); err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, messageResponse{Message: "Password updated"})
}

// POST /auth/login
// An unconfirmed account answers 403 and is mailed a fresh code.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	s, msg, err := h.auth.Login(c.Request.Context(), usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
		Remember: req.Remember,
	})
	if err != nil {
		respond.Error(c, h.logger, err)
		h.mail.Dispatch(c.Request.Context(), msg)
		return
	}

	h.setRefreshCookie(c, s)
	respond.OK(c, http.StatusOK, accessTokenResponse{AccessToken: s.AccessToken})
}

// POST /auth/refresh
// Any failure clears the cookie so the client stops retrying with it.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, err := c.Cookie(RefreshCookieName)
	if err != nil {
		raw = ""
	}

	s, err := h.auth.Refresh(c.Request.Context(), raw)
	if err != nil {
		h.clearRefreshCookie(c)
		respond.Error(c, h.logger, err)
		return
	}

	h.setRefreshCookie(c, s)
	respond.OK(c, http.StatusOK, accessTokenResponse{AccessToken: s.AccessToken})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearRefreshCookie(c)
	respond.OK(c, http.StatusOK, messageResponse{Message: "Logged out"})
}

// GET /auth/user
func (h *AuthHandler) User(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			err = domain.ErrUnauthorized
		}
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, userEnvelope{User: toUserResponse(user)})
}

// PUT /auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, msg, err := h.auth.UpdateProfile(c.Request.Context(), middleware.UserID(c), usecase.UpdateProfileInput{
		Name:  req.Name,
		Email: req.Email,
	})
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, userEnvelope{User: toUserResponse(user)})
	h.mail.Dispatch(c.Request.Context(), msg)
}

// POST /auth/update-email/:token
func (h *AuthHandler) ConfirmEmailChange(c *gin.Context) {
	var uri codeURI
	if !bindURI(c, &uri) {
		return
	}

	user, err := h.auth.ConfirmEmailChange(c.Request.Context(), middleware.UserID(c), uri.Token)
	if err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, userEnvelope{User: toUserResponse(user)})
}

// PUT /auth/update-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), middleware.UserID(c), req.CurrentPassword, req.Password); err != nil {
		respond.Error(c, h.logger, err)
		return
	}

	respond.OK(c, http.StatusOK, messageResponse{Message: "Password updated"})
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, s *usecase.Session) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, s.RefreshToken, int(s.RefreshTTL.Seconds()),
		RefreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, "", -1, RefreshCookiePath, h.cookie.Domain, h.cookie.Secure, true)
}
