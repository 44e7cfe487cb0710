package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
	"github.com/ErlanBelekov/uptask-api/internal/email"
	"github.com/ErlanBelekov/uptask-api/internal/metrics"
	"github.com/ErlanBelekov/uptask-api/internal/repository"
	"github.com/ErlanBelekov/uptask-api/internal/session"
)

const DefaultTokenTTL = 30 * time.Minute

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, encoded string) (bool, error)
	NeedsRehash(encoded string) (bool, error)
}

type SessionIssuer interface {
	IssueAccess(userID string) (string, error)
	IssueRefresh(userID string, class session.Class) (string, error)
	Verify(raw string) (*session.Claims, error)
	TTL(class session.Class) time.Duration
}

type MailComposer interface {
	VerifyEmail(to, name, code string) (*email.Message, error)
	ResetPassword(to, name, code string) (*email.Message, error)
	ChangeEmail(to, name, code string) (*email.Message, error)
}

// Session is the result of a successful login or refresh.
type Session struct {
	AccessToken  string
	RefreshToken string
	RefreshClass session.Class
	RefreshTTL   time.Duration
}

type AuthDeps struct {
	Users    repository.UserRepository
	Tokens   repository.TokenRepository
	Tx       repository.Transactor
	Hasher   PasswordHasher
	Sessions SessionIssuer
	Mail     MailComposer
}

// AuthUsecase sequences the account lifecycle: registration, confirmation,
// login, refresh, password reset and email change.
//
// Methods that produce an email return it instead of sending it. The caller
// dispatches the message after writing its response.
type AuthUsecase struct {
	users    repository.UserRepository
	tokens   repository.TokenRepository
	tx       repository.Transactor
	hasher   PasswordHasher
	sessions SessionIssuer
	mail     MailComposer
	tokenTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

func NewAuthUsecase(deps AuthDeps, tokenTTL time.Duration, logger *slog.Logger) *AuthUsecase {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	return &AuthUsecase{
		users:    deps.Users,
		tokens:   deps.Tokens,
		tx:       deps.Tx,
		hasher:   deps.Hasher,
		sessions: deps.Sessions,
		mail:     deps.Mail,
		tokenTTL: tokenTTL,
		now:      time.Now,
		logger:   logger.With("component", "auth_usecase"),
	}
}

// WithClock replaces the time source. Used by tests.
func (u *AuthUsecase) WithClock(now func() time.Time) *AuthUsecase {
	u.now = now
	return u
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates an unconfirmed account and its first verifyEmail code.
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (_ *domain.User, _ *email.Message, err error) {
	defer record("register", &err)

	addr := domain.NormalizeEmail(in.Email)
	if _, err = u.users.FindByEmail(ctx, addr); err == nil {
		return nil, nil, domain.ErrUserAlreadyExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	hash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        addr,
		PasswordHash: hash,
	}

	var code string
	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := u.users.Create(ctx, user); err != nil {
			return err
		}
		var err error
		code, err = u.issueToken(ctx, user.ID, domain.TokenVerifyEmail, nil)
		return err
	})
	if err != nil {
		return nil, nil, wrapErr("register", err)
	}

	return user, u.compose(ctx, func() (*email.Message, error) {
		return u.mail.VerifyEmail(user.Email, user.Name, code)
	}), nil
}

// RequestConfirmationCode replaces any pending verifyEmail code with a new one.
func (u *AuthUsecase) RequestConfirmationCode(ctx context.Context, addr string) (_ *email.Message, err error) {
	defer record("request_code", &err)

	user, err := u.users.FindByEmail(ctx, domain.NormalizeEmail(addr))
	if err != nil {
		return nil, wrapErr("find user", err)
	}
	if user.Confirmed {
		return nil, domain.ErrUserAlreadyConfirmed
	}

	code, err := u.issueTokenTx(ctx, user.ID, domain.TokenVerifyEmail, nil)
	if err != nil {
		return nil, err
	}
	return u.compose(ctx, func() (*email.Message, error) {
		return u.mail.VerifyEmail(user.Email, user.Name, code)
	}), nil
}

// ConfirmAccount consumes a verifyEmail code and marks its owner confirmed.
func (u *AuthUsecase) ConfirmAccount(ctx context.Context, code string) (err error) {
	defer record("confirm", &err)

	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		tok, err := u.tokens.Consume(ctx, code, domain.TokenVerifyEmail, u.now())
		if err != nil {
			return err
		}
		return u.users.SetConfirmed(ctx, tok.UserID)
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrTokenInvalid
	}
	return wrapErr("confirm account", err)
}

// ForgotPassword issues a resetPassword code. Only confirmed accounts may
// reset their password.
func (u *AuthUsecase) ForgotPassword(ctx context.Context, addr string) (_ *email.Message, err error) {
	defer record("forgot_password", &err)

	user, err := u.users.FindByEmail(ctx, domain.NormalizeEmail(addr))
	if err != nil {
		return nil, wrapErr("find user", err)
	}
	if !user.Confirmed {
		return nil, domain.ErrUserNotConfirmed
	}

	code, err := u.issueTokenTx(ctx, user.ID, domain.TokenResetPassword, nil)
	if err != nil {
		return nil, err
	}
	return u.compose(ctx, func() (*email.Message, error) {
		return u.mail.ResetPassword(user.Email, user.Name, code)
	}), nil
}

// ValidateResetToken reports whether code is a live resetPassword code
// without consuming it.
func (u *AuthUsecase) ValidateResetToken(ctx context.Context, code string) error {
	_, err := u.tokens.FindActive(ctx, code, domain.TokenResetPassword, u.now())
	return wrapErr("find token", err)
}

// ResetPassword consumes a resetPassword code and sets a new password.
func (u *AuthUsecase) ResetPassword(ctx context.Context, code, newPassword string) (err error) {
	defer record("reset_password", &err)

	hash, err := u.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		tok, err := u.tokens.Consume(ctx, code, domain.TokenResetPassword, u.now())
		if err != nil {
			return err
		}
		return u.users.UpdatePassword(ctx, tok.UserID, hash)
	})
	if errors.Is(err, domain.ErrUserNotFound) {
		return domain.ErrTokenInvalid
	}
	return wrapErr("reset password", err)
}

type LoginInput struct {
	Email    string
	Password string
	Remember bool
}

// Login checks credentials and mints a session. For an unconfirmed account it
// issues a fresh verifyEmail code and returns its mail together with
// domain.ErrUserNotConfirmed; the password is not checked in that case.
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (_ *Session, _ *email.Message, err error) {
	defer record("login", &err)

	user, err := u.users.FindByEmail(ctx, domain.NormalizeEmail(in.Email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("find user: %w", err)
	}

	if !user.Confirmed {
		code, err := u.issueTokenTx(ctx, user.ID, domain.TokenVerifyEmail, nil)
		if err != nil {
			return nil, nil, err
		}
		msg := u.compose(ctx, func() (*email.Message, error) {
			return u.mail.VerifyEmail(user.Email, user.Name, code)
		})
		return nil, msg, domain.ErrUserNotConfirmed
	}

	ok, err := u.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, nil, domain.ErrInvalidCredentials
	}

	u.upgradeHash(ctx, user, in.Password)

	s, err := u.issueSession(user.ID, session.RefreshClass(in.Remember))
	if err != nil {
		return nil, nil, err
	}
	return s, nil, nil
}

// Refresh verifies a refresh token and rotates both tokens, keeping the
// original refresh class. Earlier refresh tokens stay valid until they expire.
func (u *AuthUsecase) Refresh(ctx context.Context, refreshToken string) (_ *Session, err error) {
	defer record("refresh", &err)

	if refreshToken == "" {
		return nil, domain.ErrTokenNotProvided
	}

	claims, err := u.sessions.Verify(refreshToken)
	if err != nil || !claims.Type.IsRefresh() {
		return nil, domain.ErrTokenInvalid
	}

	if _, err := u.users.FindByID(ctx, claims.UserID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	return u.issueSession(claims.UserID, claims.Type)
}

func (u *AuthUsecase) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := u.users.FindByID(ctx, userID)
	return user, wrapErr("find user", err)
}

type UpdateProfileInput struct {
	Name  string
	Email string
}

// UpdateProfile renames the user immediately. A different email is not
// applied; a changeEmail code is mailed to the new address instead.
func (u *AuthUsecase) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (_ *domain.User, _ *email.Message, err error) {
	defer record("update_profile", &err)

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, wrapErr("find user", err)
	}

	name := strings.TrimSpace(in.Name)
	addr := domain.NormalizeEmail(in.Email)
	emailChanged := addr != "" && addr != user.Email

	if emailChanged {
		if err := u.ensureEmailFree(ctx, addr, user.ID); err != nil {
			return nil, nil, err
		}
	}

	var code string
	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		if name != "" && name != user.Name {
			if err := u.users.UpdateName(ctx, user.ID, name); err != nil {
				return err
			}
			user.Name = name
		}
		if !emailChanged {
			return nil
		}
		var err error
		code, err = u.issueToken(ctx, user.ID, domain.TokenChangeEmail, &addr)
		return err
	})
	if err != nil {
		return nil, nil, wrapErr("update profile", err)
	}

	if !emailChanged {
		return user, nil, nil
	}
	return user, u.compose(ctx, func() (*email.Message, error) {
		return u.mail.ChangeEmail(addr, user.Name, code)
	}), nil
}

// ConfirmEmailChange consumes a changeEmail code owned by userID and applies
// the pending address.
func (u *AuthUsecase) ConfirmEmailChange(ctx context.Context, userID, code string) (_ *domain.User, err error) {
	defer record("confirm_email_change", &err)

	err = u.tx.WithinTx(ctx, func(ctx context.Context) error {
		tok, err := u.tokens.ConsumeForUser(ctx, userID, code, domain.TokenChangeEmail, u.now())
		if err != nil {
			return err
		}
		if tok.Payload == nil {
			return domain.ErrTokenInvalid
		}
		if err := u.ensureEmailFree(ctx, *tok.Payload, userID); err != nil {
			return err
		}
		return u.users.UpdateEmail(ctx, userID, *tok.Payload)
	})
	if err != nil {
		return nil, wrapErr("confirm email change", err)
	}

	return u.CurrentUser(ctx, userID)
}

// ChangePassword requires the current password even though the caller is
// already authenticated.
func (u *AuthUsecase) ChangePassword(ctx context.Context, userID, current, next string) (err error) {
	defer record("change_password", &err)

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return wrapErr("find user", err)
	}

	ok, err := u.hasher.Verify(current, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domain.ErrInvalidCurrentPassword
	}

	hash, err := u.hasher.Hash(next)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return wrapErr("update password", u.users.UpdatePassword(ctx, user.ID, hash))
}

func (u *AuthUsecase) ensureEmailFree(ctx context.Context, addr, userID string) error {
	other, err := u.users.FindByEmail(ctx, addr)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("find user: %w", err)
	case other.ID != userID:
		return domain.ErrUserAlreadyExists
	}
	return nil
}

// issueToken drops every code of tokenType the user holds and stores a new
// one. Call it inside a transaction.
func (u *AuthUsecase) issueToken(ctx context.Context, userID string, tokenType domain.TokenType, payload *string) (string, error) {
	if !tokenType.Valid() {
		return "", fmt.Errorf("unknown token type %q", tokenType)
	}
	if err := u.tokens.DeleteByUserAndType(ctx, userID, tokenType); err != nil {
		return "", fmt.Errorf("invalidate tokens: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return "", err
	}

	tok := &domain.Token{
		Code:      code,
		Type:      tokenType,
		UserID:    userID,
		Payload:   payload,
		ExpiresAt: u.now().Add(u.tokenTTL),
	}
	if err := u.tokens.Create(ctx, tok); err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(tokenType)).Inc()
	return code, nil
}

func (u *AuthUsecase) issueTokenTx(ctx context.Context, userID string, tokenType domain.TokenType, payload *string) (string, error) {
	var code string
	err := u.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		code, err = u.issueToken(ctx, userID, tokenType, payload)
		return err
	})
	return code, err
}

func (u *AuthUsecase) issueSession(userID string, class session.Class) (*Session, error) {
	access, err := u.sessions.IssueAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := u.sessions.IssueRefresh(userID, class)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshClass: class,
		RefreshTTL:   u.sessions.TTL(class),
	}, nil
}

// upgradeHash re-hashes the password when the stored hash uses weaker
// parameters. Failures are logged only.
func (u *AuthUsecase) upgradeHash(ctx context.Context, user *domain.User, plain string) {
	stale, err := u.hasher.NeedsRehash(user.PasswordHash)
	if err != nil || !stale {
		return
	}
	hash, err := u.hasher.Hash(plain)
	if err == nil {
		err = u.users.UpdatePassword(ctx, user.ID, hash)
	}
	if err != nil {
		u.logger.WarnContext(ctx, "password rehash failed", "user_id", user.ID, "error", err)
	}
}

// compose renders a mail. A rendering failure is logged and yields no mail
// so that it cannot fail the request.
func (u *AuthUsecase) compose(ctx context.Context, render func() (*email.Message, error)) *email.Message {
	msg, err := render()
	if err != nil {
		u.logger.ErrorContext(ctx, "render mail", "error", err)
		return nil
	}
	return msg
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// wrapErr passes domain sentinels through untouched and adds op context to
// anything else.
func wrapErr(op string, err error) error {
	if err == nil || isDomainErr(err) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isDomainErr(err error) bool {
	for _, target := range []error{
		domain.ErrUserNotFound, domain.ErrUserAlreadyExists, domain.ErrUserAlreadyConfirmed,
		domain.ErrUserNotConfirmed, domain.ErrInvalidCredentials, domain.ErrInvalidCurrentPassword,
		domain.ErrTokenInvalid, domain.ErrTokenNotProvided,
	} {
		if err == target {
			return true
		}
	}
	return false
}

func record(op string, err *error) {
	outcome := "success"
	if *err != nil {
		outcome = "failure"
	}
	metrics.AuthEventsTotal.WithLabelValues(op, outcome).Inc()
}
