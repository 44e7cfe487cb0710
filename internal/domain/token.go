package domain

import "time"

type TokenType string

const (
	TokenVerifyEmail   TokenType = "verifyEmail"
	TokenChangeEmail   TokenType = "changeEmail"
	TokenResetPassword TokenType = "resetPassword"
	TokenTwoFactorAuth TokenType = "twoFactorAuth"
	TokenMagicLink     TokenType = "magicLink"
)

func (t TokenType) Valid() bool {
	switch t {
	case TokenVerifyEmail, TokenChangeEmail, TokenResetPassword, TokenTwoFactorAuth, TokenMagicLink:
		return true
	}
	return false
}

// Token is a single-use, typed, expiring code proving control of an email
// address (or of a pending action).
type Token struct {
	ID        string
	Code      string
	Type      TokenType
	UserID    string
	Payload   *string // pending email for TokenChangeEmail
	ExpiresAt time.Time
	CreatedAt time.Time
}
