package domain

import "errors"

var (
	ErrUserNotFound           = errors.New("user not found")
	ErrUserAlreadyExists      = errors.New("user already exists")
	ErrUserAlreadyConfirmed   = errors.New("user is already confirmed")
	ErrUserNotConfirmed       = errors.New("user is not confirmed")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrInvalidCurrentPassword = errors.New("current password is incorrect")
	ErrTokenInvalid           = errors.New("token is invalid or expired")
	ErrTokenNotProvided       = errors.New("token not provided")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrUnauthorizedAction     = errors.New("action not allowed")

	ErrProjectNotFound   = errors.New("project not found")
	ErrTaskNotFound      = errors.New("task not found")
	ErrNoteNotFound      = errors.New("note not found")
	ErrUserAlreadyInTeam = errors.New("user is already in the team")
	ErrUserNotInTeam     = errors.New("user is not in the team")
	ErrCannotAddManager  = errors.New("manager cannot be added to the team")
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrUnavailable marks failures of the store or another downstream
	// dependency. Callers wrap the cause with it.
	ErrUnavailable = errors.New("service unavailable")
)
