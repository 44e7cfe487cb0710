package respond

import (
	"errors"
	"net/http"

	"github.com/ErlanBelekov/uptask-api/internal/domain"
)

var (
	ErrRouteNotFound = errors.New("route not found")
	ErrRateLimited   = errors.New("too many requests")
)

type mapping struct {
	target  error
	status  int
	code    string
	message string
}

// table is matched in order with errors.Is; the first hit wins.
var table = []mapping{
	{domain.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND", "User not found"},
	{domain.ErrProjectNotFound, http.StatusNotFound, "PROJECT_NOT_FOUND", "Project not found"},
	{domain.ErrTaskNotFound, http.StatusNotFound, "TASK_NOT_FOUND", "Task not found"},
	{domain.ErrNoteNotFound, http.StatusNotFound, "NOTE_NOT_FOUND", "Note not found"},
	{domain.ErrUserNotInTeam, http.StatusNotFound, "USER_NOT_IN_TEAM", "User is not a member of this project"},
	{ErrRouteNotFound, http.StatusNotFound, "NOT_FOUND", "Route not found"},

	{domain.ErrUserAlreadyExists, http.StatusConflict, "USER_ALREADY_EXISTS", "User already exists"},
	{domain.ErrUserAlreadyConfirmed, http.StatusConflict, "USER_ALREADY_CONFIRMED", "User is already confirmed"},
	{domain.ErrUserAlreadyInTeam, http.StatusConflict, "USER_ALREADY_IN_TEAM", "User is already a member of this project"},
	{domain.ErrCannotAddManager, http.StatusConflict, "CANNOT_ADD_MANAGER_TO_TEAM", "The manager cannot be added to the team"},

	{domain.ErrTokenNotProvided, http.StatusUnauthorized, "TOKEN_NOT_PROVIDED", "Token not provided"},
	{domain.ErrTokenInvalid, http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"},
	{domain.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid credentials"},
	{domain.ErrInvalidCurrentPassword, http.StatusUnauthorized, "INVALID_CURRENT_PASSWORD", "Current password is incorrect"},
	{domain.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized"},
	{domain.ErrUnauthorizedAction, http.StatusForbidden, "UNAUTHORIZED_ACTION", "You are not allowed to perform this action"},
	{domain.ErrUserNotConfirmed, http.StatusForbidden, "USER_NOT_CONFIRMED", "User is not confirmed. A new verification code has been sent to your email"},

	{domain.ErrInvalidTaskStatus, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "Invalid task status"},
	{ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, try again later"},
	{domain.ErrUnavailable, http.StatusServiceUnavailable, "DB_CONSULT_ERROR", "Service temporarily unavailable"},
}

var internal = mapping{status: http.StatusInternalServerError, code: "INTERNAL", message: "Internal server error"}

func lookup(err error) mapping {
	for _, m := range table {
		if errors.Is(err, m.target) {
			return m
		}
	}
	return internal
}
